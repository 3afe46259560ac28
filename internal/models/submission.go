package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	SubmissionPending  = "pending"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"
)

// Submission is one proof-of-work event. It is created pending and reviewed
// exactly once; the pending precondition is re-checked inside the settlement
// transaction so two concurrent reviews cannot both apply.
type Submission struct {
	bun.BaseModel `bun:"table:submission"`
	ID            string     `bun:"id,pk" json:"id"`
	ContractID    int64      `bun:"contract_id" json:"contract_id"`
	DailyCode     string     `bun:"daily_code" json:"daily_code"`
	Note          string     `bun:"note" json:"note"`
	ImageURL      string     `bun:"image_url" json:"image_url"`
	Status        string     `bun:"status,default:'pending'" json:"status"`
	ReviewerNote  string     `bun:"reviewer_note" json:"reviewer_note"`
	ReviewedAt    *time.Time `bun:"reviewed_at" json:"reviewed_at"`
	CreatedAt     time.Time  `bun:"created_at,default:current_timestamp" json:"created_at"`
}
