package datastore

import (
	"context"
	"time"

	"daredo/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableSubmission(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Submission)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Submission)(nil)).Index("index_submission_contract_id").IfNotExists().Column("contract_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Submission)(nil)).Index("index_submission_status").IfNotExists().Column("status").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertSubmission(ctx context.Context, db bun.IDB, submission *models.Submission) error {
	_, err := db.NewInsert().Model(submission).Exec(ctx)
	return err
}

func FindSubmissionByID(ctx context.Context, db bun.IDB, id string) (*models.Submission, error) {
	var submission models.Submission
	err := db.NewSelect().Model(&submission).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

// FindSubmissionForUpdate locks the submission row so that two concurrent
// reviews serialize; the second one sees a non-pending status and aborts.
func FindSubmissionForUpdate(ctx context.Context, db bun.IDB, id string) (*models.Submission, error) {
	var submission models.Submission
	err := db.NewSelect().Model(&submission).Where("id = ?", id).For("UPDATE").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func MarkSubmissionReviewed(ctx context.Context, db bun.IDB, id string, status string, reviewerNote string, reviewedAt time.Time) error {
	_, err := db.NewUpdate().Model((*models.Submission)(nil)).
		Set("status = ?", status).
		Set("reviewer_note = ?", reviewerNote).
		Set("reviewed_at = ?", reviewedAt).
		Where("id = ?", id).
		Where("status = ?", models.SubmissionPending).
		Exec(ctx)
	return err
}

func ListPendingSubmissions(ctx context.Context, db bun.IDB, limit, offset int) ([]*models.Submission, error) {
	var submissions []*models.Submission
	err := db.NewSelect().Model(&submissions).
		Where("status = ?", models.SubmissionPending).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return submissions, nil
}

func CountSubmissionsByUserAndStatus(ctx context.Context, db bun.IDB, userID string, status string) (int, error) {
	return db.NewSelect().Model((*models.Submission)(nil)).
		Join("JOIN contract AS c ON c.id = submission.contract_id").
		Where("c.user_id = ?", userID).
		Where("submission.status = ?", status).
		Count(ctx)
}

func CountPendingSubmissionsByContract(ctx context.Context, db bun.IDB, contractID int64) (int, error) {
	return db.NewSelect().Model((*models.Submission)(nil)).
		Where("contract_id = ?", contractID).
		Where("status = ?", models.SubmissionPending).
		Count(ctx)
}
