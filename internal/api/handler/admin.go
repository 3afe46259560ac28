package handler

import (
	"strconv"

	"daredo/internal/interfaces"
	"daredo/internal/services"

	"github.com/go-redis/redis_rate/v10"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupAdmin struct {
	container *do.Injector
}

type reviewRequest struct {
	Decision string `json:"decision"`
	Note     string `json:"note"`
}

func (gr *groupAdmin) ReviewSubmission(c echo.Context) error {
	ctx := c.Request().Context()

	admin, err := ResolveAdmin(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	limiter, err := do.Invoke[interfaces.Limiter](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}
	if err := limiter.Allow(ctx, services.RateKeyReview(admin.ID), redis_rate.PerMinute(services.REVIEW_RATE_LIMIT_PER_MINUTE)); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.RateLimiting))
	}

	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceSettlement, err := do.Invoke[*services.ServiceSettlement](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	result, err := serviceSettlement.ReviewSubmission(ctx, c.Param("id"), req.Decision, req.Note)
	return httpx.RestAbort(c, result, err)
}

func (gr *groupAdmin) PendingSubmissions(c echo.Context) error {
	ctx := c.Request().Context()

	if _, err := ResolveAdmin(ctx, gr.container); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	limit, offset := paging(c)

	serviceContract, err := do.Invoke[*services.ServiceContract](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	submissions, err := serviceContract.ListPendingSubmissions(ctx, limit, offset)
	return httpx.RestAbort(c, submissions, err)
}

func (gr *groupAdmin) RefundWithdrawal(c echo.Context) error {
	ctx := c.Request().Context()

	if _, err := ResolveAdmin(ctx, gr.container); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	transactionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceSettlement, err := do.Invoke[*services.ServiceSettlement](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	transaction, err := serviceSettlement.RefundWithdraw(ctx, transactionID)
	return httpx.RestAbort(c, transaction, err)
}

func (gr *groupAdmin) PlatformWallet(c echo.Context) error {
	ctx := c.Request().Context()

	if _, err := ResolveAdmin(ctx, gr.container); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceWallet, err := do.Invoke[*services.ServiceWallet](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	wallet, err := serviceWallet.PlatformSummary(ctx)
	return httpx.RestAbort(c, wallet, err)
}

func (gr *groupAdmin) AuditWallet(c echo.Context) error {
	ctx := c.Request().Context()

	if _, err := ResolveAdmin(ctx, gr.container); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceWallet, err := do.Invoke[*services.ServiceWallet](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	audit, err := serviceWallet.Audit(ctx, c.Param("user-id"))
	return httpx.RestAbort(c, audit, err)
}
