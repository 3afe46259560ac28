package handler

import (
	"strconv"

	"daredo/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupWallet struct {
	container *do.Injector
}

func paging(c echo.Context) (limit, offset int) {
	limit = services.DEFAULT_PAGE_LIMIT
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		limit, _ = strconv.Atoi(limitStr)
		if limit > services.MAX_PAGE_LIMIT {
			limit = services.MAX_PAGE_LIMIT
		}
		if limit <= 0 {
			limit = services.DEFAULT_PAGE_LIMIT
		}
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 0 {
		page = 0
	}

	return limit, page * limit
}

func (gr *groupWallet) Me(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceWallet, err := do.Invoke[*services.ServiceWallet](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	summary, err := serviceWallet.GetSummary(ctx, user.ID)
	return httpx.RestAbort(c, summary, err)
}

func (gr *groupWallet) Transactions(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	limit, offset := paging(c)

	serviceWallet, err := do.Invoke[*services.ServiceWallet](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	transactions, err := serviceWallet.GetTransactions(ctx, user.ID, limit, offset)
	return httpx.RestAbort(c, transactions, err)
}

func (gr *groupWallet) Badges(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceWallet, err := do.Invoke[*services.ServiceWallet](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	badges, err := serviceWallet.GetBadges(ctx, user.ID)
	return httpx.RestAbort(c, badges, err)
}

type withdrawRequest struct {
	Amount int `json:"amount"`
}

func (gr *groupWallet) Withdraw(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var req withdrawRequest
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceSettlement, err := do.Invoke[*services.ServiceSettlement](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	transaction, err := serviceSettlement.RequestWithdraw(ctx, user.ID, req.Amount)
	return httpx.RestAbort(c, transaction, err)
}

type topupCallbackRequest struct {
	Reference string `json:"reference"`
}

// TopupCallback is the payment-provider webhook. The reference is verified
// against the provider before any database transaction opens; redelivery is
// harmless because the credit is keyed on the reference.
func (gr *groupWallet) TopupCallback(c echo.Context) error {
	ctx := c.Request().Context()

	var req topupCallbackRequest
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	paymentClient, err := do.Invoke[*services.PaymentVerifier](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	verification, err := paymentClient.Verify(req.Reference)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	serviceSettlement, err := do.Invoke[*services.ServiceSettlement](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	transaction, err := serviceSettlement.CreditExternalPayment(ctx, verification.UserID, verification.Amount, verification.Reference)
	return httpx.RestAbort(c, transaction, err)
}
