package handler

import (
	"strconv"

	"daredo/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupContract struct {
	container *do.Injector
}

type stakeRequest struct {
	Goal         string `json:"goal"`
	DurationDays int    `json:"duration_days"`
	Deadline     string `json:"deadline"`
	PointsStaked int    `json:"points_staked"`
	MoneyStaked  int    `json:"money_staked"`
}

func (gr *groupContract) Stake(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var req stakeRequest
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceSettlement, err := do.Invoke[*services.ServiceSettlement](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	contract, err := serviceSettlement.Stake(ctx, user.ID, req.Goal, req.DurationDays, req.Deadline, req.PointsStaked, req.MoneyStaked)
	return httpx.RestAbort(c, contract, err)
}

func (gr *groupContract) List(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	limit, offset := paging(c)

	serviceContract, err := do.Invoke[*services.ServiceContract](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	contracts, err := serviceContract.ListContracts(ctx, user.ID, limit, offset)
	return httpx.RestAbort(c, contracts, err)
}

func (gr *groupContract) Show(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	contractID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceContract, err := do.Invoke[*services.ServiceContract](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	contract, err := serviceContract.GetContract(ctx, contractID, user.ID)
	return httpx.RestAbort(c, contract, err)
}

func (gr *groupContract) Cancel(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	contractID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceSettlement, err := do.Invoke[*services.ServiceSettlement](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	contract, err := serviceSettlement.CancelContract(ctx, contractID, user.ID)
	return httpx.RestAbort(c, contract, err)
}

type submissionRequest struct {
	Note     string `json:"note"`
	ImageURL string `json:"image_url"`
}

func (gr *groupContract) CreateSubmission(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	contractID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	var req submissionRequest
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceContract, err := do.Invoke[*services.ServiceContract](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	submission, err := serviceContract.CreateSubmission(ctx, contractID, user.ID, req.Note, req.ImageURL)
	return httpx.RestAbort(c, submission, err)
}

func (gr *groupContract) DailyCode(c echo.Context) error {
	ctx := c.Request().Context()

	_, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceContract, err := do.Invoke[*services.ServiceContract](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	code, err := serviceContract.TodayCode(ctx)
	return httpx.RestAbort(c, code, err)
}

func (gr *groupContract) UseInsurance(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	contractID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceSettlement, err := do.Invoke[*services.ServiceSettlement](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	err = serviceSettlement.UseInsurance(ctx, contractID, user.ID)
	return httpx.RestAbort(c, nil, err)
}
