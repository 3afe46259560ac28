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

type groupReward struct {
	container *do.Injector
}

func (gr *groupReward) Catalog(c echo.Context) error {
	ctx := c.Request().Context()

	serviceReward, err := do.Invoke[*services.ServiceReward](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	rewards, err := serviceReward.GetCatalog(ctx)
	return httpx.RestAbort(c, rewards, err)
}

type redeemRequest struct {
	Address string `json:"address"`
}

func (gr *groupReward) Redeem(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	rewardID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	limiter, err := do.Invoke[interfaces.Limiter](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}
	if err := limiter.Allow(ctx, services.RateKeyRedeem(user.ID), redis_rate.PerMinute(services.REDEEM_RATE_LIMIT_PER_MINUTE)); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.RateLimiting))
	}

	var req redeemRequest
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceSettlement, err := do.Invoke[*services.ServiceSettlement](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	redemption, err := serviceSettlement.RedeemReward(ctx, rewardID, user.ID, req.Address)
	return httpx.RestAbort(c, redemption, err)
}

func (gr *groupReward) Redemptions(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceReward, err := do.Invoke[*services.ServiceReward](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	redemptions, err := serviceReward.GetRedemptions(ctx, user.ID)
	return httpx.RestAbort(c, redemptions, err)
}
