package handler

import (
	"net/http"

	"daredo/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do"
)

type Config struct {
	Container *do.Injector
	Mode      string
	Origins   []string
}

func New(cfg *Config) (http.Handler, error) {
	r := echo.New()
	r.Pre(middleware.RemoveTrailingSlash())
	if cfg.Mode == "debug" {
		r.Debug = true
		pprof.Register(r)
	}

	r.JSONSerializer = httpx.SegmentJSONSerializer{}
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339}\t${method}\t${uri}\t${status}\t${latency_human}\n",
	}))
	r.Use(middleware.Recover())

	r.GET("", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	routesAPIv1 := r.Group("/api/v1")
	{
		authentication, err := do.Invoke[*services.Authentication](cfg.Container)
		if err != nil {
			return nil, err
		}

		cors := middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.Origins,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowCredentials: true,
			MaxAge:           60 * 60,
		})

		routesAPIv1.Use(cors)
		routesAPIv1.Use(Authn(authentication)) // Authn will NOT terminate unauthenticated requests.

		ct := groupContract{cfg.Container}
		routesAPIv1.POST("/contracts", ct.Stake)
		routesAPIv1.GET("/contracts", ct.List)
		routesAPIv1.GET("/contracts/:id", ct.Show)
		routesAPIv1.GET("/contracts/daily-code", ct.DailyCode)
		routesAPIv1.POST("/contracts/:id/cancel", ct.Cancel)
		routesAPIv1.POST("/contracts/:id/submissions", ct.CreateSubmission)
		routesAPIv1.POST("/contracts/:id/insurance", ct.UseInsurance)

		w := groupWallet{cfg.Container}
		routesAPIv1.GET("/wallet/me", w.Me)
		routesAPIv1.GET("/wallet/me/transactions", w.Transactions)
		routesAPIv1.GET("/wallet/me/badges", w.Badges)
		routesAPIv1.POST("/wallet/withdraw", w.Withdraw)
		routesAPIv1.POST("/wallet/topup/callback", w.TopupCallback)

		rw := groupReward{cfg.Container}
		routesAPIv1.GET("/rewards", rw.Catalog)
		routesAPIv1.POST("/rewards/:id/redeem", rw.Redeem)
		routesAPIv1.GET("/rewards/redemptions", rw.Redemptions)

		routesAPIv1Admin := routesAPIv1.Group("/admin")
		{
			a := groupAdmin{cfg.Container}
			routesAPIv1Admin.GET("/submissions/pending", a.PendingSubmissions)
			routesAPIv1Admin.POST("/submissions/:id/review", a.ReviewSubmission)
			routesAPIv1Admin.POST("/withdrawals/:id/refund", a.RefundWithdrawal)
			routesAPIv1Admin.GET("/wallets/:user-id/audit", a.AuditWallet)
			routesAPIv1Admin.GET("/platform", a.PlatformWallet)
		}
	}

	return r, nil
}
