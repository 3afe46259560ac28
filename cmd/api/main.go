package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"daredo/internal/api/handler"
	"daredo/internal/interfaces"
	"daredo/internal/pkg/caching"
	"daredo/internal/pkg/limiter"
	"daredo/internal/services"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	vs, err := env.EnvsRequired(
		"JWT_SECRET",
		"DB_DSN",
		"PAYMENT_API_URL",
	)
	if err != nil {
		log.Fatal(err)
	}

	container := NewContainer(vs)

	app := &cli.App{
		Name: "api",
		Commands: []*cli.Command{
			commandServer(container),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandServer(container *do.Injector) *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "start the web server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Value: "0.0.0.0:8080",
				Usage: "serve address",
			},
		},
		Action: func(c *cli.Context) error {
			vs := do.MustInvokeNamed[map[string]string](container, "envs")
			router, err := handler.New(&handler.Config{
				Container: container,
				Mode:      vs["API_MODE"],
				Origins:   strings.Split(vs["API_ORIGINS"], ","),
			})
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:    c.String("addr"),
				Handler: router,
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errWg, errCtx := errgroup.WithContext(ctx)

			errWg.Go(func() error {
				log.Printf("ListenAndServe: %s (%s)\n", c.String("addr"), vs["API_MODE"])
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			})

			errWg.Go(func() error {
				<-errCtx.Done()
				return srv.Shutdown(context.TODO())
			})

			return errWg.Wait()
		},
	}
}

func NewContainer(vs map[string]string) *do.Injector {
	injector := do.New()
	vs["API_MODE"] = os.Getenv("API_MODE")
	vs["API_ORIGINS"] = os.Getenv("API_ORIGINS")
	vs["PAYMENT_API_KEY"] = os.Getenv("PAYMENT_API_KEY")

	if vs["API_MODE"] == "" {
		vs["API_MODE"] = "production"
	}
	if vs["API_ORIGINS"] == "" {
		vs["API_ORIGINS"] = "*"
	}

	do.ProvideNamedValue(injector, "envs", vs)

	do.Provide(injector, func(i *do.Injector) (*bun.DB, error) {
		sqldb := sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(os.Getenv("DB_DSN")),
			pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
		))

		return bun.NewDB(sqldb, pgdialect.New()), nil
	})

	do.ProvideNamed(injector, "db-readonly", func(i *do.Injector) (*bun.DB, error) {
		dsn := os.Getenv("DB_DSN_READONLY")
		if dsn == "" {
			// no replica configured, reads go to the primary
			return do.Invoke[*bun.DB](i)
		}

		sqldb := sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(dsn),
			pgdriver.WithPassword(os.Getenv("DB_PASSWORD_READONLY")),
		))

		return bun.NewDB(sqldb, pgdialect.New()), nil
	})

	do.ProvideNamed(injector, "redis-db", func(i *do.Injector) (redis.UniversalClient, error) {
		return db.InitRedis(&db.RedisConfig{
			URL: os.Getenv("REDIS_DB"),
		})
	})

	do.ProvideNamed(injector, "redis-cache", func(i *do.Injector) (redis.UniversalClient, error) {
		return db.InitRedis(&db.RedisConfig{
			URL: os.Getenv("REDIS_CACHE"),
		})
	})

	do.ProvideNamed(injector, "redis-mutex", func(i *do.Injector) (redis.UniversalClient, error) {
		return db.InitRedis(&db.RedisConfig{
			URL: os.Getenv("REDIS_MUTEX"),
		})
	})

	do.ProvideNamed(injector, "redis-limiter", func(i *do.Injector) (redis.UniversalClient, error) {
		return db.InitRedis(&db.RedisConfig{
			URL: os.Getenv("REDIS_LIMITER"),
		})
	})

	do.Provide(injector, func(i *do.Injector) (*redsync.Redsync, error) {
		client, err := do.InvokeNamed[redis.UniversalClient](i, "redis-mutex")
		if err != nil {
			return nil, err
		}

		return redsync.New(goredis.NewPool(client)), nil
	})

	do.Provide(injector, func(i *do.Injector) (caching.Cache, error) {
		client, err := do.InvokeNamed[redis.UniversalClient](i, "redis-cache")
		if err != nil {
			return nil, err
		}

		return caching.NewCacheRedis(client, false)
	})

	do.Provide(injector, func(i *do.Injector) (caching.ReadOnlyCache, error) {
		client, err := do.InvokeNamed[redis.UniversalClient](i, "redis-cache")
		if err != nil {
			return nil, err
		}

		return caching.NewCacheRedis(client, true)
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Limiter, error) {
		client, err := do.InvokeNamed[redis.UniversalClient](i, "redis-limiter")
		if err != nil {
			return nil, err
		}

		return limiter.NewRedisLimiter(client), nil
	})

	do.Provide(injector, services.NewAuthentication)
	do.Provide(injector, services.NewServiceSubscription)
	do.Provide(injector, func(i *do.Injector) (interfaces.TierProvider, error) {
		return do.Invoke[*services.ServiceSubscription](i)
	})
	do.Provide(injector, services.NewServiceSettlement)
	do.Provide(injector, services.NewServiceWallet)
	do.Provide(injector, services.NewServiceContract)
	do.Provide(injector, services.NewServiceReward)
	do.Provide(injector, services.NewPaymentVerifier)

	return injector
}
