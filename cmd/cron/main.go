package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	"daredo/internal/interfaces"
	"daredo/internal/pkg/caching"
	"daredo/internal/services"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
)

const subscriberPageSize = 200

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	app := &cli.App{
		Name: "cronjob",
		Commands: []*cli.Command{
			commandCronjob(),
			commandRunOnce(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandCronjob() *cli.Command {
	return &cli.Command{
		Name: "cron",
		Action: func(c *cli.Context) error {
			container := newContainer()

			scheduler := cron.New()
			// first day of the month, shortly after midnight UTC
			_, err := scheduler.AddFunc("10 0 1 * *", func() {
				if err := grantMonthlyBonuses(context.Background(), container); err != nil {
					log.Println("monthly bonus run failed:", err)
				}
			})
			if err != nil {
				return err
			}

			scheduler.Run()
			return nil
		},
	}
}

func commandRunOnce() *cli.Command {
	return &cli.Command{
		Name:  "monthly-bonus",
		Usage: "run the monthly bonus grant once and exit",
		Action: func(c *cli.Context) error {
			return grantMonthlyBonuses(context.Background(), newContainer())
		},
	}
}

// grantMonthlyBonuses pages through paying subscribers and grants each their
// tier allowance. The grant itself is idempotent per user and month, so a
// crashed run can simply be restarted.
func grantMonthlyBonuses(ctx context.Context, container *do.Injector) error {
	serviceSubscription, err := do.Invoke[*services.ServiceSubscription](container)
	if err != nil {
		return err
	}

	serviceSettlement, err := do.Invoke[*services.ServiceSettlement](container)
	if err != nil {
		return err
	}

	month := time.Now().UTC().Format("2006-01")
	granted := 0

	for offset := 0; ; offset += subscriberPageSize {
		users, err := serviceSubscription.ListSubscribers(ctx, subscriberPageSize, offset)
		if err != nil {
			return err
		}
		if len(users) == 0 {
			break
		}

		for _, user := range users {
			if err := serviceSettlement.GrantMonthlyBonus(ctx, user.ID, month); err != nil {
				log.Printf("monthly bonus for %s failed: %v\n", user.ID, err)
				continue
			}
			granted++
		}
	}

	log.Printf("monthly bonus run done, %d users, month %s\n", granted, month)
	return nil
}

func newContainer() *do.Injector {
	injector := do.New()

	do.Provide(injector, func(i *do.Injector) (*bun.DB, error) {
		sqldb := sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(os.Getenv("DB_DSN")),
			pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
		))

		return bun.NewDB(sqldb, pgdialect.New()), nil
	})

	do.ProvideNamed(injector, "redis-mutex", func(i *do.Injector) (redis.UniversalClient, error) {
		return db.InitRedis(&db.RedisConfig{
			URL: os.Getenv("REDIS_MUTEX"),
		})
	})

	do.ProvideNamed(injector, "redis-cache", func(i *do.Injector) (redis.UniversalClient, error) {
		return db.InitRedis(&db.RedisConfig{
			URL: os.Getenv("REDIS_CACHE"),
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

	do.Provide(injector, services.NewServiceSubscription)
	do.Provide(injector, func(i *do.Injector) (interfaces.TierProvider, error) {
		return do.Invoke[*services.ServiceSubscription](i)
	})
	do.Provide(injector, services.NewServiceSettlement)

	return injector
}
