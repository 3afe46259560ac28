package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"daredo/internal/datastore"
	"daredo/internal/models"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
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
	app := &cli.App{
		Name: "migrate",
		Commands: []*cli.Command{
			commandMigration(),
			commandSeedRewards(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func getDb() (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(os.Getenv("DB_DSN")),
		pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
	))

	return bun.NewDB(sqldb, pgdialect.New()), nil
}

func commandMigration() *cli.Command {
	return &cli.Command{
		Name: "migrate",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			for _, create := range []func(context.Context, *bun.DB) error{
				datastore.CreateTableUser,
				datastore.CreateTableWallet,
				datastore.CreateTableTransaction,
				datastore.CreateTableContract,
				datastore.CreateTableSubmission,
				datastore.CreateTableStreakInsurance,
				datastore.CreateTableUserBadge,
				datastore.CreateTableReward,
				datastore.CreateTablePlatform,
			} {
				if err := create(ctx, db); err != nil {
					log.Fatal(err)
				}
			}

			log.Println("migration done")
			return nil
		},
	}
}

func commandSeedRewards() *cli.Command {
	return &cli.Command{
		Name: "seed-rewards",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			ten := 10
			rewards := []*models.Reward{
				{Name: "Coffee voucher", Description: "One espresso on us", PointsCost: 500, Active: true},
				{Name: "Gym day pass", Description: "Single-entry partner gym pass", PointsCost: 1500, Stock: &ten, Active: true},
				{Name: "Premium month", Description: "One month of starter tier", PointsCost: 5000, Active: true},
			}

			for _, reward := range rewards {
				if err := datastore.InsertReward(ctx, db, reward); err != nil {
					log.Fatal(err)
				}
			}

			log.Printf("seeded %d rewards\n", len(rewards))
			return nil
		},
	}
}
