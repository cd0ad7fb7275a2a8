package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/basket/internal/config"
	"github.com/mtlprog/basket/internal/database"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "basket",
		Usage: "tokenized multi-asset index funds",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and background workers",
				Action: func(c *cli.Context) error { return serve(c.Context, config.Load()) },
			},
			{
				Name:  "migrate",
				Usage: "apply database migrations and exit",
				Action: func(c *cli.Context) error {
					pool, err := openDatabase(c.Context, config.Load())
					if err != nil {
						return err
					}
					pool.Close()
					log.Println("Migrations applied")
					return nil
				},
			},
			{
				Name:  "export",
				Usage: "write the latest stored snapshot of every fund to an xlsx workbook",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Value:   "basket-report.xlsx",
						Usage:   "output file",
					},
				},
				Action: func(c *cli.Context) error { return exportReport(c.Context, config.Load(), c.String("out")) },
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// openDatabase connects to Postgres and applies pending migrations.
func openDatabase(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	migrationsSub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating migrations sub-fs: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return pool, nil
}
