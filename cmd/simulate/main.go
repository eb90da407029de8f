package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/reorder-replay/internal/domain"
	"github.com/andresuchdata/reorder-replay/internal/forecast"
	"github.com/andresuchdata/reorder-replay/internal/reorder"
	"github.com/andresuchdata/reorder-replay/internal/repository/postgres"
	"github.com/andresuchdata/reorder-replay/internal/simulation"
)

const dateLayout = "2006-01-02"

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "simulate",
		Usage: "Replay a historical date range under the automated reorder policy",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a replay for a set of SKUs and print the comparison",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.Int64Flag{
						Name:     "tenant",
						Usage:    "Tenant ID to replay",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "skus",
						Usage:    "Comma-separated SKUs to include",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "start",
						Usage:    "First day of the range (YYYY-MM-DD)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "end",
						Usage:    "Last day of the range (YYYY-MM-DD)",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "auto-place",
						Usage: "Let the policy place orders during the replay",
						Value: true,
					},
					&cli.IntFlag{
						Name:  "lead-time-buffer",
						Usage: "Extra safety buffer in days on top of supplier lead time",
						Value: 0,
					},
					&cli.IntFlag{
						Name:  "min-order-qty",
						Usage: "Minimum quantity per simulated order",
						Value: 1,
					},
					&cli.Float64Flag{
						Name:  "service-level",
						Usage: "Target service level, exclusive between 0 and 1",
						Value: 0.95,
					},
					&cli.IntFlag{
						Name:  "forecast-refresh",
						Usage: "Days between forecast refreshes inside the replay",
						Value: 7,
					},
					&cli.IntFlag{
						Name:  "forecast-horizon",
						Usage: "Forecast horizon in days",
						Value: 30,
					},
					&cli.IntFlag{
						Name:  "forecast-training",
						Usage: "Training window in days for the moving average",
						Value: 56,
					},
					&cli.IntFlag{
						Name:  "default-lead-time",
						Usage: "Fallback lead time in days for SKUs without a supplier",
						Value: 7,
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "How many SKUs to replay in parallel",
						Value: 4,
					},
					&cli.StringFlag{
						Name:  "export-dir",
						Usage: "Write daily_records.csv and item_metrics.csv into this directory",
					},
					&cli.BoolFlag{
						Name:  "daily",
						Usage: "Print the day-by-day comparison rows as well",
					},
				},
				Action: runReplay,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runReplay(c *cli.Context) error {
	req, err := buildRequest(c)
	if err != nil {
		return err
	}

	db, err := sqlx.Connect("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	repo := postgres.NewDBFromConn(db)
	stockRepo := postgres.NewStockRepository(repo)
	salesRepo := postgres.NewSalesRepository(repo)
	productRepo := postgres.NewProductRepository(repo)

	bar := progressbar.Default(int64(len(req.ItemIDs)))

	engine := simulation.NewOrchestrator(
		simulation.Providers{
			Stock:     stockRepo,
			Sales:     salesRepo,
			RealStock: stockRepo,
			Products:  productRepo,
			LeadTimes: productRepo,
			Forecasts: forecast.NewMovingAverage(salesRepo, c.Int("forecast-training")),
		},
		reorder.NewCalculator(),
		simulation.Config{
			ForecastRefreshDays: c.Int("forecast-refresh"),
			ForecastHorizonDays: c.Int("forecast-horizon"),
			DefaultLeadTimeDays: c.Int("default-lead-time"),
			MaxConcurrentItems:  c.Int("concurrency"),
			OnItemComplete: func(string) {
				_ = bar.Add(1)
			},
		},
	)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	result := engine.Run(ctx, req)
	_ = bar.Finish()

	if result.Status != domain.SimulationCompleted {
		return fmt.Errorf("replay failed: %s", result.ErrorMessage)
	}

	printSummary(os.Stdout, result, time.Since(started))
	if c.Bool("daily") {
		printDailyRecords(os.Stdout, result.DailyRecords)
	}

	if dir := c.String("export-dir"); dir != "" {
		if err := writeCSVs(dir, result); err != nil {
			return err
		}
		fmt.Printf("\nCSV export written to %s\n", dir)
	}

	return nil
}

func buildRequest(c *cli.Context) (domain.SimulationRequest, error) {
	start, err := time.Parse(dateLayout, c.String("start"))
	if err != nil {
		return domain.SimulationRequest{}, fmt.Errorf("invalid --start: %w", err)
	}
	end, err := time.Parse(dateLayout, c.String("end"))
	if err != nil {
		return domain.SimulationRequest{}, fmt.Errorf("invalid --end: %w", err)
	}

	var skus []string
	for _, s := range strings.Split(c.String("skus"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			skus = append(skus, s)
		}
	}
	if len(skus) == 0 {
		return domain.SimulationRequest{}, fmt.Errorf("--skus must name at least one SKU")
	}

	return domain.SimulationRequest{
		TenantID:  c.Int64("tenant"),
		StartDate: start,
		EndDate:   end,
		ItemIDs:   skus,
		Policy: domain.PolicyConfig{
			AutoPlaceOrders:    c.Bool("auto-place"),
			LeadTimeBufferDays: c.Int("lead-time-buffer"),
			MinOrderQuantity:   c.Int("min-order-qty"),
			ServiceLevel:       c.Float64("service-level"),
		},
	}, nil
}
