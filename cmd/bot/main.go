package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"main/internal/bar"
	"main/internal/bus"
	"main/internal/ingest"
	ingestgmo "main/internal/ingest/gmo"
	"main/internal/model"
	"main/internal/ops"
	ordergmo "main/internal/order/gmo"
	"main/internal/pipeline"
	"main/internal/signal"
	"main/internal/store"
	"main/internal/trade"
	"main/pkg/conn"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"
	"gorm.io/gorm"
)

const maxBackoffShift = 6

func main() {
	if err := run(); err != nil {
		logs.Errorf("bot: %+v", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "", "config file path (JSON)")
	flag.Parse()

	cfg, err := ops.Load(*configFlag)
	if err != nil {
		return err
	}

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Profiling.Enabled {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "gmo-hft-bot",
			ServerAddress:   cfg.Profiling.ServerAddress,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return err
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return err
	}

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		return err
	}

	var orders trade.OrderClient
	if cfg.API.Key != "" && cfg.API.Secret != "" {
		client, err := ordergmo.NewClient(cfg.API.Key, cfg.API.Secret)
		if err != nil {
			return err
		}
		orders = client
	} else {
		logs.Warn("no api credentials, private requests disabled")
	}

	return supervise(ctx, cfg, st, orders)
}

// supervise restarts the pipeline on terminal failure with exponential
// backoff, resetting the store so every run starts clean. In-flight queue
// items die with the run.
func supervise(ctx context.Context, cfg ops.Config, st *store.Store, orders trade.OrderClient) error {
	backoff := time.Duration(cfg.Supervisor.BackoffSeconds) * time.Second

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return nil
		}

		err := runPipeline(ctx, cfg, st, orders)
		if err == nil || ctx.Err() != nil {
			return nil
		}

		if cfg.Supervisor.MaxRestarts > 0 && attempt+1 >= cfg.Supervisor.MaxRestarts {
			return err
		}

		logs.Errorf("pipeline run %d failed, restarting: %+v", attempt+1, err)

		if err := st.Reset(); err != nil {
			return err
		}

		wait := backoff << min(attempt, maxBackoffShift)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

func runPipeline(ctx context.Context, cfg ops.Config, st *store.Store, orders trade.OrderClient) error {
	live := bus.NewLiveness()
	boards := bus.NewQueue[[]model.Board]()
	ticks := bus.NewQueue[model.Tick]()

	pub := ingestgmo.NewPub(ctx, cfg.Feed.WsURL)
	feed := ingest.NewFeed(pub, boards, ticks, live, cfg.Symbol)
	trader := trade.NewTrader(st, signal.NewUpCandle(st), orders, live, cfg.Symbol, cfg.BarSpanSeconds)

	p := pipeline.New(pipeline.Config{
		Symbol:           cfg.Symbol,
		BarSpanSeconds:   cfg.BarSpanSeconds,
		MaxBoardSnapshot: cfg.MaxBoardSnapshotCount,
		MaxTickRows:      cfg.MaxTickRows,
		MaxOhlcvRows:     cfg.MaxOhlcvRows,
	}, st, bar.New(st), boards, ticks, live, feed, trader)

	return p.Run(ctx)
}

func openDatabase(cfg ops.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case "postgres":
		return conn.NewPostgres(conn.PostgresOption{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			Database: cfg.Database,
		})
	case "sqlite":
		return conn.NewSQLite(conn.SQLiteOption{DSN: cfg.DSN})
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
