// Command rollbookctl runs record engine operations from the shell: bulk
// imports, permission grants, summaries, statistics and roster listings.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/dalemusser/rollbook/internal/app/engine"
	"github.com/dalemusser/rollbook/internal/app/system/cliconfig"
	"github.com/dalemusser/rollbook/internal/app/system/logging"
	"github.com/dalemusser/rollbook/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	cfg, err := cliconfig.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}
	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 2
	}
	defer lg.Sync()
	logger := lg.Base.Named("rollbookctl")
	timeouts.ConfigureFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	connCtx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), logger, "mongo connect")
	client, err := mongo.Connect(connCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err == nil {
		err = client.Ping(connCtx, nil)
	}
	cancel()
	if err != nil {
		logger.Error("mongo connect failed", zap.Error(err))
		return 1
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	eng := engine.NewMongo(client.Database(cfg.MongoDatabase), engine.Options{
		Identity:         cfg.Identity(),
		Audit:            cfg.Audit(),
		Bands:            cfg.Bands,
		BatchConcurrency: cfg.BatchConcurrency,
	}, logger)

	cli := newCommandLine(eng, os.Stdout)
	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", zap.Error(err))
		}
		return 1
	}
	return 0
}
