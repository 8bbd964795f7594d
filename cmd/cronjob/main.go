package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chris/audio-market-settlement/pkg/bootstrap"
	"github.com/chris/audio-market-settlement/pkg/config"
	"github.com/chris/audio-market-settlement/pkg/jobs"
	"github.com/chris/audio-market-settlement/pkg/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Path to a YAML configuration file")
	runOnce := flag.String("run-once", "", "Run a job once and exit ("+strings.Join(jobs.Jobs(), ", ")+")")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	slogger := logger.New(cfg.Log.Level, cfg.Log.Format)
	slogger.Info("starting settlement cronjob runner", "storage", cfg.Storage.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := bootstrap.New(ctx, cfg, slogger)
	if err != nil {
		log.Fatalf("Failed to initialise services: %v", err)
	}
	defer svc.Close()

	jobRunner := jobs.NewJobRunner(svc.Engine, svc.Distributor, cfg.Reconcile, slogger)

	if *runOnce != "" {
		if err := jobRunner.Run(ctx, *runOnce); err != nil {
			fmt.Fprintf(os.Stderr, "job %s failed: %v\navailable jobs: %s\n", *runOnce, err, strings.Join(jobs.Jobs(), ", "))
			svc.Close()
			os.Exit(1)
		}
		return
	}

	cronScheduler, err := jobs.NewScheduler(jobRunner, jobs.Schedules{
		jobs.JobReconcile: cfg.Reconcile.Schedule,
		jobs.JobAdRevenue: cfg.AdRevenue.Schedule,
	}, slogger)
	if err != nil {
		log.Fatalf("Failed to schedule jobs: %v", err)
	}

	cronScheduler.Start()
	slogger.Info("cronjob scheduler is running")

	<-ctx.Done()
	slogger.Info("shutting down cronjob scheduler")
	cronScheduler.Stop()
}
