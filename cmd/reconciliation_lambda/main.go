package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/chris/audio-market-settlement/pkg/bootstrap"
	"github.com/chris/audio-market-settlement/pkg/config"
	"github.com/chris/audio-market-settlement/pkg/jobs"
	"github.com/chris/audio-market-settlement/pkg/logger"
)

// The sweep is triggered by an EventBridge schedule; the job runner applies
// the configured stale and fail thresholds.
func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	slogger := logger.New(cfg.Log.Level, cfg.Log.Format)

	svc, err := bootstrap.New(context.Background(), cfg, slogger)
	if err != nil {
		log.Fatalf("Failed to initialise services: %v", err)
	}
	defer svc.Close()

	jobRunner := jobs.NewJobRunner(svc.Engine, svc.Distributor, cfg.Reconcile, slogger)
	lambda.Start(func(ctx context.Context) error {
		return jobRunner.Run(ctx, jobs.JobReconcile)
	})
}
