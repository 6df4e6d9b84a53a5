package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/soko-platform/ms-go-settlement/app/service"
	"github.com/soko-platform/ms-go-settlement/config"
	"github.com/spf13/cobra"
)

var (
	workerMode bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Re-poll pending provider-backed payments",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"verify_pending",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.VerifyInterval },
			func(s *service.JobsService, ctx context.Context) error {
				return s.RunVerifyPendingBatch(ctx)
			},
		)
	},
}

var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Run expiration-related commands",
}

var expireIntentsCmd = &cobra.Command{
	Use:   "intents",
	Short: "Cancel payment intents open past the pending TTL",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"expire_intents",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.ExpireIntentsInterval },
			func(s *service.JobsService, ctx context.Context) error {
				return s.RunExpireIntentsBatch(ctx)
			},
		)
	},
}

var expireSubscriptionsCmd = &cobra.Command{
	Use:   "subscriptions",
	Short: "Demote subscriptions past their end date",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"expire_subscriptions",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.ExpireSubscriptionsInterval },
			func(s *service.JobsService, ctx context.Context) error {
				return s.RunExpireSubscriptionsBatch(ctx)
			},
		)
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(expireCmd)
	expireCmd.AddCommand(expireIntentsCmd)
	expireCmd.AddCommand(expireSubscriptionsCmd)

	rootCmd.PersistentFlags().BoolVar(&workerMode, "worker", false, "Run continuously using configured interval")
}

func runCommand(
	name string,
	intervalResolver func(cfg *config.Config) time.Duration,
	fn func(s *service.JobsService, ctx context.Context) error,
) {
	c, cleanup := mustCreateContainer()
	defer cleanup()

	if workerMode {
		runWorker(name, intervalResolver(c.cfg), c.jobs, fn)
		return
	}

	ctx := context.Background()
	runJob(name, func() error { return fn(c.jobs, ctx) })
}

func runWorker(
	name string,
	interval time.Duration,
	jobsService *service.JobsService,
	fn func(s *service.JobsService, ctx context.Context) error,
) {
	if interval <= 0 {
		logrus.WithField("job", name).Fatal("invalid worker interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runJob(name, func() error { return fn(jobsService, ctx) })

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	for {
		select {
		case <-quit:
			logrus.WithField("job", name).Info("Worker shutdown requested")
			return
		case <-ticker.C:
			runJob(name, func() error { return fn(jobsService, ctx) })
		}
	}
}

func runJob(name string, fn func() error) {
	start := time.Now()
	err := fn()
	latency := time.Since(start)
	if err != nil {
		logrus.WithError(err).WithField("job", name).WithField("latency", latency.String()).Error("job_failed")
		return
	}
	logrus.WithField("job", name).WithField("latency", latency.String()).Info("job_completed")
}
