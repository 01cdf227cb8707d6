package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ppiankov/questclaim/internal/metrics"
	"github.com/ppiankov/questclaim/internal/scheduler"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var scheduleNow bool

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule [subdomain...]",
	Short: "Repeat claim runs on a cron schedule",
	Long: `Schedule keeps running and starts a full claim run on every tick of the
configured cron spec. A tick is skipped while the previous run is still going.
When schedule.metrics_addr is set, Prometheus metrics are served at /metrics.

Example:
  questclaim schedule --cron "0 */6 * * *" --types none,twitter
  questclaim schedule --metrics-addr :9090 --now`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().String("cron", "", "cron spec (default from config: 0 */6 * * *)")
	scheduleCmd.Flags().String("timezone", "", "timezone of the cron spec (default from config: UTC)")
	scheduleCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "also run once immediately")

	_ = viper.BindPFlag("schedule.cron", scheduleCmd.Flags().Lookup("cron"))
	_ = viper.BindPFlag("schedule.timezone", scheduleCmd.Flags().Lookup("timezone"))
	_ = viper.BindPFlag("schedule.metrics_addr", scheduleCmd.Flags().Lookup("metrics-addr"))
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := checkCredentials(cfg); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Output.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	e, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	s, err := scheduler.New(cfg.Schedule.Timezone, cfg.Schedule.RunTimeout, logger.Named("scheduler"))
	if err != nil {
		return err
	}

	job := func(ctx context.Context) error {
		report, err := executeRun(ctx, e, args)
		if report != nil {
			fmt.Println(report.String())
			logger.Info("scheduled run finished",
				zap.String("run", report.ID),
				zap.Int("claimed", report.Claimed),
				zap.Int("xp", report.EarnedXP))
		}
		return err
	}
	if err := s.AddJob("claim", cfg.Schedule.Cron, job); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var server *http.Server
	if cfg.Schedule.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		server = &http.Server{
			Addr:              cfg.Schedule.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		fmt.Fprintf(os.Stderr, "✓ Metrics at http://%s/metrics\n", cfg.Schedule.MetricsAddr)
	}

	fmt.Fprintf(os.Stderr, "✓ Scheduled claim runs: %q (%s)\n", cfg.Schedule.Cron, cfg.Schedule.Timezone)
	s.Start()

	if scheduleNow {
		go func() { _ = s.RunNow("claim", job) }()
	}

	<-ctx.Done()
	fmt.Fprintf(os.Stderr, "\nStopping, waiting for the current run to finish...\n")
	<-s.Stop().Done()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}
	return nil
}
