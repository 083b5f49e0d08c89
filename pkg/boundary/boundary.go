// Package boundary is the uncaught-failure boundary of a pipeline process:
// the one place a blanket catch-all is permitted. Errors escaping a full
// run are reported to standard error, optionally captured in Sentry, and
// terminate the process with a non-zero status. All other layers propagate
// typed failures instead.
package boundary

import (
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

var sentryEnabled bool

// InitSentry enables Sentry capture for fatal reports. An empty DSN leaves
// Sentry disabled; reporting still goes to stderr.
func InitSentry(dsn, environment string) error {
	if dsn == "" {
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	})
	if err != nil {
		return fmt.Errorf("failed to init sentry: %w", err)
	}
	sentryEnabled = true
	return nil
}

// ReportFatal reports an unrecovered pipeline error and exits with status 1.
func ReportFatal(logger *zap.Logger, err error) {
	if err == nil {
		return
	}
	if logger != nil {
		logger.Error("Pipeline run aborted", zap.Error(err))
	}
	if sentryEnabled {
		sentry.CaptureException(err)
		sentry.Flush(2 * time.Second)
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	osExit(1)
}

// osExit is swapped out in tests.
var osExit = os.Exit
