// Package watch implements the watch command.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/xml-disassembler/cmd/disassemble"
	"github.com/leefowlercu/xml-disassembler/internal/cmdutil"
	"github.com/leefowlercu/xml-disassembler/internal/config"
	"github.com/leefowlercu/xml-disassembler/internal/disassembler"
	"github.com/leefowlercu/xml-disassembler/internal/metrics"
	"github.com/leefowlercu/xml-disassembler/internal/tui/styles"
	"github.com/leefowlercu/xml-disassembler/internal/walker"
	"github.com/leefowlercu/xml-disassembler/internal/watcher"
)

var (
	watchOpts        disassemble.Options
	watchDebounceMs  int
	watchMaxRuns     float64
	watchMetricsAddr string
)

// shutdownTimeout bounds the metrics server shutdown.
const shutdownTimeout = 5 * time.Second

// WatchCmd re-disassembles XML files under a directory as they change.
var WatchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Re-disassemble XML files as they change",
	Long: "Watch a directory and re-disassemble XML files as they change.\n\n" +
		"Changes are settled per file for a debounce window; a file whose content is unchanged " +
		"since its last run is skipped. Runs are throttled to a maximum rate. Disassembly output " +
		"directories and ignored files are not watched. Stops on SIGINT or SIGTERM.",
	Example: `  # Watch a metadata tree using settings from the config file
  xmldisassembler watch force-app/

  # Watch with a longer debounce and expose metrics
  xmldisassembler watch force-app/ --debounce-ms=2000 --metrics-addr=127.0.0.1:9464`,
	Args:    cobra.ExactArgs(1),
	PreRunE: validateWatch,
	RunE:    runWatch,
}

func init() {
	watchOpts.Register(WatchCmd)
	WatchCmd.Flags().IntVar(&watchDebounceMs, "debounce-ms", config.DefaultWatchDebounceMs,
		"Milliseconds a file must be quiet before it is processed")
	WatchCmd.Flags().Float64Var(&watchMaxRuns, "max-runs-per-second", config.DefaultWatchMaxRunsPerSecond,
		"Maximum disassembly runs per second (0 = unlimited)")
	WatchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "",
		"Serve Prometheus metrics on this address while watching")
}

func validateWatch(cmd *cobra.Command, args []string) error {
	if watchDebounceMs < 0 {
		return fmt.Errorf("--debounce-ms must not be negative")
	}
	if watchMaxRuns < 0 {
		return fmt.Errorf("--max-runs-per-second must not be negative")
	}

	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	root, err := cmdutil.ResolvePath(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve path; %w", err)
	}

	cfg, err := config.Current()
	if err != nil {
		return err
	}
	dcfg, err := watchOpts.Resolve(cmd, logger)
	if err != nil {
		return err
	}

	filter, err := walker.LoadFilter(dcfg.IgnorePath, walker.WithExtensions(".xml"))
	if err != nil {
		return err
	}
	d, err := disassembler.New(dcfg, disassembler.WithLogger(logger), disassembler.WithFilter(filter))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	handler := func(ctx context.Context, path string) error {
		res, err := d.Disassemble(ctx, path)
		if err != nil {
			fmt.Fprintln(out, styles.Failed(fmt.Sprintf("%s: %v", path, err)))
			return err
		}
		for _, fr := range res.Files {
			if fr.Skipped {
				fmt.Fprintln(out, styles.Skipped(fr.Input))
				continue
			}
			fmt.Fprintln(out, styles.OK(fmt.Sprintf("%s → %s (%d files)", fr.Input, fr.OutputDir, fr.Fragments)))
		}
		return nil
	}

	debounce := time.Duration(cmdutil.Override(cmd, "debounce-ms", watchDebounceMs, cfg.Watch.DebounceMs)) * time.Millisecond
	w, err := watcher.New(root, handler,
		watcher.WithDebounce(debounce),
		watcher.WithMaxRunsPerSecond(cmdutil.Override(cmd, "max-runs-per-second", watchMaxRuns, cfg.Watch.MaxRunsPerSecond)),
		watcher.WithFilter(filter),
		watcher.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watchMetricsAddr != "" {
		srv, err := serveMetrics(watchMetricsAddr, logger)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	fmt.Fprintln(out, styles.Title.Render("Watching "+w.Root()))
	if err := w.Run(ctx); err != nil {
		return err
	}

	stats := w.Stats()
	fmt.Fprint(out, styles.Summary("Stopped", []styles.Row{
		{Label: "Runs", Value: fmt.Sprint(stats.Runs)},
		{Label: "Unchanged", Value: fmt.Sprint(stats.Unchanged)},
		{Label: "Throttled", Value: fmt.Sprint(stats.Throttled)},
		{Label: "Failures", Value: fmt.Sprint(stats.Failures)},
	}))
	return nil
}

// serveMetrics starts an HTTP server exposing /metrics on addr.
func serveMetrics(addr string, logger *slog.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s; %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())
	return srv, nil
}
