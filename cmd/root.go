package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	configcmd "github.com/leefowlercu/xml-disassembler/cmd/config"
	"github.com/leefowlercu/xml-disassembler/cmd/disassemble"
	"github.com/leefowlercu/xml-disassembler/cmd/parse"
	"github.com/leefowlercu/xml-disassembler/cmd/reassemble"
	versioncmd "github.com/leefowlercu/xml-disassembler/cmd/version"
	"github.com/leefowlercu/xml-disassembler/cmd/watch"
	"github.com/leefowlercu/xml-disassembler/internal/config"
	"github.com/leefowlercu/xml-disassembler/internal/logging"
	"github.com/leefowlercu/xml-disassembler/internal/metrics"
	"github.com/leefowlercu/xml-disassembler/internal/version"
)

// logManager is the global logging manager, created in init() and upgraded after config loads
var logManager *logging.Manager

var (
	rootLogLevel    string
	rootMetricsFile string
)

var rootCmd = &cobra.Command{
	Use:   "xmldisassembler",
	Short: "Split XML documents into directories of small files and merge them back",
	Long: "xmldisassembler splits large XML documents into a directory of smaller files along " +
		"their element hierarchy, and merges such directories back into equivalent documents.\n\n" +
		"Fragments can be written as XML, JSON, JSON5, YAML or TOML, which makes generated " +
		"metadata easier to review file by file in version control.",
	Version:           version.Get().Short(),
	PersistentPreRunE: runInitialize,
}

func init() {
	logManager = logging.NewManager()
	slog.SetDefault(logManager.Logger())

	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "",
		"Override the configured log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&rootMetricsFile, "metrics-file", "",
		"Write Prometheus metrics in text format to this file on exit")

	rootCmd.AddCommand(disassemble.DisassembleCmd)
	rootCmd.AddCommand(reassemble.ReassembleCmd)
	rootCmd.AddCommand(parse.ParseCmd)
	rootCmd.AddCommand(watch.WatchCmd)
	rootCmd.AddCommand(configcmd.ConfigCmd)
	rootCmd.AddCommand(versioncmd.VersionCmd)
}

func runInitialize(cmd *cobra.Command, args []string) error {
	logger := logManager.Logger()

	if err := config.Init(); err != nil {
		return err
	}

	levelStr := config.GetString("log_level")
	if rootLogLevel != "" {
		levelStr = rootLogLevel
	}
	level, ok := logging.ParseLevel(levelStr)
	if !ok {
		level = logging.DefaultLevel
		if levelStr != "" {
			logger.Warn("invalid log level configured, using default", "configured", levelStr, "default", "info")
		}
	}
	logManager.SetLevel(level)

	runID := uuid.NewString()
	if logFile := config.GetPath("log_file"); logFile != "" {
		err := logManager.Upgrade(logging.FileOptions{
			Path:       logFile,
			Level:      level,
			MaxSizeMB:  config.GetInt("log_max_size_mb"),
			MaxBackups: config.GetInt("log_max_backups"),
			RunID:      runID,
		})
		if err != nil {
			logger.Warn("failed to enable file logging, continuing with stderr only", "error", err)
		}
	}

	logger.Debug("command starting",
		"command", cmd.CommandPath(),
		"run_id", runID,
		"config_file", config.ConfigFilePath())
	return nil
}

// Execute runs the root command.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	defer func() { _ = logManager.Close() }()

	err := rootCmd.Execute()

	if rootMetricsFile != "" {
		if mErr := metrics.WriteTextfile(rootMetricsFile); mErr != nil {
			logManager.Logger().Warn("failed to write metrics file", "path", rootMetricsFile, "error", mErr)
		}
	}

	if err != nil {
		cmd, _, _ := rootCmd.Find(os.Args[1:])
		if cmd == nil {
			cmd = rootCmd
		}

		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if !cmd.SilenceUsage {
			fmt.Fprintln(os.Stderr)
			cmd.SetOut(os.Stderr)
			_ = cmd.Usage()
		}

		return err
	}

	return nil
}
