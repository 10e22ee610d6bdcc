package config

import "github.com/spf13/viper"

// Default configuration values.
const (
	DefaultLogLevel      = "info"
	DefaultLogFile       = "~/.config/xmldisassembler/xmldisassembler.log"
	DefaultLogMaxSizeMB  = 10
	DefaultLogMaxBackups = 3

	// Disassemble defaults.
	DefaultStrategy    = "unique-id"
	DefaultFormat      = "xml"
	DefaultIgnorePath  = ".xmldisassemblerignore"
	DefaultConcurrency = 0 // number of CPUs

	// Reassemble defaults.
	DefaultExtension = "xml"

	// Watch defaults.
	DefaultWatchDebounceMs       = 500
	DefaultWatchMaxRunsPerSecond = 2
)

// setDefaults registers all default configuration values with a viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_file", DefaultLogFile)
	v.SetDefault("log_max_size_mb", DefaultLogMaxSizeMB)
	v.SetDefault("log_max_backups", DefaultLogMaxBackups)

	v.SetDefault("disassemble.strategy", DefaultStrategy)
	v.SetDefault("disassemble.format", DefaultFormat)
	v.SetDefault("disassemble.unique_id_elements", []string{})
	v.SetDefault("disassemble.ignore_path", DefaultIgnorePath)
	v.SetDefault("disassemble.concurrency", DefaultConcurrency)

	v.SetDefault("reassemble.extension", DefaultExtension)

	v.SetDefault("watch.debounce_ms", DefaultWatchDebounceMs)
	v.SetDefault("watch.max_runs_per_second", DefaultWatchMaxRunsPerSecond)
}

// NewDefaultConfig returns a Config populated with default values.
func NewDefaultConfig() Config {
	return Config{
		LogLevel:      DefaultLogLevel,
		LogFile:       DefaultLogFile,
		LogMaxSizeMB:  DefaultLogMaxSizeMB,
		LogMaxBackups: DefaultLogMaxBackups,
		Disassemble: DisassembleConfig{
			Strategy:         DefaultStrategy,
			Format:           DefaultFormat,
			UniqueIDElements: []string{},
			IgnorePath:       DefaultIgnorePath,
			Concurrency:      DefaultConcurrency,
		},
		Reassemble: ReassembleConfig{
			Extension: DefaultExtension,
		},
		Watch: WatchConfig{
			DebounceMs:       DefaultWatchDebounceMs,
			MaxRunsPerSecond: DefaultWatchMaxRunsPerSecond,
		},
	}
}
