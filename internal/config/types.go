package config

// Config is the root configuration structure for the application.
type Config struct {
	LogLevel      string            `yaml:"log_level" mapstructure:"log_level"`
	LogFile       string            `yaml:"log_file" mapstructure:"log_file"`
	LogMaxSizeMB  int               `yaml:"log_max_size_mb" mapstructure:"log_max_size_mb"`
	LogMaxBackups int               `yaml:"log_max_backups" mapstructure:"log_max_backups"`
	Disassemble   DisassembleConfig `yaml:"disassemble" mapstructure:"disassemble"`
	Reassemble    ReassembleConfig  `yaml:"reassemble" mapstructure:"reassemble"`
	Watch         WatchConfig       `yaml:"watch" mapstructure:"watch"`
}

// DisassembleConfig holds defaults for the disassemble and watch commands.
type DisassembleConfig struct {
	Strategy         string   `yaml:"strategy" mapstructure:"strategy"`
	Format           string   `yaml:"format" mapstructure:"format"`
	UniqueIDElements []string `yaml:"unique_id_elements,flow" mapstructure:"unique_id_elements"`
	IgnorePath       string   `yaml:"ignore_path" mapstructure:"ignore_path"`
	Concurrency      int      `yaml:"concurrency" mapstructure:"concurrency"` // 0 = number of CPUs
}

// ReassembleConfig holds defaults for the reassemble command.
type ReassembleConfig struct {
	Extension string `yaml:"extension" mapstructure:"extension"`
}

// WatchConfig holds watch mode tuning.
type WatchConfig struct {
	DebounceMs       int     `yaml:"debounce_ms" mapstructure:"debounce_ms"`
	MaxRunsPerSecond float64 `yaml:"max_runs_per_second" mapstructure:"max_runs_per_second"`
}
