package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leefowlercu/xml-disassembler/internal/formats"
	"github.com/leefowlercu/xml-disassembler/internal/logging"
)

// ValidationError represents a config validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation failures.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var b strings.Builder
	b.WriteString("config validation failed:\n")
	for _, err := range e {
		b.WriteString("  - ")
		b.WriteString(err.Error())
		b.WriteString("\n")
	}
	return b.String()
}

// validStrategies lists recognized disassembly strategies.
var validStrategies = map[string]bool{
	"unique-id":      true,
	"grouped-by-tag": true,
}

// Validate checks the configuration for errors.
// Returns ValidationErrors if validation fails.
func Validate(cfg *Config) error {
	var errs ValidationErrors

	if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
		errs = append(errs, ValidationError{
			Field:   "log_level",
			Message: fmt.Sprintf("must be one of: %s; got %q", strings.Join(logging.LevelNames, ", "), cfg.LogLevel),
		})
	}

	if cfg.LogMaxSizeMB < 1 {
		errs = append(errs, ValidationError{
			Field:   "log_max_size_mb",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.LogMaxSizeMB),
		})
	}

	if cfg.LogMaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "log_max_backups",
			Message: fmt.Sprintf("must be non-negative, got %d", cfg.LogMaxBackups),
		})
	}

	if !validStrategies[cfg.Disassemble.Strategy] {
		errs = append(errs, ValidationError{
			Field:   "disassemble.strategy",
			Message: fmt.Sprintf("must be one of: unique-id, grouped-by-tag; got %q", cfg.Disassemble.Strategy),
		})
	}

	if _, err := formats.Lookup(cfg.Disassemble.Format); err != nil {
		errs = append(errs, ValidationError{
			Field:   "disassemble.format",
			Message: fmt.Sprintf("must be one of: %s; got %q", strings.Join(formats.Names(), ", "), cfg.Disassemble.Format),
		})
	}

	if cfg.Disassemble.Concurrency < 0 {
		errs = append(errs, ValidationError{
			Field:   "disassemble.concurrency",
			Message: fmt.Sprintf("must be non-negative, got %d", cfg.Disassemble.Concurrency),
		})
	}

	if _, err := formats.Lookup(cfg.Reassemble.Extension); err != nil {
		errs = append(errs, ValidationError{
			Field:   "reassemble.extension",
			Message: fmt.Sprintf("must be one of: %s; got %q", strings.Join(formats.Names(), ", "), cfg.Reassemble.Extension),
		})
	}

	if cfg.Watch.DebounceMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "watch.debounce_ms",
			Message: fmt.Sprintf("must be non-negative, got %d", cfg.Watch.DebounceMs),
		})
	}

	if cfg.Watch.MaxRunsPerSecond <= 0 {
		errs = append(errs, ValidationError{
			Field:   "watch.max_runs_per_second",
			Message: fmt.Sprintf("must be positive, got %v", cfg.Watch.MaxRunsPerSecond),
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	var ve ValidationError
	var ves ValidationErrors
	return errors.As(err, &ve) || errors.As(err, &ves)
}
