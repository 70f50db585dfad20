package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/zmcp/odata-vdm/internal/constants"
)

// Config holds all configuration options for the odata-vdm tool
type Config struct {
	// Wire format
	Protocol string `mapstructure:"protocol" validate:"required,oneof=2.0 4.0"`
	Type     string `mapstructure:"type" validate:"required"`

	// Update payloads
	Strategy string `mapstructure:"strategy" validate:"required,oneof=put full replace patch patch-recursive-full patch-recursive-delta"`
	Include  string `mapstructure:"include"`
	Exclude  string `mapstructure:"exclude"`

	// Output and debugging
	Output     string `mapstructure:"output" validate:"required,oneof=json yaml"`
	Verbose    bool   `mapstructure:"verbose"`
	Debug      bool   `mapstructure:"debug"`
	Mask       bool   `mapstructure:"mask"`  // Mask sensitive values in printed payloads
	Trace      bool   `mapstructure:"trace"` // Write a JSON-lines trace file
	TraceFile  string `mapstructure:"trace_file" validate:"omitempty,filepath"`
	ConfigFile string `mapstructure:"config"`
}

// Default returns a config with the built-in defaults
func Default() *Config {
	return &Config{
		Protocol: string(constants.DefaultProtocol),
		Type:     "Product",
		Strategy: constants.DefaultStrategy,
		Output:   constants.DefaultOutput,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the option values. The first failing field is reported by
// its flag name.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		fe := errs[0]
		return fmt.Errorf("invalid %s %q: must satisfy %s", flagName(fe.Field()), fmt.Sprint(fe.Value()), constraint(fe))
	}
	return fmt.Errorf("invalid configuration: %w", err)
}

// ProtocolVersion returns the configured protocol
func (c *Config) ProtocolVersion() (constants.Protocol, error) {
	return constants.ParseProtocol(c.Protocol)
}

// IncludeFields returns the parsed --include list
func (c *Config) IncludeFields() []string {
	return parseCommaSeparated(c.Include)
}

// ExcludeFields returns the parsed --exclude list
func (c *Config) ExcludeFields() []string {
	return parseCommaSeparated(c.Exclude)
}

// IsVerbose returns true if --verbose or --debug is set
func (c *Config) IsVerbose() bool {
	return c.Verbose || c.Debug
}

func parseCommaSeparated(input string) []string {
	if input == "" {
		return []string{}
	}

	var out []string
	for _, item := range strings.Split(input, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func flagName(field string) string {
	switch field {
	case "TraceFile":
		return "trace-file"
	}
	return strings.ToLower(field)
}

func constraint(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
