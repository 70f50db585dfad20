package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zmcp/odata-vdm/internal/config"
	"github.com/zmcp/odata-vdm/internal/grocery"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "odata-vdm",
	Short: "OData entity codec - decode, encode and build update payloads for OData v2/v4 entities",
	Long: `OData entity codec - decode, encode and build update payloads for OData v2/v4 entities.

Payloads are read from files (or "-" for stdin) and mapped onto the grocery
store sample model. JSON with comments and trailing commas is accepted, and
v2 {"d": ...} and v4 {"value": [...]} envelopes are unwrapped.

Examples:
  odata-vdm decode --type Product product.json
  odata-vdm encode --protocol 2.0 --type Customer customer.json
  odata-vdm create --type Receipt --output yaml receipt.json
  odata-vdm update --type Product --strategy patch --include Id original.json changed.json`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

var decodeCmd = &cobra.Command{
	Use:   "decode <file>",
	Short: "Decode a payload and print what the model sees",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error { return a.Decode(args[0]) })
	},
}

var encodeCmd = &cobra.Command{
	Use:   "encode <file>",
	Short: "Decode a payload and encode it again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error { return a.Encode(args[0]) })
	},
}

var createCmd = &cobra.Command{
	Use:   "create <file>",
	Short: "Print the create (POST) payload for an entity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error { return a.Create(args[0]) })
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <original> <changed>",
	Short: "Print the update payload that turns the original entity into the changed one",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error { return a.Update(args[0], args[1]) })
	},
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the entity types of the sample model",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := grocery.Validate(); err != nil {
			return err
		}
		for _, name := range grocery.TypeNames() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s.%s\n", grocery.Namespace, name)
		}
		return nil
	},
}

func init() {
	// Load .env file if it exists
	godotenv.Load()

	cfg = config.Default()

	// Wire format options
	rootCmd.PersistentFlags().StringVar(&cfg.Protocol, "protocol", cfg.Protocol, "OData protocol version: '2.0' or '4.0' (overrides ODATA_PROTOCOL env var)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Type, "type", "t", cfg.Type, "Entity type of the payload (e.g., 'Product' or 'GroceryStore.Product')")

	// Output and debugging options
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: 'json' or 'yaml'")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose output to stderr")
	rootCmd.PersistentFlags().BoolVar(&cfg.Debug, "debug", false, "Alias for --verbose")
	rootCmd.PersistentFlags().BoolVar(&cfg.Mask, "mask", false, "Mask sensitive values (passwords, tokens, card numbers) in the output")
	rootCmd.PersistentFlags().BoolVar(&cfg.Trace, "trace", false, "Write a JSON-lines trace of every step to a file")
	rootCmd.PersistentFlags().StringVar(&cfg.TraceFile, "trace-file", "", "Trace file path (default: a timestamped file in the temp directory)")
	rootCmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "Config file (YAML, JSON or TOML)")

	// Update payload options
	updateCmd.Flags().StringVarP(&cfg.Strategy, "strategy", "s", cfg.Strategy, "Update strategy: 'put', 'patch', 'patch-recursive-full' or 'patch-recursive-delta'")
	updateCmd.Flags().StringVar(&cfg.Include, "include", "", "Comma-separated fields to send even when unchanged (e.g., 'Id,Name')")
	updateCmd.Flags().StringVar(&cfg.Exclude, "exclude", "", "Comma-separated fields never to send")

	rootCmd.AddCommand(decodeCmd, encodeCmd, createCmd, updateCmd, typesCmd)

	// Bind flags to viper for environment variable and config file support
	viper.BindPFlag("protocol", rootCmd.PersistentFlags().Lookup("protocol"))
	viper.BindPFlag("type", rootCmd.PersistentFlags().Lookup("type"))
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("mask", rootCmd.PersistentFlags().Lookup("mask"))
	viper.BindPFlag("trace", rootCmd.PersistentFlags().Lookup("trace"))
	viper.BindPFlag("trace_file", rootCmd.PersistentFlags().Lookup("trace-file"))
	viper.BindPFlag("strategy", updateCmd.Flags().Lookup("strategy"))
	viper.BindPFlag("include", updateCmd.Flags().Lookup("include"))
	viper.BindPFlag("exclude", updateCmd.Flags().Lookup("exclude"))

	// Set up environment variable mapping
	viper.SetEnvPrefix("ODATA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// loadConfig merges flags, ODATA_* environment variables and the optional
// config file into cfg, flags taking precedence.
func loadConfig(cmd *cobra.Command, args []string) error {
	if cfg.ConfigFile != "" {
		viper.SetConfigFile(cfg.ConfigFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	configFile := cfg.ConfigFile
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.ConfigFile = configFile

	protocol, err := cfg.ProtocolVersion()
	if err != nil {
		return err
	}
	cfg.Protocol = protocol.String()

	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.IsVerbose() {
		if configFile != "" {
			fmt.Fprintf(os.Stderr, "[VERBOSE] Using config file %s\n", viper.ConfigFileUsed())
		}
		fmt.Fprintf(os.Stderr, "[VERBOSE] Protocol %s, entity type %s, output %s\n", cfg.Protocol, cfg.Type, cfg.Output)
	}
	return nil
}

func withApp(cmd *cobra.Command, run func(*app) error) error {
	a, err := newApp(cfg, cmd.OutOrStdout(), cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := run(a); err != nil {
		a.trace.LogError(cmd.Name(), err, nil)
		return err
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
