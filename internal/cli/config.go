package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/captoken/spl/internal/config"
	"github.com/captoken/spl/internal/output"
	"github.com/captoken/spl/pkg/captokerr"
)

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and modify captoken configuration settings.`,
}

// configInitCmd initializes the configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.captoken/config.yaml.

If a configuration file already exists, this command will not overwrite it
unless --force is specified.`,
	Example: `  captoken config init
  captoken config init --force`,
	RunE: runConfigInit,
}

// configShowCmd shows the current configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the current configuration settings.`,
	Example: `  captoken config show
  captoken config show -o json`,
	RunE: runConfigShow,
}

// configGetCmd gets a specific configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Get a configuration value",
	Long: `Get a specific configuration value by its path.

The path uses dot notation to navigate the configuration tree.`,
	Example: `  captoken config get engine.max_gas
  captoken config get output.default_format
  captoken config get logging.level`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd sets a configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configSetCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Set a configuration value",
	Long: `Set a specific configuration value by its path.

The path uses dot notation to navigate the configuration tree.
The configuration file will be updated immediately.`,
	Example: `  captoken config set engine.max_gas 20000
  captoken config set output.default_format json
  captoken config set logging.level debug`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	configCmd.GroupID = groupConfig
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")

	enrichParentLong(configCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	configPath := config.Path(cfg.Home)

	if _, err := os.Stat(configPath); err == nil && !configForce {
		return captokerr.WithSuggestion(
			captokerr.ErrGeneral,
			fmt.Sprintf("configuration already exists at %s. Use --force to overwrite.", configPath),
		)
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	defaultCfg := config.Defaults()
	defaultCfg.Home = cfg.Home

	if err := config.Save(defaultCfg, configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	w := cmd.OutOrStdout()
	out(w, "Configuration initialized at %s\n", configPath)
	outln(w)
	outln(w, "Edit this file to configure:")
	outln(w, "  - engine.max_gas: default policy evaluation budget")
	outln(w, "  - rate_limit.requests_per_second / burst: batch-verify throttle")
	outln(w, "  - output.default_format: Output format (text/json)")
	outln(w, "  - logging.level: Log level (off/error/debug)")

	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	format := formatter.Format()

	if format == output.FormatJSON {
		return displayConfigJSON(w, cfg)
	}

	return displayConfigText(w, cfg)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	path := args[0]

	value, err := getConfigValue(cfg, path)
	if err != nil {
		return captokerr.WithSuggestion(
			captokerr.ErrUnknownConfigKey,
			fmt.Sprintf("configuration path '%s' not found", path),
		)
	}

	w := cmd.OutOrStdout()
	outln(w, value)

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	path := args[0]
	value := args[1]

	if _, err := getConfigValue(cfg, path); err != nil {
		return captokerr.WithSuggestion(
			captokerr.ErrUnknownConfigKey,
			fmt.Sprintf("configuration path '%s' not found", path),
		)
	}

	configPath := config.Path(cfg.Home)
	currentCfg, err := config.Load(configPath)
	if err != nil {
		currentCfg = config.Defaults()
	}

	if err := setConfigValue(currentCfg, path, value); err != nil {
		return fmt.Errorf("setting config value: %w", err)
	}

	if err := config.Save(currentCfg, configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	w := cmd.OutOrStdout()
	out(w, "Set %s = %s\n", path, value)

	return nil
}

// getConfigValue retrieves a value from the config using dot notation.
func getConfigValue(c *config.Config, path string) (string, error) {
	parts := strings.Split(path, ".")

	switch len(parts) {
	case 1:
		if parts[0] == "home" {
			return c.Home, nil
		}
		return "", captokerr.WithDetails(captokerr.ErrUnknownConfigKey, map[string]string{"key": parts[0]})
	case 2:
		switch parts[0] {
		case "engine":
			return getEngineValue(c, parts[1])
		case "rate_limit":
			return getRateLimitValue(c, parts[1])
		case "output":
			return getOutputValue(c, parts[1])
		case "logging":
			return getLoggingValue(c, parts[1])
		default:
			return "", captokerr.WithDetails(captokerr.ErrUnknownConfigKey, map[string]string{"section": parts[0]})
		}
	default:
		return "", captokerr.WithDetails(captokerr.ErrUnknownConfigKey, map[string]string{"path": path})
	}
}

func getEngineValue(c *config.Config, key string) (string, error) {
	if key == "max_gas" {
		return strconv.Itoa(c.Engine.MaxGas), nil
	}
	return "", captokerr.WithDetails(captokerr.ErrUnknownConfigKey, map[string]string{"section": "engine", "key": key})
}

func getRateLimitValue(c *config.Config, key string) (string, error) {
	switch key {
	case "requests_per_second":
		return strconv.FormatFloat(c.RateLimit.RequestsPerSecond, 'g', -1, 64), nil
	case "burst":
		return strconv.Itoa(c.RateLimit.Burst), nil
	default:
		return "", captokerr.WithDetails(captokerr.ErrUnknownConfigKey, map[string]string{"section": "rate_limit", "key": key})
	}
}

func getOutputValue(c *config.Config, key string) (string, error) {
	switch key {
	case "default_format":
		return c.Output.DefaultFormat, nil
	case "verbose":
		return strconv.FormatBool(c.Output.Verbose), nil
	case "color":
		return c.Output.Color, nil
	default:
		return "", captokerr.WithDetails(captokerr.ErrUnknownConfigKey, map[string]string{"section": "output", "key": key})
	}
}

func getLoggingValue(c *config.Config, key string) (string, error) {
	switch key {
	case "level":
		return c.Logging.Level, nil
	case "file":
		return c.Logging.File, nil
	default:
		return "", captokerr.WithDetails(captokerr.ErrUnknownConfigKey, map[string]string{"section": "logging", "key": key})
	}
}

// setConfigValue sets a value in the config using dot notation.
func setConfigValue(c *config.Config, path, value string) error {
	parts := strings.Split(path, ".")

	switch len(parts) {
	case 1:
		if parts[0] == "home" {
			c.Home = value
			return nil
		}
		return captokerr.WithDetails(captokerr.ErrUnknownConfigKey, map[string]string{"key": parts[0]})
	case 2:
		switch parts[0] {
		case "engine":
			return setEngineValue(c, parts[1], value)
		case "rate_limit":
			return setRateLimitValue(c, parts[1], value)
		case "output":
			return setOutputValue(c, parts[1], value)
		case "logging":
			return setLoggingValue(c, parts[1], value)
		default:
			return captokerr.WithDetails(captokerr.ErrUnknownConfigKey, map[string]string{"section": parts[0]})
		}
	default:
		return captokerr.WithDetails(captokerr.ErrUnknownConfigKey, map[string]string{"path": path})
	}
}

func setEngineValue(c *config.Config, key, value string) error {
	if key != "max_gas" {
		return captokerr.WithDetails(captokerr.ErrUnknownConfigKey, map[string]string{"section": "engine", "key": key})
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return captokerr.WithDetails(captokerr.ErrInvalidFormat, map[string]string{"value": value, "valid": "a positive integer"})
	}
	c.Engine.MaxGas = n
	return nil
}

func setRateLimitValue(c *config.Config, key, value string) error {
	switch key {
	case "requests_per_second":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return captokerr.WithDetails(captokerr.ErrInvalidFormat, map[string]string{"value": value, "valid": "a positive number"})
		}
		c.RateLimit.RequestsPerSecond = f
		return nil
	case "burst":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return captokerr.WithDetails(captokerr.ErrInvalidFormat, map[string]string{"value": value, "valid": "a positive integer"})
		}
		c.RateLimit.Burst = n
		return nil
	default:
		return captokerr.WithDetails(captokerr.ErrUnknownConfigKey, map[string]string{"section": "rate_limit", "key": key})
	}
}

func setOutputValue(c *config.Config, key, value string) error {
	switch key {
	case "default_format":
		if value != "text" && value != "json" && value != "auto" {
			return captokerr.WithDetails(captokerr.ErrInvalidFormat, map[string]string{"value": value, "valid": "text, json, or auto"})
		}
		c.Output.DefaultFormat = value
		return nil
	case "verbose":
		c.Output.Verbose = value == "true"
		return nil
	case "color":
		if value != "auto" && value != "always" && value != "never" {
			return captokerr.WithDetails(captokerr.ErrInvalidFormat, map[string]string{"value": value, "valid": "auto, always, or never"})
		}
		c.Output.Color = value
		return nil
	default:
		return captokerr.WithDetails(captokerr.ErrUnknownConfigKey, map[string]string{"section": "output", "key": key})
	}
}

func setLoggingValue(c *config.Config, key, value string) error {
	switch key {
	case "level":
		validLevels := []string{"off", "error", "debug"}
		for _, l := range validLevels {
			if value == l {
				c.Logging.Level = value
				return nil
			}
		}
		return captokerr.WithDetails(captokerr.ErrInvalidFormat, map[string]string{"value": value, "valid": "off, error, or debug"})
	case "file":
		c.Logging.File = value
		return nil
	default:
		return captokerr.WithDetails(captokerr.ErrUnknownConfigKey, map[string]string{"section": "logging", "key": key})
	}
}

// displayConfigText shows the config in text format.
func displayConfigText(w interface {
	Write(p []byte) (n int, err error)
}, c *config.Config,
) error {
	outln(w, "Configuration:")
	outln(w)
	out(w, "  Home: %s\n", c.Home)
	outln(w)
	outln(w, "  Engine:")
	out(w, "    max_gas: %d\n", c.Engine.MaxGas)
	outln(w)
	outln(w, "  Rate limit:")
	out(w, "    requests_per_second: %g\n", c.RateLimit.RequestsPerSecond)
	out(w, "    burst: %d\n", c.RateLimit.Burst)
	outln(w)
	outln(w, "  Output:")
	out(w, "    default_format: %s\n", c.Output.DefaultFormat)
	out(w, "    verbose: %t\n", c.Output.Verbose)
	out(w, "    color: %s\n", c.Output.Color)
	outln(w)
	outln(w, "  Logging:")
	out(w, "    level: %s\n", c.Logging.Level)
	out(w, "    file: %s\n", c.Logging.File)

	return nil
}

// displayConfigJSON shows the config in JSON format.
func displayConfigJSON(w interface {
	Write(p []byte) (n int, err error)
}, c *config.Config,
) error {
	type engineJSON struct {
		MaxGas int `json:"max_gas"`
	}
	type rateLimitJSON struct {
		RequestsPerSecond float64 `json:"requests_per_second"`
		Burst             int     `json:"burst"`
	}
	type configJSON struct {
		Version   int           `json:"version"`
		Home      string        `json:"home"`
		Engine    engineJSON    `json:"engine"`
		RateLimit rateLimitJSON `json:"rate_limit"`
		Output    struct {
			DefaultFormat string `json:"default_format"`
			Color         string `json:"color"`
			Verbose       bool   `json:"verbose"`
		} `json:"output"`
		Logging struct {
			Level string `json:"level"`
			File  string `json:"file"`
		} `json:"logging"`
	}

	outCfg := configJSON{
		Version: c.Version,
		Home:    c.Home,
		Engine:  engineJSON{MaxGas: c.Engine.MaxGas},
		RateLimit: rateLimitJSON{
			RequestsPerSecond: c.RateLimit.RequestsPerSecond,
			Burst:             c.RateLimit.Burst,
		},
	}
	outCfg.Output.DefaultFormat = c.Output.DefaultFormat
	outCfg.Output.Color = c.Output.Color
	outCfg.Output.Verbose = c.Output.Verbose
	outCfg.Logging.Level = c.Logging.Level
	outCfg.Logging.File = c.Logging.File

	return writeJSON(w, outCfg)
}
