// Package config builds the runtime configuration from, in increasing order
// of precedence: defaults, a YAML config file, a .env file, INTERFLOW_*
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/rodrigooliver/interflow-sub001/pkg/history"
	"github.com/rodrigooliver/interflow-sub001/pkg/installment"
)

const envPrefix = "INTERFLOW"

// EnvFile is read from the working directory when present.
const EnvFile = ".env"

type Config struct {
	Log          LogConfig
	Store        StoreConfig
	Server       ServerConfig
	Editor       EditorConfig
	Installments InstallmentsConfig
}

type LogConfig struct {
	Level string
}

type StoreConfig struct {
	// Path of the SQLite database, or "memory".
	Path string
}

type ServerConfig struct {
	Addr string
}

type EditorConfig struct {
	History HistoryConfig
}

type HistoryConfig struct {
	CoalesceWindow time.Duration
	MaxEntries     int
}

type InstallmentsConfig struct {
	SplitAmount    bool
	AllowedMethods []string
}

var defaults = map[string]any{
	"log.level":                      "info",
	"store.path":                     "interflow.db",
	"server.addr":                    "0.0.0.0:3000",
	"editor.history.coalesce_window": "500ms",
	"editor.history.max_entries":     50,
	"installments.split_amount":      false,
	"installments.allowed_methods":   []string{},
}

// flagKeys maps flag names to the keys they override.
var flagKeys = map[string]string{
	"log-level": "log.level",
	"store":     "store.path",
	"addr":      "server.addr",
	"split":     "installments.split_amount",
}

// Build loads the configuration. cfgFile may be empty, in which case
// config.yaml is looked up in the working directory and skipped when absent.
// flags may be nil.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := mergeEnvFile(v, EnvFile); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
		if debug, err := flags.GetBool("debug"); err == nil && debug {
			v.Set("log.level", "debug")
		}
	}

	cfg := &Config{
		Log:    LogConfig{Level: v.GetString("log.level")},
		Store:  StoreConfig{Path: v.GetString("store.path")},
		Server: ServerConfig{Addr: v.GetString("server.addr")},
		Editor: EditorConfig{History: HistoryConfig{
			CoalesceWindow: v.GetDuration("editor.history.coalesce_window"),
			MaxEntries:     v.GetInt("editor.history.max_entries"),
		}},
		Installments: InstallmentsConfig{
			SplitAmount:    v.GetBool("installments.split_amount"),
			AllowedMethods: stringList(v.Get("installments.allowed_methods")),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeEnvFile layers INTERFLOW_* entries of a dotenv file over the config
// file. Real environment variables still win.
func mergeEnvFile(v *viper.Viper, path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	env, err := gotenv.StrictParse(f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	layer := map[string]any{}
	for key := range defaults {
		if val, ok := env[envName(key)]; ok {
			nest(layer, key, val)
		}
	}
	if len(layer) == 0 {
		return nil
	}
	if err := v.MergeConfigMap(layer); err != nil {
		return fmt.Errorf("failed to merge %s: %w", path, err)
	}
	return nil
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func nest(m map[string]any, key string, val any) {
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = val
}

// stringList accepts YAML lists as well as comma separated strings from the
// environment.
func stringList(v any) []string {
	var raw []string
	switch t := v.(type) {
	case string:
		raw = strings.Split(t, ",")
	case []string:
		raw = t
	case []any:
		for _, item := range t {
			raw = append(raw, fmt.Sprint(item))
		}
	}

	out := []string{}
	for _, s := range raw {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level %q: %w", c.Log.Level, err)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path must not be empty")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Editor.History.CoalesceWindow < 0 {
		return fmt.Errorf("editor.history.coalesce_window must not be negative")
	}
	if c.Editor.History.MaxEntries < 1 {
		return fmt.Errorf("editor.history.max_entries must be at least 1")
	}
	return nil
}

// Logger returns a stderr logger at the configured level.
func (c *Config) Logger(prefix string) *log.Logger {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		level = log.InfoLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          prefix,
		ReportTimestamp: true,
		ReportCaller:    level == log.DebugLevel,
		Level:           level,
	})
}

// PlannerOptions returns the installment policy configured for this run.
func (c *Config) PlannerOptions() []installment.Option {
	return []installment.Option{
		installment.WithAllowedMethods(c.Installments.AllowedMethods...),
		installment.WithSplitAmount(c.Installments.SplitAmount),
	}
}

// HistoryOptions returns the undo history settings configured for this run.
func (c *Config) HistoryOptions() []history.Option {
	return []history.Option{
		history.WithCoalesceWindow(c.Editor.History.CoalesceWindow),
		history.WithMaxEntries(c.Editor.History.MaxEntries),
	}
}
