// Package config resolves process settings from flags, COACHLAB_ environment
// variables and an optional YAML file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/alexanderramin/coachlab/internal/llm"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment key, e.g. COACHLAB_DB.
const EnvPrefix = "COACHLAB"

// Config is the resolved process configuration.
type Config struct {
	ConfigFile  string
	DBPath      string
	OwnerID     string
	Verbose     bool
	LogFile     string
	MetricsAddr string
	LLM         llm.LLMConfig
}

// New returns a viper instance bound to the COACHLAB_ environment.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// RegisterFlags adds the persistent flags shared by every command and binds
// them to v.
func RegisterFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	flags.String("config", "", "config file (default ~/.coachlab/config.yaml)")
	flags.String("db", "", "SQLite database path (default ~/.coachlab/coachlab.db)")
	flags.String("owner", "", "course owner id (default: OS user name)")
	flags.BoolP("verbose", "v", false, "debug logging on stderr")
	flags.String("log-file", "", "also write JSON logs to this file (rotated)")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")

	for key, name := range map[string]string{
		"config":       "config",
		"db":           "db",
		"owner":        "owner",
		"verbose":      "verbose",
		"log.file":     "log-file",
		"metrics.addr": "metrics-addr",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

// Load reads the optional config file and resolves defaults. A missing file
// is not an error unless it was named explicitly.
func Load(v *viper.Viper) (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("finding home directory: %w", err)
	}
	base := filepath.Join(home, ".coachlab")

	explicit := v.GetString("config")
	file := explicit
	if file == "" {
		file = filepath.Join(base, "config.yaml")
	}
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return Config{}, fmt.Errorf("reading config %s: %w", file, err)
		}
		file = ""
	}

	cfg := Config{
		ConfigFile:  file,
		DBPath:      v.GetString("db"),
		OwnerID:     strings.TrimSpace(v.GetString("owner")),
		Verbose:     v.GetBool("verbose"),
		LogFile:     v.GetString("log.file"),
		MetricsAddr: v.GetString("metrics.addr"),
		LLM:         llm.LoadConfig(v),
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(base, "coachlab.db")
	}
	if cfg.OwnerID == "" {
		cfg.OwnerID = defaultOwner()
	}
	return cfg, nil
}

func defaultOwner() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "coach"
}
