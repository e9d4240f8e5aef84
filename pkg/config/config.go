// pkg/config/config.go
//
// Configuration for a pipeline run. Values come from, in increasing
// precedence: built-in defaults, an optional scriptship.yaml, SCRIPTSHIP_*
// environment variables, and command-line flags.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	cerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/scriptship/scriptship/pkg/ship_io"
)

// Config holds everything one deployment run needs.
type Config struct {
	// Source tree
	ProjectDir string `mapstructure:"project_dir" validate:"required"`
	Branch     string `mapstructure:"branch" validate:"required"`
	AnyBranch  bool   `mapstructure:"any_branch"`
	AllowDirty bool   `mapstructure:"allow_dirty"`

	// Deployment target: empty means create a new deployment.
	DeploymentID string `mapstructure:"deployment_id"`

	// Credential source. Exactly one is consulted: an explicit file wins,
	// then a Vault path, then the environment variable.
	CredentialEnv  string `mapstructure:"credential_env"`
	CredentialFile string `mapstructure:"credential_file"`
	VaultPath      string `mapstructure:"vault_path"`
	VaultKey       string `mapstructure:"vault_key"`

	// Where the credential is materialized for the platform CLI.
	CredentialPath string `mapstructure:"credential_path" validate:"required"`

	// Run behavior
	StateDir    string        `mapstructure:"state_dir" validate:"required"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	SkipInstall bool          `mapstructure:"skip_install"`
	DryRun      bool          `mapstructure:"dry_run"`
}

// Load assembles the run configuration. A local .env file is honored when
// present, matching how CI runners inject secrets locally.
func Load(rc *ship_io.RuntimeContext, flags *pflag.FlagSet) (*Config, error) {
	logger := otelzap.Ctx(rc.Ctx)

	if err := godotenv.Load(); err == nil {
		logger.Debug("Loaded .env file")
	}

	v := viper.New()
	v.SetEnvPrefix("SCRIPTSHIP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	v.SetConfigName("scriptship")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err == nil {
		logger.Debug("Loaded config file", zap.String("path", v.ConfigFileUsed()))
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
		return nil, cerr.Wrap(err, "failed to read scriptship.yaml")
	}

	if flags != nil {
		// Flag names use dashes, config keys use underscores.
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, cerr.Wrap(bindErr, "failed to bind flags")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, cerr.Wrap(err, "failed to unmarshal configuration")
	}

	cfg.ProjectDir = expandHome(cfg.ProjectDir)
	cfg.CredentialPath = expandHome(cfg.CredentialPath)
	cfg.CredentialFile = expandHome(cfg.CredentialFile)
	cfg.StateDir = expandHome(cfg.StateDir)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate runs struct validation over a configuration.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return cerr.WithHint(err, "configuration validation failed")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("project_dir", ".")
	v.SetDefault("branch", "main")
	v.SetDefault("any_branch", false)
	v.SetDefault("allow_dirty", false)
	v.SetDefault("deployment_id", "")
	v.SetDefault("credential_env", "CLASPRC_JSON")
	v.SetDefault("credential_file", "")
	v.SetDefault("vault_path", "")
	v.SetDefault("vault_key", "clasprc")
	v.SetDefault("credential_path", filepath.Join("~", ".clasprc.json"))
	v.SetDefault("state_dir", defaultStateDir())
	v.SetDefault("timeout", 10*time.Minute)
	v.SetDefault("skip_install", false)
	v.SetDefault("dry_run", false)
}

func defaultStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "scriptship")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "scriptship")
	}
	return filepath.Join(home, ".local", "state", "scriptship")
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
