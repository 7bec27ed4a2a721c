package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/treescan/pkg/errors"
)

// EnvPrefix is the prefix for environment variable overrides,
// e.g. TREESCAN_SOURCE_PATH overrides source.path.
const EnvPrefix = "TREESCAN"

// Load loads a configuration from a YAML file. ${VAR} references are
// substituted from the environment before parsing, and TREESCAN_*
// environment variables override individual keys afterwards.
func Load(filePath string, cfg *BaseConfig) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller and validated
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to read config file")
	}

	content := substituteEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse YAML")
	}

	applyEnvOverrides(cfg)
	return nil
}

// Save saves a configuration to a YAML file
func Save(filePath string, cfg *BaseConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to marshal YAML")
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil { //nolint:gosec
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to write config file")
	}

	return nil
}

// applyEnvOverrides overrides config values from TREESCAN_* environment
// variables via viper.
func applyEnvOverrides(cfg *BaseConfig) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := v.GetString("source.path"); path != "" {
		cfg.Source.Path = path
	}
	if tree := v.GetString("source.tree"); tree != "" {
		cfg.Source.Tree = tree
	}
	if level := v.GetString("observability.log_level"); level != "" {
		cfg.Observability.LogLevel = level
	}
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}
