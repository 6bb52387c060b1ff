package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed config.toml.tpl
var ballotConfigTemplate string

var configTemplate = template.Must(template.New("ballotConfig").Funcs(template.FuncMap{
	"StringsJoin": strings.Join,
}).Parse(ballotConfigTemplate))

// ConfigFile is where the node reads config.toml under home.
func ConfigFile(home string) string {
	return filepath.Join(home, "config", "config.toml")
}

// RenderConfig renders the CometBFT sections and the [app] section of cfg.
func RenderConfig(cfg *Config) ([]byte, error) {
	if cfg.App == nil {
		return nil, fmt.Errorf("render config: missing [app] section")
	}
	var buf bytes.Buffer
	if err := configTemplate.Execute(&buf, cfg); err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}
	return buf.Bytes(), nil
}

func WriteConfigFile(configFilePath string, cfg *Config) error {
	dat, err := RenderConfig(cfg)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(configFilePath), 0o755); err != nil {
		return fmt.Errorf("could not create directory %q: %w", filepath.Dir(configFilePath), err)
	}
	return os.WriteFile(configFilePath, dat, 0o644)
}
