// Package config loads the tool settings from an optional YAML file and
// INVENTORY_TOOL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/shinji-kodama/inventory-tool/internal/model"
	"github.com/shinji-kodama/inventory-tool/internal/policy"
)

const (
	// FileName is the base name of the config file, without extension.
	FileName = "inventory-tool"

	// EnvPrefix prefixes every environment variable the tool reads.
	EnvPrefix = "INVENTORY_TOOL"

	// DefaultInventory is the inventory document used when none is configured.
	DefaultInventory = "hosts-production.yml"
)

// Config holds the tool settings.
type Config struct {
	// Inventory is the path of the inventory document.
	Inventory string `mapstructure:"inventory"`

	// Domains lists the suffixes host name normalization strips.
	Domains []string `mapstructure:"domains"`

	// IPAddressKeywords lists the host variables holding IP addresses.
	IPAddressKeywords []string `mapstructure:"ipaddress_keywords"`

	// IPNetworkKeywords lists the host variables holding CIDR networks.
	IPNetworkKeywords []string `mapstructure:"ipnetwork_keywords"`

	// LogLevel is the minimum zap level written to stderr.
	LogLevel string `mapstructure:"log_level"`
}

// New returns a viper instance with defaults and environment binding set
// up. With cfgFile empty, inventory-tool.yml is searched for in the working
// directory and in $HOME/.config/inventory-tool.
func New(cfgFile, home string) *viper.Viper {
	v := viper.New()
	v.SetDefault("inventory", DefaultInventory)
	v.SetDefault("domains", []string{})
	v.SetDefault("ipaddress_keywords", []string{"ansible_ssh_host", "tunnel_ip"})
	v.SetDefault("ipnetwork_keywords", []string{})
	v.SetDefault("log_level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		if home != "" {
			v.AddConfigPath(filepath.Join(home, ".config", FileName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file, if any, and decodes the settings. A missing
// file is fine unless it was named explicitly.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, model.WrapMalformedInput(err, "failed to read config")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, model.WrapMalformedInput(err, "failed to decode config")
	}
	if cfg.Inventory == "" {
		return nil, model.MalformedInput("inventory path must not be empty")
	}
	return cfg, nil
}

// Normalizer returns the host name normalization for the configured domains.
func (c *Config) Normalizer() policy.Normalizer {
	return policy.NewDomain(c.Domains...)
}

// Keywords returns the configured variable classification.
func (c *Config) Keywords() *policy.Keywords {
	return policy.NewKeywords(c.IPAddressKeywords, c.IPNetworkKeywords)
}

// String renders the settings for verbose output.
func (c *Config) String() string {
	return fmt.Sprintf("inventory=%s domains=%v ipaddress_keywords=%v ipnetwork_keywords=%v log_level=%s",
		c.Inventory, c.Domains, c.IPAddressKeywords, c.IPNetworkKeywords, c.LogLevel)
}
