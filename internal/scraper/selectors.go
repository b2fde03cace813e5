package scraper

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/spf13/viper"
)

//go:embed selectors.yaml
var defaultSelectorsYAML []byte

// Selector is one extraction candidate. Query is CSS unless prefixed with "xpath:".
type Selector struct {
	Query string `mapstructure:"query"`
	Attr  string `mapstructure:"attr"`
}

// PlatformSelectors holds the ordered candidates for each extracted field.
type PlatformSelectors struct {
	Price    []Selector `mapstructure:"price"`
	Name     []Selector `mapstructure:"name"`
	Image    []Selector `mapstructure:"image"`
	Currency []Selector `mapstructure:"currency"`
}

// SelectorConfig is the versioned selector set for all parsers.
type SelectorConfig struct {
	Version  int               `mapstructure:"version"`
	Amazon   PlatformSelectors `mapstructure:"amazon"`
	Flipkart PlatformSelectors `mapstructure:"flipkart"`
	Generic  PlatformSelectors `mapstructure:"generic"`
}

// LoadSelectors reads the embedded selector set and merges overridePath on top of it.
// Lists in the override replace the embedded list for the same key.
func LoadSelectors(overridePath string) (*SelectorConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewReader(defaultSelectorsYAML)); err != nil {
		return nil, fmt.Errorf("read embedded selectors: %w", err)
	}

	if overridePath != "" {
		v.SetConfigFile(overridePath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merge selectors from %s: %w", overridePath, err)
		}
	}

	var cfg SelectorConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode selectors: %w", err)
	}

	if len(cfg.Amazon.Price) == 0 || len(cfg.Flipkart.Price) == 0 {
		return nil, fmt.Errorf("selector set version %d has no price selectors", cfg.Version)
	}

	return &cfg, nil
}

// DefaultSelectors returns the embedded selector set. It panics if the embedded file is broken.
func DefaultSelectors() *SelectorConfig {
	cfg, err := LoadSelectors("")
	if err != nil {
		panic(err)
	}
	return cfg
}
