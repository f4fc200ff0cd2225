package config

import (
	"github.com/xplshn/vmt/pkg/cli"
)

type Feature int

const (
	FeatEchoSrc Feature = iota
	FeatHeader
	FeatCount
)

type Warning int

const (
	WarnOverflow Warning = iota
	WarnExtra
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Features   map[Feature]Info
	Warnings   map[Warning]Info
	FeatureMap map[string]Feature
	WarningMap map[string]Warning
}

func NewConfig() *Config {
	cfg := &Config{
		FeatureMap: make(map[string]Feature),
		WarningMap: make(map[string]Warning),
	}

	cfg.Features = map[Feature]Info{
		FeatEchoSrc: {"echo-src", true, "Echo each source instruction as a comment above its block."},
		FeatHeader:  {"header", true, "Emit the fixed two-line header at the top of the output."},
	}

	cfg.Warnings = map[Warning]Info{
		WarnOverflow: {"overflow", true, "Warn when a constant exceeds the 15-bit immediate range."},
		WarnExtra:    {"extra", true, "Enable extra miscellaneous warnings."},
	}

	for ft, info := range cfg.Features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range cfg.Warnings {
		cfg.WarningMap[info.Name] = wt
	}
	return cfg
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// SetupFlagGroups registers -W<warning>/-Wno-<warning> and -F<feature>/
// -Fno-<feature> flag groups and returns the entries so the caller can
// apply them after parsing.
func (c *Config) SetupFlagGroups(fs *cli.FlagSet) ([]cli.FlagGroupEntry, []cli.FlagGroupEntry) {
	warningEntries := make([]cli.FlagGroupEntry, WarnCount)
	for i := Warning(0); i < WarnCount; i++ {
		info := c.Warnings[i]
		warningEntries[i] = cli.FlagGroupEntry{
			Name:     info.Name,
			Prefix:   "W",
			Usage:    info.Description,
			Enabled:  new(bool),
			Disabled: new(bool),
		}
	}
	fs.AddFlagGroup("Warnings", "warning", "Available warnings:", warningEntries)

	featureEntries := make([]cli.FlagGroupEntry, FeatCount)
	for i := Feature(0); i < FeatCount; i++ {
		info := c.Features[i]
		featureEntries[i] = cli.FlagGroupEntry{
			Name:     info.Name,
			Prefix:   "F",
			Usage:    info.Description,
			Enabled:  new(bool),
			Disabled: new(bool),
		}
	}
	fs.AddFlagGroup("Features", "feature", "Available features:", featureEntries)

	return warningEntries, featureEntries
}

// Apply transfers parsed group-flag state back into the config. Explicit
// disables win over enables.
func (c *Config) Apply(warningEntries, featureEntries []cli.FlagGroupEntry) {
	for i, entry := range warningEntries {
		if entry.Enabled != nil && *entry.Enabled {
			c.SetWarning(Warning(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetWarning(Warning(i), false)
		}
	}
	for i, entry := range featureEntries {
		if entry.Enabled != nil && *entry.Enabled {
			c.SetFeature(Feature(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetFeature(Feature(i), false)
		}
	}
}
