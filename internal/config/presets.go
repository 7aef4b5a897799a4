package config

import "sort"

// Presets build fresh configurations so callers may modify the result.
var Presets = map[string]func() *Config{
	"reference": DefaultConfig,
	"quick": func() *Config {
		cfg := DefaultConfig()
		cfg.Events = 1000
		return cfg
	},
	"smeared": func() *Config {
		cfg := DefaultConfig()
		cfg.Smear = true
		return cfg
	},
	"kstar-rich": func() *Config {
		cfg := DefaultConfig()
		cfg.Events = 10000
		cfg.Composition = []FractionConfig{
			{Species: "pi+", Weight: 0.35},
			{Species: "pi-", Weight: 0.35},
			{Species: "K+", Weight: 0.05},
			{Species: "K-", Weight: 0.05},
			{Species: "p+", Weight: 0.05},
			{Species: "p-", Weight: 0.05},
			{Species: "K*", Weight: 0.10},
		}
		return cfg
	},
}

func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
