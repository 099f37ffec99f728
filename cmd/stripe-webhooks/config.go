package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-stripe-webhooks/core"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix scopes environment overrides. Nested keys use a double
// underscore, e.g. STRIPE_WEBHOOKS_WEBHOOKS__SECRETS__PRIMARY.
const envPrefix = "STRIPE_WEBHOOKS_"

// koanfLoader reads defaults, an optional TOML file and environment
// overrides, later sources winning.
type koanfLoader struct {
	path string
}

func (l koanfLoader) LoadRaw(context.Context) (map[string]any, error) {
	k := koanf.New(".")
	defaults := core.DefaultConfig()
	if err := k.Load(confmap.Provider(map[string]any{
		"service_name": defaults.ServiceName,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path := strings.TrimSpace(l.path); path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	return k.Raw(), nil
}

func envKey(name string) string {
	key := strings.TrimPrefix(name, envPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

func loadConfig(ctx context.Context, path string) (core.Config, error) {
	return core.ResolveConfig(ctx, core.Config{}, core.NewCfgxConfigProvider(koanfLoader{path: path}), nil)
}
