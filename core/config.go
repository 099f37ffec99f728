package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultToleranceSeconds = 300
	DefaultBasePath         = "/stripe/webhook"
)

type WebhookSecrets struct {
	Primary string `koanf:"primary" mapstructure:"primary"`
	Connect string `koanf:"connect" mapstructure:"connect"`
}

// WebhookConfig enables the webhook module. A nil WebhookConfig on Config
// leaves the module disabled. Handlers for a namespace whose secret is absent
// are still discovered unless SkipUnconfiguredNamespaces is set; those
// handlers can never be reached.
type WebhookConfig struct {
	Secrets                    WebhookSecrets `koanf:"secrets" mapstructure:"secrets"`
	LogMatchingHandlerCounts   bool           `koanf:"log_matching_handler_counts" mapstructure:"log_matching_handler_counts"`
	SkipUnconfiguredNamespaces bool           `koanf:"skip_unconfigured_namespaces" mapstructure:"skip_unconfigured_namespaces"`
	ToleranceSeconds           int            `koanf:"tolerance_seconds" mapstructure:"tolerance_seconds"`
	EnforceAPIVersion          bool           `koanf:"enforce_api_version" mapstructure:"enforce_api_version"`
	BasePath                   string         `koanf:"base_path" mapstructure:"base_path"`
}

type Config struct {
	ServiceName string         `koanf:"service_name" mapstructure:"service_name"`
	Webhooks    *WebhookConfig `koanf:"webhooks" mapstructure:"webhooks"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "stripe-webhooks",
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Webhooks != nil {
		if c.Webhooks.ToleranceSeconds < 0 {
			return fmt.Errorf("core: webhooks.tolerance_seconds must not be negative")
		}
		if path := strings.TrimSpace(c.Webhooks.BasePath); path != "" && !strings.HasPrefix(path, "/") {
			return fmt.Errorf("core: webhooks.base_path must start with /")
		}
	}
	return nil
}

// Secret returns the trimmed secret configured for namespace.
func (c WebhookConfig) Secret(namespace Namespace) string {
	switch namespace {
	case NamespacePrimary:
		return strings.TrimSpace(c.Secrets.Primary)
	case NamespaceConnect:
		return strings.TrimSpace(c.Secrets.Connect)
	default:
		return ""
	}
}

// ConfiguredNamespaces returns the namespaces that carry a secret.
func (c WebhookConfig) ConfiguredNamespaces() []Namespace {
	out := make([]Namespace, 0, 2)
	for _, namespace := range Namespaces() {
		if c.Secret(namespace) != "" {
			out = append(out, namespace)
		}
	}
	return out
}

func (c WebhookConfig) Tolerance() time.Duration {
	if c.ToleranceSeconds <= 0 {
		return DefaultToleranceSeconds * time.Second
	}
	return time.Duration(c.ToleranceSeconds) * time.Second
}

func (c WebhookConfig) ResolvedBasePath() string {
	path := strings.TrimRight(strings.TrimSpace(c.BasePath), "/")
	if path == "" {
		return DefaultBasePath
	}
	return path
}
