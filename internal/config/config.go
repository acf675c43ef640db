// Package config contains the typed runtime configuration for onboardctl,
// sourced from ONBOARD_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	envparse "github.com/caarlos0/env/v11"
)

// Config carries every external setting the onboarding pipeline needs.
// It is loaded once in the CLI layer and injected into the stages; no stage
// reads the process environment on its own.
type Config struct {
	// GitHubToken authenticates repository creation and pushes.
	GitHubToken string `env:"ONBOARD_GITHUB_TOKEN"`
	// GitHubOwner is the account or organization that owns created repositories.
	GitHubOwner string `env:"ONBOARD_GITHUB_OWNER"`
	// OpenRouterAPIKey authenticates the model call for name extraction.
	OpenRouterAPIKey string `env:"ONBOARD_OPENROUTER_API_KEY"`
	// OpenRouterModel selects the hosted model used for extraction.
	OpenRouterModel string `env:"ONBOARD_OPENROUTER_MODEL" envDefault:"anthropic/claude-3-sonnet"`
	// SourceTemplate is the template root rendered into the source repository.
	SourceTemplate string `env:"ONBOARD_SOURCE_TEMPLATE"`
	// ConfigTemplate is the template root rendered into the config repository.
	ConfigTemplate string `env:"ONBOARD_CONFIG_TEMPLATE"`
	// ArgoNamespace is the namespace the Application descriptor is created in.
	ArgoNamespace string `env:"ONBOARD_ARGOCD_NAMESPACE" envDefault:"argocd"`
	// ArgoProject is the ArgoCD project the Application belongs to.
	ArgoProject string `env:"ONBOARD_ARGOCD_PROJECT" envDefault:"default"`
	// TargetNamespace is the namespace the application is deployed into.
	TargetNamespace string `env:"ONBOARD_TARGET_NAMESPACE" envDefault:"default"`
	// DestServer is the cluster API endpoint the Application targets.
	DestServer string `env:"ONBOARD_DEST_SERVER" envDefault:"https://kubernetes.default.svc"`
	// Kubeconfig is an optional kubeconfig path for kubectl.
	Kubeconfig string `env:"ONBOARD_KUBECONFIG"`
	// KubeContext selects an optional kubeconfig context.
	KubeContext string `env:"ONBOARD_KUBE_CONTEXT"`
	// GitAuthor is the commit author name for pushed trees.
	GitAuthor string `env:"ONBOARD_GIT_AUTHOR" envDefault:"Golden Path Bot"`
	// GitEmail is the commit author email for pushed trees.
	GitEmail string `env:"ONBOARD_GIT_EMAIL" envDefault:"golden-path@example.invalid"`
	// LogLevel is the default logging level (debug, info, warn, error).
	LogLevel string `env:"ONBOARD_LOG_LEVEL" envDefault:"info"`
}

// PreconditionError reports configuration that must be present before any
// pipeline stage executes.
type PreconditionError struct {
	// Missing lists the unset required environment variables.
	Missing []string
	// BadPaths lists template roots that are set but do not exist.
	BadPaths []string
}

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required environment variables: "+strings.Join(e.Missing, ", "))
	}
	if len(e.BadPaths) > 0 {
		parts = append(parts, "template roots do not exist: "+strings.Join(e.BadPaths, ", "))
	}
	if len(parts) == 0 {
		return "precondition failed"
	}
	return strings.Join(parts, "; ")
}

// Load parses the configuration from the process environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envparse.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

// Validate checks every required credential and template root up front and
// returns a PreconditionError naming all problems at once.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"ONBOARD_GITHUB_TOKEN", c.GitHubToken},
		{"ONBOARD_GITHUB_OWNER", c.GitHubOwner},
		{"ONBOARD_OPENROUTER_API_KEY", c.OpenRouterAPIKey},
		{"ONBOARD_SOURCE_TEMPLATE", c.SourceTemplate},
		{"ONBOARD_CONFIG_TEMPLATE", c.ConfigTemplate},
	}

	perr := &PreconditionError{}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			perr.Missing = append(perr.Missing, r.name)
		}
	}
	for _, root := range []string{c.SourceTemplate, c.ConfigTemplate} {
		if strings.TrimSpace(root) == "" {
			continue
		}
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			perr.BadPaths = append(perr.BadPaths, root)
		}
	}

	if len(perr.Missing) > 0 || len(perr.BadPaths) > 0 {
		return perr
	}
	return nil
}
