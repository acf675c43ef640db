package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/golden-path-k8s/onboardctl/internal/argocd"
	"github.com/golden-path-k8s/onboardctl/internal/config"
	"github.com/golden-path-k8s/onboardctl/internal/engine"
	"github.com/golden-path-k8s/onboardctl/internal/env"
	"github.com/golden-path-k8s/onboardctl/internal/extract"
	"github.com/golden-path-k8s/onboardctl/internal/gitops"
	"github.com/golden-path-k8s/onboardctl/internal/kube"
	"github.com/golden-path-k8s/onboardctl/internal/logging"
	"github.com/golden-path-k8s/onboardctl/internal/repos"
)

// runTimeout bounds one complete onboarding run.
const runTimeout = 15 * time.Minute

// newOnboardCommand creates the "onboard" subcommand that runs the full pipeline.
func newOnboardCommand(_ *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   `onboard "<request>"`,
		Short: "Onboard an application from a natural-language deployment request",
		Example: `  onboardctl onboard "I need to deploy my new NodeJS service called inventory-api"
  onboardctl onboard "Create a payment-processing system"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := LoggerFromContext(cmd.Context())

			if err := env.LoadDotEnv("."); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			// Preconditions fail before any stage executes.
			if err := cfg.Validate(); err != nil {
				return err
			}

			extractor := extract.New(
				extract.NewModelStrategy(cfg.OpenRouterAPIKey, cfg.OpenRouterModel),
				logger,
			)
			provisioner := repos.NewProvisioner(
				repos.NewGitHubHost(cfg.GitHubToken, cfg.GitHubOwner),
				cfg.GitHubOwner,
				logger,
			)
			populator := gitops.NewPopulator(cfg.GitHubToken, cfg.GitAuthor, cfg.GitEmail, logger)
			registrar := argocd.NewRegistrar(
				kube.NewClient(cfg.Kubeconfig, cfg.KubeContext, logging.NewWriter(logger, string(engine.StageRegistering))),
				argocd.Settings{
					Namespace:     cfg.ArgoNamespace,
					Project:       cfg.ArgoProject,
					DestServer:    cfg.DestServer,
					DestNamespace: cfg.TargetNamespace,
				},
				logger,
			)

			eng := engine.New(extractor, provisioner, populator, registrar, engine.Options{
				SourceTemplate: cfg.SourceTemplate,
				ConfigTemplate: cfg.ConfigTemplate,
				Owner:          cfg.GitHubOwner,
				Author:         cfg.GitAuthor,
			}, logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
			defer cancel()

			res, err := eng.Run(ctx, args[0])
			if err != nil {
				return err
			}

			logger.Info("onboarding complete",
				"app", res.App,
				"source", res.Source.CloneURL,
				"config", res.Config.CloneURL,
				"descriptor", res.Descriptor,
			)
			return nil
		},
	}

	return cmd
}
