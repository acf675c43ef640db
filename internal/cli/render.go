package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/golden-path-k8s/onboardctl/internal/env"
	"github.com/golden-path-k8s/onboardctl/internal/extract"
	"github.com/golden-path-k8s/onboardctl/internal/render"
)

// newRenderCommand creates the "render" subcommand that renders a template
// tree to a local directory without touching any remote, for inspecting what
// an onboarding run would commit.
func newRenderCommand(_ *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <template-root> <dest>",
		Short: "Render a template tree into a local directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := LoggerFromContext(cmd.Context())

			app := extract.Normalize(cmd.Flag("app").Value.String())
			if app == "" {
				app = extract.DefaultIdentifier
			}

			inline, err := env.ParseInlineVars(cmd.Flag("vars").Value.String())
			if err != nil {
				return err
			}

			bindings := render.Bindings{
				"AppName":       app,
				"Description":   fmt.Sprintf("Local render of %s", app),
				"Language":      "NodeJS",
				"Author":        "onboardctl",
				"SourceRepoURL": "",
				"ConfigRepoURL": "",
				"ImageName":     app,
				"ImageTag":      "latest",
				"IngressHost":   app + ".local",
			}
			for k, v := range inline {
				bindings[k] = v
			}

			if err := render.Render(args[0], args[1], bindings); err != nil {
				return err
			}
			logger.Info("template rendered", "app", app, "template", args[0], "dest", args[1])
			return nil
		},
	}

	cmd.Flags().String("app", "", "Application identifier used in bindings")
	cmd.Flags().String("vars", "", "Additional bindings in k=v,k2=v2 format")

	return cmd
}
