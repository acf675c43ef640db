package argocd

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/golden-path-k8s/onboardctl/internal/repos"
)

// RegistrationError reports a descriptor that could not be applied. It names
// the descriptor and its namespace so an operator can inspect or clean up.
type RegistrationError struct {
	App        string
	Descriptor string
	Namespace  string
	Err        error
}

// Error implements the error interface.
func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register application %q (descriptor %s/%s): %v", e.App, e.Namespace, e.Descriptor, e.Err)
}

// Unwrap returns the underlying cause.
func (e *RegistrationError) Unwrap() error { return e.Err }

// Applier applies a YAML manifest to the cluster control plane.
// *kube.Client satisfies it.
type Applier interface {
	Apply(ctx context.Context, yaml []byte) error
}

// Registrar builds Application descriptors and applies them to the cluster.
type Registrar struct {
	applier  Applier
	settings Settings
	logger   *slog.Logger
}

// NewRegistrar constructs a Registrar over the given applier.
func NewRegistrar(applier Applier, settings Settings, logger *slog.Logger) *Registrar {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registrar{applier: applier, settings: settings, logger: logger}
}

// Register applies the Application descriptor for the app. Apply failure is
// terminal for the run; ongoing retry belongs to the controller, not here.
func (r *Registrar) Register(ctx context.Context, app string, configRepo repos.RepositoryRef) error {
	descriptor := BuildApplication(app, configRepo, r.settings)

	manifest, err := yaml.Marshal(descriptor)
	if err != nil {
		return &RegistrationError{App: app, Descriptor: app, Namespace: r.settings.Namespace,
			Err: fmt.Errorf("encode descriptor: %w", err)}
	}

	r.logger.Info("applying deployment descriptor",
		"app", app, "namespace", r.settings.Namespace, "repo", configRepo.CloneURL)
	if err := r.applier.Apply(ctx, manifest); err != nil {
		return &RegistrationError{App: app, Descriptor: app, Namespace: r.settings.Namespace, Err: err}
	}
	return nil
}
