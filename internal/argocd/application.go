// Package argocd builds and registers the declarative Application descriptor
// that hands an onboarded application over to the continuous-delivery
// controller.
package argocd

import "github.com/golden-path-k8s/onboardctl/internal/repos"

// Settings carries the cluster-side coordinates for descriptors.
type Settings struct {
	// Namespace is where Application objects live (usually "argocd").
	Namespace string
	// Project is the ArgoCD project the Application belongs to.
	Project string
	// DestServer is the destination cluster API endpoint.
	DestServer string
	// DestNamespace is the namespace the application deploys into.
	DestNamespace string
}

// Application is the ArgoCD Application custom resource, reduced to the
// fields this pipeline sets.
type Application struct {
	APIVersion string          `yaml:"apiVersion"`
	Kind       string          `yaml:"kind"`
	Metadata   Metadata        `yaml:"metadata"`
	Spec       ApplicationSpec `yaml:"spec"`
}

// Metadata is the object metadata for the Application.
type Metadata struct {
	Name      string            `yaml:"name"`
	Namespace string            `yaml:"namespace"`
	Labels    map[string]string `yaml:"labels,omitempty"`
}

// ApplicationSpec binds a source repository to a destination namespace.
type ApplicationSpec struct {
	Project     string      `yaml:"project"`
	Source      Source      `yaml:"source"`
	Destination Destination `yaml:"destination"`
	SyncPolicy  SyncPolicy  `yaml:"syncPolicy"`
}

// Source names the tracked repository, revision and path.
type Source struct {
	RepoURL        string `yaml:"repoURL"`
	TargetRevision string `yaml:"targetRevision"`
	Path           string `yaml:"path"`
}

// Destination names the target cluster and namespace.
type Destination struct {
	Server    string `yaml:"server"`
	Namespace string `yaml:"namespace"`
}

// SyncPolicy configures how the controller reconciles the Application.
type SyncPolicy struct {
	Automated   *Automated `yaml:"automated,omitempty"`
	SyncOptions []string   `yaml:"syncOptions,omitempty"`
	Retry       *Retry     `yaml:"retry,omitempty"`
}

// Automated enables continuous reconciliation.
type Automated struct {
	Prune    bool `yaml:"prune"`
	SelfHeal bool `yaml:"selfHeal"`
}

// Retry configures controller-side retry of failed syncs.
type Retry struct {
	Limit   int     `yaml:"limit"`
	Backoff Backoff `yaml:"backoff"`
}

// Backoff shapes the retry backoff.
type Backoff struct {
	Duration    string `yaml:"duration"`
	Factor      int    `yaml:"factor"`
	MaxDuration string `yaml:"maxDuration"`
}

// BuildApplication constructs the descriptor for an app: the config
// repository's default branch is continuously synced into the destination
// namespace with prune and self-heal enabled.
func BuildApplication(app string, configRepo repos.RepositoryRef, settings Settings) Application {
	return Application{
		APIVersion: "argoproj.io/v1alpha1",
		Kind:       "Application",
		Metadata: Metadata{
			Name:      app,
			Namespace: settings.Namespace,
			Labels: map[string]string{
				"app":        app,
				"created-by": "onboardctl",
			},
		},
		Spec: ApplicationSpec{
			Project: settings.Project,
			Source: Source{
				RepoURL:        configRepo.CloneURL,
				TargetRevision: "HEAD",
				Path:           ".",
			},
			Destination: Destination{
				Server:    settings.DestServer,
				Namespace: settings.DestNamespace,
			},
			SyncPolicy: SyncPolicy{
				Automated: &Automated{Prune: true, SelfHeal: true},
				SyncOptions: []string{
					"CreateNamespace=true",
					"PrunePropagationPolicy=foreground",
					"PruneLast=true",
				},
				Retry: &Retry{
					Limit: 5,
					Backoff: Backoff{
						Duration:    "5s",
						Factor:      2,
						MaxDuration: "3m",
					},
				},
			},
		},
	}
}
