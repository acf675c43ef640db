// Package repos ensures the paired source and config repositories for an
// application exist on the version-control host before anything is rendered
// into them.
package repos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

const (
	// SourceSuffix is appended to the app identifier for the source repository.
	SourceSuffix = "-source"
	// ConfigSuffix is appended to the app identifier for the deployment-config repository.
	ConfigSuffix = "-config"
)

// ErrNotFound is returned by a Host when the named repository does not exist.
var ErrNotFound = errors.New("repository not found")

// ErrNameConflict is returned by a Host when creation failed because the
// name is already taken.
var ErrNameConflict = errors.New("repository name already exists")

// RepositoryRef identifies a resolved remote repository.
type RepositoryRef struct {
	// Name is the repository name (identifier plus suffix).
	Name string
	// CloneURL is the HTTPS clone URL.
	CloneURL string
	// HTMLURL is the browsable URL, when known.
	HTMLURL string
	// Existed is true when the repository predates this run.
	Existed bool
	// Inferred is true when existence was inferred from a name conflict
	// rather than verified against the host.
	Inferred bool
}

// Host is the narrow slice of the version-control management API the
// provisioner needs.
type Host interface {
	// Get resolves an existing repository by name, or ErrNotFound.
	Get(ctx context.Context, name string) (RepositoryRef, error)
	// Create creates a repository seeded with a default branch, or
	// ErrNameConflict when the name is taken.
	Create(ctx context.Context, name, description string) (RepositoryRef, error)
}

// ProvisionError reports a repository pair that could not be fully resolved.
// Resolved names the repositories that did succeed, so an operator can clean
// up or re-run with the same identifier.
type ProvisionError struct {
	App      string
	Failed   string
	Resolved []string
	Err      error
}

// Error implements the error interface.
func (e *ProvisionError) Error() string {
	msg := fmt.Sprintf("provision repository %q for app %q: %v", e.Failed, e.App, e.Err)
	if len(e.Resolved) > 0 {
		msg += fmt.Sprintf(" (already resolved: %s)", strings.Join(e.Resolved, ", "))
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ProvisionError) Unwrap() error { return e.Err }

// Provisioner resolves the repository pair for an application.
type Provisioner struct {
	host   Host
	owner  string
	logger *slog.Logger
}

// NewProvisioner constructs a Provisioner over the given host API.
func NewProvisioner(host Host, owner string, logger *slog.Logger) *Provisioner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provisioner{host: host, owner: owner, logger: logger}
}

// Provision ensures both repositories for the app exist and returns their
// refs. Existing repositories are reused; calling Provision twice with the
// same identifier is safe. On failure the returned ProvisionError names the
// repository that failed and any that already resolved.
func (p *Provisioner) Provision(ctx context.Context, app string) (RepositoryRef, RepositoryRef, error) {
	var refs [2]RepositoryRef
	var resolved []string

	specs := []struct {
		name        string
		description string
	}{
		{app + SourceSuffix, fmt.Sprintf("Source code for %s", app)},
		{app + ConfigSuffix, fmt.Sprintf("Deployment configuration for %s", app)},
	}

	for i, spec := range specs {
		ref, err := p.ensure(ctx, spec.name, spec.description)
		if err != nil {
			return RepositoryRef{}, RepositoryRef{}, &ProvisionError{
				App:      app,
				Failed:   spec.name,
				Resolved: resolved,
				Err:      err,
			}
		}
		p.logger.Info("repository resolved",
			"name", ref.Name, "existed", ref.Existed, "inferred", ref.Inferred, "url", ref.CloneURL)
		refs[i] = ref
		resolved = append(resolved, ref.Name)
	}

	return refs[0], refs[1], nil
}

// ensure resolves one repository with an explicit check-then-create
// sequence. A create error other than a name conflict stays an error, so a
// genuine failure (for example insufficient permission) is never masked as
// "already exists".
func (p *Provisioner) ensure(ctx context.Context, name, description string) (RepositoryRef, error) {
	ref, err := p.host.Get(ctx, name)
	if err == nil {
		ref.Existed = true
		return ref, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return RepositoryRef{}, fmt.Errorf("check existence of %q: %w", name, err)
	}

	ref, err = p.host.Create(ctx, name, description)
	if err == nil {
		return ref, nil
	}
	if !errors.Is(err, ErrNameConflict) {
		return RepositoryRef{}, fmt.Errorf("create %q: %w", name, err)
	}

	// The name was taken between the check and the create. Prefer a fresh
	// lookup; fall back to the constructed clone URL with existence
	// inferred, not verified.
	ref, lookupErr := p.host.Get(ctx, name)
	if lookupErr == nil {
		ref.Existed = true
		return ref, nil
	}
	p.logger.Warn("name conflict on create but lookup failed, inferring clone URL",
		"name", name, "error", lookupErr)
	return RepositoryRef{
		Name:     name,
		CloneURL: fmt.Sprintf("https://github.com/%s/%s.git", p.owner, name),
		HTMLURL:  fmt.Sprintf("https://github.com/%s/%s", p.owner, name),
		Existed:  true,
		Inferred: true,
	}, nil
}
