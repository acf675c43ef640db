package repos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeHost is a scriptable Host for provisioner tests.
type fakeHost struct {
	existing  map[string]RepositoryRef
	getErr    map[string]error
	createErr map[string]error
	created   []string
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		existing:  make(map[string]RepositoryRef),
		getErr:    make(map[string]error),
		createErr: make(map[string]error),
	}
}

func (f *fakeHost) Get(_ context.Context, name string) (RepositoryRef, error) {
	if err, ok := f.getErr[name]; ok {
		return RepositoryRef{}, err
	}
	if ref, ok := f.existing[name]; ok {
		return ref, nil
	}
	return RepositoryRef{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

func (f *fakeHost) Create(_ context.Context, name, _ string) (RepositoryRef, error) {
	if err, ok := f.createErr[name]; ok {
		return RepositoryRef{}, err
	}
	if _, ok := f.existing[name]; ok {
		return RepositoryRef{}, fmt.Errorf("%w: %s", ErrNameConflict, name)
	}
	ref := RepositoryRef{
		Name:     name,
		CloneURL: "https://github.com/acme/" + name + ".git",
		HTMLURL:  "https://github.com/acme/" + name,
	}
	f.existing[name] = ref
	f.created = append(f.created, name)
	return ref, nil
}

func newTestProvisioner(host Host) *Provisioner {
	return NewProvisioner(host, "acme", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestProvision_CreatesBothRepositories(t *testing.T) {
	host := newFakeHost()
	p := newTestProvisioner(host)

	source, config, err := p.Provision(context.Background(), "inventory-api")
	require.NoError(t, err)

	require.Equal(t, "inventory-api-source", source.Name)
	require.Equal(t, "inventory-api-config", config.Name)
	require.False(t, source.Existed)
	require.False(t, config.Existed)
	require.Equal(t, []string{"inventory-api-source", "inventory-api-config"}, host.created)
}

func TestProvision_IdempotentAtIdentifierLevel(t *testing.T) {
	host := newFakeHost()
	p := newTestProvisioner(host)

	first1, first2, err := p.Provision(context.Background(), "inventory-api")
	require.NoError(t, err)

	second1, second2, err := p.Provision(context.Background(), "inventory-api")
	require.NoError(t, err)

	require.True(t, second1.Existed, "second run must reuse the source repository")
	require.True(t, second2.Existed, "second run must reuse the config repository")
	require.Equal(t, first1.CloneURL, second1.CloneURL)
	require.Equal(t, first2.CloneURL, second2.CloneURL)
	require.Len(t, host.created, 2, "no additional repositories created on re-run")
}

func TestProvision_PermissionFailureNotMaskedAsExists(t *testing.T) {
	host := newFakeHost()
	host.createErr["denied-source"] = errors.New("403 insufficient permission")
	p := newTestProvisioner(host)

	_, _, err := p.Provision(context.Background(), "denied")
	require.Error(t, err)

	var perr *ProvisionError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "denied", perr.App)
	require.Equal(t, "denied-source", perr.Failed)
	require.Empty(t, perr.Resolved)
	require.Contains(t, err.Error(), "insufficient permission")
}

func TestProvision_SecondRepoFailureNamesResolvedFirst(t *testing.T) {
	host := newFakeHost()
	host.createErr["inventory-api-config"] = errors.New("500 server error")
	p := newTestProvisioner(host)

	_, _, err := p.Provision(context.Background(), "inventory-api")
	require.Error(t, err)

	var perr *ProvisionError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "inventory-api-config", perr.Failed)
	require.Equal(t, []string{"inventory-api-source"}, perr.Resolved,
		"failure report must name the repository that did succeed")
}

func TestProvision_ConflictResolvedByLookup(t *testing.T) {
	host := newFakeHost()
	// Get says missing, create says conflict, second Get succeeds: simulates
	// losing a race to a concurrent run.
	raced := RepositoryRef{Name: "raced-source", CloneURL: "https://github.com/acme/raced-source.git"}
	gets := 0
	host.createErr["raced-source"] = fmt.Errorf("%w: raced-source", ErrNameConflict)

	p := NewProvisioner(hostFunc{
		get: func(name string) (RepositoryRef, error) {
			if name != "raced-source" {
				return host.Get(context.Background(), name)
			}
			gets++
			if gets == 1 {
				return RepositoryRef{}, fmt.Errorf("%w: %s", ErrNotFound, name)
			}
			return raced, nil
		},
		create: func(name, desc string) (RepositoryRef, error) {
			return host.Create(context.Background(), name, desc)
		},
	}, "acme", slog.New(slog.NewTextHandler(io.Discard, nil)))

	source, _, err := p.Provision(context.Background(), "raced")
	require.NoError(t, err)
	require.True(t, source.Existed)
	require.False(t, source.Inferred)
	require.Equal(t, raced.CloneURL, source.CloneURL)
}

func TestProvision_ConflictWithFailedLookupInfersURL(t *testing.T) {
	p := NewProvisioner(hostFunc{
		get: func(name string) (RepositoryRef, error) {
			return RepositoryRef{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		},
		create: func(name, _ string) (RepositoryRef, error) {
			return RepositoryRef{}, fmt.Errorf("%w: %s", ErrNameConflict, name)
		},
	}, "acme", slog.New(slog.NewTextHandler(io.Discard, nil)))

	source, config, err := p.Provision(context.Background(), "ghost")
	require.NoError(t, err)

	require.True(t, source.Inferred, "existence is inferred, not verified, on this path")
	require.Equal(t, "https://github.com/acme/ghost-source.git", source.CloneURL)
	require.Equal(t, "https://github.com/acme/ghost-config.git", config.CloneURL)
}

// hostFunc adapts bare functions to the Host interface.
type hostFunc struct {
	get    func(name string) (RepositoryRef, error)
	create func(name, description string) (RepositoryRef, error)
}

func (h hostFunc) Get(_ context.Context, name string) (RepositoryRef, error) {
	return h.get(name)
}

func (h hostFunc) Create(_ context.Context, name, description string) (RepositoryRef, error) {
	return h.create(name, description)
}
