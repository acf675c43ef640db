// Package gitops populates a provisioned repository: it clones the remote,
// renders a template tree into the checkout, commits and pushes. The clone
// lives in a transient working directory that is discarded after the push.
package gitops

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/golden-path-k8s/onboardctl/internal/render"
	"github.com/golden-path-k8s/onboardctl/internal/repos"
)

const (
	branchMain   = "main"
	gitOpTimeout = 2 * time.Minute
)

// Populator renders template trees into remote repositories.
type Populator struct {
	token  string
	author string
	email  string
	logger *slog.Logger
}

// NewPopulator constructs a Populator. The token authenticates HTTPS clones
// and pushes; author/email sign the commits.
func NewPopulator(token, author, email string, logger *slog.Logger) *Populator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Populator{token: token, author: author, email: email, logger: logger}
}

// Populate clones ref, renders templateRoot into the checkout, commits with
// the given message and pushes. Rendering happens before anything is staged,
// so a render failure leaves the remote untouched. A render that changes
// nothing (re-run with the same bindings) skips the commit and push.
func (p *Populator) Populate(ctx context.Context, ref repos.RepositoryRef, templateRoot, message string, bindings render.Bindings) error {
	runCtx, cancel := context.WithTimeout(ctx, gitOpTimeout)
	defer cancel()

	dir, err := os.MkdirTemp("", "onboardctl-*")
	if err != nil {
		return fmt.Errorf("create working directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	repo, err := p.clone(runCtx, ref, dir)
	if err != nil {
		return fmt.Errorf("clone %s: %w", ref.Name, err)
	}

	if err := render.Render(templateRoot, dir, bindings); err != nil {
		return fmt.Errorf("render into %s: %w", ref.Name, err)
	}

	changed, err := commitIfChanged(repo, message, p.signature())
	if err != nil {
		return fmt.Errorf("commit in %s: %w", ref.Name, err)
	}
	if !changed {
		p.logger.Info("rendered tree matches remote, skipping push", "repository", ref.Name)
		return nil
	}

	if err := p.push(runCtx, repo); err != nil {
		return fmt.Errorf("push %s: %w", ref.Name, err)
	}
	p.logger.Info("rendered tree pushed", "repository", ref.Name, "branch", branchMain)
	return nil
}

func (p *Populator) signature() object.Signature {
	return object.Signature{
		Name:  p.author,
		Email: p.email,
		When:  time.Now().UTC(),
	}
}

// auth returns HTTP basic-auth credentials for remote URLs; local and ssh
// remotes get none.
func (p *Populator) auth(url string) *githttp.BasicAuth {
	if p.token == "" || !strings.HasPrefix(url, "http") {
		return nil
	}
	return &githttp.BasicAuth{Username: "x-access-token", Password: p.token}
}

// clone fetches the remote into dir. An empty remote (freshly created
// without seeding) is initialized locally on the default branch instead.
func (p *Populator) clone(ctx context.Context, ref repos.RepositoryRef, dir string) (*gogit.Repository, error) {
	repo, err := gogit.PlainCloneContext(ctx, dir, false, &gogit.CloneOptions{
		URL:  ref.CloneURL,
		Auth: p.auth(ref.CloneURL),
	})
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return nil, fmt.Errorf("clone %q: %w", ref.CloneURL, err)
	}

	p.logger.Debug("remote is empty, initializing local checkout", "repository", ref.Name)
	repo, initErr := gogit.PlainInit(dir, false)
	if initErr != nil {
		return nil, fmt.Errorf("initialize checkout: %w", initErr)
	}
	_, remoteErr := repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: gogit.DefaultRemoteName,
		URLs: []string{ref.CloneURL},
	})
	if remoteErr != nil {
		return nil, fmt.Errorf("configure origin: %w", remoteErr)
	}
	headErr := repo.Storer.SetReference(
		plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(branchMain)),
	)
	if headErr != nil {
		return nil, fmt.Errorf("set default branch: %w", headErr)
	}
	return repo, nil
}

func commitIfChanged(repo *gogit.Repository, message string, signature object.Signature) (bool, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("worktree: %w", err)
	}
	if err := wt.AddGlob("."); err != nil {
		return false, fmt.Errorf("stage changes: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("worktree status: %w", err)
	}
	if status.IsClean() {
		return false, nil
	}
	_, err = wt.Commit(message, &gogit.CommitOptions{
		Author:    &signature,
		Committer: &signature,
	})
	if err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

func (p *Populator) push(ctx context.Context, repo *gogit.Repository) error {
	remote, err := repo.Remote(gogit.DefaultRemoteName)
	if err != nil {
		return fmt.Errorf("resolve origin: %w", err)
	}
	url := ""
	if cfg := remote.Config(); len(cfg.URLs) > 0 {
		url = cfg.URLs[0]
	}

	err = repo.PushContext(ctx, &gogit.PushOptions{
		RemoteName: gogit.DefaultRemoteName,
		Auth:       p.auth(url),
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return err
	}
	return nil
}
