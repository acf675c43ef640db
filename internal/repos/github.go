package repos

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v68/github"
)

// GitHubHost implements Host against the GitHub REST API.
type GitHubHost struct {
	client *github.Client
	owner  string
}

// NewGitHubHost constructs a GitHubHost for the given access token and
// repository owner.
func NewGitHubHost(token, owner string) *GitHubHost {
	return &GitHubHost{
		client: github.NewClient(nil).WithAuthToken(token),
		owner:  owner,
	}
}

// Get resolves an existing repository by name.
func (h *GitHubHost) Get(ctx context.Context, name string) (RepositoryRef, error) {
	repo, resp, err := h.client.Repositories.Get(ctx, h.owner, name)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return RepositoryRef{}, fmt.Errorf("%w: %s/%s", ErrNotFound, h.owner, name)
		}
		return RepositoryRef{}, fmt.Errorf("get repository %s/%s: %w", h.owner, name, err)
	}
	return refFromRepository(repo), nil
}

// Create creates a repository seeded with an auto-initialized default branch.
func (h *GitHubHost) Create(ctx context.Context, name, description string) (RepositoryRef, error) {
	repo := &github.Repository{
		Name:        github.String(name),
		Description: github.String(description),
		Private:     github.Bool(false),
		AutoInit:    github.Bool(true),
	}

	created, resp, err := h.client.Repositories.Create(ctx, "", repo)
	if err != nil {
		var ghErr *github.ErrorResponse
		if errors.As(err, &ghErr) && resp != nil && resp.StatusCode == http.StatusUnprocessableEntity {
			return RepositoryRef{}, fmt.Errorf("%w: %s/%s", ErrNameConflict, h.owner, name)
		}
		return RepositoryRef{}, fmt.Errorf("create repository %s: %w", name, err)
	}
	return refFromRepository(created), nil
}

func refFromRepository(repo *github.Repository) RepositoryRef {
	return RepositoryRef{
		Name:     repo.GetName(),
		CloneURL: repo.GetCloneURL(),
		HTMLURL:  repo.GetHTMLURL(),
	}
}
