package github

import (
	"context"
	"fmt"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/prospector-cli/internal/core/domain"
	"github.com/custodia-labs/prospector-cli/internal/core/ports/driven"
)

// Ensure the adapter satisfies the ports.
var (
	_ driven.SearchAPI     = (*SearchAdapter)(nil)
	_ driven.DetailFetcher = (*SearchAdapter)(nil)
)

// SearchAdapter implements the core's SearchAPI and DetailFetcher
// ports on top of the repository search endpoint. The base query and
// tactic come from config; the range filter comes from the task.
type SearchAdapter struct {
	client    *Client
	baseQuery string
	tactic    domain.Tactic
	pageSize  int
	timeout   time.Duration
}

// NewSearchAdapter creates a search adapter bound to a base query and
// tactic.
func NewSearchAdapter(client *Client, cfg domain.DiscoveryConfig, tactic domain.Tactic) *SearchAdapter {
	cfg = cfg.Normalise()
	return &SearchAdapter{
		client:    client,
		baseQuery: cfg.Query,
		tactic:    tactic,
		pageSize:  cfg.PageSize,
		timeout:   cfg.RequestTimeout,
	}
}

// Count issues a count-only probe: a single one-item page whose
// TotalCount field carries the full match count.
func (a *SearchAdapter) Count(ctx context.Context, r domain.DomainRange) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.client.rateLimiter.Wait(ctx, ScopeSearch); err != nil {
		return 0, fmt.Errorf("rate limit wait: %w", err)
	}

	opts := &gh.SearchOptions{
		ListOptions: gh.ListOptions{Page: 1, PerPage: 1},
	}
	result, resp, err := a.client.gh.Search.Repositories(ctx, a.query(r), opts)
	if err != nil {
		return 0, a.client.wrapError(err, ScopeSearch, "count probe")
	}
	a.client.updateRateLimitFromResponse(ScopeSearch, resp)

	if result == nil || result.Total == nil {
		return 0, domain.ErrMalformedResponse
	}
	return result.GetTotal(), nil
}

// Search returns one page of repositories for the range.
func (a *SearchAdapter) Search(ctx context.Context, r domain.DomainRange, page int) (*driven.SearchPage, error) {
	if page < 1 {
		page = 1
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.client.rateLimiter.Wait(ctx, ScopeSearch); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	opts := &gh.SearchOptions{
		Sort:        a.tactic.Sort,
		Order:       "desc",
		ListOptions: gh.ListOptions{Page: page, PerPage: a.pageSize},
	}
	result, resp, err := a.client.gh.Search.Repositories(ctx, a.query(r), opts)
	if err != nil {
		return nil, a.client.wrapError(err, ScopeSearch, "search page")
	}
	a.client.updateRateLimitFromResponse(ScopeSearch, resp)

	if result == nil || result.Total == nil {
		return nil, domain.ErrMalformedResponse
	}

	items := make([]domain.Candidate, 0, len(result.Repositories))
	for _, repo := range result.Repositories {
		cand, err := candidateFromRepo(repo)
		if err != nil {
			// Malformed entries are skipped, never retried.
			continue
		}
		items = append(items, *cand)
	}

	return &driven.SearchPage{
		TotalCount: result.GetTotal(),
		Items:      items,
	}, nil
}

// FetchReadme downloads the repository README via the contents API
// (core scope).
func (a *SearchAdapter) FetchReadme(ctx context.Context, owner, repo, ref string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.client.rateLimiter.Wait(ctx, ScopeCore); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	opts := &gh.RepositoryContentGetOptions{Ref: ref}
	content, resp, err := a.client.gh.Repositories.GetReadme(ctx, owner, repo, opts)
	if err != nil {
		wrapped := a.client.wrapError(err, ScopeCore, "get readme")
		if IsNotFound(wrapped) {
			return "", domain.ErrNotFound
		}
		return "", wrapped
	}
	a.client.updateRateLimitFromResponse(ScopeCore, resp)

	decoded, err := content.GetContent()
	if err != nil {
		return "", domain.ErrMalformedResponse
	}
	return decoded, nil
}

// query compiles the full search query for a range.
func (a *SearchAdapter) query(r domain.DomainRange) string {
	return a.tactic.BuildQuery(a.baseQuery, r)
}

// candidateFromRepo maps an API repository to a candidate. Entries
// missing the fields the pipeline depends on are malformed.
func candidateFromRepo(repo *gh.Repository) (*domain.Candidate, error) {
	if repo == nil || repo.FullName == nil || repo.Owner == nil || repo.Owner.Login == nil || repo.Name == nil {
		return nil, domain.ErrMalformedResponse
	}

	return &domain.Candidate{
		ExternalID:    repo.GetFullName(),
		Owner:         repo.GetOwner().GetLogin(),
		Repo:          repo.GetName(),
		Description:   repo.GetDescription(),
		Stars:         repo.GetStargazersCount(),
		Language:      repo.GetLanguage(),
		DefaultBranch: repo.GetDefaultBranch(),
		HTMLURL:       repo.GetHTMLURL(),
		Decision:      domain.DecisionPending,
		DiscoveredAt:  time.Now().UTC(),
	}, nil
}
