package driven

import (
	"context"

	"github.com/custodia-labs/prospector-cli/internal/core/domain"
)

// SearchPage is one page of search results plus the total match count
// the API reports for the whole query.
type SearchPage struct {
	// TotalCount is the full match count, which may exceed the
	// addressable result cap.
	TotalCount int

	// Items are the candidates on this page.
	Items []domain.Candidate
}

// SearchAPI is the remote search collaborator. Every call is bounded
// by the context deadline and consumes the "search" rate scope.
type SearchAPI interface {
	// Count issues a count-only probe for the query restricted to the
	// range. Implemented as a single minimal page request.
	Count(ctx context.Context, r domain.DomainRange) (int, error)

	// Search returns one page of results for the query restricted to
	// the range. Page is 1-based.
	Search(ctx context.Context, r domain.DomainRange, page int) (*SearchPage, error)
}

// DetailFetcher is the enrichment collaborator, consuming the "core"
// rate scope, which is budgeted independently of search.
type DetailFetcher interface {
	// FetchReadme downloads the README for a repository. Returns
	// domain.ErrNotFound when the repository has no README.
	FetchReadme(ctx context.Context, owner, repo, ref string) (string, error)
}
