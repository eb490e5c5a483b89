package driving

import (
	"context"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
)

// SearchService provides similarity search to external actors.
type SearchService interface {
	// Search embeds the query text and returns hydrated records ordered by score.
	// Failures are reported on the result, never returned.
	Search(ctx context.Context, query string, opts domain.SearchOptions) domain.SearchResult
}
