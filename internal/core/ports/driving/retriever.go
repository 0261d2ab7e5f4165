package driving

import "context"

// RetrieverService finds the chunks of one website most similar to a
// query. Content from other websites never appears in the results.
type RetrieverService interface {
	// Retrieve embeds the query and returns the contents of the top-k
	// most similar chunks belonging to the website, most similar first.
	// k <= 0 selects the default (3). A website with no chunks yields an
	// empty slice, not an error.
	Retrieve(ctx context.Context, websiteID, query string, k int) ([]string, error)
}
