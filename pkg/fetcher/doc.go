// Package fetcher walks the cursor-paginated project listing endpoint.
//
// The Snyk REST API pages results with a links.next continuation URL
// (absolute or host-relative) instead of page numbers. The fetcher
// follows that chain sequentially, pausing between pages to stay within
// the API rate limit, and returns the concatenation of all pages in
// server order.
//
// Example usage:
//
//	f := fetcher.New(snykClient, pacer)
//	projects, err := f.FetchAll(ctx, orgID, snyk.DefaultPageLimit, types)
//
// The fetch is all-or-nothing: an error on any page aborts the whole
// operation and no partial project list is returned. A partial listing
// is not reliable evidence for planning updates.
package fetcher
