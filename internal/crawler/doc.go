// Package crawler downloads daily temperature tables from the climate data site.
//
// # Architecture
//
// The package is built from three pieces:
//
//   - TableWalker: a finite-state machine over an HTML token stream that
//     extracts date-keyed Max/Min/Mean readings from one month page
//   - MonthCursor: an explicit iterator producing month boundaries, newest
//     first, until a checkpoint date is reached
//   - Spider: drives the cursor, fetches each month page, feeds it to a fresh
//     TableWalker and merges the results
//
// Design decision: We walk the token stream with golang.org/x/net/html's
// Tokenizer rather than building a DOM because:
//  1. The data region is flat and positional; a tree adds nothing
//  2. Month pages are large and only one table matters
//  3. The state machine stays independent of any parser callback API
//
// # Pagination
//
// The site publishes one month per page. The Spider starts at the current
// month and walks backward, one calendar month per request, so that a crawl
// seeded with the most recent stored date only re-fetches what is new. Pages
// are fetched strictly sequentially: whether an older month is requested at
// all depends on the page that was just fetched (the "no data" marker).
//
// # Failure model
//
// Crawl never returns an error. A failed fetch ends the crawl and the
// Result carries the records accumulated so far together with the cause.
// Unparseable rows are dropped and unparseable readings are stored as
// absent values.
//
// # Usage
//
//	spider := crawler.NewSpider(http.DefaultClient, crawler.WithStation(station))
//	result := spider.Crawl(ctx, checkpoint)
//	if result.Err != nil {
//	    logger.Warn("crawl ended early", "error", result.Err)
//	}
package crawler
