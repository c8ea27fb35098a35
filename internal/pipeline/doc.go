// Package pipeline runs station downloads as a sequence of steps.
//
// A download moves one station through four stages: look up the newest
// stored date (the checkpoint), crawl the month pages back to it, insert the
// new records, and record the run in the download history. Each stage is a
// Step that receives the current Job and can modify it.
//
// Design decision: We use a pipeline pattern instead of one long function
// because:
// 1. Each stage can be tested with a fake store or a fake crawler
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context between stages
// 4. The history entry is written by a final step that runs even when an
// earlier stage failed
//
// Several stations are downloaded concurrently by BatchProcessor, with
// concurrency control using errgroup. Inside one station the month pages are
// always fetched one after another.
package pipeline
