// Package preview holds the browse-side pipeline: a concurrency-safe
// thumbnail cache and a batch loader that fills it through a bounded
// pool of decode workers.
//
// One batch is active at a time. Submitting a new batch cancels the
// previous one and waits for its in-flight decodes to settle, so at
// most one decode per path is ever running. Cache entries are stable
// until Clear; a failed decode never populates the cache, leaving the
// path eligible for retry on a later batch.
package preview
