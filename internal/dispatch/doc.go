// Package dispatch evaluates a resolved potential over batches of
// geometries, either serially or by splitting each batch into contiguous
// chunks that run on a persistent worker pool.
package dispatch
