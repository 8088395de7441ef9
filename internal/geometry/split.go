package geometry

// Split partitions b into exactly k contiguous chunks. Chunk sizes differ by
// at most one; the last len%k chunks carry the extra geometry. When b has
// fewer than k geometries the leading chunks are empty.
func Split(b Batch, k int) []Batch {
	if k < 1 {
		k = 1
	}
	n := b.Len()
	base, rem := n/k, n%k

	chunks := make([]Batch, k)
	start := 0
	for i := 0; i < k; i++ {
		size := base
		if i >= k-rem {
			size++
		}
		chunks[i] = b.Slice(start, start+size)
		start += size
	}
	return chunks
}

// Concat joins per-chunk energies in chunk order.
func Concat(parts [][]float64) []float64 {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]float64, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
