package engine

// PathItem is one discovered file with its assigned position in output
// order. Sequence numbers are dense and monotone per run: they are handed
// out at a single serialization point in each source.
type PathItem struct {
	Seq  uint64
	Path string
}

// FileResult is the outcome of hashing one PathItem. Err is set when the
// file could not be opened or read; such results still occupy their
// sequence slot in the output.
type FileResult struct {
	Seq    uint64
	Path   string
	Digest string
	Size   int64
	Err    error
}
