package deltatree

// Options tune the differ. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	similarityThreshold float64
}

// The default options. Sequence elements with a normalized text similarity
// of at least 0.7 are aligned and diffed in place rather than treated as a
// delete/insert pair.
var DefaultOptions = Options{
	similarityThreshold: 0.7,
}

// WithSimilarityThreshold creates a new option object with the given
// alignment fallback threshold in [0,1]. A threshold above 1 disables
// similarity matching entirely, so only exact matches align.
func (options Options) WithSimilarityThreshold(threshold float64) Options {
	options.similarityThreshold = threshold
	return options
}
