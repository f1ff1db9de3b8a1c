package summarizer

// Config holds the classification cutoffs. It is a value: a Summarizer keeps
// the copy it was built with.
type Config struct {
	// CategoricalThreshold is the distinct/rows ratio under which a text
	// column is categorical.
	CategoricalThreshold float64 `json:"categorical_threshold" yaml:"categorical_threshold"`
	// CategoricalUniqueLimit is the distinct count under which a text column
	// is categorical regardless of the ratio.
	CategoricalUniqueLimit int `json:"categorical_unique_limit" yaml:"categorical_unique_limit"`
	// DateLikeThreshold is the minimum parse success rate for a text column
	// to be date-like.
	DateLikeThreshold float64 `json:"date_like_threshold" yaml:"date_like_threshold"`
}

// DefaultConfig returns the stock cutoffs: 0.05, 50 and 0.9.
func DefaultConfig() Config {
	return Config{
		CategoricalThreshold:   0.05,
		CategoricalUniqueLimit: 50,
		DateLikeThreshold:      0.9,
	}
}

// normalized replaces out-of-range fields with their defaults.
func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.CategoricalThreshold <= 0 || c.CategoricalThreshold > 1 {
		c.CategoricalThreshold = d.CategoricalThreshold
	}
	if c.CategoricalUniqueLimit <= 0 {
		c.CategoricalUniqueLimit = d.CategoricalUniqueLimit
	}
	if c.DateLikeThreshold <= 0 || c.DateLikeThreshold > 1 {
		c.DateLikeThreshold = d.DateLikeThreshold
	}
	return c
}
