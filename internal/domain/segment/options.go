package segment

// Option applies a configuration option to the QuantileSegmenter.
type Option func(*QuantileSegmenter)

// WithLabels sets the segment labels in ascending price order. The number of
// labels is the number of equal-frequency bins. Fewer than two labels are
// ignored.
func WithLabels(labels ...string) Option {
	return func(s *QuantileSegmenter) {
		if len(labels) >= 2 {
			s.labels = append([]string(nil), labels...)
		}
	}
}
