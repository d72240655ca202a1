package qc

// Classification is the presentation-independent verdict for a row. Hosts
// decide how to highlight it.
type Classification string

const (
	ClassNormal          Classification = "normal"
	ClassOutlier         Classification = "outlier"
	ClassWithinTolerance Classification = "within_tolerance"
	ClassOutOfTolerance  Classification = "out_of_tolerance"
	ClassCorrected       Classification = "corrected"
)
