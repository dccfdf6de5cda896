package anomaly

import (
	"math"

	"github.com/go-sod/powersod/internal/anomaly/model"
)

const (
	criticalMul = 2.0
	errorMul    = 1.5

	// absolute cutoffs on |negative outlier factor|
	lofCritical = 3.0
	lofError    = 2.0
)

// ClassifySeverity grades a z-score-family deviation relative to the
// threshold that flagged it.
func ClassifySeverity(score, threshold float64) model.Severity {
	switch {
	case score > criticalMul*threshold:
		return model.SeverityCritical
	case score > errorMul*threshold:
		return model.SeverityError
	default:
		return model.SeverityWarning
	}
}

// ClassifyLOFSeverity grades a local outlier factor score. It does not
// depend on the detection threshold.
func ClassifyLOFSeverity(score float64) model.Severity {
	score = math.Abs(score)
	switch {
	case score > lofCritical:
		return model.SeverityCritical
	case score > lofError:
		return model.SeverityError
	default:
		return model.SeverityWarning
	}
}
