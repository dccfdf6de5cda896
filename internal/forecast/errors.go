package forecast

import "errors"

var (
	ErrNoData           = errors.New("no data available for the selected datasets")
	ErrNoValidData      = errors.New("no valid data available after cleaning")
	ErrInsufficientData = errors.New("insufficient data")
	ErrNoFeatureRows    = errors.New("no valid data available after feature engineering")
	ErrDegenerateSeries = errors.New("degenerate series")
	ErrModelFit         = errors.New("model fit failed")
)

// NotFound reports whether err means the caller supplied nothing usable.
func NotFound(err error) bool {
	return errors.Is(err, ErrNoData) || errors.Is(err, ErrNoValidData) || errors.Is(err, ErrNoFeatureRows)
}
