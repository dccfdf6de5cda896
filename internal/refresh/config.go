package refresh

import "time"

type Config struct {
	Interval      time.Duration `envconfig:"SOD_REFRESH_INTERVAL" default:"15m"`
	MaxConcurrent int           `envconfig:"SOD_REFRESH_MAX_CONCURRENT" default:"8"`
}
