package analyze

import (
	"time"

	"github.com/go-sod/powersod/internal/anomaly/lof"
)

type Config struct {
	RequestTimeout  time.Duration `envconfig:"SOD_ANALYZE_REQUEST_TIMEOUT" default:"60s"`
	MaxDataItemsLen int           `envconfig:"SOD_ANALYZE_MAX_DATA_ITEMS_LEN" default:"100000"`
	// LOF holds the defaults applied when a request leaves the LOF tuning out.
	LOF lof.Config
}
