package predict

import "time"

type Config struct {
	RequestTimeout time.Duration `envconfig:"SOD_PREDICT_REQUEST_TIMEOUT" default:"120s"`
	MaxDatasets    int           `envconfig:"SOD_PREDICT_MAX_DATASETS" default:"240"`
	MaxHorizonDays int           `envconfig:"SOD_PREDICT_MAX_HORIZON_DAYS" default:"366"`
}
