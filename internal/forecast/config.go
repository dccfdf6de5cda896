package forecast

import "fmt"

type Config struct {
	HorizonDays int    `envconfig:"SOD_FORECAST_HORIZON_DAYS" default:"30"`
	Splits      int    `envconfig:"SOD_FORECAST_CV_SPLITS" default:"5"`
	Seed        uint32 `envconfig:"SOD_FORECAST_SEED" default:"42"`
	GridFile    string `envconfig:"SOD_FORECAST_GRID_FILE" default:""`
}

// NewFromConfig builds an engine, reading the search grid from GridFile when set.
func NewFromConfig(cfg *Config) (*Engine, error) {
	opts := []Option{WithHorizon(cfg.HorizonDays), WithSplits(cfg.Splits), WithSeed(cfg.Seed)}
	if cfg.HorizonDays <= 0 {
		return nil, fmt.Errorf("forecast horizon must be positive, got %d", cfg.HorizonDays)
	}
	if cfg.GridFile != "" {
		g, err := LoadGrid(cfg.GridFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithGrid(g))
	}
	return New(opts...), nil
}
