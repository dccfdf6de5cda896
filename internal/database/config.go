package database

import "time"

type Config struct {
	FileName string        `envconfig:"SOD_DB_FILE" default:"powersod.db"`
	Timeout  time.Duration `envconfig:"SOD_DB_TIMEOUT" default:"5s"`
	NoSync   bool          `envconfig:"SOD_DB_NO_SYNC" default:"false"`
}
