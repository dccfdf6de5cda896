package ingest

import "time"

type Config struct {
	FlushSize      int           `envconfig:"SOD_INGEST_FLUSH_SIZE" default:"100"`
	FlushTime      time.Duration `envconfig:"SOD_INGEST_FLUSH_TIME" default:"5s"`
	MaxItemsStored int           `envconfig:"SOD_INGEST_MAX_ITEMS_STORED" default:"0"`
	MaxStorageTime time.Duration `envconfig:"SOD_INGEST_MAX_STORAGE_TIME" default:"0"`
	RebuildDBTime  time.Duration `envconfig:"SOD_INGEST_REBUILD_DB_TIME" default:"10m"`
}
