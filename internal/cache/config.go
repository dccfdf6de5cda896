package cache

import "time"

type Config struct {
	RedisAddr     string        `envconfig:"SOD_REDIS_ADDR" default:""`
	RedisPassword string        `envconfig:"SOD_REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"SOD_REDIS_DB" default:"0"`
	DialTimeout   time.Duration `envconfig:"SOD_REDIS_DIAL_TIMEOUT" default:"5s"`
	TTL           time.Duration `envconfig:"SOD_CACHE_TTL" default:"1h"`
}
