package realtime

import (
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/config"
)

func NewRedis(cfg config.RedisConfig, log zerolog.Logger) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	log.Info().Str("addr", cfg.Addr).Msg("redis client created")
	return rdb
}
