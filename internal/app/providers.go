package app

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/studyhub/internal/adapter/httpapi"
	"github.com/eslsoft/studyhub/internal/entity"
	"github.com/eslsoft/studyhub/internal/infrastructure/cache"
	"github.com/eslsoft/studyhub/internal/infrastructure/config"
	"github.com/eslsoft/studyhub/internal/repository"
	"github.com/eslsoft/studyhub/internal/usecase"
)

// provideCache selects the cache backend. Redis is used when an address is
// configured, otherwise the in-process cache keeps single-node deployments
// dependency-free.
func provideCache(cfg *config.Config, logger *logrus.Logger) (repository.Cache, func(), error) {
	if cfg.Redis.Addr == "" {
		logger.Info("no redis address configured, using in-process cache")
		return cache.NewMemoryCache(), func() {}, nil
	}
	return cache.NewRedisCache(cfg.Redis)
}

func provideGamificationConfig(cfg *config.Config) usecase.GamificationConfig {
	return usecase.GamificationConfig{
		Curve:                 entity.LevelCurve(cfg.Gamification.LevelThresholds),
		FastCompletionSeconds: cfg.Gamification.FastCompletionSeconds,
		LeaderboardTTL:        cfg.Gamification.LeaderboardTTL(),
	}
}

func provideRouter(handler *httpapi.Handler, logger *logrus.Logger, cfg *config.Config) http.Handler {
	return httpapi.NewRouter(handler, logger, cfg.Server.AllowOrigins)
}
