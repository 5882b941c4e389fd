//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/eslsoft/studyhub/internal/adapter/httpapi"
	"github.com/eslsoft/studyhub/internal/adapter/repository"
	"github.com/eslsoft/studyhub/internal/infrastructure/config"
	"github.com/eslsoft/studyhub/internal/infrastructure/database"
	"github.com/eslsoft/studyhub/internal/infrastructure/server"
	"github.com/eslsoft/studyhub/internal/usecase"
)

var configSet = wire.NewSet(
	config.Load,
)

var databaseSet = wire.NewSet(
	database.NewConnection,
)

var repositorySet = wire.NewSet(
	repository.NewLessonRepository,
	repository.NewTestRepository,
	repository.NewProgressRepository,
	repository.NewProfileRepository,
	repository.NewAwardRepository,
	repository.NewAttemptRepository,
	repository.NewRecommendationRepository,
	provideCache,
)

var usecaseSet = wire.NewSet(
	provideGamificationConfig,
	usecase.NewAccessUsecase,
	usecase.NewGamificationUsecase,
	usecase.NewAssessmentUsecase,
	usecase.NewRecommendationUsecase,
	usecase.NewDashboardUsecase,
)

var serverSet = wire.NewSet(
	server.NewLogger,
	httpapi.NewHandler,
	provideRouter,
	server.NewServer,
)

// Initialize builds the application container using Wire.
func Initialize() (*Container, func(), error) {
	wire.Build(
		configSet,
		databaseSet,
		repositorySet,
		usecaseSet,
		serverSet,
		wire.Struct(new(Container), "Logger", "Server"),
	)
	return nil, nil, nil
}
