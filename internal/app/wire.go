//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/eslsoft/clozegen/internal/adapter/repository"
	"github.com/eslsoft/clozegen/internal/infrastructure/config"
	"github.com/eslsoft/clozegen/internal/infrastructure/database"
	"github.com/eslsoft/clozegen/internal/infrastructure/logging"
	"github.com/eslsoft/clozegen/internal/nlp"
	"github.com/eslsoft/clozegen/internal/usecase/catalog"
	"github.com/eslsoft/clozegen/internal/usecase/cloze"
	"github.com/eslsoft/clozegen/internal/usecase/quality"
)

var configSet = wire.NewSet(
	config.Load,
)

var databaseSet = wire.NewSet(
	database.NewPool,
)

var repositorySet = wire.NewSet(
	repository.NewSongRepository,
	repository.NewExerciseRepository,
)

var nlpSet = wire.NewSet(
	nlp.NewRegistry,
	provideFrequencyTable,
	nlp.NewProfanity,
	wire.Bind(new(cloze.TokenizerRegistry), new(*nlp.Registry)),
	wire.Bind(new(cloze.FrequencyOracle), new(*nlp.FrequencyTable)),
	wire.Bind(new(cloze.ProfanityClassifier), new(*nlp.Profanity)),
)

var usecaseSet = wire.NewSet(
	cloze.NewBuilder,
	provideRunner,
	quality.NewAuditor,
	catalog.NewImporter,
)

var loggerSet = wire.NewSet(
	logging.NewLogger,
)

// Initialize builds the application container using Wire.
func Initialize() (*Container, func(), error) {
	wire.Build(
		configSet,
		databaseSet,
		repositorySet,
		nlpSet,
		usecaseSet,
		loggerSet,
		wire.Struct(new(Container), "Logger", "Runner", "Auditor", "Importer"),
	)
	return nil, nil, nil
}
