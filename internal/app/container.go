package app

import (
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/clozegen/internal/usecase/batch"
	"github.com/eslsoft/clozegen/internal/usecase/catalog"
	"github.com/eslsoft/clozegen/internal/usecase/quality"
)

// Container aggregates the application dependencies produced by Wire.
type Container struct {
	Logger   *logrus.Logger
	Runner   *batch.Runner
	Auditor  *quality.Auditor
	Importer *catalog.Importer
}
