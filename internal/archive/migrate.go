package archive

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate applies the archive schema using Gorm's AutoMigrate and logs
// progress.
func Migrate(ctx context.Context, db *gorm.DB, logger *logrus.Logger) error {
	if db == nil {
		return eris.New("gorm DB is required")
	}

	logFields := logrus.Fields{"component": "archive.migrate"}
	if logger != nil {
		logger.WithFields(logFields).Info("applying archive schema")
	}

	if err := db.WithContext(ctx).AutoMigrate(&Run{}); err != nil {
		if logger != nil {
			logger.WithFields(logFields).WithField("error", err.Error()).Error("archive schema migration failed")
		}
		return eris.Wrap(err, "auto migrating archive schema")
	}

	if logger != nil {
		logger.WithFields(logFields).Info("archive schema migration complete")
	}

	return nil
}
