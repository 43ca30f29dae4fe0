package archive

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the run archive.
type Repository interface {
	Append(ctx context.Context, run *Run) error
	List(ctx context.Context, limit int) ([]Run, error)
	GetByRunID(ctx context.Context, runID string) (*Run, error)
}

// GormRepository persists runs using a Gorm database connection.
type GormRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewRepository constructs a Gorm-backed repository implementation.
func NewRepository(db *gorm.DB, logger *logrus.Logger) (*GormRepository, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &GormRepository{db: db, logger: logger}, nil
}

var _ Repository = (*GormRepository)(nil)

// Append stores one finished run.
func (r *GormRepository) Append(ctx context.Context, run *Run) error {
	if run == nil {
		return eris.New("run is nil")
	}

	if strings.TrimSpace(run.RunID) == "" {
		return eris.New("run id is required")
	}

	run.RunID = strings.TrimSpace(run.RunID)

	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		r.logError(logrus.Fields{"run_id": run.RunID}, err, "appending run")
		return eris.Wrapf(err, "appending run: %s", run.RunID)
	}

	return nil
}

// List returns the most recent runs, newest first. A non-positive limit
// returns everything.
func (r *GormRepository) List(ctx context.Context, limit int) ([]Run, error) {
	var runs []Run

	query := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&runs).Error; err != nil {
		r.logError(nil, err, "listing runs")
		return nil, eris.Wrap(err, "listing runs")
	}

	return runs, nil
}

// GetByRunID returns the archived run or nil when not found.
func (r *GormRepository) GetByRunID(ctx context.Context, runID string) (*Run, error) {
	trimmed := strings.TrimSpace(runID)
	if trimmed == "" {
		return nil, eris.New("run id is required")
	}

	var run Run
	err := r.db.WithContext(ctx).First(&run, "run_id = ?", trimmed).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"run_id": trimmed}, err, "fetching run by id")
		return nil, eris.Wrapf(err, "fetching run by id: %s", trimmed)
	}

	return &run, nil
}

func (r *GormRepository) logError(fields logrus.Fields, err error, message string) {
	if r.logger == nil {
		return
	}

	entry := r.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
