package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/deferscky/stringeditor/internal/common"
	"github.com/deferscky/stringeditor/internal/dbx"
	"github.com/deferscky/stringeditor/internal/logging"
	"github.com/deferscky/stringeditor/internal/server/metrics"
	"github.com/deferscky/stringeditor/internal/server/models"
	"github.com/deferscky/stringeditor/internal/server/repositories/repomanager"
)

// HistoryService is the audit log: it appends operation records and lists
// the most recent ones per user.
type HistoryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	metrics     *metrics.Metrics
	logger      logging.Logger
	now         func() time.Time
}

func NewHistoryService(db *sql.DB, m repomanager.RepositoryManager, mx *metrics.Metrics, logger logging.Logger) *HistoryService {
	return &HistoryService{
		db:          db,
		repomanager: m,
		metrics:     mx,
		logger:      logger.With("module", "history_service"),
		now:         time.Now,
	}
}

// Record appends one audit record. params and result are stored as JSON
// objects; elapsed is floored to one millisecond.
func (s *HistoryService) Record(ctx context.Context, userID int64, opType models.OperationType, params, result any, elapsed time.Duration) error {
	p, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode parameters: %w", err)
	}
	r, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	op := &models.Operation{
		UserID:          userID,
		Type:            opType,
		Parameters:      string(p),
		Result:          string(r),
		ExecutionTimeMs: elapsedMillis(elapsed),
		OperationTime:   s.now(),
	}

	err = dbx.RetryOnce(ctx, s.db, func(ctx context.Context) error {
		_, err := s.repomanager.Operations(s.db).Create(ctx, op)
		return err
	})
	if err != nil {
		return err
	}

	s.metrics.OperationRecorded(string(opType))
	return nil
}

// History returns the latest common.HistoryLimit records of the user,
// newest first.
func (s *HistoryService) History(ctx context.Context, userID int64) ([]models.Operation, error) {
	list, err := dbx.RetryOnceResult(ctx, s.db, func(ctx context.Context) ([]models.Operation, error) {
		return s.repomanager.Operations(s.db).ListRecent(ctx, userID, common.HistoryLimit)
	})
	if err != nil {
		s.logger.Error(ctx, "error loading history", "user_id", userID, "error", err)
		return nil, common.ErrorInternal
	}
	return list, nil
}

func elapsedMillis(d time.Duration) int64 {
	return max(d.Milliseconds(), 1)
}
