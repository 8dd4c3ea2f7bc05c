package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/deferscky/stringeditor/internal/common"
	"github.com/deferscky/stringeditor/internal/dbx"
	"github.com/deferscky/stringeditor/internal/logging"
	"github.com/deferscky/stringeditor/internal/server/models"
	"github.com/deferscky/stringeditor/internal/server/repositories/repomanager"
	"github.com/deferscky/stringeditor/internal/server/textops"
)

// ContentService manages the stored lines of a user and runs text
// transforms over client-supplied lines. Every save and transform is
// recorded in the audit log.
type ContentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	history     *HistoryService
	logger      logging.Logger
	now         func() time.Time
}

func NewContentService(db *sql.DB, m repomanager.RepositoryManager, history *HistoryService, logger logging.Logger) *ContentService {
	return &ContentService{
		db:          db,
		repomanager: m,
		history:     history,
		logger:      logger.With("module", "content_service"),
		now:         time.Now,
	}
}

type SortResult struct {
	Lines     []string
	ElapsedMs int64
}

type SearchResult struct {
	Matches   []textops.Match
	ElapsedMs int64
}

type ReplaceResult struct {
	Lines     []string
	Modified  int
	ElapsedMs int64
}

type DeleteResult struct {
	Lines     []string
	Deleted   int
	ElapsedMs int64
}

// Save replaces the stored lines of the user with lines.
func (s *ContentService) Save(ctx context.Context, userID int64, lines []string) (int, error) {
	if len(lines) == 0 {
		return 0, fmt.Errorf("%w: strings must not be empty", common.ErrorBadInput)
	}

	start := time.Now()
	err := dbx.RetryOnce(ctx, s.db, func(ctx context.Context) error {
		return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := s.repomanager.Contents(tx)
			if _, err := repo.DeleteAll(ctx, userID); err != nil {
				return err
			}
			return repo.InsertMany(ctx, userID, lines, s.now())
		})
	})
	if err != nil {
		s.logger.Error(ctx, "error saving strings", "user_id", userID, "error", err)
		return 0, common.ErrorInternal
	}
	elapsed := time.Since(start)

	s.record(ctx, userID, models.OperationSave,
		map[string]any{"strings_count": len(lines)},
		map[string]any{"saved_count": len(lines)},
		elapsed)

	return len(lines), nil
}

// GetAll returns the stored lines, newest insertion first.
func (s *ContentService) GetAll(ctx context.Context, userID int64) ([]string, error) {
	lines, err := dbx.RetryOnceResult(ctx, s.db, func(ctx context.Context) ([]string, error) {
		return s.repomanager.Contents(s.db).GetAll(ctx, userID)
	})
	if err != nil {
		s.logger.Error(ctx, "error loading strings", "user_id", userID, "error", err)
		return nil, common.ErrorInternal
	}
	return lines, nil
}

// DeleteAll removes the stored lines. It succeeds when there are none.
func (s *ContentService) DeleteAll(ctx context.Context, userID int64) error {
	err := dbx.RetryOnce(ctx, s.db, func(ctx context.Context) error {
		_, err := s.repomanager.Contents(s.db).DeleteAll(ctx, userID)
		return err
	})
	if err != nil {
		s.logger.Error(ctx, "error deleting strings", "user_id", userID, "error", err)
		return common.ErrorInternal
	}
	return nil
}

func (s *ContentService) Sort(ctx context.Context, userID int64, lines []string, ascending bool) (*SortResult, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: strings must not be empty", common.ErrorBadInput)
	}

	start := time.Now()
	sorted := textops.Sort(lines, ascending)
	elapsed := time.Since(start)

	s.record(ctx, userID, models.OperationSort,
		map[string]any{"strings_count": len(lines), "ascending": ascending},
		map[string]any{"sorted_count": len(sorted)},
		elapsed)

	return &SortResult{Lines: sorted, ElapsedMs: elapsedMillis(elapsed)}, nil
}

func (s *ContentService) Search(ctx context.Context, userID int64, lines []string, text string, caseSensitive bool) (*SearchResult, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: strings must not be empty", common.ErrorBadInput)
	}
	if text == "" {
		return nil, fmt.Errorf("%w: search text must not be empty", common.ErrorBadInput)
	}

	start := time.Now()
	matches := textops.Search(lines, text, caseSensitive)
	elapsed := time.Since(start)

	s.record(ctx, userID, models.OperationSearch,
		map[string]any{"strings_count": len(lines), "search_text": text, "case_sensitive": caseSensitive},
		map[string]any{"found_count": len(matches)},
		elapsed)

	return &SearchResult{Matches: matches, ElapsedMs: elapsedMillis(elapsed)}, nil
}

func (s *ContentService) Replace(ctx context.Context, userID int64, lines []string, oldValue, newValue string, caseSensitive bool) (*ReplaceResult, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: strings must not be empty", common.ErrorBadInput)
	}
	if oldValue == "" {
		return nil, fmt.Errorf("%w: old value must not be empty", common.ErrorBadInput)
	}

	start := time.Now()
	replaced, modified := textops.Replace(lines, oldValue, newValue, caseSensitive)
	elapsed := time.Since(start)

	s.record(ctx, userID, models.OperationReplace,
		map[string]any{
			"strings_count":  len(lines),
			"old_value":      oldValue,
			"new_value":      newValue,
			"case_sensitive": caseSensitive,
		},
		map[string]any{"modified_count": modified},
		elapsed)

	return &ReplaceResult{Lines: replaced, Modified: modified, ElapsedMs: elapsedMillis(elapsed)}, nil
}

func (s *ContentService) Delete(ctx context.Context, userID int64, lines []string, indices []int) (*DeleteResult, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: strings must not be empty", common.ErrorBadInput)
	}

	start := time.Now()
	remaining, deleted := textops.Delete(lines, indices)
	elapsed := time.Since(start)

	if indices == nil {
		indices = []int{}
	}
	s.record(ctx, userID, models.OperationDelete,
		map[string]any{"strings_count": len(lines), "indices_to_delete": indices},
		map[string]any{"remaining_count": len(remaining), "deleted_count": deleted},
		elapsed)

	return &DeleteResult{Lines: remaining, Deleted: deleted, ElapsedMs: elapsedMillis(elapsed)}, nil
}

// record writes an audit record. A failure is logged only; the operation
// itself has already taken effect.
func (s *ContentService) record(ctx context.Context, userID int64, opType models.OperationType, params, result any, elapsed time.Duration) {
	if err := s.history.Record(ctx, userID, opType, params, result, elapsed); err != nil {
		s.logger.Warn(ctx, "error recording operation", "user_id", userID, "type", string(opType), "error", err)
	}
}
