package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-gorp/gorp"
	_ "github.com/mattn/go-sqlite3"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/cloudarb/allocation-optimizer/internal/interfaces"
	"github.com/cloudarb/allocation-optimizer/internal/logger"
	"github.com/cloudarb/allocation-optimizer/internal/utils"
	"github.com/cloudarb/allocation-optimizer/pkg/core"
)

var ErrNotFound = errors.New("result not found")

// SQLStore keeps optimization results in SQLite.
type SQLStore struct {
	*gorp.DbMap
	backoff wait.Backoff
}

var _ interfaces.ResultStore = (*SQLStore)(nil)

// Open opens (or creates) the database at path and creates missing tables.
// Use ":memory:" for a private in-memory database.
func Open(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	// sqlite serializes writers; a single connection also keeps ":memory:" shared
	db.SetMaxOpenConns(1)
	s := &SQLStore{
		DbMap:   &gorp.DbMap{Db: db, Dialect: gorp.SqliteDialect{}},
		backoff: utils.StoreBackoff,
	}
	s.AddTableWithName(resultRow{}, resultRow{}.TableName()).SetKeys(false, "ResultID")
	s.AddTableWithName(allocationRow{}, allocationRow{}.TableName()).SetKeys(true, "ID")
	if err := s.CreateTablesIfNotExists(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	return s.Db.Close()
}

// SaveResult writes a result and its allocations in one transaction,
// retrying while the database is locked.
func (s *SQLStore) SaveResult(ctx context.Context, problem *core.OptimizationProblem, result *core.OptimizationResult) error {
	if result == nil {
		return errors.New("nil result")
	}
	row := &resultRow{
		ResultID:         result.ResultID,
		ProblemID:        result.ProblemID,
		Status:           string(result.Status),
		SolverStatus:     string(result.SolverStatus),
		ObjectiveValue:   result.ObjectiveValue,
		TotalCostPerHour: result.TotalCostPerHour,
		SolveTimeSeconds: result.SolveTimeSeconds,
		SolutionQuality:  result.SolutionQuality,
		ConfidenceScore:  result.ConfidenceScore,
		ErrorCode:        result.ErrorCode,
		ErrorMessage:     result.ErrorMessage,
		CreatedAt:        result.CreatedAt,
	}
	if problem != nil {
		row.ProblemName = problem.Name
		row.Objective = string(problem.Objective)
	}
	allocs := make([]any, 0, len(result.Allocations))
	for _, a := range result.Allocations {
		r := &allocationRow{ResultID: result.ResultID, PricingMode: string(a.PricingMode), Count: a.Count, CostPerHour: a.CostPerHour}
		if a.Option != nil {
			r.ProviderID, r.InstanceTypeID, r.Region = a.Option.ProviderID, a.Option.InstanceTypeID, a.Option.Region
		}
		allocs = append(allocs, r)
	}

	err := utils.RetryWithBackoff(ctx, s.backoff, "save result", func(ctx context.Context) error {
		return s.insert(row, allocs)
	}, isLocked)
	if err != nil {
		return fmt.Errorf("failed to save result %s: %w", result.ResultID, err)
	}
	logger.Log.Debugw("result saved", "result", result.ResultID, "allocations", len(allocs))
	return nil
}

func (s *SQLStore) insert(row *resultRow, allocs []any) error {
	tx, err := s.Begin()
	if err != nil {
		return err
	}
	if err := tx.Insert(row); err != nil {
		_ = tx.Rollback()
		return err
	}
	if len(allocs) > 0 {
		if err := tx.Insert(allocs...); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) GetResult(ctx context.Context, resultID string) (*interfaces.StoredResult, error) {
	var row resultRow
	err := s.WithContext(ctx).SelectOne(&row,
		"SELECT * FROM optimization_results WHERE result_id = :id", map[string]any{"id": resultID})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, resultID)
	}
	if err != nil {
		return nil, err
	}
	return s.load(ctx, &row)
}

// ListResults returns the newest results first. An empty status matches all
// results and a non-positive limit returns every match.
func (s *SQLStore) ListResults(ctx context.Context, status core.Status, limit int) ([]*interfaces.StoredResult, error) {
	query := "SELECT * FROM optimization_results"
	args := map[string]any{}
	if status != "" {
		query += " WHERE status = :status"
		args["status"] = string(status)
	}
	query += " ORDER BY created_at DESC, result_id"
	if limit > 0 {
		query += " LIMIT :limit"
		args["limit"] = limit
	}
	var rows []resultRow
	if _, err := s.WithContext(ctx).Select(&rows, query, args); err != nil {
		return nil, err
	}
	out := make([]*interfaces.StoredResult, 0, len(rows))
	for i := range rows {
		r, err := s.load(ctx, &rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *SQLStore) load(ctx context.Context, row *resultRow) (*interfaces.StoredResult, error) {
	var allocs []allocationRow
	if _, err := s.WithContext(ctx).Select(&allocs,
		"SELECT * FROM allocation_decisions WHERE result_id = :id ORDER BY id", map[string]any{"id": row.ResultID}); err != nil {
		return nil, err
	}
	r := &interfaces.StoredResult{
		ResultID:         row.ResultID,
		ProblemID:        row.ProblemID,
		ProblemName:      row.ProblemName,
		Objective:        core.Objective(row.Objective),
		Status:           core.Status(row.Status),
		SolverStatus:     core.SolverStatus(row.SolverStatus),
		ObjectiveValue:   row.ObjectiveValue,
		TotalCostPerHour: row.TotalCostPerHour,
		SolveTimeSeconds: row.SolveTimeSeconds,
		SolutionQuality:  row.SolutionQuality,
		ConfidenceScore:  row.ConfidenceScore,
		ErrorCode:        row.ErrorCode,
		ErrorMessage:     row.ErrorMessage,
		CreatedAt:        row.CreatedAt,
	}
	for _, a := range allocs {
		r.Allocations = append(r.Allocations, interfaces.StoredAllocation{
			ProviderID:     a.ProviderID,
			InstanceTypeID: a.InstanceTypeID,
			Region:         a.Region,
			PricingMode:    core.PricingMode(a.PricingMode),
			Count:          a.Count,
			CostPerHour:    a.CostPerHour,
		})
	}
	return r, nil
}

func isLocked(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}
