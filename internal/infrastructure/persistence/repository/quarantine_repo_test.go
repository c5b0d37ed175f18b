package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/service"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/event"
	"github.com/SpudMar/Lotus-PM-sub001/internal/infrastructure/persistence/sqlite"
	"github.com/SpudMar/Lotus-PM-sub001/pkg/database"
)

type nopEmitter struct{}

func (nopEmitter) Emit(ctx context.Context, evt *event.Event) {}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

// openTestDB opens a migrated on-disk database in a per-test temp dir. A
// single connection keeps concurrent transactions queued on the busy timeout
// instead of failing mid-transaction.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, zap.NewNop()).Run("../../../../migrations"))
	return db
}

// seedBudgetLine inserts a participant and one budget line, returning the
// budget line ID.
func seedBudgetLine(t *testing.T, db *sql.DB, allocatedCents, spentCents int64) int64 {
	t.Helper()

	res, err := db.Exec(
		`INSERT INTO participants (name, ndis_number) VALUES (?, ?)`,
		"Jordan", "430000001")
	require.NoError(t, err)
	participantID, err := res.LastInsertId()
	require.NoError(t, err)

	res, err = db.Exec(
		`INSERT INTO budget_lines (plan_id, participant_id, category, allocated_cents, spent_cents)
		 VALUES (?, ?, ?, ?, ?)`,
		1, participantID, "CORE", allocatedCents, spentCents)
	require.NoError(t, err)
	lineID, err := res.LastInsertId()
	require.NoError(t, err)
	return lineID
}

func newQuarantineService(db *sql.DB) service.QuarantineService {
	logger := zap.NewNop()
	return service.NewQuarantineService(
		NewQuarantineRepository(db, logger),
		NewBudgetLineRepository(db, logger),
		NewServiceAgreementRepository(db, logger),
		NewAuditRepository(db, logger),
		sqlite.NewDB(db, logger),
		nopEmitter{},
		nopLogger{},
	)
}

func TestQuarantineRepositoryRoundTrip(t *testing.T) {
	db := openTestDB(t)
	lineID := seedBudgetLine(t, db, 10000, 0)
	repo := NewQuarantineRepository(db, zap.NewNop())

	q := &entity.FundQuarantine{
		BudgetLineID:     lineID,
		SupportItemCode:  "01_011_0107_1_1",
		QuarantinedCents: 2500,
		Status:           entity.QuarantineStatusActive,
		Notes:            "disputed invoice",
		CreatedBy:        "casey",
	}
	require.NoError(t, repo.Create(context.Background(), q))
	require.NotZero(t, q.ID)

	got, err := repo.GetByID(context.Background(), q.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, lineID, got.BudgetLineID)
	assert.Equal(t, int64(2500), got.QuarantinedCents)
	assert.Equal(t, entity.QuarantineStatusActive, got.Status)

	missing, err := repo.GetByID(context.Background(), q.ID+100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSumActiveByBudgetLine(t *testing.T) {
	db := openTestDB(t)
	lineID := seedBudgetLine(t, db, 10000, 0)
	repo := NewQuarantineRepository(db, zap.NewNop())

	active := &entity.FundQuarantine{
		BudgetLineID: lineID, QuarantinedCents: 3000,
		Status: entity.QuarantineStatusActive,
	}
	require.NoError(t, repo.Create(context.Background(), active))

	released := &entity.FundQuarantine{
		BudgetLineID: lineID, QuarantinedCents: 4000,
		Status: entity.QuarantineStatusReleased,
	}
	require.NoError(t, repo.Create(context.Background(), released))

	sum, err := repo.SumActiveByBudgetLine(context.Background(), lineID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), sum)

	sum, err = repo.SumActiveByBudgetLine(context.Background(), lineID, active.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sum)
}

// TestCreateQuarantineConcurrent races ten reservations that each fit the
// line on their own but cannot all fit together. The capacity check and the
// insert share one transaction, so exactly one reservation may win.
func TestCreateQuarantineConcurrent(t *testing.T) {
	db := openTestDB(t)
	lineID := seedBudgetLine(t, db, 10000, 0)
	svc := newQuarantineService(db)

	const workers = 10
	results := make(chan error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateQuarantine(context.Background(), service.CreateQuarantineInput{
				BudgetLineID: lineID,
				AmountCents:  6000,
			}, "worker")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, service.ErrInsufficientCapacity):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, rejected)

	sum, err := NewQuarantineRepository(db, zap.NewNop()).
		SumActiveByBudgetLine(context.Background(), lineID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), sum, "reserved total must never exceed a single winning reservation")
}
