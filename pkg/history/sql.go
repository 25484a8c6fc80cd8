package history

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/didi/gendry/builder"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/wahid18-maqs/blood-test-analyser/config"
	"github.com/wahid18-maqs/blood-test-analyser/internal/models"
)

const table = "analysis_records"

var columns = []string{"id", "file_name", "query", "analysis", "analysis_type", "created_at"}

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// SQLStore keeps records in a SQL table. Timestamps are unix nanoseconds and
// strictly increase within a process.
type SQLStore struct {
	db     *sql.DB
	driver string

	mu      sync.Mutex
	last    int64
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// Option configures a SQLStore.
type Option func(*SQLStore)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *SQLStore) {
		s.now = now
	}
}

// Open connects with the configured driver and creates the schema.
func Open(ctx context.Context, cfg config.DatabaseConfig, opts ...Option) (*SQLStore, error) {
	driver := cfg.Driver
	switch driver {
	case "sqlite", "postgres", "mysql":
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return NewSQLStore(ctx, db, driver, opts...)
}

// NewSQLStore wraps an open database and creates the schema.
func NewSQLStore(ctx context.Context, db *sql.DB, driver string, opts ...Option) (*SQLStore, error) {
	s := &SQLStore{
		db:      db,
		driver:  driver,
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := initSchema(ctx, db, driver); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// next returns a fresh id and a timestamp greater than any issued before.
func (s *SQLStore) next() (string, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UnixNano()
	if ts <= s.last {
		ts = s.last + 1
	}
	s.last = ts
	id := ulid.MustNew(ulid.Timestamp(time.Unix(0, ts)), s.entropy)
	return id.String(), ts
}

func (s *SQLStore) Append(ctx context.Context, rec *models.AnalysisRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("nil record")
	}
	if rec.ID == "" || rec.Timestamp.IsZero() {
		id, ts := s.next()
		if rec.ID == "" {
			rec.ID = id
		}
		if rec.Timestamp.IsZero() {
			rec.Timestamp = time.Unix(0, ts).UTC()
		}
	}

	data := map[string]interface{}{
		"id":            rec.ID,
		"file_name":     rec.FileName,
		"query":         rec.Query,
		"analysis":      rec.Analysis,
		"analysis_type": string(rec.AnalysisType),
		"created_at":    rec.Timestamp.UnixNano(),
	}
	sqlStr, args, err := builder.BuildInsert(table, []map[string]interface{}{data})
	if err != nil {
		return "", fmt.Errorf("failed to build insert: %w", err)
	}
	sqlStr, args = finalize(s.driver, sqlStr, args)
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if isConflict(err) {
			return rec.ID, ErrConflict
		}
		return "", fmt.Errorf("failed to insert record: %w", err)
	}
	return rec.ID, nil
}

func (s *SQLStore) ListRecent(ctx context.Context, n int) ([]models.AnalysisRecord, error) {
	if n <= 0 {
		return []models.AnalysisRecord{}, nil
	}
	where := map[string]interface{}{
		"_orderby": "created_at desc, id desc",
		"_limit":   []uint{0, uint(n)},
	}
	sqlStr, args, err := builder.BuildSelect(table, where, columns)
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}
	sqlStr, args = finalize(s.driver, sqlStr, args)

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := make([]models.AnalysisRecord, 0, n)
	for rows.Next() {
		var (
			rec       models.AnalysisRecord
			kind      string
			createdAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.FileName, &rec.Query, &rec.Analysis, &kind, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.AnalysisType = models.AnalysisType(kind)
		rec.Timestamp = time.Unix(0, createdAt).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return records, nil
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
