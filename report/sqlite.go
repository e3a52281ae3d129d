package report

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite3" driver used by database/sql.
	_ "github.com/mattn/go-sqlite3"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/fermicache/classifier"
)

// Row is one kernel's result, ready for batch insertion into a SQLite
// results database.
type Row struct {
	ID        string
	Benchmark string
	Kernel    string
	Breakdown classifier.Breakdown
}

// Store batches kernel results and flushes them to a SQLite database,
// following the batch-insert-then-flush shape of akita's
// tracing.SQLiteTraceWriter.
type Store struct {
	db        *sql.DB
	statement *sql.Stmt

	dbPath    string
	batchSize int
	pending   []Row
}

// NewStore returns a Store that will write to the database at path. Call
// Init before Record.
func NewStore(path string) *Store {
	s := &Store{dbPath: path, batchSize: 1000}
	atexit.Register(func() { s.Flush() })
	return s
}

// Init opens the database connection and creates the results table.
func (s *Store) Init() error {
	db, err := sql.Open("sqlite3", s.dbPath)
	if err != nil {
		return fmt.Errorf("open results database: %w", err)
	}
	s.db = db

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS results (
			id TEXT PRIMARY KEY,
			benchmark TEXT,
			kernel TEXT,
			total_accesses INTEGER,
			hits INTEGER,
			compulsory INTEGER,
			capacity INTEGER,
			associativity INTEGER,
			latency INTEGER,
			mshr INTEGER,
			miss_rate REAL
		)`); err != nil {
		return fmt.Errorf("create results table: %w", err)
	}

	stmt, err := s.db.Prepare(`
		INSERT OR REPLACE INTO results (
			id, benchmark, kernel, total_accesses, hits,
			compulsory, capacity, associativity, latency, mshr, miss_rate
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert statement: %w", err)
	}
	s.statement = stmt

	return nil
}

// Record queues a kernel result for writing, assigning it a fresh id.
// Record never touches the engine.Histogram directly: the breakdown
// already carries the numbers worth persisting for cross-run queries.
func (s *Store) Record(benchmark, kernel string, breakdown classifier.Breakdown) {
	s.pending = append(s.pending, Row{
		ID:        sim.GetIDGenerator().Generate(),
		Benchmark: benchmark,
		Kernel:    kernel,
		Breakdown: breakdown,
	})

	if len(s.pending) >= s.batchSize {
		s.Flush()
	}
}

// Flush writes all queued rows to the database in a single transaction.
func (s *Store) Flush() {
	if len(s.pending) == 0 || s.statement == nil {
		return
	}

	tx, err := s.db.Begin()
	if err != nil {
		return
	}

	for _, row := range s.pending {
		b := row.Breakdown
		_, _ = tx.Stmt(s.statement).Exec(
			row.ID, row.Benchmark, row.Kernel,
			b.TotalAccesses, b.Hits, b.Compulsory, b.Capacity,
			b.Associativity, b.Latency, b.MSHR, b.MissRate,
		)
	}

	_ = tx.Commit()
	s.pending = s.pending[:0]
}

// Close flushes any pending rows and closes the database connection.
func (s *Store) Close() error {
	s.Flush()
	if s.statement != nil {
		_ = s.statement.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
