package cvt

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ppiankov/freebase2wikidata/internal/model"
)

const insertBatchSize = 10000

// SQLiteStore keeps the CVT triples on disk for dumps whose CVT content
// does not fit in memory
type SQLiteStore struct {
	db        *sql.DB
	path      string
	expecting PropertySet

	tx      *sql.Tx
	insert  *sql.Stmt
	pending int
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens or creates the database at path
func OpenSQLite(path string, expecting PropertySet) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cvt directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS cvt_triples (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			subject TEXT NOT NULL,
			predicate TEXT NOT NULL,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_cvt_subject ON cvt_triples(subject);
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating cvt schema: %w", err)
	}

	if expecting == nil {
		expecting = PropertySet{}
	}
	return &SQLiteStore{db: db, path: path, expecting: expecting}, nil
}

// IsCVTProperty reports whether the values of a predicate URI are CVT ids
func (s *SQLiteStore) IsCVTProperty(predicate string) bool {
	return s.expecting.Contains(predicate)
}

// Insert queues one triple, committing every insertBatchSize rows
func (s *SQLiteStore) Insert(subject, predicate, object string) error {
	if s.tx == nil {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin cvt batch: %w", err)
		}
		stmt, err := tx.Prepare("INSERT INTO cvt_triples (subject, predicate, value) VALUES (?, ?, ?)")
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("prepare cvt insert: %w", err)
		}
		s.tx, s.insert = tx, stmt
	}

	if _, err := s.insert.Exec(model.ShortID(subject), model.ShortID(predicate), object); err != nil {
		return fmt.Errorf("insert cvt triple: %w", err)
	}
	s.pending++
	if s.pending >= insertBatchSize {
		return s.Flush()
	}
	return nil
}

// Flush commits queued inserts
func (s *SQLiteStore) Flush() error {
	if s.tx == nil {
		return nil
	}
	_ = s.insert.Close()
	err := s.tx.Commit()
	s.tx, s.insert, s.pending = nil, nil, 0
	if err != nil {
		return fmt.Errorf("commit cvt batch: %w", err)
	}
	return nil
}

// CVT returns the fields of a node in insertion order, empty when unknown
func (s *SQLiteStore) CVT(id string) (model.CVTNode, error) {
	var node model.CVTNode
	if err := s.Flush(); err != nil {
		return node, err
	}

	rows, err := s.db.Query("SELECT predicate, value FROM cvt_triples WHERE subject = ? ORDER BY seq", model.ShortID(id))
	if err != nil {
		return node, fmt.Errorf("query cvt node: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var predicate, value string
		if err := rows.Scan(&predicate, &value); err != nil {
			return node, fmt.Errorf("scan cvt row: %w", err)
		}
		node.Add(model.FreebaseURI(predicate), value)
	}
	return node, rows.Err()
}

// Len is the number of stored rows
func (s *SQLiteStore) Len() (int, error) {
	if err := s.Flush(); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM cvt_triples").Scan(&n); err != nil {
		return 0, fmt.Errorf("count cvt rows: %w", err)
	}
	return n, nil
}

// Path returns the database file path
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close commits pending rows and closes the database
func (s *SQLiteStore) Close() error {
	flushErr := s.Flush()
	if err := s.db.Close(); err != nil {
		return err
	}
	return flushErr
}
