// Package store persists snapshots and analysis reports to a single
// SQLite table of JSON blobs keyed by bucket and project id. The
// payloads are opaque to SQL: every query the engine needs runs over
// the in-memory snapshot, the database only survives restarts.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/raumwerk/raumwerk/pkg/analysis"
	"github.com/raumwerk/raumwerk/pkg/logging"
	"github.com/raumwerk/raumwerk/pkg/metrics"
	"github.com/raumwerk/raumwerk/pkg/model"
)

// ErrNotFound is returned when no row exists for the requested project.
var ErrNotFound = errors.New("project not found")

const (
	bucketSnapshots = "snapshots"
	bucketReports   = "reports"
	bucketProjects  = "projects"
)

// ProjectInfo is the listing entry kept alongside each snapshot.
type ProjectInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Number    string    `json:"number,omitempty"`
	Storeys   int       `json:"storeys"`
	Spaces    int       `json:"spaces"`
	Elements  int       `json:"elements"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is a SQLite-backed project store. All methods are safe for
// concurrent use.
type Store struct {
	db      *sql.DB
	mu      sync.Mutex
	path    string
	logger  logging.Logger
	metrics *metrics.Registry
}

// Open opens or creates the database at path. A nil logger or registry
// falls back to the package defaults.
func Open(path string, logger logging.Logger, reg *metrics.Registry) (*Store, error) {
	if path == "" {
		path = "raumwerk.db"
	}
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket     TEXT NOT NULL,
		project_id TEXT NOT NULL,
		payload    BLOB NOT NULL,
		PRIMARY KEY (bucket, project_id)
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{
		db:      db,
		path:    path,
		logger:  logger.With(logging.Component("store")),
		metrics: reg,
	}
	if n, err := s.projectCount(context.Background()); err == nil {
		s.metrics.StoreProjectsTotal.Set(float64(n))
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// SaveSnapshot upserts the snapshot and its listing entry.
func (s *Store) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	return s.timed("save_snapshot", func() error {
		payload, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		info := ProjectInfo{
			ID:        snap.Project.ID,
			Name:      snap.Project.Name,
			Number:    snap.Project.Number,
			Storeys:   len(snap.Storeys),
			Spaces:    len(snap.Spaces),
			Elements:  len(snap.Elements),
			UpdatedAt: time.Now().UTC(),
		}
		infoPayload, err := json.Marshal(info)
		if err != nil {
			return fmt.Errorf("encode project info: %w", err)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := upsert(ctx, tx, bucketSnapshots, snap.Project.ID, payload); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := upsert(ctx, tx, bucketProjects, snap.Project.ID, infoPayload); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		s.updateProjectGauge(ctx)
		return nil
	})
}

// LoadSnapshot returns the stored snapshot for the project.
func (s *Store) LoadSnapshot(ctx context.Context, projectID string) (*model.Snapshot, error) {
	var snap *model.Snapshot
	err := s.timed("load_snapshot", func() error {
		payload, err := s.get(ctx, bucketSnapshots, projectID)
		if err != nil {
			return err
		}
		snap = &model.Snapshot{}
		if err := json.Unmarshal(payload, snap); err != nil {
			return fmt.Errorf("decode snapshot %s: %w", projectID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// SaveReport upserts the latest analysis report for its project.
func (s *Store) SaveReport(ctx context.Context, report *analysis.Report) error {
	return s.timed("save_report", func() error {
		payload, err := json.Marshal(report)
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO state(bucket,project_id,payload) VALUES(?,?,?)
			 ON CONFLICT(bucket,project_id) DO UPDATE SET payload=excluded.payload`,
			bucketReports, report.ProjectID, payload)
		return err
	})
}

// LoadReport returns the latest stored report for the project.
func (s *Store) LoadReport(ctx context.Context, projectID string) (*analysis.Report, error) {
	var report *analysis.Report
	err := s.timed("load_report", func() error {
		payload, err := s.get(ctx, bucketReports, projectID)
		if err != nil {
			return err
		}
		report = &analysis.Report{}
		if err := json.Unmarshal(payload, report); err != nil {
			return fmt.Errorf("decode report %s: %w", projectID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ListProjects returns the listing entries ordered by project id.
func (s *Store) ListProjects(ctx context.Context) ([]ProjectInfo, error) {
	var infos []ProjectInfo
	err := s.timed("list_projects", func() error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT payload FROM state WHERE bucket = ? ORDER BY project_id`,
			bucketProjects)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()
		for rows.Next() {
			var payload []byte
			if err := rows.Scan(&payload); err != nil {
				return err
			}
			var info ProjectInfo
			if err := json.Unmarshal(payload, &info); err != nil {
				return fmt.Errorf("decode project info: %w", err)
			}
			infos = append(infos, info)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return infos, nil
}

// DeleteProject removes the snapshot, report and listing entry. It
// returns ErrNotFound when the project has no snapshot.
func (s *Store) DeleteProject(ctx context.Context, projectID string) error {
	return s.timed("delete_project", func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		res, err := s.db.ExecContext(ctx,
			`DELETE FROM state WHERE project_id = ?`, projectID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, projectID)
		}
		s.updateProjectGauge(ctx)
		return nil
	})
}

func (s *Store) get(ctx context.Context, bucket, projectID string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM state WHERE bucket = ? AND project_id = ?`,
		bucket, projectID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, projectID)
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func upsert(ctx context.Context, tx *sql.Tx, bucket, projectID string, payload []byte) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO state(bucket,project_id,payload) VALUES(?,?,?)
		 ON CONFLICT(bucket,project_id) DO UPDATE SET payload=excluded.payload`,
		bucket, projectID, payload)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", bucket, err)
	}
	return nil
}

func (s *Store) projectCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM state WHERE bucket = ?`, bucketProjects).Scan(&n)
	return n, err
}

func (s *Store) updateProjectGauge(ctx context.Context) {
	if n, err := s.projectCount(ctx); err == nil {
		s.metrics.StoreProjectsTotal.Set(float64(n))
	}
}

func (s *Store) timed(operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	status := "success"
	if err != nil {
		status = "error"
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("store operation failed",
				logging.Operation(operation), logging.Error(err))
		}
	}
	s.metrics.RecordStoreOperation(operation, status, time.Since(start))
	return err
}
