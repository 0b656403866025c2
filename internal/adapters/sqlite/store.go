package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pilot-dev/pilot/internal/domain"
)

type Store struct {
	db *sql.DB
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	// Enable WAL mode for concurrent read/write access
	db.Exec("PRAGMA journal_mode=WAL")

	// Wait up to 5 seconds when the database is locked instead of failing immediately
	db.Exec("PRAGMA busy_timeout=5000")

	// Serialize all Go-side access through a single connection so SQLite
	// never sees concurrent writers (WAL + busy_timeout as defense-in-depth).
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			goal TEXT NOT NULL,
			cwd TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL,
			current_step INTEGER NOT NULL DEFAULT 0,
			done INTEGER NOT NULL DEFAULT 0,
			started_at TEXT,
			completed_at TEXT,
			error_msg TEXT
		);
		CREATE TABLE IF NOT EXISTS steps (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			step_number INTEGER NOT NULL,
			agent TEXT NOT NULL,
			action TEXT NOT NULL,
			status TEXT NOT NULL,
			result TEXT,
			FOREIGN KEY (run_id) REFERENCES runs(id)
		);
		CREATE TABLE IF NOT EXISTS commands (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			step_number INTEGER NOT NULL,
			command TEXT NOT NULL,
			output TEXT,
			success INTEGER NOT NULL,
			FOREIGN KEY (run_id) REFERENCES runs(id)
		);
	`)
	return err
}

func (s *Store) CreateRun(ctx context.Context, run *domain.Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, goal, cwd, state, current_step, done, started_at, completed_at, error_msg)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Goal, run.Cwd, string(run.State), run.CurrentStep, boolInt(run.Done),
		formatTime(run.StartedAt), formatTime(run.CompletedAt), run.ErrorMsg,
	)
	return err
}

func (s *Store) UpdateRun(ctx context.Context, run *domain.Run) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET goal = ?, cwd = ?, state = ?, current_step = ?, done = ?,
		   started_at = ?, completed_at = ?, error_msg = ? WHERE id = ?`,
		run.Goal, run.Cwd, string(run.State), run.CurrentStep, boolInt(run.Done),
		formatTime(run.StartedAt), formatTime(run.CompletedAt), run.ErrorMsg,
		run.ID,
	)
	if err != nil {
		return err
	}

	// Steps are few per run; replace wholesale rather than diffing.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM steps WHERE run_id = ?`, run.ID); err != nil {
		return err
	}
	for _, step := range run.Steps {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO steps (run_id, step_number, agent, action, status, result)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, step.StepNumber, string(step.Agent), step.Action, string(step.Status), step.Result,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, goal, cwd, state, current_step, done, started_at, completed_at, COALESCE(error_msg,'')
		 FROM runs WHERE id = ?`, id)

	run := &domain.Run{}
	var done int
	var startedAt, completedAt string
	err := row.Scan(&run.ID, &run.Goal, &run.Cwd, &run.State, &run.CurrentStep, &done, &startedAt, &completedAt, &run.ErrorMsg)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %q not found", id)
	}
	if err != nil {
		return nil, err
	}
	run.Done = done != 0
	run.StartedAt = parseTime(startedAt)
	run.CompletedAt = parseTime(completedAt)

	rows, err := s.db.QueryContext(ctx,
		`SELECT step_number, agent, action, status, COALESCE(result,'')
		 FROM steps WHERE run_id = ? ORDER BY step_number`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		step := &domain.Step{}
		if err := rows.Scan(&step.StepNumber, &step.Agent, &step.Action, &step.Status, &step.Result); err != nil {
			return nil, err
		}
		run.Steps = append(run.Steps, step)
	}
	return run, rows.Err()
}

func (s *Store) ListRuns(ctx context.Context) ([]*domain.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, goal, cwd, state, current_step, done, started_at, completed_at, COALESCE(error_msg,'')
		 FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.Run
	for rows.Next() {
		run := &domain.Run{}
		var done int
		var startedAt, completedAt string
		if err := rows.Scan(&run.ID, &run.Goal, &run.Cwd, &run.State, &run.CurrentStep, &done, &startedAt, &completedAt, &run.ErrorMsg); err != nil {
			return nil, err
		}
		run.Done = done != 0
		run.StartedAt = parseTime(startedAt)
		run.CompletedAt = parseTime(completedAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) SaveCommand(ctx context.Context, runID string, step int, rec domain.CommandRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO commands (run_id, step_number, command, output, success) VALUES (?, ?, ?, ?, ?)`,
		runID, step, rec.Command, rec.Output, boolInt(rec.Success),
	)
	return err
}

func (s *Store) GetCommands(ctx context.Context, runID string) ([]domain.CommandRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT command, COALESCE(output,''), success FROM commands WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []domain.CommandRecord
	for rows.Next() {
		var rec domain.CommandRecord
		var success int
		if err := rows.Scan(&rec.Command, &rec.Output, &success); err != nil {
			return nil, err
		}
		rec.Success = success != 0
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
