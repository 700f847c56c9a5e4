package todos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteRepo is a Repository backed by a SQLite file. AUTOINCREMENT keeps
// ids from ever being reused, matching InMemoryRepo.
type SQLiteRepo struct {
	db *sql.DB
}

func NewSQLiteRepo(dsn string) (*SQLiteRepo, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// Reasonable pragmas for an app server
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA synchronous=NORMAL;
		PRAGMA foreign_keys=ON;
	`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteRepo{db: db}, nil
}

func (r *SQLiteRepo) Close() error { return r.db.Close() }

func (r *SQLiteRepo) Add(d Data) (Todo, error) {
	if err := validateData(d); err != nil {
		return Todo{}, err
	}
	res, err := r.db.Exec(`
		INSERT INTO todos (title, completed, month, year, description)
		VALUES (?, 0, ?, ?, ?)
	`, d.Title, d.Month, d.Year, d.Description)
	if err != nil {
		return Todo{}, fmt.Errorf("insert todo: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Todo{}, err
	}
	return newTodo(id, d), nil
}

func (r *SQLiteRepo) Delete(id int64) error {
	if _, err := r.db.Exec(`DELETE FROM todos WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete todo %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepo) Update(id int64, p Patch) error {
	if err := validatePatch(p); err != nil {
		return err
	}

	var (
		sets []string
		args []any
	)
	if p.Title != nil {
		sets, args = append(sets, "title = ?"), append(args, *p.Title)
	}
	if p.Completed != nil {
		sets, args = append(sets, "completed = ?"), append(args, *p.Completed)
	}
	if p.Month != nil {
		sets, args = append(sets, "month = ?"), append(args, *p.Month)
	}
	if p.Year != nil {
		sets, args = append(sets, "year = ?"), append(args, *p.Year)
	}
	if p.Description != nil {
		sets, args = append(sets, "description = ?"), append(args, *p.Description)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	q := "UPDATE todos SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := r.db.Exec(q, args...); err != nil {
		return fmt.Errorf("update todo %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepo) Get(id int64) (Todo, bool, error) {
	row := r.db.QueryRow(`
		SELECT id, title, completed, month, year, description
		FROM todos
		WHERE id = ?
	`, id)

	var t Todo
	err := row.Scan(&t.ID, &t.Title, &t.Completed, &t.Month, &t.Year, &t.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return Todo{}, false, nil
	}
	if err != nil {
		return Todo{}, false, fmt.Errorf("get todo %d: %w", id, err)
	}
	return t, true, nil
}

func (r *SQLiteRepo) List() ([]Todo, error) {
	rows, err := r.db.Query(`
		SELECT id, title, completed, month, year, description
		FROM todos
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	out := []Todo{}
	for rows.Next() {
		var t Todo
		if err := rows.Scan(&t.ID, &t.Title, &t.Completed, &t.Month, &t.Year, &t.Description); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Init replaces every row. sqlite_sequence is left alone so numbering
// continues from the previous maximum.
func (r *SQLiteRepo) Init(set []Data) error {
	for _, d := range set {
		if err := validateData(d); err != nil {
			return err
		}
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM todos`); err != nil {
		return fmt.Errorf("clear todos: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO todos (title, completed, month, year, description)
		VALUES (?, 0, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range set {
		if _, err := stmt.Exec(d.Title, d.Month, d.Year, d.Description); err != nil {
			return fmt.Errorf("insert todo: %w", err)
		}
	}
	return tx.Commit()
}

// ApplyMigrations ensures schema exists
func (r *SQLiteRepo) ApplyMigrations(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS todos (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	month TEXT NOT NULL DEFAULT '',
	year TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT ''
);
	`)
	return err
}

// Helper to build DSN like: file:/absolute/path?_pragma=busy_timeout(5000)
func SQLiteFileDSN(path string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return "file:" + filepath.ToSlash(abs) + "?_pragma=busy_timeout(5000)", nil
}
