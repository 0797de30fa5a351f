// Package store persists an analyzed package's symbol table in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/phobologic/talondoc/internal/model"
)

// Store is the SQLite data access layer for declarations and uses.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS meta (
  key    TEXT PRIMARY KEY,
  value  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS files (
  id        INTEGER PRIMARY KEY,
  path      TEXT NOT NULL UNIQUE,
  language  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS declarations (
  id          INTEGER PRIMARY KEY,
  file_id     INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
  kind        TEXT NOT NULL,
  name        TEXT NOT NULL,
  is_override BOOLEAN NOT NULL DEFAULT FALSE,
  description TEXT NOT NULL DEFAULT '',
  start_line  INTEGER,
  start_col   INTEGER,
  end_line    INTEGER,
  end_col     INTEGER
);

CREATE TABLE IF NOT EXISTS uses (
  file_id  INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
  kind     TEXT NOT NULL,
  name     TEXT NOT NULL,
  PRIMARY KEY (file_id, kind, name)
);

CREATE INDEX IF NOT EXISTS idx_declarations_lookup ON declarations(kind, name, is_override);
CREATE INDEX IF NOT EXISTS idx_uses_name ON uses(kind, name);
`

// Save replaces the stored package with files, analyzed under root.
func (s *Store) Save(ctx context.Context, root string, files []*model.FileInfo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM uses", "DELETE FROM declarations", "DELETE FROM files"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO meta (key, value) VALUES ('root', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		root); err != nil {
		return fmt.Errorf("save root: %w", err)
	}

	for _, fi := range files {
		res, err := tx.ExecContext(ctx, "INSERT INTO files (path, language) VALUES (?, ?)", fi.Path, fi.Language)
		if err != nil {
			return fmt.Errorf("insert file %s: %w", fi.Path, err)
		}
		fileID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert file %s: %w", fi.Path, err)
		}

		decls := append(fi.AllDeclarations(), fi.AllOverrides()...)
		for _, d := range decls {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO declarations (file_id, kind, name, is_override, description, start_line, start_col, end_line, end_col)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				fileID, string(d.Kind), d.Name, d.Override, d.Desc,
				d.Source.Start.Line, d.Source.Start.Column, d.Source.End.Line, d.Source.End.Column,
			); err != nil {
				return fmt.Errorf("insert declaration %s: %w", d.Name, err)
			}
		}

		for _, kind := range model.Kinds {
			for _, name := range fi.Uses[kind].Sorted() {
				if _, err := tx.ExecContext(ctx,
					"INSERT INTO uses (file_id, kind, name) VALUES (?, ?, ?)",
					fileID, string(kind), name,
				); err != nil {
					return fmt.Errorf("insert use %s: %w", name, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LookupContext returns the base declaration for (kind, name). When several
// files declare it, the one with the greatest path wins, matching the
// in-memory merge order.
func (s *Store) LookupContext(ctx context.Context, kind model.Kind, name string) (model.Declaration, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT f.path, d.kind, d.name, d.is_override, d.description, d.start_line, d.start_col, d.end_line, d.end_col
		 FROM declarations d JOIN files f ON f.id = d.file_id
		 WHERE d.kind = ? AND d.name = ? AND d.is_override = FALSE
		 ORDER BY f.path DESC
		 LIMIT 1`,
		string(kind), name)
	d, err := scanDeclaration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Declaration{}, false, nil
	}
	if err != nil {
		return model.Declaration{}, false, fmt.Errorf("lookup %s %s: %w", kind, name, err)
	}
	return d, true, nil
}

// Lookup is LookupContext without a context. Query errors are logged and
// reported as not found.
func (s *Store) Lookup(kind model.Kind, name string) (model.Declaration, bool) {
	d, ok, err := s.LookupContext(context.Background(), kind, name)
	if err != nil {
		s.logger.Warn("symbol lookup failed", "error", err)
		return model.Declaration{}, false
	}
	return d, ok
}

// Load rebuilds the stored package, merging files in path order.
func (s *Store) Load(ctx context.Context) (*model.PackageInfo, []*model.FileInfo, error) {
	var root string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = 'root'").Scan(&root)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("load root: %w", err)
	}

	files, byPath, err := s.loadFiles(ctx)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT f.path, d.kind, d.name, d.is_override, d.description, d.start_line, d.start_col, d.end_line, d.end_col
		 FROM declarations d JOIN files f ON f.id = d.file_id
		 ORDER BY d.id`)
	if err != nil {
		return nil, nil, fmt.Errorf("load declarations: %w", err)
	}
	for rows.Next() {
		d, err := scanDeclaration(rows)
		if err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("load declarations: %w", err)
		}
		byPath[d.File].Declare(d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("load declarations: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		"SELECT f.path, u.kind, u.name FROM uses u JOIN files f ON f.id = u.file_id")
	if err != nil {
		return nil, nil, fmt.Errorf("load uses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var path, kind, name string
		if err := rows.Scan(&path, &kind, &name); err != nil {
			return nil, nil, fmt.Errorf("load uses: %w", err)
		}
		k, err := model.ParseKind(kind)
		if err != nil {
			return nil, nil, fmt.Errorf("load uses: %w", err)
		}
		byPath[path].Use(k, name)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("load uses: %w", err)
	}

	pkg := model.NewPackageInfo(root)
	for _, fi := range files {
		pkg.Add(fi)
	}
	return pkg, files, nil
}

func (s *Store) loadFiles(ctx context.Context) ([]*model.FileInfo, map[string]*model.FileInfo, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path, language FROM files ORDER BY path")
	if err != nil {
		return nil, nil, fmt.Errorf("load files: %w", err)
	}
	defer rows.Close()

	var files []*model.FileInfo
	byPath := make(map[string]*model.FileInfo)
	for rows.Next() {
		var path, language string
		if err := rows.Scan(&path, &language); err != nil {
			return nil, nil, fmt.Errorf("load files: %w", err)
		}
		fi := model.NewFileInfo(path, language)
		files = append(files, fi)
		byPath[path] = fi
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("load files: %w", err)
	}
	return files, byPath, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDeclaration(row scanner) (model.Declaration, error) {
	var d model.Declaration
	var kind string
	err := row.Scan(&d.File, &kind, &d.Name, &d.Override, &d.Desc,
		&d.Source.Start.Line, &d.Source.Start.Column, &d.Source.End.Line, &d.Source.End.Column)
	if err != nil {
		return model.Declaration{}, err
	}
	if d.Kind, err = model.ParseKind(kind); err != nil {
		return model.Declaration{}, err
	}
	d.Source.File = d.File
	return d, nil
}
