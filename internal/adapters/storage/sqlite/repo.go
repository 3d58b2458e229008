package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hylla/gantt/internal/app"
	"github.com/hylla/gantt/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository stores documents in one sqlite table; each tree is kept as a JSON snapshot.
type Repository struct {
	db *sql.DB
}

// Open opens (and migrates) the database at path, creating its directory if needed.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	// Every pooled connection would get its own empty database.
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			tree_json TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			archived_at TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at ASC);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_slug ON documents(slug);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// CreateDocument inserts d.
func (r *Repository) CreateDocument(ctx context.Context, d domain.Document) error {
	treeJSON, err := encodeTree(d)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO documents(id, slug, name, description, tree_json, created_at, updated_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.Slug, d.Name, d.Description, treeJSON, ts(d.CreatedAt), ts(d.UpdatedAt), nullableTS(d.ArchivedAt))
	return err
}

// UpdateDocument overwrites the stored row for d.ID.
func (r *Repository) UpdateDocument(ctx context.Context, d domain.Document) error {
	treeJSON, err := encodeTree(d)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE documents
		SET slug = ?, name = ?, description = ?, tree_json = ?, updated_at = ?, archived_at = ?
		WHERE id = ?
	`, d.Slug, d.Name, d.Description, treeJSON, ts(d.UpdatedAt), nullableTS(d.ArchivedAt), d.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// GetDocument loads one document with its tree.
func (r *Repository) GetDocument(ctx context.Context, id string) (domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, slug, name, description, tree_json, created_at, updated_at, archived_at
		FROM documents
		WHERE id = ?
	`, id)
	return scanDocument(row)
}

// ListDocuments lists documents oldest first.
func (r *Repository) ListDocuments(ctx context.Context, includeArchived bool) ([]domain.Document, error) {
	query := `
		SELECT id, slug, name, description, tree_json, created_at, updated_at, archived_at
		FROM documents
	`
	if !includeArchived {
		query += ` WHERE archived_at IS NULL`
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteDocument removes the row for id.
func (r *Repository) DeleteDocument(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (domain.Document, error) {
	var (
		d          domain.Document
		treeRaw    string
		createdRaw string
		updatedRaw string
		archived   sql.NullString
	)
	if err := s.Scan(&d.ID, &d.Slug, &d.Name, &d.Description, &treeRaw, &createdRaw, &updatedRaw, &archived); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Document{}, app.ErrNotFound
		}
		return domain.Document{}, err
	}
	if strings.TrimSpace(treeRaw) == "" {
		treeRaw = "[]"
	}
	tree, err := app.DecodeTree([]byte(treeRaw), app.FormatJSON)
	if err != nil {
		return domain.Document{}, fmt.Errorf("decode document %q tree_json: %w", d.ID, err)
	}
	d.Tree = tree
	d.CreatedAt = parseTS(createdRaw)
	d.UpdatedAt = parseTS(updatedRaw)
	d.ArchivedAt = parseNullTS(archived)
	return d, nil
}

func encodeTree(d domain.Document) (string, error) {
	data, err := app.EncodeTree(d.Tree, app.FormatJSON, d.UpdatedAt)
	if err != nil {
		return "", fmt.Errorf("encode document tree: %w", err)
	}
	return string(data), nil
}

// translateNoRows maps an update or delete that touched nothing to app.ErrNotFound.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

func parseNullTS(v sql.NullString) *time.Time {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	ts := parseTS(v.String)
	return &ts
}
