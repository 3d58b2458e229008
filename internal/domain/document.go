package domain

import (
	"strings"
	"time"
)

// Document is a named, persisted timeline tree.
type Document struct {
	ID          string
	Slug        string
	Name        string
	Description string
	Tree        Tree
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ArchivedAt  *time.Time
}

// NewDocument constructs an empty document.
func NewDocument(id, name, description string, now time.Time) (Document, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return Document{}, ErrInvalidID
	}
	if name == "" {
		return Document{}, ErrInvalidName
	}

	return Document{
		ID:          id,
		Slug:        normalizeSlug(name),
		Name:        name,
		Description: strings.TrimSpace(description),
		Tree:        Tree{},
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// Rename renames the document and refreshes its slug.
func (d *Document) Rename(name string, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	d.Name = name
	d.Slug = normalizeSlug(name)
	d.UpdatedAt = now.UTC()
	return nil
}

// ReplaceTree stores a normalized copy of tree after validating it.
func (d *Document) ReplaceTree(tree Tree, now time.Time) error {
	normalized := tree.Normalize()
	if err := normalized.Validate(); err != nil {
		return err
	}
	d.Tree = normalized
	d.UpdatedAt = now.UTC()
	return nil
}

func (d *Document) Archive(now time.Time) {
	ts := now.UTC()
	d.ArchivedAt = &ts
	d.UpdatedAt = ts
}

func (d *Document) Restore(now time.Time) {
	d.ArchivedAt = nil
	d.UpdatedAt = now.UTC()
}

// normalizeSlug lowercases s and collapses every non-alphanumeric run into one dash.
func normalizeSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var b strings.Builder
	prevDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
