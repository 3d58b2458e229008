package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hylla/gantt/internal/calendar"
	"github.com/hylla/gantt/internal/domain"
)

// DeleteMode represents a selectable mode.
type DeleteMode string

// DeleteModeArchive and related constants define package defaults.
const (
	DeleteModeArchive DeleteMode = "archive"
	DeleteModeHard    DeleteMode = "hard"
)

// DefaultDocumentName names the document created on first launch.
const DefaultDocumentName = "Untitled timeline"

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	DefaultDeleteMode DeleteMode
	// SeedSample fills the first-launch document with the sample plan.
	SeedSample bool
	Calendar   calendar.Calendar
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service manages stored documents.
type Service struct {
	repo              Repository
	idGen             IDGenerator
	clock             Clock
	defaultDeleteMode DeleteMode
	seedSample        bool
	cal               calendar.Calendar
}

// NewService constructs a new value for this package.
func NewService(repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.DefaultDeleteMode == "" {
		cfg.DefaultDeleteMode = DeleteModeArchive
	}
	if cfg.Calendar.TotalDays <= 0 {
		cfg.Calendar = calendar.New(clock(), [2]time.Weekday{time.Saturday, time.Sunday}, calendar.DefaultTotalDays)
	}
	return &Service{
		repo:              repo,
		idGen:             idGen,
		clock:             clock,
		defaultDeleteMode: cfg.DefaultDeleteMode,
		seedSample:        cfg.SeedSample,
		cal:               cfg.Calendar,
	}
}

// EnsureDefaultDocument returns the first active document, creating one when none exist.
func (s *Service) EnsureDefaultDocument(ctx context.Context) (domain.Document, error) {
	docs, err := s.repo.ListDocuments(ctx, false)
	if err != nil {
		return domain.Document{}, err
	}
	if len(docs) > 0 {
		return docs[0], nil
	}
	in := CreateDocumentInput{Name: DefaultDocumentName}
	if s.seedSample {
		in.Tree = SampleTree(s.idGen, s.cal)
	}
	return s.CreateDocument(ctx, in)
}

// CreateDocumentInput holds input values for create document operations.
type CreateDocumentInput struct {
	Name        string
	Description string
	Tree        domain.Tree
}

// CreateDocument creates a document holding in.Tree.
func (s *Service) CreateDocument(ctx context.Context, in CreateDocumentInput) (domain.Document, error) {
	now := s.clock()
	doc, err := domain.NewDocument(s.idGen(), in.Name, in.Description, now)
	if err != nil {
		return domain.Document{}, err
	}
	if len(in.Tree) > 0 {
		if err := doc.ReplaceTree(in.Tree, now); err != nil {
			return domain.Document{}, err
		}
	}
	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

// GetDocument loads one document by id.
func (s *Service) GetDocument(ctx context.Context, id string) (domain.Document, error) {
	return s.repo.GetDocument(ctx, strings.TrimSpace(id))
}

// FindDocument resolves ref as an id, a slug, or a case-insensitive name.
func (s *Service) FindDocument(ctx context.Context, ref string) (domain.Document, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.Document{}, ErrNotFound
	}
	doc, err := s.repo.GetDocument(ctx, ref)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return domain.Document{}, err
	}
	docs, err := s.repo.ListDocuments(ctx, true)
	if err != nil {
		return domain.Document{}, err
	}
	for _, d := range docs {
		if d.Slug == ref || strings.EqualFold(d.Name, ref) {
			return d, nil
		}
	}
	return domain.Document{}, fmt.Errorf("document %q: %w", ref, ErrNotFound)
}

// ListDocuments lists documents ordered by creation time.
func (s *Service) ListDocuments(ctx context.Context, includeArchived bool) ([]domain.Document, error) {
	docs, err := s.repo.ListDocuments(ctx, includeArchived)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(docs, func(a, b domain.Document) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return docs, nil
}

// SaveTree replaces the tree of document id.
func (s *Service) SaveTree(ctx context.Context, id string, tree domain.Tree) (domain.Document, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return domain.Document{}, err
	}
	if err := doc.ReplaceTree(tree, s.clock()); err != nil {
		return domain.Document{}, err
	}
	if err := s.repo.UpdateDocument(ctx, doc); err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

// RenameDocument renames document id.
func (s *Service) RenameDocument(ctx context.Context, id, name string) (domain.Document, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return domain.Document{}, err
	}
	if err := doc.Rename(name, s.clock()); err != nil {
		return domain.Document{}, err
	}
	if err := s.repo.UpdateDocument(ctx, doc); err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

// DeleteDocument archives or removes document id. An empty mode uses the configured default.
func (s *Service) DeleteDocument(ctx context.Context, id string, mode DeleteMode) error {
	if mode == "" {
		mode = s.defaultDeleteMode
	}
	switch mode {
	case DeleteModeArchive:
		doc, err := s.repo.GetDocument(ctx, id)
		if err != nil {
			return err
		}
		doc.Archive(s.clock())
		return s.repo.UpdateDocument(ctx, doc)
	case DeleteModeHard:
		return s.repo.DeleteDocument(ctx, id)
	default:
		return fmt.Errorf("delete mode %q: %w", mode, ErrInvalidDeleteMode)
	}
}

// RestoreDocument clears the archived flag of document id.
func (s *Service) RestoreDocument(ctx context.Context, id string) (domain.Document, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return domain.Document{}, err
	}
	doc.Restore(s.clock())
	if err := s.repo.UpdateDocument(ctx, doc); err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

// ImportDocument decodes data into a new document. The snapshot name is used when
// name is blank. The returned repairs list dropped links and stray tasks.
func (s *Service) ImportDocument(ctx context.Context, name string, data []byte, format Format) (domain.Document, []string, error) {
	snap, err := DecodeSnapshot(data, format)
	if err != nil {
		return domain.Document{}, nil, err
	}
	tree, repairs, err := snap.Tree()
	if err != nil {
		return domain.Document{}, nil, err
	}
	if strings.TrimSpace(name) == "" {
		name = snap.Name
	}
	doc, err := s.CreateDocument(ctx, CreateDocumentInput{Name: name, Description: snap.Description, Tree: tree})
	if err != nil {
		return domain.Document{}, nil, err
	}
	return doc, repairs, nil
}

// ExportDocument encodes document id as a snapshot.
func (s *Service) ExportDocument(ctx context.Context, id string, format Format) ([]byte, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	return EncodeSnapshot(NewSnapshot(doc.Name, doc.Description, doc.Tree, s.clock()), format)
}
