package app

import (
	"context"

	"github.com/hylla/gantt/internal/domain"
)

// Repository stores whole documents. Trees are saved and loaded as one snapshot.
type Repository interface {
	CreateDocument(context.Context, domain.Document) error
	UpdateDocument(context.Context, domain.Document) error
	GetDocument(context.Context, string) (domain.Document, error)
	ListDocuments(context.Context, bool) ([]domain.Document, error)
	DeleteDocument(context.Context, string) error
}
