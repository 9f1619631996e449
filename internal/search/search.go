package search

import (
	"context"

	"github.com/Skotchmaster/bookstore/internal/models"
)

// Searcher finds books whose title or author match a free-text query.
type Searcher interface {
	Search(ctx context.Context, q string, offset, limit int) (int64, []models.Book, error)
	Index(ctx context.Context, books []models.Book) error
}

type BookStore interface {
	SearchBooks(ctx context.Context, q string, offset, limit int) (int64, []models.Book, error)
	FindBooksByIDs(ctx context.Context, ids []uint) ([]models.Book, error)
}

// SQL answers queries straight from the relational store with LIKE matching.
type SQL struct {
	Store BookStore
}

func (s *SQL) Search(ctx context.Context, q string, offset, limit int) (int64, []models.Book, error) {
	return s.Store.SearchBooks(ctx, q, offset, limit)
}

func (s *SQL) Index(context.Context, []models.Book) error { return nil }
