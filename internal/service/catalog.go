package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/config"
	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/internal/search"
	"github.com/Skotchmaster/bookstore/internal/util"
)

type CatalogService struct {
	Repo   *repo.GormRepo
	Search search.Searcher
}

type BookPage struct {
	Books []models.Book
	util.Pagination
}

func (s *CatalogService) Featured(ctx context.Context) ([]models.Book, error) {
	return s.Repo.ListBooks(ctx, 0, config.FeaturedBooks)
}

// Page returns one catalogue page; pages past the end are empty, not an error.
func (s *CatalogService) Page(ctx context.Context, page int) (*BookPage, error) {
	if page < 1 {
		page = 1
	}
	total, err := s.Repo.CountBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("count books: %w", err)
	}

	from, limit := util.Calculate(page, config.BooksPerPage)
	books, err := s.Repo.ListBooks(ctx, from, limit)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	return &BookPage{Books: books, Pagination: util.NewPagination(page, config.BooksPerPage, total)}, nil
}

func (s *CatalogService) Book(ctx context.Context, id uint) (*models.Book, error) {
	book, err := s.Repo.GetBook(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("book %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return book, nil
}

func (s *CatalogService) SearchBooks(ctx context.Context, q string, page int) (*BookPage, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("empty query: %w", ErrValidation)
	}
	if page < 1 {
		page = 1
	}

	from, limit := util.Calculate(page, config.BooksPerPage)
	total, books, err := s.Search.Search(ctx, q, from, limit)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}

	return &BookPage{Books: books, Pagination: util.NewPagination(page, config.BooksPerPage, total)}, nil
}

// Reindex pushes every book to the search backend.
func (s *CatalogService) Reindex(ctx context.Context) error {
	l := logging.FromContext(ctx).With("svc", "catalog.reindex")

	const batch = 100
	indexed := 0
	for offset := 0; ; offset += batch {
		books, err := s.Repo.ListBooks(ctx, offset, batch)
		if err != nil {
			return fmt.Errorf("list books: %w", err)
		}
		if len(books) == 0 {
			break
		}
		if err := s.Search.Index(ctx, books); err != nil {
			return fmt.Errorf("index books: %w", err)
		}
		indexed += len(books)
		if len(books) < batch {
			break
		}
	}

	l.Info("books_indexed", "count", indexed)
	return nil
}
