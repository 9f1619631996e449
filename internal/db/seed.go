package db

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/models"
)

func DefaultBooks() []models.Book {
	isbn := func(s string) *string { return &s }
	return []models.Book{
		{
			Title:       "The Great Gatsby",
			Author:      "F. Scott Fitzgerald",
			Description: "A classic American novel set in the Jazz Age",
			Price:       decimal.RequireFromString("12.99"),
			ISBN:        isbn("9780743273565"),
			Stock:       15,
		},
		{
			Title:       "To Kill a Mockingbird",
			Author:      "Harper Lee",
			Description: "A gripping tale of racial injustice and childhood innocence",
			Price:       decimal.RequireFromString("14.99"),
			ISBN:        isbn("9780061120084"),
			Stock:       20,
		},
		{
			Title:       "1984",
			Author:      "George Orwell",
			Description: "A dystopian social science fiction novel",
			Price:       decimal.RequireFromString("13.99"),
			ISBN:        isbn("9780451524935"),
			Stock:       18,
		},
		{
			Title:       "Pride and Prejudice",
			Author:      "Jane Austen",
			Description: "A romantic novel of manners",
			Price:       decimal.RequireFromString("11.99"),
			ISBN:        isbn("9780141439518"),
			Stock:       12,
		},
		{
			Title:       "The Catcher in the Rye",
			Author:      "J.D. Salinger",
			Description: "A story about teenage rebellion and alienation",
			Price:       decimal.RequireFromString("13.49"),
			ISBN:        isbn("9780316769488"),
			Stock:       10,
		},
		{
			Title:       "The Hobbit",
			Author:      "J.R.R. Tolkien",
			Description: "A fantasy novel and children's book",
			Price:       decimal.RequireFromString("15.99"),
			ISBN:        isbn("9780547928227"),
			Stock:       25,
		},
	}
}

// Seed inserts DefaultBooks when the books table is empty and returns what it inserted.
func Seed(ctx context.Context, db *gorm.DB) ([]models.Book, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Book{}).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count books: %w", err)
	}
	if count > 0 {
		return nil, nil
	}

	books := DefaultBooks()
	for i := range books {
		books[i].CoverImage = models.DefaultCoverImage
	}
	if err := db.WithContext(ctx).Create(&books).Error; err != nil {
		return nil, fmt.Errorf("insert seed books: %w", err)
	}
	return books, nil
}
