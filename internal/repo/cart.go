package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/bookstore/internal/models"
)

func (r *GormRepo) FindCartItemsByUser(ctx context.Context, userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindCartLines loads the user's cart items and the books they reference with two queries.
// Items whose book no longer exists are dropped.
func (r *GormRepo) FindCartLines(ctx context.Context, userID uint) ([]models.CartLine, error) {
	items, err := r.FindCartItemsByUser(ctx, userID)
	if err != nil || len(items) == 0 {
		return nil, err
	}

	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.BookID)
	}
	books, err := r.FindBooksByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	lines := make([]models.CartLine, 0, len(items))
	for _, it := range items {
		b, ok := byID[it.BookID]
		if !ok {
			continue
		}
		lines = append(lines, models.CartLine{Item: it, Book: b})
	}
	return lines, nil
}

// AddToCart inserts a (user, book) row with quantity 1 or increments the existing one
// in a single statement, relying on idx_cart_user_book.
func (r *GormRepo) AddToCart(ctx context.Context, userID, bookID uint) (*models.CartItem, error) {
	item := models.CartItem{UserID: userID, BookID: bookID, Quantity: 1}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
			DoUpdates: clause.Assignments(map[string]any{"quantity": gorm.Expr("cart_items.quantity + ?", 1)}),
		}).Create(&item).Error
		if err != nil {
			return err
		}
		return tx.Where("user_id = ? AND book_id = ?", userID, bookID).First(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) GetCartItem(ctx context.Context, id uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) UpdateCartQuantity(ctx context.Context, id uint, quantity int) error {
	res := r.DB.WithContext(ctx).Model(&models.CartItem{}).Where("id = ?", id).Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) DeleteCartItem(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClearCart deletes every item of the user in one statement and reports how many went.
func (r *GormRepo) ClearCart(ctx context.Context, userID uint) (int64, error) {
	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
