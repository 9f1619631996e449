package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultCoverImage = "default-book.jpg"

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"        json:"id"`
	Username     string    `gorm:"size:80;uniqueIndex;not null"    json:"username"`
	Email        string    `gorm:"size:120;uniqueIndex;not null"   json:"email"`
	PasswordHash string    `gorm:"size:255;not null"               json:"-"`
	CreatedAt    time.Time `                                       json:"created_at"`
}

type Book struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"              json:"id"`
	Title       string          `gorm:"size:200;not null"                     json:"title"`
	Author      string          `gorm:"size:100;not null"                     json:"author"`
	Description string          `gorm:"type:text"                             json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"           json:"price"`
	ISBN        *string         `gorm:"size:13;uniqueIndex"                   json:"isbn,omitempty"`
	CoverImage  string          `gorm:"size:255;default:'default-book.jpg'"   json:"cover_image"`
	Stock       int             `gorm:"default:0"                             json:"stock"`
	CreatedAt   time.Time       `                                             json:"created_at"`
}

// CartItem references its owner and book by id only; the book is loaded
// explicitly by the repository when a subtotal is needed.
type CartItem struct {
	ID       uint      `gorm:"primaryKey;autoIncrement"                    json:"id"`
	UserID   uint      `gorm:"uniqueIndex:idx_cart_user_book;not null"     json:"user_id"`
	BookID   uint      `gorm:"uniqueIndex:idx_cart_user_book;not null"     json:"book_id"`
	Quantity int       `gorm:"default:1;not null;check:quantity>0"         json:"quantity"`
	AddedAt  time.Time `gorm:"autoCreateTime"                              json:"added_at"`
}

type Session struct {
	ID        uint      `gorm:"primaryKey"                   json:"id"`
	JTI       string    `gorm:"size:36;uniqueIndex;not null" json:"jti"`
	UserID    uint      `gorm:"index;not null"               json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"                     json:"expires_at"`
	Revoked   bool      `gorm:"default:false"                json:"revoked"`
	CreatedAt time.Time `                                    json:"created_at"`
}

// CartLine is a cart item joined with the book it references. It is built on
// read and never persisted.
type CartLine struct {
	Item CartItem
	Book Book
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Book.Price.Mul(decimal.NewFromInt(int64(l.Item.Quantity)))
}

// All lists every model in migration order.
func All() []any {
	return []any{&User{}, &Book{}, &CartItem{}, &Session{}}
}
