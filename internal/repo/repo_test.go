package repo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/models"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(models.All()...))
	return New(gdb)
}

func mustUser(t *testing.T, r *GormRepo, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", PasswordHash: "x"}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func mustBook(t *testing.T, r *GormRepo, title, price string) *models.Book {
	t.Helper()
	b := models.Book{Title: title, Author: "Author " + title, Price: decimal.RequireFromString(price)}
	require.NoError(t, r.CreateBooks(context.Background(), []models.Book{b}))
	var stored models.Book
	require.NoError(t, r.DB.Where("title = ?", title).First(&stored).Error)
	return &stored
}

func TestUsers_UniqueAndLookup(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	alice := mustUser(t, r, "alice")

	ok, err := r.UsernameExists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.EmailExists(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = r.FindUserByID(ctx, 999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	err = r.CreateUser(ctx, &models.User{Username: "alice", Email: "other@example.com", PasswordHash: "x"})
	require.Error(t, err)
}

func TestBooks_PaginationOrder(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	books := make([]models.Book, 0, 13)
	for i := 1; i <= 13; i++ {
		books = append(books, models.Book{Title: fmt.Sprintf("Book %02d", i), Author: "A", Price: decimal.NewFromInt(1)})
	}
	require.NoError(t, r.CreateBooks(ctx, books))

	total, err := r.CountBooks(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 13, total)

	page2, err := r.ListBooks(ctx, 12, 12)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "Book 13", page2[0].Title)

	far, err := r.ListBooks(ctx, 99*12, 12)
	require.NoError(t, err)
	assert.Empty(t, far)
}

func TestBooks_SearchMatchesTitleAndAuthor(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.CreateBooks(ctx, []models.Book{
		{Title: "The Hobbit", Author: "J.R.R. Tolkien", Price: decimal.NewFromInt(1)},
		{Title: "1984", Author: "George Orwell", Price: decimal.NewFromInt(1)},
		{Title: "100% Pure", Author: "Nobody", Price: decimal.NewFromInt(1)},
	}))

	total, items, err := r.SearchBooks(ctx, "hobbit", 0, 12)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "The Hobbit", items[0].Title)

	total, items, err = r.SearchBooks(ctx, "ORWELL", 0, 12)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "1984", items[0].Title)

	total, _, err = r.SearchBooks(ctx, "%", 0, 12)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestFindBooksByIDs_KeepsRequestedOrder(t *testing.T) {
	r := newTestRepo(t)
	a := mustBook(t, r, "A", "1.00")
	b := mustBook(t, r, "B", "2.00")

	got, err := r.FindBooksByIDs(context.Background(), []uint{b.ID, 404, a.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Title)
	assert.Equal(t, "A", got[1].Title)
}

func TestAddToCart_TwiceIncrementsSingleRow(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := mustUser(t, r, "alice")
	b := mustBook(t, r, "Gatsby", "12.99")

	first, err := r.AddToCart(ctx, u.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Quantity)

	second, err := r.AddToCart(ctx, u.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Quantity)

	items, err := r.FindCartItemsByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestAddToCart_ConcurrentAddsNeverDuplicate(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := mustUser(t, r, "alice")
	b := mustBook(t, r, "Gatsby", "12.99")

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.AddToCart(ctx, u.ID, b.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	items, err := r.FindCartItemsByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, n, items[0].Quantity)
}

func TestFindCartLines_JoinsCurrentPrices(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := mustUser(t, r, "alice")
	gatsby := mustBook(t, r, "Gatsby", "12.99")
	hobbit := mustBook(t, r, "Hobbit", "15.99")

	_, err := r.AddToCart(ctx, u.ID, gatsby.ID)
	require.NoError(t, err)
	_, err = r.AddToCart(ctx, u.ID, gatsby.ID)
	require.NoError(t, err)
	_, err = r.AddToCart(ctx, u.ID, hobbit.ID)
	require.NoError(t, err)

	require.NoError(t, r.DB.Model(&models.Book{}).Where("id = ?", hobbit.ID).
		Update("price", decimal.RequireFromString("9.50")).Error)

	lines, err := r.FindCartLines(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "Gatsby", lines[0].Book.Title)
	assert.Equal(t, "25.98", lines[0].Subtotal().StringFixed(2))
	assert.Equal(t, "9.50", lines[1].Subtotal().StringFixed(2))
}

func TestCartItem_UpdateDeleteClear(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	alice := mustUser(t, r, "alice")
	bob := mustUser(t, r, "bob")
	b1 := mustBook(t, r, "One", "1.00")
	b2 := mustBook(t, r, "Two", "2.00")

	item, err := r.AddToCart(ctx, alice.ID, b1.ID)
	require.NoError(t, err)
	_, err = r.AddToCart(ctx, alice.ID, b2.ID)
	require.NoError(t, err)
	bobItem, err := r.AddToCart(ctx, bob.ID, b1.ID)
	require.NoError(t, err)

	require.NoError(t, r.UpdateCartQuantity(ctx, item.ID, 5))
	got, err := r.GetCartItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)

	assert.ErrorIs(t, r.UpdateCartQuantity(ctx, 999, 2), gorm.ErrRecordNotFound)

	require.NoError(t, r.DeleteCartItem(ctx, item.ID))
	assert.ErrorIs(t, r.DeleteCartItem(ctx, item.ID), gorm.ErrRecordNotFound)

	n, err := r.ClearCart(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	left, err := r.GetCartItem(ctx, bobItem.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, left.Quantity)
}

func TestDeleteUser_CascadesCartAndSessions(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	alice := mustUser(t, r, "alice")
	bob := mustUser(t, r, "bob")
	b := mustBook(t, r, "One", "1.00")

	_, err := r.AddToCart(ctx, alice.ID, b.ID)
	require.NoError(t, err)
	_, err = r.AddToCart(ctx, bob.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, r.CreateSession(ctx, &models.Session{JTI: "a-1", UserID: alice.ID, ExpiresAt: time.Now().Add(time.Hour)}))

	require.NoError(t, r.DeleteUser(ctx, alice.ID))

	_, err = r.FindUserByID(ctx, alice.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	items, err := r.FindCartItemsByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
	_, err = r.FindSession(ctx, "a-1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	bobItems, err := r.FindCartItemsByUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, bobItems, 1)

	assert.ErrorIs(t, r.DeleteUser(ctx, alice.ID), gorm.ErrRecordNotFound)
}

func TestSessions_RevokeAndPrune(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := mustUser(t, r, "alice")
	now := time.Now().UTC()

	require.NoError(t, r.CreateSession(ctx, &models.Session{JTI: "live", UserID: u.ID, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, r.CreateSession(ctx, &models.Session{JTI: "old", UserID: u.ID, ExpiresAt: now.Add(-time.Hour)}))

	require.NoError(t, r.RevokeSession(ctx, "live"))
	s, err := r.FindSession(ctx, "live")
	require.NoError(t, err)
	assert.True(t, s.Revoked)
	assert.ErrorIs(t, r.RevokeSession(ctx, "missing"), gorm.ErrRecordNotFound)

	require.NoError(t, r.DeleteStaleSessions(ctx, u.ID, now))
	_, err = r.FindSession(ctx, "live")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = r.FindSession(ctx, "old")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPing(t *testing.T) {
	r := newTestRepo(t)
	require.NoError(t, r.Ping(context.Background()))

	sqlDB, err := r.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	assert.Error(t, r.Ping(context.Background()))
}
