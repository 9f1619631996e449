package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/hash"
	"github.com/Skotchmaster/bookstore/internal/metrics"
	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/internal/search"
)

type recordedEvent struct {
	Topic string
	Key   string
	Event map[string]any
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (r *recorder) Publish(_ context.Context, topic, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, recordedEvent{Topic: topic, Key: key, Event: event.(map[string]any)})
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Event["type"].(string))
	}
	return out
}

type testEnv struct {
	Repo     *repo.GormRepo
	Events   *recorder
	Metrics  *metrics.Metrics
	Auth     *AuthService
	Catalog  *CatalogService
	Cart     *CartService
	Checkout *CheckoutService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, gdb.AutoMigrate(models.All()...))

	r := repo.New(gdb)
	rec := &recorder{}
	m := metrics.New()
	return &testEnv{
		Repo:     r,
		Events:   rec,
		Metrics:  m,
		Auth:     &AuthService{Repo: r, Hasher: hash.NewBcrypt(bcrypt.MinCost), Events: rec, Metrics: m},
		Catalog:  &CatalogService{Repo: r, Search: &search.SQL{Store: r}},
		Cart:     &CartService{Repo: r, Events: rec, Metrics: m},
		Checkout: &CheckoutService{Repo: r, Events: rec, Metrics: m},
	}
}

func (e *testEnv) register(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := e.Auth.Register(context.Background(), RegisterInput{
		Username: name, Email: name + "@example.com", Password: "pw-" + name, ConfirmPassword: "pw-" + name,
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) books(t *testing.T, n int, price string) []models.Book {
	t.Helper()
	books := make([]models.Book, 0, n)
	for i := 1; i <= n; i++ {
		books = append(books, models.Book{Title: fmt.Sprintf("Book %02d", i), Author: "Author", Price: decimal.RequireFromString(price)})
	}
	require.NoError(t, e.Repo.CreateBooks(context.Background(), books))
	var stored []models.Book
	require.NoError(t, e.Repo.DB.Order("id ASC").Find(&stored).Error)
	return stored
}

func countUsers(t *testing.T, e *testEnv) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.Repo.DB.Model(&models.User{}).Count(&n).Error)
	return n
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice")

	tests := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{name: "empty username", in: RegisterInput{Email: "x@example.com", Password: "p", ConfirmPassword: "p"}, want: ErrMissingFields},
		{name: "empty email", in: RegisterInput{Username: "x", Password: "p", ConfirmPassword: "p"}, want: ErrMissingFields},
		{name: "mismatch", in: RegisterInput{Username: "x", Email: "x@example.com", Password: "p", ConfirmPassword: "q"}, want: ErrPasswordMismatch},
		{name: "username taken", in: RegisterInput{Username: "alice", Email: "new@example.com", Password: "p", ConfirmPassword: "p"}, want: ErrUsernameTaken},
		{name: "email taken", in: RegisterInput{Username: "bob", Email: "alice@example.com", Password: "p", ConfirmPassword: "p"}, want: ErrEmailTaken},
		{name: "password too long", in: RegisterInput{Username: "bob", Email: "bob@example.com", Password: strings.Repeat("p", 80), ConfirmPassword: strings.Repeat("p", 80)}, want: ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Auth.Register(ctx, tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrValidation)
			assert.EqualValues(t, 1, countUsers(t, env))
		})
	}
}

func TestRegister_StoresHashAndPublishes(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t, "alice")

	assert.NotZero(t, u.ID)
	assert.NotEqual(t, "pw-alice", u.PasswordHash)
	assert.Equal(t, []string{"user_registered"}, env.Events.types())
	assert.Equal(t, "user_events", env.Events.events[0].Topic)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	u, err := env.Auth.Login(ctx, "alice", "pw-alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, u.ID)

	_, err = env.Auth.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.Auth.Login(ctx, "nobody", "pw-alice")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	env := newTestEnv(t)
	env.Events.err = errors.New("broker down")

	u := env.register(t, "alice")
	assert.NotZero(t, u.ID)
}

func TestCatalog_PagesAndFeatured(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.books(t, 13, "1.00")

	featured, err := env.Catalog.Featured(ctx)
	require.NoError(t, err)
	require.Len(t, featured, 6)
	assert.Equal(t, "Book 01", featured[0].Title)

	p1, err := env.Catalog.Page(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, p1.Books, 12)
	assert.Equal(t, 2, p1.Pages)
	assert.True(t, p1.HasNext)

	p2, err := env.Catalog.Page(ctx, 2)
	require.NoError(t, err)
	require.Len(t, p2.Books, 1)
	assert.Equal(t, "Book 13", p2.Books[0].Title)
	assert.False(t, p2.HasNext)

	p100, err := env.Catalog.Page(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, p100.Books)
	assert.EqualValues(t, 13, p100.Total)
}

func TestCatalog_BookNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Catalog.Book(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_Search(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.books(t, 3, "1.00")

	res, err := env.Catalog.SearchBooks(ctx, "book 02", 1)
	require.NoError(t, err)
	require.Len(t, res.Books, 1)
	assert.Equal(t, "Book 02", res.Books[0].Title)

	_, err = env.Catalog.SearchBooks(ctx, "   ", 1)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCart_AddTwiceSingleRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	b := env.books(t, 1, "12.99")[0]

	book, err := env.Cart.Add(ctx, alice.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Title, book.Title)
	_, err = env.Cart.Add(ctx, alice.ID, b.ID)
	require.NoError(t, err)

	sum, err := env.Cart.Summary(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, sum.Lines, 1)
	assert.Equal(t, 2, sum.Lines[0].Item.Quantity)
	assert.Equal(t, "25.98", sum.Total.StringFixed(2))

	_, err = env.Cart.Add(ctx, alice.ID, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCart_TotalOnlyCountsOwnItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	bs := env.books(t, 2, "10.00")

	_, err := env.Cart.Add(ctx, alice.ID, bs[0].ID)
	require.NoError(t, err)
	_, err = env.Cart.Add(ctx, bob.ID, bs[0].ID)
	require.NoError(t, err)
	_, err = env.Cart.Add(ctx, bob.ID, bs[1].ID)
	require.NoError(t, err)

	total, err := env.Cart.Total(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.00", total.StringFixed(2))

	total, err = env.Cart.Total(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "20.00", total.StringFixed(2))

	empty := env.register(t, "carol")
	total, err = env.Cart.Total(ctx, empty.ID)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestCart_ForeignItemsAreForbidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	b := env.books(t, 1, "5.00")[0]

	_, err := env.Cart.Add(ctx, alice.ID, b.ID)
	require.NoError(t, err)
	items, err := env.Repo.FindCartItemsByUser(ctx, alice.ID)
	require.NoError(t, err)
	itemID := items[0].ID

	assert.ErrorIs(t, env.Cart.Remove(ctx, bob.ID, itemID), ErrForbidden)
	assert.ErrorIs(t, env.Cart.UpdateQuantity(ctx, bob.ID, itemID, "7"), ErrForbidden)
	assert.ErrorIs(t, env.Cart.UpdateQuantity(ctx, bob.ID, itemID, "zero"), ErrForbidden)

	item, err := env.Repo.GetCartItem(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)

	assert.ErrorIs(t, env.Cart.Remove(ctx, alice.ID, 999), ErrNotFound)
	assert.ErrorIs(t, env.Cart.UpdateQuantity(ctx, alice.ID, 999, "2"), ErrNotFound)
}

func TestCart_UpdateQuantity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	b := env.books(t, 1, "5.00")[0]

	_, err := env.Cart.Add(ctx, alice.ID, b.ID)
	require.NoError(t, err)
	items, err := env.Repo.FindCartItemsByUser(ctx, alice.ID)
	require.NoError(t, err)
	itemID := items[0].ID

	for _, bad := range []string{"", "0", "-1", "two", "1.5"} {
		err := env.Cart.UpdateQuantity(ctx, alice.ID, itemID, bad)
		assert.ErrorIs(t, err, ErrInvalidQuantity, bad)
	}
	item, err := env.Repo.GetCartItem(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)

	require.NoError(t, env.Cart.UpdateQuantity(ctx, alice.ID, itemID, "4"))
	total, err := env.Cart.Total(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "20.00", total.StringFixed(2))

	require.NoError(t, env.Cart.Remove(ctx, alice.ID, itemID))
	sum, err := env.Cart.Summary(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, sum.Empty())
}

func TestCheckout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	bs := env.books(t, 2, "12.99")

	_, err := env.Checkout.Summary(ctx, alice.ID)
	assert.ErrorIs(t, err, ErrEmptyCart)
	_, err = env.Checkout.Complete(ctx, alice.ID)
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = env.Cart.Add(ctx, alice.ID, bs[0].ID)
	require.NoError(t, err)
	_, err = env.Cart.Add(ctx, alice.ID, bs[1].ID)
	require.NoError(t, err)
	_, err = env.Cart.Add(ctx, bob.ID, bs[1].ID)
	require.NoError(t, err)

	sum, err := env.Checkout.Summary(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, sum.Lines, 2)
	assert.Equal(t, "25.98", sum.Total.StringFixed(2))

	done, err := env.Checkout.Complete(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, done.Count())

	after, err := env.Cart.Summary(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, after.Empty())

	bobs, err := env.Cart.Summary(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, bobs.Lines, 1)

	assert.Contains(t, env.Events.types(), "checkout_completed")
}

func TestParseQuantity(t *testing.T) {
	t.Parallel()

	q, err := ParseQuantity(" 3 ")
	require.NoError(t, err)
	assert.Equal(t, 3, q)

	_, err = ParseQuantity("0")
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}
