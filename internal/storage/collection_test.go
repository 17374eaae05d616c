package storage

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dkeye/devcircle/internal/domain"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCollection_InsertGetReplaceDelete(t *testing.T) {
	req := require.New(t)
	store := NewStore(openTestDB(t))

	// Given a stored project
	p := &domain.Project{ProjectName: "devcircle", Description: "community", ProjectLink: "https://example.com"}
	req.NoError(store.Projects.Insert(p))
	req.NotEmpty(p.ID)
	_, err := domain.ParseID(p.ID)
	req.NoError(err)

	got, err := store.Projects.Get(p.ID)
	req.NoError(err)
	req.Equal("devcircle", got.ProjectName)

	// When it is replaced
	created := got.CreatedAt
	got.Description = "updated"
	got.CreatedAt = time.Time{}
	req.NoError(store.Projects.Replace(got))

	// Then the creation time survives and the change is visible
	again, err := store.Projects.Get(p.ID)
	req.NoError(err)
	req.Equal("updated", again.Description)
	req.True(created.Equal(again.CreatedAt))
	req.False(again.UpdatedAt.Before(created))

	// And deletion makes it disappear
	req.NoError(store.Projects.Delete(p.ID))
	_, err = store.Projects.Get(p.ID)
	req.ErrorIs(err, domain.ErrNotFound)
	req.ErrorIs(store.Projects.Delete(p.ID), domain.ErrNotFound)
}

func TestCollection_ReplaceMissing(t *testing.T) {
	store := NewStore(openTestDB(t))
	p := &domain.Project{Meta: domain.Meta{ID: "missing"}}
	require.ErrorIs(t, store.Projects.Replace(p), domain.ErrNotFound)
}

func TestCollection_UniqueIndexes(t *testing.T) {
	req := require.New(t)
	store := NewStore(openTestDB(t))

	alice, err := domain.NewUser("alice", "alice@example.com", "h")
	req.NoError(err)
	req.NoError(store.Users.Insert(alice))

	// duplicate username
	dup, _ := domain.NewUser("alice", "other@example.com", "h")
	req.ErrorIs(store.Users.Insert(dup), domain.ErrConflict)

	// duplicate email
	dup, _ = domain.NewUser("bob", "alice@example.com", "h")
	req.ErrorIs(store.Users.Insert(dup), domain.ErrConflict)

	found, err := store.Users.FindBy("email", "alice@example.com")
	req.NoError(err)
	req.Equal(alice.ID, found.ID)

	_, err = store.Users.FindBy("username", "nobody")
	req.ErrorIs(err, domain.ErrNotFound)

	_, err = store.Users.FindBy("phone", "1")
	req.Error(err)

	// renaming releases the old value
	found.Username = "alicia"
	req.NoError(store.Users.Replace(found))
	_, err = store.Users.FindBy("username", "alice")
	req.ErrorIs(err, domain.ErrNotFound)
	bob, _ := domain.NewUser("alice", "bob@example.com", "h")
	req.NoError(store.Users.Insert(bob))

	// deletion releases every value
	req.NoError(store.Users.Delete(found.ID))
	carol, _ := domain.NewUser("alicia", "alice@example.com", "h")
	req.NoError(store.Users.Insert(carol))
}

func TestCollection_ListNewestFirst(t *testing.T) {
	req := require.New(t)
	store := NewStore(openTestDB(t))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.Entries.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for i := 0; i < 5; i++ {
		req.NoError(store.Entries.Insert(&domain.Entry{Name: fmt.Sprintf("n%d", i), Email: "a@b.co", Message: "m"}))
	}

	all, err := store.Entries.List(nil)
	req.NoError(err)
	req.Len(all, 5)
	req.Equal("n4", all[0].Name)
	req.Equal("n0", all[4].Name)

	odd, err := store.Entries.List(func(e *domain.Entry) bool { return e.Name == "n1" || e.Name == "n3" })
	req.NoError(err)
	req.Len(odd, 2)
	req.Equal("n3", odd[0].Name)
}

func TestCollection_ListIgnoresIndexKeys(t *testing.T) {
	req := require.New(t)
	store := NewStore(openTestDB(t))
	u, _ := domain.NewUser("alice", "alice@example.com", "h")
	req.NoError(store.Users.Insert(u))

	users, err := store.Users.List(nil)
	req.NoError(err)
	req.Len(users, 1)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	tests := []struct {
		name      string
		req       PageRequest
		wantItems []int
		want      Pagination
	}{
		{"defaults", PageRequest{}, items[:10], Pagination{CurrentPage: 1, TotalPages: 2, TotalItems: 12, ItemsPerPage: 10}},
		{"second page", PageRequest{Page: 2, Limit: 5}, []int{6, 7, 8, 9, 10}, Pagination{CurrentPage: 2, TotalPages: 3, TotalItems: 12, ItemsPerPage: 5}},
		{"past the end", PageRequest{Page: 9, Limit: 5}, []int{}, Pagination{CurrentPage: 9, TotalPages: 3, TotalItems: 12, ItemsPerPage: 5}},
		{"huge page", PageRequest{Page: math.MaxInt, Limit: 100}, []int{}, Pagination{CurrentPage: math.MaxInt, TotalPages: 1, TotalItems: 12, ItemsPerPage: 100}},
		{"limit clamped", PageRequest{Limit: 1000}, items, Pagination{CurrentPage: 1, TotalPages: 1, TotalItems: 12, ItemsPerPage: MaxLimit}},
		{"all", PageRequest{All: true, Limit: 2}, items, Pagination{CurrentPage: 1, TotalPages: 1, TotalItems: 12, ItemsPerPage: 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate(items, tt.req)
			require.Equal(t, tt.wantItems, got.Items)
			require.Equal(t, tt.want, got.Pagination)
		})
	}
}

func TestPaginate_EmptyIsNotNull(t *testing.T) {
	got := Paginate[string](nil, PageRequest{})
	require.NotNil(t, got.Items)
	require.Zero(t, got.Pagination.TotalPages)
}

func TestOpen_InMemory(t *testing.T) {
	db, err := Open("")
	require.NoError(t, err)
	require.NoError(t, db.Close())
}
