package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/genres"
	"library-backend/internal/platform/apierr"
	"library-backend/internal/platform/ident"
	"library-backend/internal/platform/paging"
	"library-backend/internal/testutil"
)

func newTestService(t *testing.T) (*Service, *ident.FixedClock) {
	t.Helper()
	conn := testutil.OpenDB(t)
	clock := &ident.FixedClock{T: testutil.Epoch}
	return &Service{store: NewStore(conn), genres: genres.NewStore(conn), clock: clock, id: ident.ULIDGen{}}, clock
}

func ptr[T any](v T) *T { return &v }

func TestAuthorCRUD(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreateAuthor(ctx, CreateAuthorRequest{FirstName: " Ursula ", LastName: "Le Guin", Nationality: ptr("US")})
	require.NoError(t, err)
	assert.Equal(t, "Ursula", a.FirstName)
	require.NotNil(t, a.Nationality)
	assert.Nil(t, a.Biography)

	got, err := svc.GetAuthor(ctx, a.AuthorID)
	require.NoError(t, err)
	assert.Equal(t, a.AuthorID, got.AuthorID)

	upd, err := svc.UpdateAuthor(ctx, a.AuthorID, UpdateAuthorRequest{Biography: ptr("Earthsea")})
	require.NoError(t, err)
	require.NotNil(t, upd.Biography)
	assert.Equal(t, "Earthsea", *upd.Biography)

	_, err = svc.UpdateAuthor(ctx, a.AuthorID, UpdateAuthorRequest{FirstName: ptr("  ")})
	assert.Equal(t, apierr.CodeInvalidArgument, apierr.CodeOf(err))

	list, err := svc.ListAuthors(ctx, AuthorFilter{Name: ptr("Guin")}, paging.Page{}.Normalize())
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Total)

	require.NoError(t, svc.DeleteAuthor(ctx, a.AuthorID))
	_, err = svc.GetAuthor(ctx, a.AuthorID)
	assert.True(t, errors.Is(err, ErrAuthorNotFound))
	assert.True(t, errors.Is(svc.DeleteAuthor(ctx, a.AuthorID), ErrAuthorNotFound))
}

func TestDeleteAuthor_RefusedWhileReferenced(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreateAuthor(ctx, CreateAuthorRequest{FirstName: "Ursula", LastName: "Le Guin"})
	require.NoError(t, err)
	_, err = svc.CreateBook(ctx, CreateBookRequest{ISBN: "978-0-306-40615-7", Title: "Earthsea", AuthorID: a.AuthorID, TotalCopies: 2})
	require.NoError(t, err)

	err = svc.DeleteAuthor(ctx, a.AuthorID)
	assert.Equal(t, apierr.CodeConflict, apierr.CodeOf(err))
}

func TestCreateBook(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreateAuthor(ctx, CreateAuthorRequest{FirstName: "Ursula", LastName: "Le Guin"})
	require.NoError(t, err)

	b, err := svc.CreateBook(ctx, CreateBookRequest{ISBN: "978-0-306-40615-7", Title: "Earthsea", AuthorID: a.AuthorID, TotalCopies: 3})
	require.NoError(t, err)
	assert.Equal(t, "9780306406157", b.ISBN)
	assert.Equal(t, 3, b.TotalCopies)
	assert.Equal(t, 3, b.AvailableCopies)

	_, err = svc.CreateBook(ctx, CreateBookRequest{ISBN: "9780306406157", Title: "dup", AuthorID: a.AuthorID, TotalCopies: 1})
	assert.Equal(t, apierr.CodeConflict, apierr.CodeOf(err), "isbn is unique")

	_, err = svc.CreateBook(ctx, CreateBookRequest{ISBN: "0-306-40615-2", Title: "x", AuthorID: "nobody", TotalCopies: 1})
	assert.True(t, errors.Is(err, ErrAuthorNotFound))

	_, err = svc.CreateBook(ctx, CreateBookRequest{ISBN: "0-306-40615-2", Title: "x", AuthorID: a.AuthorID, TotalCopies: -1})
	assert.Equal(t, apierr.CodeInvalidArgument, apierr.CodeOf(err))

	_, err = svc.CreateBook(ctx, CreateBookRequest{ISBN: "123", Title: "x", AuthorID: a.AuthorID})
	assert.Equal(t, apierr.CodeInvalidArgument, apierr.CodeOf(err))
}

func TestUpdateBook_DoesNotTouchCopies(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreateAuthor(ctx, CreateAuthorRequest{FirstName: "Ursula", LastName: "Le Guin"})
	require.NoError(t, err)
	b, err := svc.CreateBook(ctx, CreateBookRequest{ISBN: "9780306406157", Title: "Earthsea", AuthorID: a.AuthorID, TotalCopies: 2})
	require.NoError(t, err)

	clock.Advance(time.Hour)
	upd, err := svc.UpdateBook(ctx, b.BookID, UpdateBookRequest{Title: ptr("The Farthest Shore")})
	require.NoError(t, err)
	assert.Equal(t, "The Farthest Shore", upd.Title)
	assert.Equal(t, 2, upd.TotalCopies)
	assert.Equal(t, 2, upd.AvailableCopies)
	assert.True(t, upd.UpdatedAt.After(upd.CreatedAt))

	_, err = svc.UpdateBook(ctx, b.BookID, UpdateBookRequest{AuthorID: ptr("ghost")})
	assert.True(t, errors.Is(err, ErrAuthorNotFound))

	_, err = svc.UpdateBook(ctx, "missing", UpdateBookRequest{Title: ptr("x")})
	assert.True(t, errors.Is(err, ErrBookNotFound))
}

func TestListBooks_Filters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreateAuthor(ctx, CreateAuthorRequest{FirstName: "Ursula", LastName: "Le Guin"})
	require.NoError(t, err)
	_, err = svc.CreateBook(ctx, CreateBookRequest{ISBN: "9780306406157", Title: "A Wizard of Earthsea", AuthorID: a.AuthorID, TotalCopies: 1})
	require.NoError(t, err)
	_, err = svc.CreateBook(ctx, CreateBookRequest{ISBN: "0306406152", Title: "The Dispossessed", AuthorID: a.AuthorID, TotalCopies: 1})
	require.NoError(t, err)

	res, err := svc.ListBooks(ctx, BookFilter{Title: ptr("Earthsea")}, paging.Page{}.Normalize())
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "A Wizard of Earthsea", res.Items[0].Title)

	res, err = svc.ListBooks(ctx, BookFilter{ISBN: ptr("0-306-40615-2")}, paging.Page{}.Normalize())
	require.NoError(t, err)
	require.Len(t, res.Items, 1)

	res, err = svc.ListBooks(ctx, BookFilter{AuthorID: ptr(a.AuthorID)}, paging.Page{Limit: 1}.Normalize())
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
	assert.EqualValues(t, 2, res.Total)
	assert.Equal(t, 1, res.NextOffset)
}

func TestDeleteBook(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreateAuthor(ctx, CreateAuthorRequest{FirstName: "Ursula", LastName: "Le Guin"})
	require.NoError(t, err)
	b, err := svc.CreateBook(ctx, CreateBookRequest{ISBN: "9780306406157", Title: "Earthsea", AuthorID: a.AuthorID, TotalCopies: 1})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBook(ctx, b.BookID))
	assert.True(t, errors.Is(svc.DeleteBook(ctx, b.BookID), ErrBookNotFound))
}

func TestBookGenre(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	gs := genres.NewService(svc.store.db)

	_, err := gs.Create(ctx, genres.CreateGenreRequest{Code: "913", Name: "Japanese fiction"})
	require.NoError(t, err)
	_, err = gs.Create(ctx, genres.CreateGenreRequest{Code: "lit", Name: "Literature"})
	require.NoError(t, err)

	a, err := svc.CreateAuthor(ctx, CreateAuthorRequest{FirstName: "Ursula", LastName: "Le Guin"})
	require.NoError(t, err)
	b, err := svc.CreateBook(ctx, CreateBookRequest{ISBN: "9780306406157", Title: "Earthsea", AuthorID: a.AuthorID, GenreCode: ptr("lit"), TotalCopies: 1})
	require.NoError(t, err)
	require.NotNil(t, b.GenreCode)
	assert.Equal(t, "LIT", *b.GenreCode)

	_, err = svc.CreateBook(ctx, CreateBookRequest{ISBN: "0306406152", Title: "x", AuthorID: a.AuthorID, GenreCode: ptr("nope")})
	assert.Equal(t, apierr.CodeInvalidArgument, apierr.CodeOf(err))

	res, err := svc.ListBooks(ctx, BookFilter{Genre: ptr("lit")}, paging.Page{}.Normalize())
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)

	require.NoError(t, gs.Delete(ctx, "913"))
	_, err = svc.UpdateBook(ctx, b.BookID, UpdateBookRequest{GenreCode: ptr("913")})
	assert.Equal(t, apierr.CodeInvalidArgument, apierr.CodeOf(err), "disabled genre")

	upd, err := svc.UpdateBook(ctx, b.BookID, UpdateBookRequest{GenreCode: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, upd.GenreCode)
}
