package genres

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/platform/apierr"
	"library-backend/internal/testutil"
)

func TestGenreLifecycle(t *testing.T) {
	svc := NewService(testutil.OpenDB(t))
	ctx := context.Background()

	g, err := svc.Create(ctx, CreateGenreRequest{Code: " 913 ", Name: " Japanese fiction "})
	require.NoError(t, err)
	assert.Equal(t, &Genre{Code: "913", Name: "Japanese fiction"}, g)

	_, err = svc.Create(ctx, CreateGenreRequest{Code: "913", Name: "dup"})
	assert.Equal(t, apierr.CodeConflict, apierr.CodeOf(err))

	_, err = svc.Create(ctx, CreateGenreRequest{Code: "", Name: "x"})
	assert.Equal(t, apierr.CodeInvalidArgument, apierr.CodeOf(err))

	upd, err := svc.Update(ctx, "913", UpdateGenreRequest{Name: "Fiction (JP)"})
	require.NoError(t, err)
	assert.Equal(t, "Fiction (JP)", upd.Name)

	require.NoError(t, svc.Delete(ctx, "913"))

	list, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list, "disabled genres are hidden by default")

	list, err = svc.List(ctx, "all")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsDisabled)

	ok, err := svc.Store().Usable(ctx, "913")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Get(ctx, "404")
	assert.True(t, errors.Is(err, ErrGenreNotFound))
	assert.True(t, errors.Is(svc.Delete(ctx, "404"), ErrGenreNotFound))
}
