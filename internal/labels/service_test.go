package labels

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"library-backend/internal/catalog"
	"library-backend/internal/platform/apierr"
	"library-backend/internal/testutil"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Earthsea", truncate("Earthsea", 10))
	assert.Equal(t, "A Wizard…", truncate("A Wizard of Earthsea", 9))
	// 全角は2幅
	assert.Equal(t, "ゲド戦…", truncate("ゲド戦記 影との戦い", 8))
	assert.Equal(t, "ル", initial("ﾙ･ｸﾞｨﾝ"))
}

func TestRender(t *testing.T) {
	conn := testutil.OpenDB(t)
	_, err := conn.Exec(`INSERT INTO authors (author_id, first_name, last_name, created_at) VALUES (?, ?, ?, ?)`,
		"A1", "アーシュラ", "ル＝グウィン", testutil.Epoch)
	require.NoError(t, err)
	_, err = conn.Exec(`INSERT INTO genres (genre_code, genre_name) VALUES ('933', '英米文学')`)
	require.NoError(t, err)
	_, err = conn.Exec(`
	INSERT INTO books (book_id, isbn, title, author_id, genre_code, total_copies, available_copies, version, created_at, updated_at)
	VALUES ('B1', '9784001145885', 'ゲド戦記 影との戦い', 'A1', '933', 2, 2, 0, ?, ?)`, testutil.Epoch, testutil.Epoch)
	require.NoError(t, err)

	svc := NewService(catalog.NewStore(conn))
	ctx := context.Background()

	out, err := svc.Render(ctx, BatchRequest{Items: []LabelItem{{BookID: "B1", Count: 2}}, Width: 12})
	require.NoError(t, err)

	utf8, err := io.ReadAll(transform.NewReader(bytes.NewReader(out), japanese.ShiftJIS.NewDecoder()))
	require.NoError(t, err)
	recs, err := csv.NewReader(bytes.NewReader(utf8)).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"933 ル", "ゲド戦記 影…", "9784001145885", "B1"}, recs[0])

	out, err = svc.Render(ctx, BatchRequest{Items: []LabelItem{{BookID: "B1", Count: 1}}, Encoding: EncodingUTF8})
	require.NoError(t, err)
	assert.Contains(t, string(out), "ゲド戦記 影との戦い")

	_, err = svc.Render(ctx, BatchRequest{Items: []LabelItem{{BookID: "B1", Count: 0}}})
	assert.ErrorIs(t, err, ErrNoPrintableSelected)

	_, err = svc.Render(ctx, BatchRequest{Items: []LabelItem{{BookID: "nope", Count: 1}}})
	assert.Equal(t, apierr.CodeBookNotFound, apierr.CodeOf(err))

	_, err = svc.Render(ctx, BatchRequest{Items: []LabelItem{{BookID: "B1", Count: 1}}, Encoding: "latin1"})
	assert.Equal(t, apierr.CodeInvalidArgument, apierr.CodeOf(err))
}
