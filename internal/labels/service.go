package labels

import (
	"context"
	"log"
	"strings"

	"library-backend/internal/catalog"
	"library-backend/internal/platform/apierr"
	"library-backend/internal/platform/db"
)

var ErrNoPrintableSelected = apierr.Invalid("no printable items selected")

// BookSource は *catalog.Store が満たす。
type BookSource interface {
	GetBook(ctx context.Context, id string) (*catalog.Book, error)
	GetAuthor(ctx context.Context, id string) (*catalog.Author, error)
}

type Service struct{ books BookSource }

func NewService(books BookSource) *Service { return &Service{books: books} }

// Build は冊数分のラベル行を作る。count が 0 の項目は飛ばす。
func (s *Service) Build(ctx context.Context, in BatchRequest) ([]LabelRow, error) {
	w := in.Width
	if w == 0 {
		w = DefaultWidth
	}
	if w < 4 || w > MaxWidth {
		return nil, apierr.Invalid("width must be between 4 and 80")
	}

	var rows []LabelRow
	for _, it := range in.Items {
		if it.Count < 0 || it.Count > MaxCount {
			return nil, apierr.Invalid("count must be between 0 and 100")
		}
		if it.Count == 0 {
			continue
		}
		b, err := s.books.GetBook(ctx, it.BookID)
		if err != nil {
			return nil, db.Wrap(err)
		}
		if b == nil {
			return nil, catalog.ErrBookNotFound
		}
		a, err := s.books.GetAuthor(ctx, b.AuthorID)
		if err != nil {
			return nil, db.Wrap(err)
		}

		call := b.GenreCode.String
		if a != nil {
			call = strings.TrimSpace(call + " " + initial(a.LastName))
		}
		row := LabelRow{CallNumber: call, Title: truncate(b.Title, w), ISBN: b.ISBN, BookID: b.BookID}
		for i := 0; i < it.Count; i++ {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		log.Println("[WARN]", ErrNoPrintableSelected)
		return nil, ErrNoPrintableSelected
	}
	return rows, nil
}

// Render は Build した行を指定の文字コードで CSV にする。
func (s *Service) Render(ctx context.Context, in BatchRequest) ([]byte, error) {
	switch in.Encoding {
	case "":
		in.Encoding = EncodingSJIS
	case EncodingSJIS, EncodingUTF8:
	default:
		return nil, apierr.Invalid("encoding must be sjis or utf8")
	}
	rows, err := s.Build(ctx, in)
	if err != nil {
		return nil, err
	}
	out, err := writeCSV(rows, in.Encoding)
	if err != nil {
		log.Printf("[ERROR] label csv: %v", err)
		return nil, apierr.Internal("failed to render labels")
	}
	log.Printf("[INFO] labels rendered: %d rows (%s)", len(rows), in.Encoding)
	return out, nil
}
