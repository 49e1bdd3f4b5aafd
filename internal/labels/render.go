package labels

import (
	"bytes"
	"encoding/csv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"
)

const (
	EncodingSJIS = "sjis"
	EncodingUTF8 = "utf8"

	DefaultWidth = 20
	MaxWidth     = 80
	MaxCount     = 100
)

// displayWidth は全角を2、半角を1として数える。
func displayWidth(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}

// truncate は表示幅 limit に収まるよう末尾を "…" に置き換える。
func truncate(s string, limit int) string {
	total := 0
	for _, r := range s {
		total += displayWidth(r)
	}
	if total <= limit {
		return s
	}
	var b strings.Builder
	used := 0
	for _, r := range s {
		w := displayWidth(r)
		if used+w > limit-1 {
			break
		}
		b.WriteRune(r)
		used += w
	}
	b.WriteRune('…')
	return b.String()
}

// initial は著者名の頭文字。半角カナなどは全角に寄せる。
func initial(name string) string {
	name = width.Widen.String(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(name)
	return strings.ToUpper(string(r))
}

// writeCSV はラベルソフトに流し込む CSV を組み立てる。
// Shift_JIS で表せない文字は "?" に置き換える。
func writeCSV(rows []LabelRow, enc string) ([]byte, error) {
	var b bytes.Buffer
	var w *csv.Writer
	var tw *transform.Writer
	if enc == EncodingUTF8 {
		w = csv.NewWriter(&b)
	} else {
		tw = transform.NewWriter(&b, encoding.ReplaceUnsupported(japanese.ShiftJIS.NewEncoder()))
		w = csv.NewWriter(tw)
	}
	for _, r := range rows {
		if err := w.Write([]string{r.CallNumber, r.Title, r.ISBN, r.BookID}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	if tw != nil {
		if err := tw.Close(); err != nil {
			return nil, err
		}
	}
	return b.Bytes(), nil
}
