package catalog

import (
	"strings"

	"golang.org/x/text/width"

	"library-backend/internal/platform/apierr"
)

// NormalizeISBN は全角数字・ハイフン・空白を吸収し、ISBN-10/13 のチェックディジットを検証する。
// 戻り値は区切り無しの数字列（ISBN-10 は末尾 X を許す）。
func NormalizeISBN(raw string) (string, error) {
	s := width.Fold.String(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", "", " ", "", "‐", "", "−", "").Replace(s)
	s = strings.ToUpper(s)

	switch len(s) {
	case 10:
		if !validISBN10(s) {
			return "", apierr.Invalid("invalid isbn-10 checksum")
		}
	case 13:
		if !validISBN13(s) {
			return "", apierr.Invalid("invalid isbn-13 checksum")
		}
	default:
		return "", apierr.Invalid("isbn must have 10 or 13 digits")
	}
	return s, nil
}

func validISBN10(s string) bool {
	sum := 0
	for i := 0; i < 10; i++ {
		c := s[i]
		var d int
		switch {
		case c >= '0' && c <= '9':
			d = int(c - '0')
		case c == 'X' && i == 9:
			d = 10
		default:
			return false
		}
		sum += (10 - i) * d
	}
	return sum%11 == 0
}

func validISBN13(s string) bool {
	sum := 0
	for i := 0; i < 13; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return sum%10 == 0
}
