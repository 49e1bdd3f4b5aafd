package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeISBN(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"978-0-306-40615-7", "9780306406157"},
		{" 9780306406157 ", "9780306406157"},
		{"０-３０６-４０６１５-２", "0306406152"},
		{"0-8044-2957-x", "080442957X"},
	}
	for _, tc := range cases {
		got, err := NormalizeISBN(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestNormalizeISBN_Rejects(t *testing.T) {
	for _, in := range []string{"", "12345", "978-0-306-40615-8", "0-306-40615-3", "X306406152", "97803064061ab"} {
		_, err := NormalizeISBN(in)
		assert.Error(t, err, in)
	}
}
