package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesByCode(t *testing.T) {
	sentinel := New(CodeNoCopyAvailable, "no copy available")
	err := fmt.Errorf("issue: %w", New(CodeNoCopyAvailable, "book X has no copies"))

	assert.True(t, errors.Is(err, sentinel))
	assert.False(t, errors.Is(err, New(CodeBookNotFound, "")))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		Invalid("x"):                          http.StatusBadRequest,
		New(CodeInvalidDueDate, "x"):          http.StatusBadRequest,
		New(CodeLoanNotFound, "x"):            http.StatusNotFound,
		New(CodeNoCopyAvailable, "x"):         http.StatusConflict,
		New(CodeAlreadyReturned, "x"):         http.StatusConflict,
		New(CodeBelowOpenLoanCount, "x"):      http.StatusConflict,
		New(CodeOverRelease, "x"):             http.StatusInternalServerError,
		New(CodeUnauthenticated, "x"):         http.StatusUnauthorized,
		New(CodeForbidden, "x"):               http.StatusForbidden,
		Unavailable("x"):                      http.StatusServiceUnavailable,
		errors.New("plain"):                   http.StatusInternalServerError,
		fmt.Errorf("wrap: %w", NotFound("x")): http.StatusNotFound,
	}
	for err, want := range cases {
		assert.Equal(t, want, HTTPStatus(err), err.Error())
	}
}

func TestBodyFrom_HidesInternalDetails(t *testing.T) {
	b := BodyFrom(errors.New("dial tcp 10.0.0.1:3306: refused"))
	assert.Equal(t, CodeInternal, b.Error.Code)
	assert.Equal(t, "internal error", b.Error.Message)

	b = BodyFrom(Conflict("dup"))
	assert.Equal(t, CodeConflict, b.Error.Code)
	assert.Equal(t, "dup", b.Error.Message)
}
