package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"
	CodeUnavailable     Code = "STORE_UNAVAILABLE"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeForbidden       Code = "FORBIDDEN"

	// 業務エラー（4xx）
	CodeBookNotFound       Code = "BOOK_NOT_FOUND"
	CodeAuthorNotFound     Code = "AUTHOR_NOT_FOUND"
	CodeMemberNotFound     Code = "MEMBER_NOT_FOUND"
	CodeLoanNotFound       Code = "LOAN_NOT_FOUND"
	CodeMemberInactive     Code = "MEMBER_INACTIVE"
	CodeMemberHasOpenLoans Code = "MEMBER_HAS_OPEN_LOANS"
	CodeAlreadyReturned    Code = "ALREADY_RETURNED"
	CodeInvalidDueDate     Code = "INVALID_DUE_DATE"
	CodeRenewalLimit       Code = "RENEWAL_LIMIT"
	CodeNoCopyAvailable    Code = "NO_COPY_AVAILABLE"
	CodeBelowOpenLoanCount Code = "BELOW_OPEN_LOAN_COUNT"

	// 整合性エラー（5xx）。台帳と在庫の不整合を示すので握りつぶさない
	CodeOverRelease     Code = "OVER_RELEASE"
	CodeInvariantBreach Code = "INVARIANT_BREACH"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

// Is はコードが一致すれば同じエラーとみなす。errors.Is(err, lending.ErrNoCopyAvailable) 用。
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

func New(code Code, msg string) *APIError { return &APIError{Code: code, Message: msg} }

func Invalid(msg string) *APIError     { return New(CodeInvalidArgument, msg) }
func NotFound(msg string) *APIError    { return New(CodeNotFound, msg) }
func Conflict(msg string) *APIError    { return New(CodeConflict, msg) }
func Internal(msg string) *APIError    { return New(CodeInternal, msg) }
func Unavailable(msg string) *APIError { return New(CodeUnavailable, msg) }

// CodeOf は APIError 以外を INTERNAL として扱う。
func CodeOf(err error) Code {
	var api *APIError
	if errors.As(err, &api) {
		return api.Code
	}
	return CodeInternal
}

func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidArgument, CodeInvalidDueDate:
		return http.StatusBadRequest
	case CodeNotFound, CodeBookNotFound, CodeAuthorNotFound, CodeMemberNotFound, CodeLoanNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeMemberInactive, CodeMemberHasOpenLoans, CodeAlreadyReturned,
		CodeRenewalLimit, CodeNoCopyAvailable, CodeBelowOpenLoanCount:
		return http.StatusConflict
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type ErrorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func Body(code Code, msg string) ErrorDTO {
	var e ErrorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

// BodyFrom は内部エラーの詳細をクライアントに返さない。
func BodyFrom(err error) ErrorDTO {
	var api *APIError
	if errors.As(err, &api) {
		return Body(api.Code, api.Message)
	}
	return Body(CodeInternal, "internal error")
}
