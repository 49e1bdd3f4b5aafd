package lending

import "library-backend/internal/platform/apierr"

// 業務エラー。errors.Is はコードで比較される。
var (
	ErrBookNotFound       = apierr.New(apierr.CodeBookNotFound, "book not found")
	ErrMemberNotFound     = apierr.New(apierr.CodeMemberNotFound, "member not found")
	ErrLoanNotFound       = apierr.New(apierr.CodeLoanNotFound, "loan not found")
	ErrMemberInactive     = apierr.New(apierr.CodeMemberInactive, "member is inactive")
	ErrNoCopyAvailable    = apierr.New(apierr.CodeNoCopyAvailable, "no copy available")
	ErrAlreadyReturned    = apierr.New(apierr.CodeAlreadyReturned, "loan already returned")
	ErrInvalidDueDate     = apierr.New(apierr.CodeInvalidDueDate, "invalid due date")
	ErrRenewalLimit       = apierr.New(apierr.CodeRenewalLimit, "renewal limit reached")
	ErrBelowOpenLoanCount = apierr.New(apierr.CodeBelowOpenLoanCount, "total copies below open loan count")
)

// 整合性エラー。台帳と在庫がずれているので 500 で返し、必ず [ERROR] を残す。
var (
	ErrOverRelease     = apierr.New(apierr.CodeOverRelease, "release would exceed total copies")
	ErrInvariantBreach = apierr.New(apierr.CodeInvariantBreach, "availability invariant breached")
)
