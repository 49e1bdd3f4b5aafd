package auth

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"library-backend/internal/platform/apierr"
	"library-backend/internal/platform/config"
	"library-backend/internal/platform/db"
	"library-backend/internal/platform/ident"
)

const (
	RoleUser      = "user"
	RoleLibrarian = "librarian"
	RoleAdmin     = "admin"
)

const minPasswordLen = 8

var (
	ErrAlreadyExists = apierr.Conflict("id already exists")
	ErrNotFound      = apierr.NotFound("account not found")
	// ID 不一致とパスワード不一致は区別しない
	ErrAuthFailed = apierr.New(apierr.CodeUnauthenticated, "invalid id or password")
	ErrDisabled   = apierr.New(apierr.CodeUnauthenticated, "account disabled")
)

// Claims は発行するトークンの中身。sub = アカウントID。
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	store  AccountStore
	secret []byte
	ttl    time.Duration
	clock  ident.Clock
}

func NewService(conn *sql.DB, cfg config.AuthConfig) *Service {
	return &Service{
		store:  NewStore(conn),
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL(),
		clock:  ident.RealClock{},
	}
}

func (s *Service) Secret() []byte { return s.secret }

func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleLibrarian, RoleAdmin:
		return true
	}
	return false
}

func (s *Service) Login(ctx context.Context, id, password string) (string, error) {
	acct, err := s.store.GetByID(ctx, id)
	if err != nil {
		return "", db.Wrap(err)
	}
	if acct == nil {
		return "", ErrAuthFailed
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return "", ErrAuthFailed
	}
	if acct.IsDisabled {
		return "", ErrDisabled
	}
	return s.issueToken(acct)
}

func (s *Service) issueToken(acct *Account) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: acct.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acct.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken は HS256 固定で検証する（alg=none などは弾く）。
func ParseToken(secret []byte, tokenStr string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, apierr.New(apierr.CodeUnauthenticated, "invalid token")
	}
	if claims.Subject == "" {
		return nil, apierr.New(apierr.CodeUnauthenticated, "missing sub")
	}
	return &claims, nil
}

func (s *Service) Register(ctx context.Context, id, password, role string) error {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > 64 {
		return apierr.Invalid("id must be 1-64 characters")
	}
	if len(password) < minPasswordLen {
		return apierr.Invalid("password must be at least 8 characters")
	}
	if !ValidRole(role) {
		return apierr.Invalid("role must be user, librarian or admin")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	err = s.store.Create(ctx, &Account{
		ID:           id,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.clock.Now(),
	})
	if db.IsDuplicateKey(err) {
		return ErrAlreadyExists
	}
	return db.Wrap(err)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	n, err := s.store.Delete(ctx, id)
	if err != nil {
		return db.Wrap(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) ChangeID(ctx context.Context, oldID, newID string) error {
	newID = strings.TrimSpace(newID)
	if newID == "" || len(newID) > 64 {
		return apierr.Invalid("id must be 1-64 characters")
	}
	n, err := s.store.UpdateID(ctx, oldID, newID)
	if db.IsDuplicateKey(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return db.Wrap(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) SetDisabled(ctx context.Context, id string, disabled bool) error {
	n, err := s.store.SetDisabled(ctx, id, disabled)
	if err != nil {
		return db.Wrap(err)
	}
	if n == 0 {
		// MySQL は値が同じだと 0 行なので存在を確認し直す
		acct, err := s.store.GetByID(ctx, id)
		if err != nil {
			return db.Wrap(err)
		}
		if acct == nil {
			return ErrNotFound
		}
	}
	return nil
}
