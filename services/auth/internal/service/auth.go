package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	pkg_hash "github.com/Skotchmaster/veranda/pkg/hash"
	"github.com/Skotchmaster/veranda/pkg/identity"
	jwthelp "github.com/Skotchmaster/veranda/pkg/jwt"
	"github.com/Skotchmaster/veranda/pkg/logging"
	"github.com/Skotchmaster/veranda/pkg/tokens"
	"github.com/Skotchmaster/veranda/services/auth/internal/models"
	"github.com/Skotchmaster/veranda/services/auth/internal/repo"
	"github.com/Skotchmaster/veranda/services/auth/internal/transport"
)

var (
	ErrValidation          = errors.New("validation")
	ErrConflict            = errors.New("conflict")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

const minPasswordLen = 8

type AuthService struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	User         *models.User
}

func (r *LoginResult) IsAdmin() bool {
	return r.User != nil && r.User.Role == identity.RoleAdmin
}

func (h *AuthService) accessTTL() time.Duration {
	if h.AccessTTL > 0 {
		return h.AccessTTL
	}
	return 15 * time.Minute
}

func (h *AuthService) refreshTTL() time.Duration {
	if h.RefreshTTL > 0 {
		return h.RefreshTTL
	}
	return 7 * 24 * time.Hour
}

// Register always creates a CLIENT. Admins come from EnsureAdmin.
func (h *AuthService) Register(ctx context.Context, in transport.RegisterRequest) (*models.User, error) {
	return h.createUser(ctx, in, identity.RoleClient)
}

// EnsureAdmin provisions an admin account at startup. An existing account
// with the same email is left untouched.
func (h *AuthService) EnsureAdmin(ctx context.Context, email, password, name string) error {
	if name == "" {
		name = "Administrator"
	}
	_, err := h.createUser(ctx, transport.RegisterRequest{Email: email, Password: password, Name: name}, identity.RoleAdmin)
	if errors.Is(err, ErrConflict) {
		return nil
	}
	return err
}

func (h *AuthService) createUser(ctx context.Context, in transport.RegisterRequest, role identity.Role) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, fmt.Errorf("%w: valid email is required", ErrValidation)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if len(in.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}

	pwHash, err := pkg_hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		CompanyName:  trimmed(in.CompanyName),
		ContactInfo:  trimmed(in.ContactInfo),
		PasswordHash: pwHash,
		Role:         role,
	}
	if err := h.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_error", "status", 409, "reason", "user already exist")
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		l.Error("register_error", "status", 500, "reason", "internal error", "error", err)
		return nil, err
	}
	return user, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (h *AuthService) issue(ctx context.Context, user *models.User) (*LoginResult, *models.RefreshToken, error) {
	now := time.Now()
	accessExp := now.Add(h.accessTTL())
	accessToken, err := tokens.SignAccess(user.ID.String(), string(user.Role), accessExp, h.JWTSecret)
	if err != nil {
		return nil, nil, err
	}

	jti := jwthelp.NewJTI()
	refreshExp := now.Add(h.refreshTTL())
	refreshToken, err := tokens.SignRefresh(user.ID.String(), jti, refreshExp, h.RefreshSecret)
	if err != nil {
		return nil, nil, err
	}

	row := &models.RefreshToken{
		UserID:    user.ID,
		Token:     jwthelp.Sha256Hex(refreshToken),
		JTI:       jti,
		ExpiresAt: refreshExp.Unix(),
	}
	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		User:         user,
	}, row, nil
}

func (h *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	l := logging.FromContext(ctx).With("svc", "auth.login")
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := h.Repo.CheckCredentials(ctx, email, password)
	if err != nil {
		if errors.Is(err, repo.ErrInvalidCredentials) {
			l.Warn("login_failed", "status", 401, "reason", "invalid email or password")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	res, row, err := h.issue(ctx, user)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot sign tokens", "error", err)
		return nil, err
	}
	if err := h.Repo.SaveRefresh(ctx, row); err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot store refresh token", "error", err)
		return nil, err
	}
	return res, nil
}

// Refresh rotates the refresh token. The role in the new access token is
// read from the user row, never from the old token.
func (h *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, h.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidRefreshToken)
	}

	user, err := h.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown user", ErrInvalidRefreshToken)
	}

	res, row, err := h.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := h.Repo.RotateRefreshToken(ctx, claims.ID, jwthelp.Sha256Hex(refreshToken), row); err != nil {
		if errors.Is(err, repo.ErrRefreshInvalid) {
			l.Warn("refresh_failed", "status", 401, "reason", "expired or revoked")
			return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
		}
		return nil, err
	}
	return res, nil
}

func (h *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return h.Repo.LogOut(ctx, refreshToken)
}

func (h *AuthService) Me(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return h.Repo.GetUserByID(ctx, id)
}
