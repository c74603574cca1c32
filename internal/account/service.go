package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/boutique/internal/models"
	"github.com/Skotchmaster/boutique/internal/mykafka"
	"github.com/Skotchmaster/boutique/pkg/hash"
	"github.com/Skotchmaster/boutique/pkg/logging"
	authmw "github.com/Skotchmaster/boutique/pkg/middleware/auth"
	"github.com/Skotchmaster/boutique/pkg/tokens"
)

var (
	ErrValidation         = errors.New("validation")
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const minPassword = 6

type AccountService struct {
	Repo          *GormRepo
	AccessSecret  []byte
	RefreshSecret []byte
	Events        mykafka.Publisher
	Now           func() time.Time
}

func (s *AccountService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func newUser(req RegisterRequest, role string) (*models.User, error) {
	email := normalizeEmail(req.Email)
	first, last := strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName)
	if email == "" || req.Password == "" || first == "" || last == "" {
		return nil, fmt.Errorf("email, password, first name, and last name are required: %w", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("email is invalid: %w", ErrValidation)
	}
	if len(req.Password) < minPassword {
		return nil, fmt.Errorf("password must be at least %d characters: %w", minPassword, ErrValidation)
	}
	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &models.User{
		Email:        email,
		PasswordHash: pwHash,
		FirstName:    first,
		LastName:     last,
		Phone:        strings.TrimSpace(req.Phone),
		Role:         role,
	}, nil
}

func (s *AccountService) create(ctx context.Context, u *models.User) error {
	if err := s.Repo.CreateUserIfNotExists(ctx, u); err != nil {
		return err
	}
	mykafka.Emit(ctx, s.Events, logging.FromContext(ctx), mykafka.TopicUser, u.ID.String(),
		mykafka.NewEvent("user_registered", map[string]any{"userId": u.ID, "email": u.Email, "role": u.Role}))
	return nil
}

func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	u, err := newUser(req, authmw.RoleUser)
	if err != nil {
		return nil, err
	}
	if err := s.create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateAdmin adds a back-office account; role defaults to admin.
func (s *AccountService) CreateAdmin(ctx context.Context, req AdminRequest) (*models.User, error) {
	role := req.Role
	if role == "" {
		role = authmw.RoleAdmin
	}
	if !authmw.IsAdminRole(role) {
		return nil, fmt.Errorf("role must be %s or %s: %w", authmw.RoleAdmin, authmw.RoleSuperAdmin, ErrValidation)
	}
	u, err := newUser(req.RegisterRequest, role)
	if err != nil {
		return nil, err
	}
	if err := s.create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// EnsureSuperAdmin creates the super-admin account, or promotes an existing
// account with that email. It is what cmd/createadmin runs.
func (s *AccountService) EnsureSuperAdmin(ctx context.Context, email, password string) (*models.User, bool, error) {
	existing, err := s.Repo.UserByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == authmw.RoleSuperAdmin {
			return existing, false, nil
		}
		existing.Role = authmw.RoleSuperAdmin
		if err := s.Repo.SaveUser(ctx, existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, err
	}

	u, err := s.CreateAdmin(ctx, AdminRequest{
		RegisterRequest: RegisterRequest{Email: email, Password: password, FirstName: "Super", LastName: "Admin"},
		Role:            authmw.RoleSuperAdmin,
	})
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*models.User, tokens.Pair, error) {
	u, err := s.Repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tokens.Pair{}, ErrInvalidCredentials
		}
		return nil, tokens.Pair{}, err
	}
	if !hash.CheckPassword(u.PasswordHash, password) {
		return nil, tokens.Pair{}, ErrInvalidCredentials
	}

	pair, rt, err := s.issue(u)
	if err != nil {
		return nil, tokens.Pair{}, err
	}
	if err := s.Repo.AddRefresh(ctx, rt); err != nil {
		return nil, tokens.Pair{}, err
	}
	return u, pair, nil
}

func (s *AccountService) issue(u *models.User) (tokens.Pair, *models.RefreshToken, error) {
	now := s.now()
	accessExp := now.Add(tokens.AccessTTL)
	access, err := tokens.SignAccess(u.ID.String(), u.Role, u.Email, accessExp, s.AccessSecret)
	if err != nil {
		return tokens.Pair{}, nil, fmt.Errorf("sign access token: %w", err)
	}
	refreshExp := now.Add(tokens.RefreshTTL)
	refresh, jti, err := tokens.SignRefresh(u.ID.String(), refreshExp, s.RefreshSecret)
	if err != nil {
		return tokens.Pair{}, nil, fmt.Errorf("sign refresh token: %w", err)
	}
	rt := &models.RefreshToken{
		JTI:       jti,
		UserID:    u.ID,
		TokenHash: tokens.Sha256Hex(refresh),
		ExpiresAt: refreshExp.Unix(),
	}
	return tokens.Pair{AccessToken: access, RefreshToken: refresh, AccessExp: accessExp, RefreshExp: refreshExp}, rt, nil
}

// Refresh trades a refresh token for a new pair. The role is re-read from the
// user so promotions take effect on the next refresh.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (tokens.Pair, error) {
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return tokens.Pair{}, fmt.Errorf("parse refresh token: %w", ErrTokenInvalid)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return tokens.Pair{}, fmt.Errorf("refresh subject: %w", ErrTokenInvalid)
	}
	u, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tokens.Pair{}, fmt.Errorf("refresh user: %w", ErrTokenInvalid)
		}
		return tokens.Pair{}, err
	}

	pair, next, err := s.issue(u)
	if err != nil {
		return tokens.Pair{}, err
	}
	if err := s.Repo.RotateRefreshToken(ctx, claims.ID, tokens.Sha256Hex(refreshToken), next, s.now()); err != nil {
		return tokens.Pair{}, err
	}
	return pair, nil
}

func (s *AccountService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.RevokeByHash(ctx, tokens.Sha256Hex(refreshToken))
}

func (s *AccountService) Profile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	u, err := s.Repo.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	wl, err := s.Repo.Wishlist(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Profile{User: *u, Wishlist: wl}, nil
}

// UpdateProfile ignores empty names; phone and address are replaced when sent.
func (s *AccountService) UpdateProfile(ctx context.Context, id uuid.UUID, req ProfileRequest) (*Profile, error) {
	u, err := s.Repo.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	if req.FirstName != nil && strings.TrimSpace(*req.FirstName) != "" {
		u.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil && strings.TrimSpace(*req.LastName) != "" {
		u.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		u.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		u.Address = *req.Address
	}
	if err := s.Repo.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	return s.Profile(ctx, id)
}
