package services

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"renTrentoBack/internal/models"
	"renTrentoBack/internal/policy"
	"renTrentoBack/internal/repositories"
	"renTrentoBack/internal/wallet"
	"renTrentoBack/utils"
)

const defaultTokenTTL = 3 * time.Hour

var validate = validator.New()

// SignUpInput is a new account. Role is honoured only for admin callers.
type SignUpInput struct {
	UserName string
	Email    string
	Password string
	Role     string
}

type UserService struct {
	Store        repositories.Store
	TokenManager *utils.Manager
	Ledger       *wallet.Ledger
	TokenTTL     time.Duration
	Now          func() time.Time
}

func NewUserService(store repositories.Store, tokens *utils.Manager, tokenTTL time.Duration) *UserService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &UserService{
		Store:        store,
		TokenManager: tokens,
		Ledger:       wallet.NewLedger(),
		TokenTTL:     tokenTTL,
		Now:          utcNow,
	}
}

// SignUp creates an account. caller is nil for anonymous sign ups.
func (s *UserService) SignUp(ctx context.Context, caller *models.Principal, in SignUpInput) (models.User, error) {
	in.UserName = strings.TrimSpace(in.UserName)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateEmail(in.Email); err != nil {
		return models.User{}, err
	}
	if in.UserName == "" {
		return models.User{}, models.ErrUserNameRequired
	}
	if in.Password == "" {
		return models.User{}, models.ErrPasswordRequired
	}

	role := models.RoleUser
	if caller != nil && caller.IsAdmin() && in.Role != "" {
		if !models.ValidRole(in.Role) {
			return models.User{}, models.ErrInvalidRole
		}
		role = in.Role
	}

	if err := s.checkUnique(ctx, "", in.UserName, in.Email); err != nil {
		return models.User{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, errors.Wrap(err, "hash password")
	}

	now := s.Now()
	user, err := s.Store.Users().CreateUser(ctx, models.User{
		ID:        uuid.NewString(),
		UserName:  in.UserName,
		Email:     in.Email,
		Password:  string(hashedPassword),
		Role:      role,
		Wallet:    decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if errors.Is(err, models.ErrDuplicate) {
		return models.User{}, models.ErrDuplicateEmail
	}
	if err != nil {
		return models.User{}, errors.Wrap(err, "create user")
	}
	return user, nil
}

// Authenticate checks the credentials and issues an access token.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.AuthResponse, error) {
	user, err := s.Store.Users().GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return models.AuthResponse{}, notFound(err, models.ErrAuthUserNotFound)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return models.AuthResponse{}, models.ErrAuthWrongPassword
	}

	token, err := s.TokenManager.NewJWT(principalOf(user), s.TokenTTL)
	if err != nil {
		return models.AuthResponse{}, errors.Wrap(err, "sign token")
	}
	return models.AuthResponse{
		Success: true,
		Message: "Authenticated",
		Token:   token,
		ID:      user.ID,
		Email:   user.Email,
		Self:    UserSelf(user.ID),
	}, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (models.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, notFound(err, models.ErrUserNotFound)
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	return s.Store.Users().ListUsers(ctx, filter)
}

func (s *UserService) UpdateUser(ctx context.Context, caller models.Principal, id string, upd models.UserUpdate) (models.User, error) {
	if !policy.CanManageUser(caller, id) {
		return models.User{}, models.ErrForbidden
	}
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	if upd.Role != nil && *upd.Role != user.Role {
		if !caller.IsAdmin() {
			return models.User{}, models.ErrForbidden
		}
		if !models.ValidRole(*upd.Role) {
			return models.User{}, models.ErrInvalidRole
		}
		user.Role = *upd.Role
	}
	if upd.UserName != nil {
		name := strings.TrimSpace(*upd.UserName)
		if name == "" {
			return models.User{}, models.ErrUserNameRequired
		}
		user.UserName = name
	}
	if upd.Email != nil {
		email := strings.TrimSpace(*upd.Email)
		if err := validateEmail(email); err != nil {
			return models.User{}, err
		}
		user.Email = email
	}
	if upd.Password != nil {
		if *upd.Password == "" {
			return models.User{}, models.ErrPasswordRequired
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return models.User{}, errors.Wrap(err, "hash password")
		}
		user.Password = string(hashedPassword)
	}
	if upd.FCMToken != nil {
		user.FCMToken = *upd.FCMToken
	}

	if err := s.checkUnique(ctx, user.ID, user.UserName, user.Email); err != nil {
		return models.User{}, err
	}
	user.UpdatedAt = s.Now()
	err = s.Store.Users().UpdateUser(ctx, user)
	switch {
	case errors.Is(err, models.ErrDuplicate):
		return models.User{}, models.ErrDuplicateEmail
	case err != nil:
		return models.User{}, notFound(err, models.ErrUserNotFound)
	}
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, caller models.Principal, id string) error {
	if !policy.CanManageUser(caller, id) {
		return models.ErrForbidden
	}
	return notFound(s.Store.Users().DeleteUser(ctx, id), models.ErrUserNotFound)
}

// TopUp credits a wallet. Admins only.
func (s *UserService) TopUp(ctx context.Context, caller models.Principal, id string, amount decimal.Decimal) (models.User, error) {
	if !caller.IsAdmin() {
		return models.User{}, models.ErrForbidden
	}
	if !amount.IsPositive() {
		return models.User{}, models.ErrInvalidAmount
	}
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		_, err := s.Ledger.TopUp(ctx, tx, id, amount)
		return notFound(err, models.ErrUserNotFound)
	})
	if err != nil {
		return models.User{}, err
	}
	return s.GetUser(ctx, id)
}

func (s *UserService) WalletHistory(ctx context.Context, caller models.Principal, id string) ([]models.LedgerEntry, error) {
	if !policy.CanManageUser(caller, id) {
		return nil, models.ErrForbidden
	}
	if _, err := s.GetUser(ctx, id); err != nil {
		return nil, err
	}
	return s.Store.Ledger().ListEntriesByUser(ctx, id)
}

func (s *UserService) checkUnique(ctx context.Context, selfID, userName, email string) error {
	existing, err := s.Store.Users().GetUserByUserName(ctx, userName)
	switch {
	case err == nil && existing.ID != selfID:
		return models.ErrDuplicateUserName
	case err != nil && !errors.Is(err, models.ErrNoRecord):
		return errors.Wrap(err, "lookup user name")
	}
	existing, err = s.Store.Users().GetUserByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != selfID:
		return models.ErrDuplicateEmail
	case err != nil && !errors.Is(err, models.ErrNoRecord):
		return errors.Wrap(err, "lookup email")
	}
	return nil
}

func validateEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return models.ErrInvalidEmail
	}
	return nil
}

func principalOf(u models.User) models.Principal {
	return models.Principal{ID: u.ID, UserName: u.UserName, Role: u.Role, Email: u.Email}
}

// UserSelf is the canonical link of a user resource.
func UserSelf(id string) string {
	return "/renTrentoAPI/users/" + id
}
