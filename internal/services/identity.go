package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"lessonpath-backend-go/internal/models"
	"lessonpath-backend-go/internal/store"

	"github.com/google/uuid"
)

const minPasswordLength = 6

type UserProfile struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	IsAdmin    bool      `json:"isAdmin"`
	Year       string    `json:"year"`
	Semester   string    `json:"semester"`
	CourseCode string    `json:"courseCode"`
	CreatedAt  time.Time `json:"createdAt"`
}

type IdentityService struct {
	Store  store.Store
	Tokens TokenService
	Now    func() time.Time
}

func NewIdentityService(s store.Store, tokens TokenService) *IdentityService {
	return &IdentityService{Store: s, Tokens: tokens, Now: time.Now}
}

// Register creates an account for an allowlisted email, copying the profile
// fields from its allowlist entry.
func (i *IdentityService) Register(ctx context.Context, email, password string) (TokenPair, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return TokenPair{}, ErrBadRequest("Email and password are required")
	}
	entry, err := i.Store.Allowlist().GetEntry(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return TokenPair{}, ErrForbidden("Email is not allowed to register")
	}
	if err != nil {
		return TokenPair{}, WrapError(err, "load allowlist entry")
	}
	if _, err := i.Store.Users().GetUserByEmail(ctx, email); err == nil {
		return TokenPair{}, ErrConflict("User already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return TokenPair{}, WrapError(err, "load user")
	}
	if len(password) < minPasswordLength {
		return TokenPair{}, ErrBadRequest("Password must be at least 6 characters")
	}
	hash, err := i.Tokens.HashPassword(password)
	if err != nil {
		return TokenPair{}, WrapError(err, "hash password")
	}
	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         entry.Name,
		PasswordHash: hash,
		Year:         entry.Year,
		Semester:     entry.Semester,
		CourseCode:   entry.CourseCode,
		CreatedAt:    i.Now().UTC(),
	}
	if err := i.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return TokenPair{}, ErrConflict("User already exists")
		}
		return TokenPair{}, WrapError(err, "create user")
	}
	return i.issue(user)
}

func (i *IdentityService) Login(ctx context.Context, email, password string) (TokenPair, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return TokenPair{}, ErrUnauthorized("Invalid credentials")
	}
	user, err := i.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return TokenPair{}, ErrUnauthorized("Invalid credentials")
	}
	if err != nil {
		return TokenPair{}, WrapError(err, "load user")
	}
	if !i.Tokens.VerifyPassword(password, user.PasswordHash) {
		return TokenPair{}, ErrUnauthorized("Invalid credentials")
	}
	return i.issue(user)
}

// Refresh exchanges a refresh token for a new pair. The admin flag is read
// again from storage so revoked rights do not survive a refresh.
func (i *IdentityService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	userID, err := i.Tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, ErrUnauthorized("Invalid refresh token")
	}
	user, err := i.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return TokenPair{}, ErrUnauthorized("Invalid refresh token")
	}
	if err != nil {
		return TokenPair{}, WrapError(err, "load user")
	}
	return i.issue(user)
}

func (i *IdentityService) issue(user models.User) (TokenPair, error) {
	pair, err := i.Tokens.IssuePair(user.ID, user.IsAdmin)
	if err != nil {
		return TokenPair{}, WrapError(err, "issue tokens")
	}
	return pair, nil
}

func (i *IdentityService) Me(ctx context.Context, actor Actor) (UserProfile, error) {
	if actor.UserID == "" {
		return UserProfile{}, ErrUnauthorized("Unauthorized")
	}
	user, err := i.Store.Users().GetUserByID(ctx, actor.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return UserProfile{}, ErrUnauthorized("Unauthorized")
	}
	if err != nil {
		return UserProfile{}, WrapError(err, "load user")
	}
	return toUserProfile(user), nil
}

func (i *IdentityService) ChangePassword(ctx context.Context, actor Actor, current, next string) error {
	if actor.UserID == "" {
		return ErrUnauthorized("Unauthorized")
	}
	if current == "" || next == "" {
		return ErrBadRequest("Current and new password are required")
	}
	if len(next) < minPasswordLength {
		return ErrBadRequest("New password must be at least 6 characters")
	}
	user, err := i.Store.Users().GetUserByID(ctx, actor.UserID)
	if err != nil {
		return storeError(err, "User not found", "load user")
	}
	if !i.Tokens.VerifyPassword(current, user.PasswordHash) {
		return ErrUnauthorized("Current password is incorrect")
	}
	hash, err := i.Tokens.HashPassword(next)
	if err != nil {
		return WrapError(err, "hash password")
	}
	if err := i.Store.Users().UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return storeError(err, "User not found", "update password")
	}
	return nil
}

func (i *IdentityService) ListUsers(ctx context.Context, actor Actor) ([]UserProfile, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := i.Store.Users().ListUsers(ctx)
	if err != nil {
		return nil, WrapError(err, "list users")
	}
	items := make([]UserProfile, 0, len(users))
	for _, u := range users {
		items = append(items, toUserProfile(u))
	}
	return items, nil
}

func (i *IdentityService) GetUser(ctx context.Context, id string) (UserProfile, error) {
	user, err := i.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		return UserProfile{}, storeError(err, "User not found", "load user")
	}
	return toUserProfile(user), nil
}

// DeleteUser removes an account. Its time records are kept and show up as
// an unknown user in the stats.
func (i *IdentityService) DeleteUser(ctx context.Context, actor Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if id == actor.UserID {
		return ErrBadRequest("You cannot delete your own account")
	}
	if err := i.Store.Users().DeleteUser(ctx, id); err != nil {
		return storeError(err, "User not found", "delete user")
	}
	return nil
}

// EnsureAdmin creates the bootstrap administrator when no user holds the
// email yet. An existing account is left untouched.
func (i *IdentityService) EnsureAdmin(ctx context.Context, email, password, name string) (bool, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return false, nil
	}
	if _, err := i.Store.Users().GetUserByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, WrapError(err, "load admin")
	}
	hash, err := i.Tokens.HashPassword(password)
	if err != nil {
		return false, WrapError(err, "hash password")
	}
	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}
	err = i.Store.Users().CreateUser(ctx, models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		IsAdmin:      true,
		CreatedAt:    i.Now().UTC(),
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, WrapError(err, "create admin")
	}
	return true, nil
}

func toUserProfile(u models.User) UserProfile {
	return UserProfile{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		IsAdmin:    u.IsAdmin,
		Year:       u.Year,
		Semester:   u.Semester,
		CourseCode: u.CourseCode,
		CreatedAt:  u.CreatedAt,
	}
}
