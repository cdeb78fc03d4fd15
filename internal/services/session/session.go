// Package session signs users up and in, issues their tokens and announces
// auth-state changes to their open sockets.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/creatormatch/creatormatch_be/internal/models"
	"github.com/creatormatch/creatormatch_be/internal/utils"
)

const (
	EventSignedIn       = "SIGNED_IN"
	EventSignedOut      = "SIGNED_OUT"
	EventInitialSession = "INITIAL_SESSION"
)

const minPasswordLen = 6

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserBlocked        = errors.New("account blocked")
	ErrUserNotFound       = errors.New("user not found")
)

// Notifier pushes realtime events to a user's open sessions.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, event string, payload interface{})
}

// State is the auth-state payload pushed with every event.
type State struct {
	Event string       `json:"event"`
	User  *models.User `json:"user"`
}

type Service struct {
	db         *gorm.DB
	notifier   Notifier
	secret     string
	expiresMin int
	log        *zap.Logger
}

func NewService(db *gorm.DB, notifier Notifier, secret string, expiresMin int, log *zap.Logger) *Service {
	return &Service{db: db, notifier: notifier, secret: secret, expiresMin: expiresMin, log: log}
}

// ExpiresMin is the token and cookie lifetime in minutes.
func (s *Service) ExpiresMin() int {
	return s.expiresMin
}

type RegisterInput struct {
	Name     string `json:"name"`
	Lastname string `json:"lastname"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Type     string `json:"type"`
	Channel  string `json:"channel"`
}

// Register creates a creator or freelancer account and returns it with a
// fresh token. Admin accounts cannot be self-registered.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	name := strings.TrimSpace(in.Name)
	lastname := strings.TrimSpace(in.Lastname)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	password := strings.TrimSpace(in.Password)
	role := models.Role(strings.ToLower(strings.TrimSpace(in.Type)))
	if role == "" {
		role = models.RoleFreelancer
	}

	errs := utils.FieldErrors{}
	if name == "" {
		errs.Add("name", "name is required")
	}
	if email == "" {
		errs.Add("email", "email is required")
	} else if !strings.Contains(email, "@") {
		errs.Add("email", "email format is invalid")
	}
	if password == "" {
		errs.Add("password", "password is required")
	} else if len(password) < minPasswordLen {
		errs.Add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	if role != models.RoleCreator && role != models.RoleFreelancer {
		errs.Add("type", "type must be creator or freelancer")
	}
	if err := errs.Err(); err != nil {
		return nil, "", err
	}

	db := s.db.WithContext(ctx)

	var existing int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}
	if existing > 0 {
		taken := utils.FieldErrors{}
		taken.Add("email", "email is already registered")
		return nil, "", taken
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	u := models.User{
		Name:     name,
		Lastname: lastname,
		Email:    email,
		Password: hashed,
		Type:     role,
		Status:   models.UserActive,
		Channel:  strings.TrimSpace(in.Channel),
	}
	if err := db.Create(&u).Error; err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.issue(&u)
	if err != nil {
		return nil, "", err
	}

	s.log.Info("user registered", zap.String("user_id", u.ID.String()), zap.String("type", string(u.Type)))
	s.announce(ctx, &u, EventSignedIn)
	return &u, token, nil
}

// Login checks email and password. Unknown email and wrong password give
// the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	password = strings.TrimSpace(password)

	errs := utils.FieldErrors{}
	if email == "" {
		errs.Add("email", "email is required")
	}
	if password == "" {
		errs.Add("password", "password is required")
	}
	if err := errs.Err(); err != nil {
		return nil, "", err
	}

	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}
	if !utils.CheckPassword(u.Password, password) {
		return nil, "", ErrInvalidCredentials
	}
	if u.IsBlocked() {
		return nil, "", ErrUserBlocked
	}

	token, err := s.issue(&u)
	if err != nil {
		return nil, "", err
	}
	s.announce(ctx, &u, EventSignedIn)
	return &u, token, nil
}

// SplitName splits a display name into a first name and the rest.
func SplitName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// OAuthUpsert signs in the account for email, creating a freelancer on
// first sight. Name and avatar are filled in only where still empty.
func (s *Service) OAuthUpsert(ctx context.Context, email, fullName, avatar string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, "", ErrInvalidCredentials
	}
	first, rest := SplitName(fullName)
	if first == "" {
		first = strings.SplitN(email, "@", 2)[0]
	}

	db := s.db.WithContext(ctx)

	var u models.User
	err := db.Where("email = ?", email).First(&u).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hashed, err := utils.HashPassword(randomSecret(24))
		if err != nil {
			return nil, "", fmt.Errorf("failed to hash password: %w", err)
		}
		u = models.User{
			Name:     first,
			Lastname: rest,
			Email:    email,
			Password: hashed,
			Type:     models.RoleFreelancer,
			Status:   models.UserActive,
			Avatar:   avatar,
		}
		if err := db.Create(&u).Error; err != nil {
			return nil, "", fmt.Errorf("failed to create user: %w", err)
		}
		s.log.Info("user created from oauth", zap.String("user_id", u.ID.String()))

	case err != nil:
		return nil, "", fmt.Errorf("failed to load user: %w", err)

	default:
		updates := map[string]interface{}{}
		if u.Name == "" {
			updates["name"] = first
			updates["lastname"] = rest
		}
		if u.Avatar == "" && avatar != "" {
			updates["avatar"] = avatar
		}
		if len(updates) > 0 {
			if err := db.Model(&u).Updates(updates).Error; err != nil {
				s.log.Warn("failed to refresh oauth profile", zap.Error(err))
			}
		}
	}

	if u.IsBlocked() {
		return nil, "", ErrUserBlocked
	}

	token, err := s.issue(&u)
	if err != nil {
		return nil, "", err
	}
	s.announce(ctx, &u, EventSignedIn)
	return &u, token, nil
}

// Current returns the user behind a session, refusing blocked accounts.
func (s *Service) Current(ctx context.Context, userID string) (*models.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	var u models.User
	err = s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if u.IsBlocked() {
		return nil, ErrUserBlocked
	}
	return &u, nil
}

// Logout announces the sign-out to the user's other sockets.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) {
	s.notifier.Notify(ctx, userID, EventSignedOut, State{Event: EventSignedOut})
}

func (s *Service) issue(u *models.User) (string, error) {
	token, err := utils.SignJWT(s.secret, u.ID.String(), string(u.Type), s.expiresMin)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

func (s *Service) announce(ctx context.Context, u *models.User, event string) {
	s.notifier.Notify(ctx, u.ID, event, State{Event: event, User: u})
}

func randomSecret(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
