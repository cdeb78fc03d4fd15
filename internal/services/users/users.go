// Package users covers profiles and account administration.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/creatormatch/creatormatch_be/internal/models"
	"github.com/creatormatch/creatormatch_be/internal/services/feed"
	"github.com/creatormatch/creatormatch_be/internal/utils"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrSelfBlock    = errors.New("admins cannot block themselves")
	ErrAdminOnly    = errors.New("admin access required")
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &u, nil
}

// List returns every account, newest first.
func (s *Service) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return out, nil
}

// ProfileInput holds the editable profile fields. Nil fields are left as
// they are.
type ProfileInput struct {
	Name        *string                `json:"name"`
	Lastname    *string                `json:"lastname"`
	Type        *string                `json:"type"`
	Channel     *string                `json:"channel"`
	Specialty   *string                `json:"specialty"`
	Description *string                `json:"description"`
	Avatar      *string                `json:"avatar"`
	Skills      *string                `json:"skills"`
	Categories  []string               `json:"categories"`
	SocialLinks *models.SocialLinks    `json:"social_links"`
	Portfolio   []models.PortfolioItem `json:"portfolio"`
}

func trimmed(p *string) string {
	return strings.TrimSpace(*p)
}

// UpdateProfile applies in to u. The account type may switch between creator
// and freelancer; nobody becomes admin this way and admins stay admins.
func (s *Service) UpdateProfile(ctx context.Context, u *models.User, in ProfileInput) (*models.User, error) {
	errs := utils.FieldErrors{}
	updates := map[string]interface{}{}

	if in.Name != nil {
		if trimmed(in.Name) == "" {
			errs.Add("name", "name cannot be empty")
		} else {
			updates["name"] = trimmed(in.Name)
		}
	}
	if in.Lastname != nil {
		updates["lastname"] = trimmed(in.Lastname)
	}
	if in.Type != nil {
		role := models.Role(strings.ToLower(trimmed(in.Type)))
		switch {
		case u.IsAdmin() && role != models.RoleAdmin:
			errs.Add("type", "admin accounts cannot change type")
		case !u.IsAdmin() && role != models.RoleCreator && role != models.RoleFreelancer:
			errs.Add("type", "type must be creator or freelancer")
		default:
			updates["type"] = role
		}
	}
	if in.Channel != nil {
		updates["channel"] = trimmed(in.Channel)
	}
	if in.Specialty != nil {
		updates["specialty"] = trimmed(in.Specialty)
	}
	if in.Description != nil {
		updates["description"] = trimmed(in.Description)
	}
	if in.Avatar != nil {
		avatar := trimmed(in.Avatar)
		if avatar != "" && !utils.IsHTTPURL(avatar) {
			errs.Add("avatar", "avatar must be an http or https link")
		} else {
			updates["avatar"] = avatar
		}
	}
	if in.Skills != nil {
		updates["skills"] = datatypes.JSONSlice[string](feed.ParseSkills(*in.Skills))
	}
	if in.Categories != nil {
		updates["categories"] = datatypes.JSONSlice[string](in.Categories)
	}
	if in.SocialLinks != nil {
		updates["social_links"] = datatypes.NewJSONType(*in.SocialLinks)
	}
	if in.Portfolio != nil {
		for i, item := range in.Portfolio {
			if item.URL != "" && !utils.IsHTTPURL(item.URL) {
				errs.Add(fmt.Sprintf("portfolio.%d.url", i), "portfolio link must be an http or https link")
			}
		}
		updates["portfolio"] = datatypes.JSONSlice[models.PortfolioItem](in.Portfolio)
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", u.ID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
	}
	return s.Get(ctx, u.ID)
}

// ToggleStatus flips target between active and blocked.
func (s *Service) ToggleStatus(ctx context.Context, admin *models.User, targetID uuid.UUID) (*models.User, error) {
	if !admin.IsAdmin() {
		return nil, ErrAdminOnly
	}
	if admin.ID == targetID {
		return nil, ErrSelfBlock
	}

	target, err := s.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}

	next := models.UserBlocked
	if target.IsBlocked() {
		next = models.UserActive
	}
	if err := s.db.WithContext(ctx).Model(target).Update("status", next).Error; err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	target.Status = next

	s.log.Info("user status changed",
		zap.String("admin_id", admin.ID.String()),
		zap.String("user_id", target.ID.String()),
		zap.String("status", string(next)))
	return target, nil
}
