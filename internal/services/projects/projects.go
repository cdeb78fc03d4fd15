// Package projects handles the project lifecycle owned by creators and the
// saved-project list kept by every user.
package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/creatormatch/creatormatch_be/internal/events"
	"github.com/creatormatch/creatormatch_be/internal/models"
	"github.com/creatormatch/creatormatch_be/internal/services/feed"
	"github.com/creatormatch/creatormatch_be/internal/utils"
)

var (
	ErrProjectNotFound   = errors.New("project not found")
	ErrForbidden         = errors.New("not allowed to manage this project")
	ErrCreatorsOnly      = errors.New("only creators can post projects")
	ErrInvalidTransition = errors.New("project cannot move to that status")
)

type Service struct {
	db     *gorm.DB
	events events.Publisher
	log    *zap.Logger
}

func NewService(db *gorm.DB, pub events.Publisher, log *zap.Logger) *Service {
	return &Service{db: db, events: pub, log: log}
}

type CreateInput struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Budget      string `json:"budget"`
	Description string `json:"description"`
	Skills      string `json:"skills"`
	Experience  string `json:"experience"`
	Duration    string `json:"duration"`
}

// Create stores a new active project. Budget and skills are parsed into their
// structured forms here; the raw budget text is kept next to them.
func (s *Service) Create(ctx context.Context, creator *models.User, in CreateInput) (*models.Project, error) {
	if creator.Type != models.RoleCreator && !creator.IsAdmin() {
		return nil, ErrCreatorsOnly
	}

	title := strings.TrimSpace(in.Title)
	budget := strings.TrimSpace(in.Budget)
	description := strings.TrimSpace(in.Description)
	category := models.ProjectCategory(strings.TrimSpace(in.Category))
	experience := models.ExperienceLevel(strings.TrimSpace(in.Experience))

	errs := utils.FieldErrors{}
	if title == "" {
		errs.Add("title", "title is required")
	}
	if !category.Valid() {
		errs.Add("category", "category must be one of editing, thumbnail, script, other")
	}
	if budget == "" {
		errs.Add("budget", "budget is required")
	}
	if description == "" {
		errs.Add("description", "description is required")
	}
	if !experience.Valid() {
		errs.Add("experience", "experience must be one of junior, mid, senior, expert")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	parsed := feed.ParseBudget(budget)
	p := models.Project{
		Title:       title,
		Category:    category,
		Description: description,
		Budget:      budget,
		BudgetMin:   parsed.Min,
		BudgetMax:   parsed.Max,
		Skills:      feed.ParseSkills(in.Skills),
		Experience:  experience,
		Duration:    strings.TrimSpace(in.Duration),
		CreatorID:   creator.ID,
		CreatorName: creator.FullName(),
		Status:      models.ProjectActive,
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.log.Info("project created",
		zap.String("project_id", p.ID.String()),
		zap.String("creator_id", creator.ID.String()))
	return &p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var p models.Project
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return &p, nil
}

// List returns projects newest first, optionally restricted to one status,
// then narrowed by f in memory.
func (s *Service) List(ctx context.Context, status models.ProjectStatus, f feed.Filter) ([]models.Project, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var all []models.Project
	if err := q.Find(&all).Error; err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return feed.FilterProjects(all, f), nil
}

func (s *Service) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.Project, error) {
	var out []models.Project
	err := s.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return out, nil
}

func canManage(actor *models.User, p *models.Project) bool {
	return actor.IsAdmin() || p.CreatorID == actor.ID
}

// Complete moves an in-progress project to completed.
func (s *Service) Complete(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Project, error) {
	return s.transition(ctx, actor, id, models.ProjectCompleted)
}

// Close withdraws an active project from the feed.
func (s *Service) Close(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Project, error) {
	return s.transition(ctx, actor, id, models.ProjectClosed)
}

func (s *Service) transition(ctx context.Context, actor *models.User, id uuid.UUID, next models.ProjectStatus) (*models.Project, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, p) {
		return nil, ErrForbidden
	}
	if !p.Status.CanTransition(next) {
		return nil, ErrInvalidTransition
	}

	from := p.Status
	res := s.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", next)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update project status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// someone else moved it first
		return nil, ErrInvalidTransition
	}
	p.Status = next

	if err := s.events.Publish(ctx, events.SubjectProjectStatus, events.ProjectStatusChanged{
		ProjectID: id.String(),
		From:      string(from),
		To:        string(next),
		Timestamp: events.Stamp(time.Now()),
	}); err != nil {
		s.log.Warn("failed to publish project status", zap.Error(err))
	}
	return p, nil
}

// Delete removes a project together with its proposals and saved entries.
func (s *Service) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(actor, p) {
		return ErrForbidden
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.Proposal{}).Error; err != nil {
			return fmt.Errorf("failed to delete proposals: %w", err)
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.SavedProject{}).Error; err != nil {
			return fmt.Errorf("failed to delete saved entries: %w", err)
		}
		if err := tx.Delete(&models.Project{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		return nil
	})
}

// ToggleSave saves the project for userID, or unsaves it when already saved.
// It reports whether the project is saved afterwards.
func (s *Service) ToggleSave(ctx context.Context, userID, projectID uuid.UUID) (bool, error) {
	if _, err := s.Get(ctx, projectID); err != nil {
		return false, err
	}

	db := s.db.WithContext(ctx)
	res := db.Where("user_id = ? AND project_id = ?", userID, projectID).Delete(&models.SavedProject{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to unsave project: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return false, nil
	}

	if err := db.Create(&models.SavedProject{UserID: userID, ProjectID: projectID}).Error; err != nil {
		return false, fmt.Errorf("failed to save project: %w", err)
	}
	return true, nil
}

func (s *Service) ListSaved(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	var saved []models.SavedProject
	err := s.db.WithContext(ctx).
		Preload("Project").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&saved).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list saved projects: %w", err)
	}

	out := make([]models.Project, 0, len(saved))
	for _, sp := range saved {
		if sp.Project != nil {
			out = append(out, *sp.Project)
		}
	}
	return out, nil
}
