// internal/models/project.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectActive     ProjectStatus = "active"
	ProjectInProgress ProjectStatus = "in-progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectClosed     ProjectStatus = "closed"
)

// CanTransition reports whether a project may move from s to next.
// active -> in-progress -> completed, or active -> closed. Nothing reverses.
func (s ProjectStatus) CanTransition(next ProjectStatus) bool {
	switch s {
	case ProjectActive:
		return next == ProjectInProgress || next == ProjectClosed
	case ProjectInProgress:
		return next == ProjectCompleted
	}
	return false
}

type ProjectCategory string

const (
	CategoryEditing   ProjectCategory = "editing"
	CategoryThumbnail ProjectCategory = "thumbnail"
	CategoryScript    ProjectCategory = "script"
	CategoryOther     ProjectCategory = "other"
)

func (c ProjectCategory) Valid() bool {
	switch c {
	case CategoryEditing, CategoryThumbnail, CategoryScript, CategoryOther:
		return true
	}
	return false
}

type ExperienceLevel string

const (
	ExperienceJunior ExperienceLevel = "junior"
	ExperienceMid    ExperienceLevel = "mid"
	ExperienceSenior ExperienceLevel = "senior"
	ExperienceExpert ExperienceLevel = "expert"
)

func (e ExperienceLevel) Valid() bool {
	switch e {
	case ExperienceJunior, ExperienceMid, ExperienceSenior, ExperienceExpert:
		return true
	}
	return false
}

type Project struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string          `gorm:"not null" json:"title"`
	Category    ProjectCategory `gorm:"type:varchar(20);index" json:"category"`
	Description string          `gorm:"type:text" json:"description"`

	// Budget keeps the text the creator typed; BudgetMin/BudgetMax are the
	// digit runs found in it, nil when it has none ("Negotiable").
	Budget    string `json:"budget"`
	BudgetMin *int64 `json:"budget_min,omitempty"`
	BudgetMax *int64 `json:"budget_max,omitempty"`

	Skills     datatypes.JSONSlice[string] `json:"skills"`
	Experience ExperienceLevel             `gorm:"type:varchar(20)" json:"experience"`
	Duration   string                      `json:"duration"`

	CreatorID   uuid.UUID     `gorm:"type:uuid;index;not null" json:"creator_id"`
	CreatorName string        `json:"creator_name"`
	Status      ProjectStatus `gorm:"type:varchar(20);index;not null;default:'active'" json:"status"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = ProjectActive
	}
	return
}

type SavedProject struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_saved_user_project;not null" json:"user_id"`
	ProjectID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_saved_user_project;not null" json:"project_id"`
	CreatedAt time.Time `json:"created_at"`

	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

func (s *SavedProject) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
