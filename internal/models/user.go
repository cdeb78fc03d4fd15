package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Role string

const (
	RoleCreator    Role = "creator"
	RoleFreelancer Role = "freelancer"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCreator, RoleFreelancer, RoleAdmin:
		return true
	}
	return false
}

type UserStatus string

const (
	UserActive  UserStatus = "active"
	UserBlocked UserStatus = "blocked"
)

type SocialLinks struct {
	YouTube   string `json:"youtube,omitempty"`
	TikTok    string `json:"tiktok,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Website   string `json:"website,omitempty"`
}

type PortfolioItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

type Review struct {
	ID         string `json:"id"`
	ClientName string `json:"client_name"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
	Date       string `json:"date"`
}

// Reputation is display-only, nothing in the workflow computes it.
type Reputation struct {
	Score         int    `json:"score"`
	Level         string `json:"level"`
	CompletedJobs int    `json:"completed_jobs"`
}

// internal/models/user.go
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name     string    `gorm:"not null" json:"name"`
	Lastname string    `json:"lastname"`
	Email    string    `gorm:"uniqueIndex;not null" json:"email"`

	Password string     `gorm:"not null" json:"-"`
	Type     Role       `gorm:"type:varchar(20);not null;index" json:"type"`
	Status   UserStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`

	Channel     string `json:"channel,omitempty"`
	Specialty   string `json:"specialty,omitempty"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Avatar      string `gorm:"type:text" json:"avatar,omitempty"`

	Skills      datatypes.JSONSlice[string]        `json:"skills"`
	Categories  datatypes.JSONSlice[string]        `json:"categories"`
	SocialLinks datatypes.JSONType[SocialLinks]    `json:"social_links"`
	Portfolio   datatypes.JSONSlice[PortfolioItem] `json:"portfolio"`
	Reviews     datatypes.JSONSlice[Review]        `json:"reviews"`
	Reputation  datatypes.JSONType[*Reputation]    `json:"reputation"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Status == "" {
		u.Status = UserActive
	}
	return
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.Name + " " + u.Lastname)
}

func (u *User) IsAdmin() bool {
	return u.Type == RoleAdmin
}

func (u *User) IsBlocked() bool {
	return u.Status == UserBlocked
}

// PublicUser is the profile other users get to see. Email and account
// status are only filled in for the owner and for admins.
type PublicUser struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	Lastname string     `json:"lastname"`
	Email    string     `json:"email,omitempty"`
	Type     Role       `json:"type"`
	Status   UserStatus `json:"status,omitempty"`

	Channel     string `json:"channel,omitempty"`
	Specialty   string `json:"specialty,omitempty"`
	Description string `json:"description,omitempty"`
	Avatar      string `json:"avatar,omitempty"`

	Skills      datatypes.JSONSlice[string]        `json:"skills"`
	Categories  datatypes.JSONSlice[string]        `json:"categories"`
	SocialLinks datatypes.JSONType[SocialLinks]    `json:"social_links"`
	Portfolio   datatypes.JSONSlice[PortfolioItem] `json:"portfolio"`
	Reviews     datatypes.JSONSlice[Review]        `json:"reviews"`
	Reputation  datatypes.JSONType[*Reputation]    `json:"reputation"`

	CreatedAt time.Time `json:"created_at"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Name:        u.Name,
		Lastname:    u.Lastname,
		Type:        u.Type,
		Channel:     u.Channel,
		Specialty:   u.Specialty,
		Description: u.Description,
		Avatar:      u.Avatar,
		Skills:      u.Skills,
		Categories:  u.Categories,
		SocialLinks: u.SocialLinks,
		Portfolio:   u.Portfolio,
		Reviews:     u.Reviews,
		Reputation:  u.Reputation,
		CreatedAt:   u.CreatedAt,
	}
}

// VisibleTo returns the profile as viewer may see it. viewer may be nil.
func (u *User) VisibleTo(viewer *User) PublicUser {
	p := u.Public()
	if viewer != nil && (viewer.ID == u.ID || viewer.IsAdmin()) {
		p.Email = u.Email
		p.Status = u.Status
	}
	return p
}
