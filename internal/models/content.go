package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Announcement struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	Active    bool      `gorm:"default:true;index" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Announcement) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}

type BlogBlockType string

const (
	BlockParagraph BlogBlockType = "paragraph"
	BlockH1        BlogBlockType = "h1"
	BlockH2        BlogBlockType = "h2"
	BlockH3        BlogBlockType = "h3"
	BlockImage     BlogBlockType = "image"
	BlockQuote     BlogBlockType = "quote"
	BlockList      BlogBlockType = "list"
)

func (t BlogBlockType) Valid() bool {
	switch t {
	case BlockParagraph, BlockH1, BlockH2, BlockH3, BlockImage, BlockQuote, BlockList:
		return true
	}
	return false
}

func (t BlogBlockType) IsHeading() bool {
	return t == BlockH1 || t == BlockH2 || t == BlockH3
}

type BlogBlock struct {
	ID      string        `json:"id"`
	Type    BlogBlockType `json:"type"`
	Content string        `json:"content"` // text, or the image URL
	Caption string        `json:"caption,omitempty"`
}

type BlogPost struct {
	ID           uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	Title        string                         `gorm:"not null" json:"title"`
	Slug         string                         `gorm:"uniqueIndex;not null" json:"slug"`
	Excerpt      string                         `gorm:"type:text" json:"excerpt"`
	CoverImage   string                         `gorm:"type:text" json:"cover_image"`
	Category     string                         `gorm:"index" json:"category"`
	Author       string                         `json:"author"`
	AuthorAvatar string                         `json:"author_avatar"`
	Date         time.Time                      `gorm:"index" json:"date"`
	ReadTime     string                         `json:"read_time"`
	Blocks       datatypes.JSONSlice[BlogBlock] `json:"blocks"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *BlogPost) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Date.IsZero() {
		b.Date = time.Now().UTC()
	}
	return
}
