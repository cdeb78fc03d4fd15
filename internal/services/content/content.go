// Package content manages announcements and blog posts.
package content

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/creatormatch/creatormatch_be/internal/models"
	"github.com/creatormatch/creatormatch_be/internal/utils"
)

const wordsPerMinute = 200

var (
	ErrAnnouncementNotFound = errors.New("announcement not found")
	ErrPostNotFound         = errors.New("blog post not found")
)

var (
	spaces   = regexp.MustCompile(`\s+`)
	nonSlug  = regexp.MustCompile(`[^a-z0-9_-]+`)
	dashRuns = regexp.MustCompile(`-{2,}`)
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

// Announcements returns announcements newest first; activeOnly hides the
// switched-off ones.
func (s *Service) Announcements(ctx context.Context, activeOnly bool) ([]models.Announcement, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var out []models.Announcement
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	return out, nil
}

func (s *Service) CreateAnnouncement(ctx context.Context, title, body string) (*models.Announcement, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)

	errs := utils.FieldErrors{}
	if title == "" {
		errs.Add("title", "title is required")
	}
	if body == "" {
		errs.Add("content", "content is required")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	a := models.Announcement{Title: title, Content: body, Active: true}
	if err := s.db.WithContext(ctx).Create(&a).Error; err != nil {
		return nil, fmt.Errorf("failed to create announcement: %w", err)
	}
	return &a, nil
}

func (s *Service) ToggleAnnouncement(ctx context.Context, id uuid.UUID) (*models.Announcement, error) {
	db := s.db.WithContext(ctx)

	var a models.Announcement
	err := db.First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAnnouncementNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load announcement: %w", err)
	}

	if err := db.Model(&a).Update("active", !a.Active).Error; err != nil {
		return nil, fmt.Errorf("failed to toggle announcement: %w", err)
	}
	a.Active = !a.Active
	return &a, nil
}

// Slugify lower-cases title, joins words with dashes and drops everything
// outside [a-z0-9_-].
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = spaces.ReplaceAllString(s, "-")
	s = nonSlug.ReplaceAllString(s, "")
	s = dashRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ReadTime estimates reading time from the text blocks, at least "1 min".
func ReadTime(excerpt string, blocks []models.BlogBlock) string {
	words := len(strings.Fields(excerpt))
	for _, b := range blocks {
		if b.Type == models.BlockImage {
			words += len(strings.Fields(b.Caption))
			continue
		}
		words += len(strings.Fields(b.Content))
	}
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return strconv.Itoa(minutes) + " min"
}

type PostInput struct {
	Title        string             `json:"title"`
	Excerpt      string             `json:"excerpt"`
	CoverImage   string             `json:"cover_image"`
	Category     string             `json:"category"`
	Author       string             `json:"author"`
	AuthorAvatar string             `json:"author_avatar"`
	ReadTime     string             `json:"read_time"`
	Blocks       []models.BlogBlock `json:"blocks"`
}

func (in PostInput) validate() error {
	errs := utils.FieldErrors{}
	if strings.TrimSpace(in.Title) == "" {
		errs.Add("title", "title is required")
	} else if Slugify(in.Title) == "" {
		errs.Add("title", "title must contain letters or digits")
	}
	if in.CoverImage != "" && !utils.IsHTTPURL(in.CoverImage) {
		errs.Add("cover_image", "cover image must be an http or https link")
	}
	for i, b := range in.Blocks {
		if !b.Type.Valid() {
			errs.Add(fmt.Sprintf("blocks.%d.type", i), "unknown block type")
		}
	}
	return errs.Err()
}

func (in PostInput) apply(p *models.BlogPost, author *models.User) {
	p.Title = strings.TrimSpace(in.Title)
	p.Excerpt = strings.TrimSpace(in.Excerpt)
	p.CoverImage = strings.TrimSpace(in.CoverImage)
	p.Category = strings.TrimSpace(in.Category)
	p.Author = strings.TrimSpace(in.Author)
	p.AuthorAvatar = strings.TrimSpace(in.AuthorAvatar)
	if p.Author == "" && author != nil {
		p.Author = author.FullName()
		if p.AuthorAvatar == "" {
			p.AuthorAvatar = author.Avatar
		}
	}

	blocks := make([]models.BlogBlock, len(in.Blocks))
	for i, b := range in.Blocks {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		blocks[i] = b
	}
	p.Blocks = blocks

	p.ReadTime = strings.TrimSpace(in.ReadTime)
	if p.ReadTime == "" {
		p.ReadTime = ReadTime(p.Excerpt, blocks)
	}
}

// uniqueSlug returns base, or base-2, base-3... when taken by another post.
func (s *Service) uniqueSlug(ctx context.Context, base string, except uuid.UUID) (string, error) {
	var taken []string
	err := s.db.WithContext(ctx).Model(&models.BlogPost{}).
		Where("(slug = ? OR slug LIKE ?) AND id <> ?", base, base+"-%", except).
		Pluck("slug", &taken).Error
	if err != nil {
		return "", fmt.Errorf("failed to check slug: %w", err)
	}

	used := make(map[string]bool, len(taken))
	for _, t := range taken {
		used[t] = true
	}
	slug := base
	for n := 2; used[slug]; n++ {
		slug = base + "-" + strconv.Itoa(n)
	}
	return slug, nil
}

func (s *Service) CreatePost(ctx context.Context, author *models.User, in PostInput) (*models.BlogPost, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var p models.BlogPost
	in.apply(&p, author)
	p.Date = time.Now().UTC()

	slug, err := s.uniqueSlug(ctx, Slugify(p.Title), uuid.Nil)
	if err != nil {
		return nil, err
	}
	p.Slug = slug

	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	s.log.Info("blog post created", zap.String("slug", p.Slug))
	return &p, nil
}

func (s *Service) UpdatePost(ctx context.Context, id uuid.UUID, in PostInput) (*models.BlogPost, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var p models.BlogPost
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}

	author := p.Author
	in.apply(&p, nil)
	if p.Author == "" {
		p.Author = author
	}

	slug, err := s.uniqueSlug(ctx, Slugify(p.Title), p.ID)
	if err != nil {
		return nil, err
	}
	p.Slug = slug

	if err := s.db.WithContext(ctx).Save(&p).Error; err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	return &p, nil
}

func (s *Service) DeletePost(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.BlogPost{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// Posts returns every post, newest first.
func (s *Service) Posts(ctx context.Context) ([]models.BlogPost, error) {
	var out []models.BlogPost
	if err := s.db.WithContext(ctx).Order("date DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return out, nil
}

func (s *Service) PostBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	var p models.BlogPost
	err := s.db.WithContext(ctx).First(&p, "slug = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	return &p, nil
}
