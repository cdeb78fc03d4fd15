// Package state assembles the application snapshot a client boots from.
package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/creatormatch/creatormatch_be/internal/models"
	"github.com/creatormatch/creatormatch_be/internal/services/feed"
)

// Container is everything a client needs to render. The private part is
// empty for anonymous viewers.
type Container struct {
	CurrentUser   *models.User          `json:"current_user"`
	Users         []models.PublicUser   `json:"users"`
	Projects      []models.Project      `json:"projects"`
	Announcements []models.Announcement `json:"announcements"`
	BlogPosts     []models.BlogPost     `json:"blog_posts"`
	Proposals     []models.Proposal     `json:"proposals"`
	Conversations []models.Conversation `json:"conversations"`
	ActiveView    string                `json:"active_view"`

	// SessionTimedOut is set when the private load ran out of time and the
	// snapshot fell back to the anonymous shape.
	SessionTimedOut bool `json:"session_timed_out"`
}

// Reset drops everything tied to the signed-in user.
func (c *Container) Reset() {
	c.CurrentUser = nil
	c.Proposals = []models.Proposal{}
	c.Conversations = []models.Conversation{}
	c.ActiveView = DefaultView
}

type UserSource interface {
	List(ctx context.Context) ([]models.User, error)
}

type ProjectSource interface {
	List(ctx context.Context, status models.ProjectStatus, f feed.Filter) ([]models.Project, error)
}

type ContentSource interface {
	Announcements(ctx context.Context, activeOnly bool) ([]models.Announcement, error)
	Posts(ctx context.Context) ([]models.BlogPost, error)
}

type ProposalSource interface {
	VisibleTo(ctx context.Context, user *models.User) ([]models.Proposal, error)
}

type ConversationSource interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error)
}

type Sources struct {
	Users         UserSource
	Projects      ProjectSource
	Content       ContentSource
	Proposals     ProposalSource
	Conversations ConversationSource
}

type Loader struct {
	src     Sources
	views   ViewStore
	timeout time.Duration
	log     *zap.Logger
}

func NewLoader(src Sources, views ViewStore, sessionTimeout time.Duration, log *zap.Logger) *Loader {
	if sessionTimeout <= 0 {
		sessionTimeout = 5 * time.Second
	}
	return &Loader{src: src, views: views, timeout: sessionTimeout, log: log}
}

// Load builds the container for viewer (nil when anonymous). Public and
// private parts load concurrently. The private part is bounded by the
// session timeout; when it runs out the anonymous snapshot is returned
// instead of an error.
func (l *Loader) Load(ctx context.Context, viewer *models.User) (*Container, error) {
	c := &Container{}
	c.Reset()

	var users []models.User
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := l.src.Users.List(gctx)
		if err != nil {
			return err
		}
		users = list
		return nil
	})
	g.Go(func() error {
		projects, err := l.src.Projects.List(gctx, "", feed.Filter{})
		if err != nil {
			return err
		}
		c.Projects = projects
		return nil
	})
	g.Go(func() error {
		anns, err := l.src.Content.Announcements(gctx, true)
		if err != nil {
			return err
		}
		c.Announcements = anns
		return nil
	})
	g.Go(func() error {
		posts, err := l.src.Content.Posts(gctx)
		if err != nil {
			return err
		}
		c.BlogPosts = posts
		return nil
	})

	var private *privatePart
	var privateErr error
	if viewer != nil {
		g.Go(func() error {
			private, privateErr = l.loadPrivate(gctx, viewer)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load application state: %w", err)
	}

	if viewer == nil {
		c.Users = profiles(users, nil)
		return c, nil
	}
	if privateErr != nil {
		if !errors.Is(privateErr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("failed to load session state: %w", privateErr)
		}
		l.log.Warn("session restore timed out, serving anonymous state",
			zap.String("user_id", viewer.ID.String()),
			zap.Duration("timeout", l.timeout))
		c.SessionTimedOut = true
		c.Users = profiles(users, nil)
		return c, nil
	}

	c.Users = profiles(users, viewer)
	c.CurrentUser = viewer
	c.Proposals = private.proposals
	c.Conversations = private.conversations
	c.ActiveView = private.view
	return c, nil
}

func profiles(users []models.User, viewer *models.User) []models.PublicUser {
	out := make([]models.PublicUser, len(users))
	for i := range users {
		out[i] = users[i].VisibleTo(viewer)
	}
	return out
}

type privatePart struct {
	proposals     []models.Proposal
	conversations []models.Conversation
	view          string
}

func (l *Loader) loadPrivate(ctx context.Context, viewer *models.User) (*privatePart, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	p := &privatePart{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		props, err := l.src.Proposals.VisibleTo(gctx, viewer)
		if err != nil {
			return err
		}
		p.proposals = props
		return nil
	})
	g.Go(func() error {
		convs, err := l.src.Conversations.ListForUser(gctx, viewer.ID)
		if err != nil {
			return err
		}
		p.conversations = convs
		return nil
	})
	g.Go(func() error {
		view, err := l.views.Get(gctx, viewer.ID)
		if err != nil {
			l.log.Warn("failed to restore active view", zap.Error(err))
			view = DefaultView
		}
		p.view = view
		return nil
	})

	err := g.Wait()
	if err == nil {
		return p, nil
	}
	if ctx.Err() != nil {
		return nil, context.DeadlineExceeded
	}
	return nil, err
}

// Reset forgets the persisted view of userID.
func (l *Loader) Reset(ctx context.Context, userID uuid.UUID) error {
	return l.views.Clear(ctx, userID)
}

// Views exposes the active-view store.
func (l *Loader) Views() ViewStore {
	return l.views
}
