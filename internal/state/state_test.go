package state

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/creatormatch/creatormatch_be/internal/events"
	"github.com/creatormatch/creatormatch_be/internal/models"
	"github.com/creatormatch/creatormatch_be/internal/services/content"
	"github.com/creatormatch/creatormatch_be/internal/services/messaging"
	"github.com/creatormatch/creatormatch_be/internal/services/projects"
	"github.com/creatormatch/creatormatch_be/internal/services/proposals"
	"github.com/creatormatch/creatormatch_be/internal/services/users"
	"github.com/creatormatch/creatormatch_be/internal/testutil"
)

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, uuid.UUID, string, interface{}) {}

type stalledConversations struct{}

func (stalledConversations) ListForUser(ctx context.Context, _ uuid.UUID) ([]models.Conversation, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type fixture struct {
	db        *gorm.DB
	sources   Sources
	proposals *proposals.Service
	creator   *models.User
	fl        *models.User
	project   *models.Project
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gdb := testutil.NewDB(t)
	log := zap.NewNop()
	msgs := messaging.NewService(gdb, log)
	props := proposals.NewService(gdb, msgs, nopNotifier{}, events.Nop{}, log)

	creator := testutil.CreateUser(t, gdb, "carol", models.RoleCreator)
	fl := testutil.CreateUser(t, gdb, "fred", models.RoleFreelancer)
	project := testutil.CreateProject(t, gdb, creator, "Podcast edit", "$300")

	cs := content.NewService(gdb, log)
	_, err := cs.CreateAnnouncement(context.Background(), "Welcome", "Hello creators")
	require.NoError(t, err)

	return &fixture{
		db: gdb,
		sources: Sources{
			Users:         users.NewService(gdb, log),
			Projects:      projects.NewService(gdb, events.Nop{}, log),
			Content:       cs,
			Proposals:     props,
			Conversations: msgs,
		},
		proposals: props,
		creator:   creator,
		fl:        fl,
		project:   project,
	}
}

func TestLoad_Anonymous(t *testing.T) {
	f := setup(t)
	l := NewLoader(f.sources, NewMemoryViewStore(), time.Second, zap.NewNop())

	c, err := l.Load(context.Background(), nil)
	require.NoError(t, err)

	assert.Nil(t, c.CurrentUser)
	assert.Len(t, c.Users, 2)
	for _, u := range c.Users {
		assert.Empty(t, u.Email)
		assert.Empty(t, u.Status)
	}
	assert.Len(t, c.Projects, 1)
	assert.Len(t, c.Announcements, 1)
	assert.Empty(t, c.Proposals)
	assert.Empty(t, c.Conversations)
	assert.Equal(t, DefaultView, c.ActiveView)
	assert.False(t, c.SessionTimedOut)
}

func TestLoad_SignedIn(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	views := NewMemoryViewStore()
	l := NewLoader(f.sources, views, time.Second, zap.NewNop())

	_, err := f.proposals.Submit(ctx, f.fl, f.project.ID, proposals.SubmitInput{
		CoverLetter: "Hi", Price: "$250", Time: "3d",
	})
	require.NoError(t, err)
	require.NoError(t, views.Set(ctx, f.fl.ID, "inbox"))

	c, err := l.Load(ctx, f.fl)
	require.NoError(t, err)

	require.NotNil(t, c.CurrentUser)
	assert.Equal(t, f.fl.ID, c.CurrentUser.ID)
	assert.Len(t, c.Proposals, 1)
	require.Len(t, c.Conversations, 1)
	assert.Len(t, c.Conversations[0].Messages, 1)
	assert.Equal(t, "inbox", c.ActiveView)

	for _, u := range c.Users {
		if u.ID == f.fl.ID {
			assert.Equal(t, f.fl.Email, u.Email)
		} else {
			assert.Empty(t, u.Email)
		}
	}

	c.Reset()
	assert.Nil(t, c.CurrentUser)
	assert.Empty(t, c.Conversations)
	assert.Equal(t, DefaultView, c.ActiveView)
	assert.Len(t, c.Projects, 1)
}

func TestLoad_SessionTimeoutFallsBackToAnonymous(t *testing.T) {
	f := setup(t)
	f.sources.Conversations = stalledConversations{}
	l := NewLoader(f.sources, NewMemoryViewStore(), 50*time.Millisecond, zap.NewNop())

	start := time.Now()
	c, err := l.Load(context.Background(), f.fl)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, c.SessionTimedOut)
	assert.Nil(t, c.CurrentUser)
	assert.Empty(t, c.Conversations)
	assert.Len(t, c.Projects, 1)
}

func TestReset_ClearsView(t *testing.T) {
	views := NewMemoryViewStore()
	l := NewLoader(Sources{}, views, 0, zap.NewNop())
	ctx := context.Background()
	uid := uuid.New()

	require.NoError(t, views.Set(ctx, uid, "blog"))
	require.NoError(t, l.Reset(ctx, uid))

	v, err := views.Get(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, DefaultView, v)
}

func TestValidView(t *testing.T) {
	assert.True(t, ValidView("inbox"))
	assert.True(t, ValidView("dashboard-creator"))
	assert.False(t, ValidView(""))
	assert.False(t, ValidView("Inbox"))
	assert.False(t, ValidView("../etc"))

	require.ErrorIs(t, NewMemoryViewStore().Set(context.Background(), uuid.New(), "NOPE"), ErrInvalidView)
}
