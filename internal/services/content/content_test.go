package content

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/creatormatch/creatormatch_be/internal/models"
	"github.com/creatormatch/creatormatch_be/internal/testutil"
	"github.com/creatormatch/creatormatch_be/internal/utils"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "how-to-edit-shorts", Slugify("How to Edit Shorts"))
	assert.Equal(t, "10-tips-for-creators", Slugify("  10 Tips   for Creators!! "))
	assert.Equal(t, "", Slugify("¿¡!!"))
}

func TestReadTime(t *testing.T) {
	assert.Equal(t, "1 min", ReadTime("", nil))

	long := strings.TrimSpace(strings.Repeat("word ", 401))
	blocks := []models.BlogBlock{
		{Type: models.BlockParagraph, Content: long},
		{Type: models.BlockImage, Content: "https://img/x.png", Caption: "a caption"},
	}
	assert.Equal(t, "3 min", ReadTime("", blocks))
}

func TestAnnouncements(t *testing.T) {
	svc := NewService(testutil.NewDB(t), zap.NewNop())
	ctx := context.Background()

	a, err := svc.CreateAnnouncement(ctx, "Maintenance", "Sunday 2am")
	require.NoError(t, err)
	assert.True(t, a.Active)

	_, err = svc.CreateAnnouncement(ctx, "", "")
	var fe utils.FieldErrors
	require.ErrorAs(t, err, &fe)

	off, err := svc.ToggleAnnouncement(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, off.Active)

	active, err := svc.Announcements(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := svc.Announcements(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = svc.ToggleAnnouncement(ctx, uuid.New())
	require.ErrorIs(t, err, ErrAnnouncementNotFound)
}

func TestBlogPosts(t *testing.T) {
	gdb := testutil.NewDB(t)
	svc := NewService(gdb, zap.NewNop())
	ctx := context.Background()
	admin := testutil.CreateUser(t, gdb, "root", models.RoleAdmin)

	in := PostInput{
		Title:   "Editing Tips",
		Excerpt: "Quick wins",
		Blocks: []models.BlogBlock{
			{Type: models.BlockH2, Content: "Cut early"},
			{Type: models.BlockParagraph, Content: "Remove dead air."},
		},
	}
	first, err := svc.CreatePost(ctx, admin, in)
	require.NoError(t, err)
	assert.Equal(t, "editing-tips", first.Slug)
	assert.Equal(t, "1 min", first.ReadTime)
	assert.Equal(t, admin.FullName(), first.Author)
	assert.NotEmpty(t, first.Blocks[0].ID)

	second, err := svc.CreatePost(ctx, admin, in)
	require.NoError(t, err)
	assert.Equal(t, "editing-tips-2", second.Slug)

	got, err := svc.PostBySlug(ctx, "editing-tips")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	require.Len(t, got.Blocks, 2)
	assert.True(t, got.Blocks[0].Type.IsHeading())

	in.Title = "Editing Tips"
	in.ReadTime = "7 min"
	updated, err := svc.UpdatePost(ctx, first.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "editing-tips", updated.Slug)
	assert.Equal(t, "7 min", updated.ReadTime)
	assert.Equal(t, admin.FullName(), updated.Author)

	_, err = svc.CreatePost(ctx, admin, PostInput{Title: "x", Blocks: []models.BlogBlock{{Type: "video"}}})
	var fe utils.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "blocks.0.type")

	require.NoError(t, svc.DeletePost(ctx, second.ID))
	require.ErrorIs(t, svc.DeletePost(ctx, second.ID), ErrPostNotFound)

	posts, err := svc.Posts(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}
