package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/creatormatch/creatormatch_be/internal/models"
	"github.com/creatormatch/creatormatch_be/internal/testutil"
	"github.com/creatormatch/creatormatch_be/internal/utils"
)

func strp(s string) *string { return &s }

func TestUpdateProfile(t *testing.T) {
	gdb := testutil.NewDB(t)
	svc := NewService(gdb, zap.NewNop())
	u := testutil.CreateUser(t, gdb, "ana", models.RoleFreelancer)

	got, err := svc.UpdateProfile(context.Background(), u, ProfileInput{
		Type:        strp("creator"),
		Specialty:   strp(" Editing "),
		Skills:      strp("Premiere, After Effects"),
		SocialLinks: &models.SocialLinks{YouTube: "https://youtube.com/@ana"},
		Portfolio:   []models.PortfolioItem{{ID: "1", Title: "Reel", URL: "https://vimeo.com/1"}},
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoleCreator, got.Type)
	assert.Equal(t, "Editing", got.Specialty)
	assert.Equal(t, []string{"Premiere", "After Effects"}, []string(got.Skills))
	assert.Equal(t, "https://youtube.com/@ana", got.SocialLinks.Data().YouTube)
	require.Len(t, got.Portfolio, 1)
	assert.Equal(t, "Reel", got.Portfolio[0].Title)
	assert.Equal(t, "ana", got.Name)
}

func TestUpdateProfile_Refusals(t *testing.T) {
	gdb := testutil.NewDB(t)
	svc := NewService(gdb, zap.NewNop())
	u := testutil.CreateUser(t, gdb, "ana", models.RoleFreelancer)
	admin := testutil.CreateUser(t, gdb, "root", models.RoleAdmin)

	_, err := svc.UpdateProfile(context.Background(), u, ProfileInput{
		Name:   strp(" "),
		Type:   strp("admin"),
		Avatar: strp("ftp://x"),
	})
	var fe utils.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "name")
	assert.Contains(t, fe, "type")
	assert.Contains(t, fe, "avatar")

	_, err = svc.UpdateProfile(context.Background(), admin, ProfileInput{Type: strp("creator")})
	require.ErrorAs(t, err, &fe)

	stored, err := svc.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleFreelancer, stored.Type)
}

func TestToggleStatus(t *testing.T) {
	gdb := testutil.NewDB(t)
	svc := NewService(gdb, zap.NewNop())
	ctx := context.Background()
	admin := testutil.CreateUser(t, gdb, "root", models.RoleAdmin)
	u := testutil.CreateUser(t, gdb, "ana", models.RoleFreelancer)

	blocked, err := svc.ToggleStatus(ctx, admin, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserBlocked, blocked.Status)

	active, err := svc.ToggleStatus(ctx, admin, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserActive, active.Status)

	_, err = svc.ToggleStatus(ctx, admin, admin.ID)
	require.ErrorIs(t, err, ErrSelfBlock)

	_, err = svc.ToggleStatus(ctx, u, admin.ID)
	require.ErrorIs(t, err, ErrAdminOnly)

	_, err = svc.ToggleStatus(ctx, admin, uuid.New())
	require.ErrorIs(t, err, ErrUserNotFound)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
