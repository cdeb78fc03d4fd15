package projects

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/creatormatch/creatormatch_be/internal/events"
	"github.com/creatormatch/creatormatch_be/internal/models"
	"github.com/creatormatch/creatormatch_be/internal/services/feed"
	"github.com/creatormatch/creatormatch_be/internal/testutil"
	"github.com/creatormatch/creatormatch_be/internal/utils"
)

func newService(t *testing.T) (*Service, *gorm.DB, *events.Memory) {
	t.Helper()
	gdb := testutil.NewDB(t)
	pub := &events.Memory{}
	return NewService(gdb, pub, zap.NewNop()), gdb, pub
}

func validInput() CreateInput {
	return CreateInput{
		Title:       "Weekly vlog edit",
		Category:    "editing",
		Budget:      "$800-1200",
		Description: "Cut a 20 minute vlog",
		Skills:      "Premiere, Color grading, premiere",
		Experience:  "mid",
		Duration:    "1 week",
	}
}

func TestCreate_ParsesBudgetAndSkills(t *testing.T) {
	svc, gdb, _ := newService(t)
	creator := testutil.CreateUser(t, gdb, "carol", models.RoleCreator)

	p, err := svc.Create(context.Background(), creator, validInput())
	require.NoError(t, err)

	assert.Equal(t, models.ProjectActive, p.Status)
	assert.Equal(t, "$800-1200", p.Budget)
	require.NotNil(t, p.BudgetMin)
	require.NotNil(t, p.BudgetMax)
	assert.EqualValues(t, 800, *p.BudgetMin)
	assert.EqualValues(t, 1200, *p.BudgetMax)
	assert.Equal(t, []string{"Premiere", "Color grading"}, []string(p.Skills))
	assert.Equal(t, creator.FullName(), p.CreatorName)

	stored, err := svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Title, stored.Title)
	assert.EqualValues(t, 1200, *stored.BudgetMax)
}

func TestCreate_RefusesFreelancers(t *testing.T) {
	svc, gdb, _ := newService(t)
	fl := testutil.CreateUser(t, gdb, "fred", models.RoleFreelancer)

	_, err := svc.Create(context.Background(), fl, validInput())
	require.ErrorIs(t, err, ErrCreatorsOnly)
}

func TestCreate_Validation(t *testing.T) {
	svc, gdb, _ := newService(t)
	creator := testutil.CreateUser(t, gdb, "carol", models.RoleCreator)

	_, err := svc.Create(context.Background(), creator, CreateInput{Category: "music", Experience: "guru"})

	var fe utils.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "title")
	assert.Contains(t, fe, "category")
	assert.Contains(t, fe, "budget")
	assert.Contains(t, fe, "description")
	assert.Contains(t, fe, "experience")
}

func TestList_FiltersNewestFirst(t *testing.T) {
	svc, gdb, _ := newService(t)
	ctx := context.Background()
	creator := testutil.CreateUser(t, gdb, "carol", models.RoleCreator)

	in := validInput()
	_, err := svc.Create(ctx, creator, in)
	require.NoError(t, err)

	in.Title = "Cheap edit"
	in.Budget = "$50"
	_, err = svc.Create(ctx, creator, in)
	require.NoError(t, err)

	in.Title = "Open budget"
	in.Budget = "Negotiable"
	_, err = svc.Create(ctx, creator, in)
	require.NoError(t, err)

	min := int64(1000)
	got, err := svc.List(ctx, "", feed.Filter{MinBudget: &min})
	require.NoError(t, err)
	require.Len(t, got, 2)

	titles := []string{got[0].Title, got[1].Title}
	assert.ElementsMatch(t, []string{"Weekly vlog edit", "Open budget"}, titles)
	assert.False(t, got[0].CreatedAt.Before(got[1].CreatedAt))
}

func TestTransitions(t *testing.T) {
	svc, gdb, pub := newService(t)
	ctx := context.Background()
	creator := testutil.CreateUser(t, gdb, "carol", models.RoleCreator)
	stranger := testutil.CreateUser(t, gdb, "sam", models.RoleCreator)
	p := testutil.CreateProject(t, gdb, creator, "Shorts pack", "$300")

	_, err := svc.Complete(ctx, creator, p.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Close(ctx, stranger, p.ID)
	require.ErrorIs(t, err, ErrForbidden)

	closed, err := svc.Close(ctx, creator, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectClosed, closed.Status)

	_, err = svc.Close(ctx, creator, p.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	assert.Equal(t, []string{events.SubjectProjectStatus}, pub.Subjects())
}

func TestComplete_FromInProgress(t *testing.T) {
	svc, gdb, _ := newService(t)
	ctx := context.Background()
	creator := testutil.CreateUser(t, gdb, "carol", models.RoleCreator)
	p := testutil.CreateProject(t, gdb, creator, "Shorts pack", "$300")
	require.NoError(t, gdb.Model(p).Update("status", models.ProjectInProgress).Error)

	done, err := svc.Complete(ctx, creator, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectCompleted, done.Status)
}

func TestDelete_RemovesDependents(t *testing.T) {
	svc, gdb, _ := newService(t)
	ctx := context.Background()
	creator := testutil.CreateUser(t, gdb, "carol", models.RoleCreator)
	fl := testutil.CreateUser(t, gdb, "fred", models.RoleFreelancer)
	admin := testutil.CreateUser(t, gdb, "root", models.RoleAdmin)
	p := testutil.CreateProject(t, gdb, creator, "Shorts pack", "$300")

	require.NoError(t, gdb.Create(&models.Proposal{ProjectID: p.ID, FreelancerID: fl.ID, Price: "$1", Time: models.Delivery3d}).Error)
	_, err := svc.ToggleSave(ctx, fl.ID, p.ID)
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, fl, p.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin, p.ID))

	_, err = svc.Get(ctx, p.ID)
	require.ErrorIs(t, err, ErrProjectNotFound)

	var proposals, saved int64
	require.NoError(t, gdb.Model(&models.Proposal{}).Count(&proposals).Error)
	require.NoError(t, gdb.Model(&models.SavedProject{}).Count(&saved).Error)
	assert.Zero(t, proposals)
	assert.Zero(t, saved)
}

func TestToggleSave(t *testing.T) {
	svc, gdb, _ := newService(t)
	ctx := context.Background()
	creator := testutil.CreateUser(t, gdb, "carol", models.RoleCreator)
	fl := testutil.CreateUser(t, gdb, "fred", models.RoleFreelancer)
	p := testutil.CreateProject(t, gdb, creator, "Shorts pack", "$300")

	saved, err := svc.ToggleSave(ctx, fl.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, saved)

	list, err := svc.ListSaved(ctx, fl.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p.ID, list[0].ID)

	saved, err = svc.ToggleSave(ctx, fl.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, saved)

	list, err = svc.ListSaved(ctx, fl.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
