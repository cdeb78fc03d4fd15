package feed

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatormatch/creatormatch_be/internal/models"
)

func int64p(v int64) *int64 { return &v }

func project(title, category, budget, experience string) models.Project {
	b := ParseBudget(budget)
	return models.Project{
		ID:          uuid.New(),
		Title:       title,
		Category:    models.ProjectCategory(category),
		Description: "Description for " + title,
		Budget:      budget,
		BudgetMin:   b.Min,
		BudgetMax:   b.Max,
		Experience:  models.ExperienceLevel(experience),
	}
}

func TestParseBudget(t *testing.T) {
	tests := []struct {
		raw      string
		min, max *int64
	}{
		{"$800-1200", int64p(800), int64p(1200)},
		{"$100", int64p(100), int64p(100)},
		{"1,500 - 2,000 USD", int64p(0), int64p(500)},
		{"Negotiable", nil, nil},
		{"", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			b := ParseBudget(tt.raw)
			assert.Equal(t, tt.min, b.Min)
			assert.Equal(t, tt.max, b.Max)
		})
	}
}

func TestParseSkills(t *testing.T) {
	assert.Equal(t, []string{"Premiere", "After Effects"}, ParseSkills(" Premiere, After Effects,,premiere "))
	assert.Empty(t, ParseSkills(""))
}

func TestFilter_MinBudgetScenario(t *testing.T) {
	p := project("Podcast edit", "editing", "$800-1200", "mid")

	assert.True(t, Filter{MinBudget: int64p(1000)}.Matches(p))
	assert.False(t, Filter{MinBudget: int64p(1300)}.Matches(p))
}

func TestFilter_BudgetWithoutDigitsAlwaysMatches(t *testing.T) {
	p := project("Channel trailer", "editing", "Negotiable", "mid")

	for _, min := range []int64{0, 1, 1000, 1 << 40} {
		assert.True(t, Filter{MinBudget: int64p(min)}.Matches(p), "min budget %d", min)
	}
}

func TestFilter_FallsBackToRawBudget(t *testing.T) {
	p := models.Project{Title: "Legacy row", Budget: "$50-90"}

	assert.True(t, Filter{MinBudget: int64p(90)}.Matches(p))
	assert.False(t, Filter{MinBudget: int64p(91)}.Matches(p))
}

func TestFilter_SearchIsCaseInsensitiveOnTitleOrDescription(t *testing.T) {
	p := project("Gaming THUMBNAILS", "thumbnail", "$50", "junior")
	p.Description = "Bold faces and arrows"

	assert.True(t, Filter{SearchTerm: "thumbnails"}.Matches(p))
	assert.True(t, Filter{SearchTerm: "ARROWS"}.Matches(p))
	assert.False(t, Filter{SearchTerm: "script"}.Matches(p))
}

func TestFilter_CategoryAndExperienceAreExact(t *testing.T) {
	p := project("Shorts script", "script", "$200", "senior")

	assert.True(t, Filter{Category: "all", Experience: "all"}.Matches(p))
	assert.True(t, Filter{Category: "script", Experience: "senior"}.Matches(p))
	assert.False(t, Filter{Category: "Script"}.Matches(p))
	assert.False(t, Filter{Experience: "expert"}.Matches(p))
}

func TestFilterProjects_SubsetInInputOrder(t *testing.T) {
	all := []models.Project{
		project("A edit", "editing", "$800-1200", "mid"),
		project("B thumb", "thumbnail", "$20", "junior"),
		project("C edit", "editing", "Negotiable", "expert"),
		project("D edit", "editing", "$300", "mid"),
	}
	f := Filter{Category: "editing", MinBudget: int64p(500)}

	got := FilterProjects(all, f)

	require.Len(t, got, 2)
	assert.Equal(t, "A edit", got[0].Title)
	assert.Equal(t, "C edit", got[1].Title)

	inputIDs := map[uuid.UUID]bool{}
	for _, p := range all {
		inputIDs[p.ID] = true
	}
	for _, p := range got {
		assert.True(t, inputIDs[p.ID])
		assert.True(t, f.Matches(p))
	}
}

func TestFilterProjects_EmptyFilterKeepsEverything(t *testing.T) {
	all := []models.Project{
		project("A", "editing", "$1", "mid"),
		project("B", "other", "", "junior"),
	}

	assert.Equal(t, all, FilterProjects(all, Filter{}))
}
