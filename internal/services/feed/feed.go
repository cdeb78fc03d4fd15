// Package feed filters the project list shown to freelancers.
package feed

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/creatormatch/creatormatch_be/internal/models"
)

// Wildcard matches every category or experience level.
const Wildcard = "all"

var digitRuns = regexp.MustCompile(`\d+`)

// Budget is the structured form of a free-text budget such as "$800-1200".
type Budget struct {
	Min *int64
	Max *int64
}

// ParseBudget extracts every maximal digit run from raw. Min and Max stay nil
// when raw has no digits. Runs too long for int64 are skipped.
func ParseBudget(raw string) Budget {
	var b Budget
	for _, run := range digitRuns.FindAllString(raw, -1) {
		n, err := strconv.ParseInt(run, 10, 64)
		if err != nil {
			continue
		}
		if b.Min == nil || n < *b.Min {
			v := n
			b.Min = &v
		}
		if b.Max == nil || n > *b.Max {
			v := n
			b.Max = &v
		}
	}
	return b
}

// ParseSkills turns a comma-joined skill list into a de-duplicated set,
// keeping first-seen order.
func ParseSkills(raw string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

type Filter struct {
	Category   string
	SearchTerm string
	MinBudget  *int64
	Experience string
}

func isWildcard(v string) bool {
	return v == "" || v == Wildcard
}

// Matches reports whether p satisfies every active criterion of f.
func (f Filter) Matches(p models.Project) bool {
	if !isWildcard(f.Category) && string(p.Category) != f.Category {
		return false
	}

	if f.SearchTerm != "" {
		term := strings.ToLower(f.SearchTerm)
		if !strings.Contains(strings.ToLower(p.Title), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) {
			return false
		}
	}

	if f.MinBudget != nil {
		max := p.BudgetMax
		if max == nil {
			max = ParseBudget(p.Budget).Max
		}
		// no digits in the budget: the project stays in the feed
		if max != nil && *max < *f.MinBudget {
			return false
		}
	}

	if !isWildcard(f.Experience) && string(p.Experience) != f.Experience {
		return false
	}

	return true
}

// FilterProjects returns the projects of all that match f, in input order.
func FilterProjects(all []models.Project, f Filter) []models.Project {
	out := make([]models.Project, 0, len(all))
	for _, p := range all {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}
