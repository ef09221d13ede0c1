package skills

import (
	"fmt"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/ashureev/portfolio/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exp(tags ...string) domain.Experience { return domain.Experience{Technologies: tags} }
func work(tags ...string) domain.Work      { return domain.Work{Technologies: tags} }

func TestCombinedCountsCaseInsensitively(t *testing.T) {
	got := Combined(
		[]domain.Experience{exp("Go", "React"), exp(" go ", "Docker")},
		[]domain.Work{work("react", "GO")},
	)

	want := []domain.SkillFrequency{
		{Name: "Go", Frequency: 3, Category: domain.SkillsCombined, Color: DefaultPalette[0]},
		{Name: "React", Frequency: 2, Category: domain.SkillsCombined, Color: DefaultPalette[1]},
		{Name: "Docker", Frequency: 1, Category: domain.SkillsCombined, Color: DefaultPalette[2]},
	}
	assert.Equal(t, want, got)
}

func TestTiesKeepFirstEncounteredOrder(t *testing.T) {
	got := FromWorks([]domain.Work{work("zeta", "alpha"), work("mid")})

	require.Len(t, got, 3)
	assert.Equal(t, []string{"Zeta", "Alpha", "Mid"}, names(got))
}

func TestColorsFollowSortedPosition(t *testing.T) {
	got := FromExperiences([]domain.Experience{exp("a"), exp("b", "b"), exp("b")})

	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Name)
	assert.Equal(t, DefaultPalette[0], got[0].Color)
	assert.Equal(t, DefaultPalette[1], got[1].Color)
}

func TestCapsPerView(t *testing.T) {
	var exps []domain.Experience
	var works []domain.Work
	for i := 0; i < 25; i++ {
		exps = append(exps, exp(fmt.Sprintf("tech%02d", i)))
		works = append(works, work(fmt.Sprintf("tool%02d", i)))
	}

	assert.Len(t, Combined(exps, works), CombinedCap)
	assert.Len(t, FromExperiences(exps), ExperienceCap)
	assert.Len(t, FromWorks(works), WorksCap)
}

func TestOutputInvariants(t *testing.T) {
	exps := []domain.Experience{
		exp("go", "kubernetes", "postgres", "ñandú"),
		exp("Go", "Terraform", "", "  "),
		exp("aws", "go", "postgres"),
	}
	works := []domain.Work{work("react", "typescript", "go"), work("AWS")}

	for _, view := range [][]domain.SkillFrequency{
		Combined(exps, works), FromExperiences(exps), FromWorks(works),
	} {
		for i, s := range view {
			r, _ := utf8.DecodeRuneInString(s.Name)
			assert.True(t, unicode.IsUpper(r), "name %q must start upper-case", s.Name)
			if i > 0 {
				assert.GreaterOrEqual(t, view[i-1].Frequency, s.Frequency, "list must be sorted descending")
			}
		}
	}
}

func TestEmptyTagsSkipped(t *testing.T) {
	assert.Empty(t, FromWorks([]domain.Work{work("", "   ")}))
	assert.Empty(t, Combined(nil, nil))
}

func TestForSnapshotUsesDocumentPalette(t *testing.T) {
	snap := &domain.ContentSnapshot{
		Experiences: []domain.Experience{exp("go")},
		Works:       []domain.Work{work("go", "rust")},
		Skills:      domain.Skills{Graph: domain.SkillGraph{ColorPalette: []string{"#000", "#fff"}}},
	}

	got := ForSnapshot(snap, domain.SkillsCombined)
	require.Len(t, got, 2)
	assert.Equal(t, "#000", got[0].Color)
	assert.Equal(t, "#fff", got[1].Color)

	assert.Len(t, ForSnapshot(snap, domain.SkillsFromExperience), 1)
	assert.Nil(t, ForSnapshot(nil, domain.SkillsCombined))
}

func TestParseView(t *testing.T) {
	assert.Equal(t, domain.SkillsFromExperience, ParseView("Experience"))
	assert.Equal(t, domain.SkillsFromWorks, ParseView("works"))
	assert.Equal(t, domain.SkillsCombined, ParseView(""))
	assert.Equal(t, domain.SkillsCombined, ParseView("bogus"))
}

func names(in []domain.SkillFrequency) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = s.Name
	}
	return out
}
