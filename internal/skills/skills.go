// Package skills derives skill frequency tables from experience and work records.
//
// Every function here is pure and deterministic: tags are counted in the order the
// source lists present them, ties keep first-encountered order, and colors are
// assigned by position after sorting.
package skills

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ashureev/portfolio/internal/domain"
)

// Size caps per view.
const (
	CombinedCap   = 15
	ExperienceCap = 10
	WorksCap      = 10
)

// DefaultPalette is used when the document does not provide its own palette.
var DefaultPalette = []string{
	"#8884d8", "#82ca9d", "#ffc658", "#ff7300", "#8dd1e1",
	"#d084d0", "#ff8042", "#00c49f", "#ffbb28", "#ff6b6b",
	"#4ecdc4", "#45b7d1", "#96ceb4", "#feca57", "#ff9ff3",
	"#54a0ff", "#5f27cd", "#00d2d3", "#ff9f43", "#10ac84",
}

// Combined counts tags across experiences and works, top 15.
func Combined(experiences []domain.Experience, works []domain.Work) []domain.SkillFrequency {
	return aggregate(domain.SkillsCombined, CombinedCap, DefaultPalette, experienceTags(experiences), workTags(works))
}

// FromExperiences counts tags across experiences only, top 10.
func FromExperiences(experiences []domain.Experience) []domain.SkillFrequency {
	return aggregate(domain.SkillsFromExperience, ExperienceCap, DefaultPalette, experienceTags(experiences))
}

// FromWorks counts tags across works only, top 10.
func FromWorks(works []domain.Work) []domain.SkillFrequency {
	return aggregate(domain.SkillsFromWorks, WorksCap, DefaultPalette, workTags(works))
}

// ForSnapshot builds the requested view from a snapshot, preferring the snapshot's
// own color palette. A nil snapshot yields nil.
func ForSnapshot(snap *domain.ContentSnapshot, view domain.SkillCategoryKind) []domain.SkillFrequency {
	if snap == nil {
		return nil
	}
	palette := snap.Skills.Graph.ColorPalette
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	switch view {
	case domain.SkillsFromExperience:
		return aggregate(view, ExperienceCap, palette, experienceTags(snap.Experiences))
	case domain.SkillsFromWorks:
		return aggregate(view, WorksCap, palette, workTags(snap.Works))
	default:
		return aggregate(domain.SkillsCombined, CombinedCap, palette, experienceTags(snap.Experiences), workTags(snap.Works))
	}
}

// ParseView maps a query value onto a view, defaulting to combined.
func ParseView(s string) domain.SkillCategoryKind {
	switch domain.SkillCategoryKind(strings.ToLower(strings.TrimSpace(s))) {
	case domain.SkillsFromExperience:
		return domain.SkillsFromExperience
	case domain.SkillsFromWorks:
		return domain.SkillsFromWorks
	default:
		return domain.SkillsCombined
	}
}

func experienceTags(experiences []domain.Experience) [][]string {
	tags := make([][]string, 0, len(experiences))
	for _, e := range experiences {
		tags = append(tags, e.Technologies)
	}
	return tags
}

func workTags(works []domain.Work) [][]string {
	tags := make([][]string, 0, len(works))
	for _, w := range works {
		tags = append(tags, w.Technologies)
	}
	return tags
}

func aggregate(category domain.SkillCategoryKind, limit int, palette []string, sources ...[][]string) []domain.SkillFrequency {
	counts := make(map[string]int)
	var order []string

	for _, records := range sources {
		for _, tags := range records {
			for _, tag := range tags {
				key := normalize(tag)
				if key == "" {
					continue
				}
				if _, seen := counts[key]; !seen {
					order = append(order, key)
				}
				counts[key]++
			}
		}
	}

	out := make([]domain.SkillFrequency, 0, len(order))
	for _, key := range order {
		out = append(out, domain.SkillFrequency{
			Name:      displayName(key),
			Frequency: counts[key],
			Category:  category,
		})
	}

	slices.SortStableFunc(out, func(a, b domain.SkillFrequency) int {
		return b.Frequency - a.Frequency
	})

	if len(palette) > 0 {
		for i := range out {
			out[i].Color = palette[i%len(palette)]
		}
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func normalize(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

func displayName(key string) string {
	r, size := utf8.DecodeRuneInString(key)
	if r == utf8.RuneError {
		return key
	}
	return string(unicode.ToUpper(r)) + key[size:]
}
