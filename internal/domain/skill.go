package domain

// SkillCategoryKind selects which records a skill frequency table is built from.
type SkillCategoryKind string

const (
	SkillsFromExperience SkillCategoryKind = "experience"
	SkillsFromWorks      SkillCategoryKind = "works"
	SkillsCombined       SkillCategoryKind = "combined"
)

// SkillFrequency is one row of a derived skill frequency table.
type SkillFrequency struct {
	Name      string            `json:"name"`
	Frequency int               `json:"frequency"`
	Category  SkillCategoryKind `json:"category"`
	Color     string            `json:"color"`
}
