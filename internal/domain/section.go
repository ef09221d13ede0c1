package domain

// Section names one top-level section of a ContentSnapshot.
type Section string

const (
	SectionPersonal    Section = "personal"
	SectionNavigation  Section = "navigation"
	SectionSocial      Section = "social"
	SectionIntro       Section = "intro"
	SectionSkills      Section = "skills"
	SectionExperiences Section = "experiences"
	SectionWorks       Section = "works"
	SectionContact     Section = "contact"
	SectionFooter      Section = "footer"
	SectionTheme       Section = "theme"
	SectionAnimations  Section = "animations"
	// SectionAll selects the whole snapshot.
	SectionAll Section = "all"
)

// Sections lists every known section key in document order.
var Sections = []Section{
	SectionPersonal,
	SectionNavigation,
	SectionSocial,
	SectionIntro,
	SectionSkills,
	SectionExperiences,
	SectionWorks,
	SectionContact,
	SectionFooter,
	SectionTheme,
	SectionAnimations,
	SectionAll,
}

// ParseSection returns the Section named by s and whether it is known.
func ParseSection(s string) (Section, bool) {
	for _, sec := range Sections {
		if string(sec) == s {
			return sec, true
		}
	}
	return "", false
}

// Value returns the part of the snapshot the section selects, or nil when the
// snapshot is nil.
func (s Section) Value(snap *ContentSnapshot) any {
	if snap == nil {
		return nil
	}
	switch s {
	case SectionPersonal:
		return snap.Personal
	case SectionNavigation:
		return snap.Navigation
	case SectionSocial:
		return snap.Social
	case SectionIntro:
		return snap.Intro
	case SectionSkills:
		return snap.Skills
	case SectionExperiences:
		return snap.Experiences
	case SectionWorks:
		return snap.Works
	case SectionContact:
		return snap.Contact
	case SectionFooter:
		return snap.Footer
	case SectionTheme:
		return snap.Theme
	case SectionAnimations:
		return snap.Animations
	case SectionAll:
		return snap
	}
	return nil
}
