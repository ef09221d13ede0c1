package content

// View names a page section that renders from the snapshot.
type View string

const (
	ViewIntro     View = "intro"
	ViewAbout     View = "about"
	ViewSkills    View = "skills"
	ViewWorks     View = "works"
	ViewContact   View = "contact"
	ViewFooter    View = "footer"
	ViewAssistant View = "assistant"
)

// UnavailableMessage is the generic message for a failed page load.
const UnavailableMessage = "Failed to fetch portfolio data"

var viewErrors = map[View]string{
	ViewIntro:     "Error loading intro data.",
	ViewAbout:     "Error: No experiences data found. Please check your Firestore portfolio/main document.",
	ViewSkills:    "Error loading skills data.",
	ViewWorks:     "Error loading works data.",
	ViewContact:   "Error loading contact data. Please check your Firestore portfolio/main document.",
	ViewFooter:    "Error loading footer data.",
	ViewAssistant: "Failed to load portfolio data. Please refresh the page.",
}

// ViewError returns the fixed message a view shows when content is unavailable.
func ViewError(v View) string {
	if msg, ok := viewErrors[v]; ok {
		return msg
	}
	return UnavailableMessage
}
