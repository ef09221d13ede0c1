// Package domain contains core domain types for the portfolio service.
package domain

// ContentSnapshot is the single remote document backing every display section.
// A snapshot is never mutated after it has been fetched.
type ContentSnapshot struct {
	Personal    Personal     `json:"personal" yaml:"personal"`
	Navigation  Navigation   `json:"navigation" yaml:"navigation"`
	Social      Social       `json:"social" yaml:"social"`
	Intro       Intro        `json:"intro" yaml:"intro"`
	Skills      Skills       `json:"skills" yaml:"skills"`
	Experiences []Experience `json:"experiences" yaml:"experiences"`
	Works       []Work       `json:"works" yaml:"works"`
	Contact     Contact      `json:"contact" yaml:"contact"`
	Footer      Footer       `json:"footer" yaml:"footer"`
	Theme       Theme        `json:"theme" yaml:"theme"`
	Animations  Animations   `json:"animations" yaml:"animations"`
}

// Personal is the site owner's profile.
type Personal struct {
	Name     string `json:"name" yaml:"name"`
	Title    string `json:"title" yaml:"title"`
	Tagline  string `json:"tagline" yaml:"tagline"`
	Email    string `json:"email" yaml:"email"`
	Location string `json:"location" yaml:"location"`
	Bio      string `json:"bio" yaml:"bio"`
	Avatar   string `json:"avatar,omitempty" yaml:"avatar"`
	Logo     Logo   `json:"logo" yaml:"logo"`
}

// Logo holds the light and dark variants of the site logo.
type Logo struct {
	Light string `json:"light,omitempty" yaml:"light"`
	Dark  string `json:"dark,omitempty" yaml:"dark"`
}

// Navigation lists the menu entries.
type Navigation struct {
	Items []NavItem `json:"items" yaml:"items"`
}

// NavItem is one navigation menu entry pointing at a page anchor.
type NavItem struct {
	ID     string `json:"id" yaml:"id"`
	Label  string `json:"label" yaml:"label"`
	Target string `json:"target" yaml:"target"`
}

// Social lists the owner's external profiles.
type Social struct {
	Profiles []SocialProfile `json:"profiles" yaml:"profiles"`
}

// SocialProfile is one external profile link.
type SocialProfile struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Icon        string `json:"icon,omitempty" yaml:"icon"`
	URL         string `json:"url" yaml:"url"`
	Description string `json:"description,omitempty" yaml:"description"`
	Color       string `json:"color,omitempty" yaml:"color"`
}

// Intro is the hero block plus the highlights carousel.
type Intro struct {
	Hero       Hero        `json:"hero" yaml:"hero"`
	Highlights []Highlight `json:"whatsNew" yaml:"whatsNew"`
}

// Hero is the landing banner text.
type Hero struct {
	Greeting    string `json:"greeting" yaml:"greeting"`
	Name        string `json:"name" yaml:"name"`
	Title       string `json:"title" yaml:"title"`
	Subtitle    string `json:"subtitle" yaml:"subtitle"`
	Description string `json:"description" yaml:"description"`
}

// Highlight is one "what's new" entry.
type Highlight struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description" yaml:"description"`
	Technologies []string `json:"technologies" yaml:"technologies"`
	GithubURL    string   `json:"githubUrl,omitempty" yaml:"githubUrl"`
	LiveURL      string   `json:"liveUrl,omitempty" yaml:"liveUrl"`
}

// Skills holds the skill categories and the palette used by the skill graphs.
type Skills struct {
	Categories []SkillCategory `json:"categories" yaml:"categories"`
	Graph      SkillGraph      `json:"graph" yaml:"graph"`
}

// SkillCategory is one card in the skills section.
type SkillCategory struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Image       string `json:"image,omitempty" yaml:"image"`
}

// SkillGraph configures the skill frequency charts.
type SkillGraph struct {
	ColorPalette []string `json:"colorPalette" yaml:"colorPalette"`
}

// Experience is one employment period.
// Technology tags are free text and compared case-insensitively when aggregated.
type Experience struct {
	ID           string   `json:"id" yaml:"id"`
	Company      string   `json:"company" yaml:"company"`
	Position     string   `json:"position" yaml:"position"`
	Duration     string   `json:"duration" yaml:"duration"`
	Description  []string `json:"description" yaml:"description"`
	Technologies []string `json:"technologies" yaml:"technologies"`
	Achievements []string `json:"achievements,omitempty" yaml:"achievements"`
	Logo         string   `json:"logo,omitempty" yaml:"logo"`
}

// Work is one project or article.
type Work struct {
	ID           string   `json:"id" yaml:"id"`
	Title        string   `json:"title" yaml:"title"`
	Description  string   `json:"description" yaml:"description"`
	Image        string   `json:"image,omitempty" yaml:"image"`
	Technologies []string `json:"technologies" yaml:"technologies"`
	IsArticle    bool     `json:"isArticle,omitempty" yaml:"isArticle"`
	GithubURL    string   `json:"githubUrl,omitempty" yaml:"githubUrl"`
	LiveURL      string   `json:"liveUrl,omitempty" yaml:"liveUrl"`
	ArticleURL   string   `json:"articleUrl,omitempty" yaml:"articleUrl"`
}

// PrimaryLink returns the link shown next to the source link: the article URL for
// articles, the live demo URL otherwise.
func (w Work) PrimaryLink() string {
	if w.IsArticle {
		return w.ArticleURL
	}
	return w.LiveURL
}

// Contact is the contact form schema.
type Contact struct {
	Form   ContactForm   `json:"form" yaml:"form"`
	Social ContactSocial `json:"social" yaml:"social"`
}

// ContactForm describes the fields of the contact form.
type ContactForm struct {
	Title        string      `json:"title" yaml:"title"`
	Subtitle     string      `json:"subtitle" yaml:"subtitle"`
	Fields       []FormField `json:"fields" yaml:"fields"`
	SubmitButton string      `json:"submitButton" yaml:"submitButton"`
}

// FormField is one input of the contact form.
type FormField struct {
	Name     string `json:"name" yaml:"name"`
	Label    string `json:"label" yaml:"label"`
	Type     string `json:"type" yaml:"type"`
	Required bool   `json:"required" yaml:"required"`
	Rows     int    `json:"rows,omitempty" yaml:"rows"`
}

// ContactSocial is the heading of the social slider in the contact section.
type ContactSocial struct {
	Title    string `json:"title" yaml:"title"`
	Subtitle string `json:"subtitle" yaml:"subtitle"`
}

// Footer holds the footer text and links.
type Footer struct {
	Text  string       `json:"text" yaml:"text"`
	Links []FooterLink `json:"links" yaml:"links"`
}

// FooterLink is one footer link.
type FooterLink struct {
	Text string `json:"text" yaml:"text"`
	URL  string `json:"url" yaml:"url"`
}

// Theme holds the design tokens consumed by the rendering layer.
type Theme struct {
	Colors     ThemeColors     `json:"colors" yaml:"colors"`
	Typography ThemeTypography `json:"typography" yaml:"typography"`
}

// ThemeColors are the palette tokens.
type ThemeColors struct {
	Primary       string `json:"primary" yaml:"primary"`
	Secondary     string `json:"secondary" yaml:"secondary"`
	Background    string `json:"background" yaml:"background"`
	Surface       string `json:"surface" yaml:"surface"`
	Text          string `json:"text" yaml:"text"`
	TextSecondary string `json:"textSecondary" yaml:"textSecondary"`
}

// ThemeTypography are the font tokens.
type ThemeTypography struct {
	FontFamily string    `json:"fontFamily" yaml:"fontFamily"`
	H1         TextStyle `json:"h1" yaml:"h1"`
	H2         TextStyle `json:"h2" yaml:"h2"`
	H3         TextStyle `json:"h3" yaml:"h3"`
	Body1      TextStyle `json:"body1" yaml:"body1"`
}

// TextStyle is a font size/weight pair.
type TextStyle struct {
	FontSize   string `json:"fontSize" yaml:"fontSize"`
	FontWeight int    `json:"fontWeight" yaml:"fontWeight"`
}

// Animations holds the animation tokens.
type Animations struct {
	Duration float64 `json:"duration" yaml:"duration"`
	Easing   string  `json:"easing" yaml:"easing"`
}
