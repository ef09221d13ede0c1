package grounding

import (
	"strings"

	"github.com/ashureev/portfolio/internal/domain"
)

var (
	sourceControlHosts       = []string{"github.com", "gitlab.com", "bitbucket.org"}
	professionalNetworkHosts = []string{"linkedin.com"}
)

// Links groups every URL in a snapshot by the kind of site it points at.
// Order follows the document: works, then highlights, then social profiles.
type Links struct {
	SourceControl       []string `json:"sourceControl"`
	ProfessionalNetwork []string `json:"professionalNetwork"`
	Other               []string `json:"other"`
}

// ExtractLinks collects the links of works, highlights and social profiles.
func ExtractLinks(snap *domain.ContentSnapshot) Links {
	links := Links{
		SourceControl:       []string{},
		ProfessionalNetwork: []string{},
		Other:               []string{},
	}
	if snap == nil {
		return links
	}

	for _, w := range snap.Works {
		links.add(w.GithubURL)
		links.add(w.LiveURL)
		links.add(w.ArticleURL)
	}
	for _, h := range snap.Intro.Highlights {
		links.add(h.GithubURL)
		links.add(h.LiveURL)
	}
	for _, p := range snap.Social.Profiles {
		links.add(p.URL)
	}
	return links
}

func (l *Links) add(raw string) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return
	}
	switch {
	case containsAny(u, sourceControlHosts):
		l.SourceControl = append(l.SourceControl, u)
	case containsAny(u, professionalNetworkHosts):
		l.ProfessionalNetwork = append(l.ProfessionalNetwork, u)
	default:
		l.Other = append(l.Other, u)
	}
}

func containsAny(s string, fragments []string) bool {
	lower := strings.ToLower(s)
	for _, f := range fragments {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}
