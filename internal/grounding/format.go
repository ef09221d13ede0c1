package grounding

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ashureev/portfolio/internal/domain"
)

// FormatSection renders one section of snap as plain text.
// Sections without a dedicated layout are dumped as indented JSON.
func FormatSection(snap *domain.ContentSnapshot, section domain.Section) string {
	if snap == nil {
		return NotAvailable
	}

	var b strings.Builder
	switch section {
	case domain.SectionPersonal:
		writePersonal(&b, snap.Personal, "")
	case domain.SectionSkills:
		writeSkills(&b, snap.Skills)
	case domain.SectionExperiences:
		writeExperiences(&b, snap.Experiences, "  ")
	case domain.SectionWorks:
		writeWorks(&b, snap.Works, "  ")
	case domain.SectionSocial:
		writeSocial(&b, snap.Social)
	case domain.SectionIntro:
		writeIntro(&b, snap.Intro)
	default:
		data, err := json.MarshalIndent(section.Value(snap), "", "  ")
		if err != nil {
			return NotAvailable
		}
		b.Write(data)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Preamble is the grounding turn that opens every assistant conversation.
func Preamble(snap *domain.ContentSnapshot, now time.Time) string {
	if snap == nil {
		return ""
	}
	var b strings.Builder

	fmt.Fprintf(&b, "You are an AI assistant for %s's portfolio website. You have access to the following portfolio information:\n\n", snap.Personal.Name)

	b.WriteString("PERSONAL INFORMATION:\n")
	writePersonal(&b, snap.Personal, "- ")

	b.WriteString("\nSKILLS:\n")
	writeSkills(&b, snap.Skills)

	b.WriteString("\nEXPERIENCES:\n")
	writeExperiences(&b, snap.Experiences, "    ")

	b.WriteString("\nPROJECTS/WORKS:\n")
	writeWorks(&b, snap.Works, "    ")

	b.WriteString("\nSOCIAL PROFILES:\n")
	writeSocial(&b, snap.Social)

	b.WriteString("\nUse the get_portfolio_context tool when you need the full details of a section. ")
	b.WriteString("Always be helpful and provide accurate information based on the portfolio data provided.\n")
	b.WriteString("Strictly try to give short and precise answers, average response length 30 words and max 70.\n\n")
	fmt.Fprintf(&b, "Current DateTime ISO: %s\n", now.UTC().Format("2006-01-02T15:04:05.000Z"))

	return b.String()
}

// Greeting is the assistant's opening message, shown to the visitor and echoed
// into the backend conversation after the preamble.
func Greeting(snap *domain.ContentSnapshot) string {
	owner := "this"
	if snap != nil {
		if fields := strings.Fields(snap.Personal.Name); len(fields) > 0 {
			owner = fields[0] + "'s"
		}
	}
	return fmt.Sprintf("Hello! I'm your AI assistant for %s portfolio. "+
		"I have access to all the portfolio information and can help answer questions about skills, experiences, projects, and more. "+
		"How can I help you today?", owner)
}

func writePersonal(b *strings.Builder, p domain.Personal, prefix string) {
	fmt.Fprintf(b, "%sName: %s\n", prefix, p.Name)
	fmt.Fprintf(b, "%sTitle: %s\n", prefix, p.Title)
	fmt.Fprintf(b, "%sTagline: %s\n", prefix, p.Tagline)
	fmt.Fprintf(b, "%sEmail: %s\n", prefix, p.Email)
	fmt.Fprintf(b, "%sLocation: %s\n", prefix, p.Location)
	fmt.Fprintf(b, "%sBio: %s\n", prefix, p.Bio)
}

func writeSkills(b *strings.Builder, s domain.Skills) {
	for _, cat := range s.Categories {
		fmt.Fprintf(b, "- %s: %s\n", cat.Title, cat.Description)
	}
}

func writeExperiences(b *strings.Builder, exps []domain.Experience, indent string) {
	for _, e := range exps {
		fmt.Fprintf(b, "- %s at %s (%s)\n", e.Position, e.Company, e.Duration)
		fmt.Fprintf(b, "%sTechnologies: %s\n", indent, strings.Join(e.Technologies, ", "))
		fmt.Fprintf(b, "%sDescription: %s\n", indent, strings.Join(e.Description, " "))
		if len(e.Achievements) > 0 {
			fmt.Fprintf(b, "%sAchievements: %s\n", indent, strings.Join(e.Achievements, " "))
		}
	}
}

func writeWorks(b *strings.Builder, works []domain.Work, indent string) {
	for _, w := range works {
		fmt.Fprintf(b, "- %s: %s\n", w.Title, w.Description)
		fmt.Fprintf(b, "%sTechnologies: %s\n", indent, strings.Join(w.Technologies, ", "))
		if w.GithubURL != "" {
			fmt.Fprintf(b, "%sGitHub: %s\n", indent, w.GithubURL)
		}
		if link := w.PrimaryLink(); link != "" {
			label := "Live URL"
			if w.IsArticle {
				label = "Article"
			}
			fmt.Fprintf(b, "%s%s: %s\n", indent, label, link)
		}
	}
}

func writeSocial(b *strings.Builder, s domain.Social) {
	for _, p := range s.Profiles {
		fmt.Fprintf(b, "- %s: %s\n", p.Name, p.URL)
	}
}

func writeIntro(b *strings.Builder, in domain.Intro) {
	fmt.Fprintf(b, "Hero: %s %s\n", in.Hero.Greeting, in.Hero.Name)
	fmt.Fprintf(b, "Title: %s\n", in.Hero.Title)
	fmt.Fprintf(b, "Subtitle: %s\n", in.Hero.Subtitle)
	fmt.Fprintf(b, "Description: %s\n", in.Hero.Description)
	b.WriteString("\nWhat's New:\n")
	for _, h := range in.Highlights {
		fmt.Fprintf(b, "- %s: %s\n", h.Name, h.Description)
	}
}
