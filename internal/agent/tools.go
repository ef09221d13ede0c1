package agent

import (
	"errors"
	"fmt"

	"github.com/ashureev/portfolio/internal/domain"
)

// ToolPortfolioContext is the one function the backend may call.
const ToolPortfolioContext = "get_portfolio_context"

// ErrUnknownSection is returned for a section the tool does not expose.
var ErrUnknownSection = errors.New("Invalid section specified") //nolint:staticcheck // sent verbatim to the model

const (
	errRetrieve    = "Failed to retrieve portfolio context"
	errUnknownTool = "Unknown function: "
)

// toolSections are the section keys the tool accepts.
var toolSections = []domain.Section{
	domain.SectionPersonal,
	domain.SectionSkills,
	domain.SectionExperiences,
	domain.SectionWorks,
	domain.SectionSocial,
	domain.SectionIntro,
	domain.SectionContact,
	domain.SectionAll,
}

// ToolSectionNames lists the accepted keys, used for the function declaration.
func ToolSectionNames() []string {
	names := make([]string, len(toolSections))
	for i, s := range toolSections {
		names[i] = string(s)
	}
	return names
}

// SectionResult is the payload returned to the backend for a tool call.
// Exactly one of Data and Error is set.
type SectionResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Map renders the result as a function response body.
func (r SectionResult) Map() map[string]any {
	m := map[string]any{"success": r.Success}
	if r.Success {
		m["data"] = r.Data
	} else {
		m["error"] = r.Error
	}
	return m
}

// ParseToolSection extracts the requested section from a tool call.
func ParseToolSection(call ToolCall) (domain.Section, error) {
	raw, ok := call.Args["section"].(string)
	if !ok {
		return "", fmt.Errorf("%w: missing section argument", ErrUnknownSection)
	}
	for _, s := range toolSections {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSection, raw)
}

// ResolveSection answers a get_portfolio_context call against snap.
// It never fails: problems are reported inside the result.
func ResolveSection(snap *domain.ContentSnapshot, call ToolCall) SectionResult {
	section, err := ParseToolSection(call)
	if err != nil {
		return SectionResult{Success: false, Error: ErrUnknownSection.Error()}
	}
	if snap == nil {
		return SectionResult{Success: false, Error: errRetrieve}
	}
	return SectionResult{Success: true, Data: section.Value(snap)}
}
