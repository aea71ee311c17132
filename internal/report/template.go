package report

import (
	"fmt"
	"strings"
)

// Template placeholders.
const (
	PlaceholderStandards      = "{sdtm medra version table}"
	PlaceholderProtocol       = "{protocol info md}"
	PlaceholderAnalysis       = "{analysis output table}"
	PlaceholderVariables      = "{variable description table}"
	PlaceholderDependencies   = "{data dependency table}"
	PlaceholderRPackages      = "{r package table}"
	PlaceholderInventory      = "{dataset inventory table}"
	PlaceholderADaMPrograms   = "{adam programs table}"
	PlaceholderProtocolNumber = "Study <Protocol Number>"
)

// Sections holds the rendered content for each placeholder.
type Sections struct {
	Standards      string
	Protocol       string
	Analysis       string
	Variables      string
	Dependencies   string
	RPackages      string
	Inventory      string
	ADaMPrograms   string
	ProtocolNumber string // Optional; replaces "Study <Protocol Number>"
}

// Fill substitutes s into tmpl. The six core placeholders must be present.
// The inventory and ADaM programs placeholders are optional. When a protocol
// number is given the template must contain "Study <Protocol Number>".
func Fill(tmpl string, s Sections) (string, error) {
	required := []string{
		PlaceholderStandards,
		PlaceholderProtocol,
		PlaceholderAnalysis,
		PlaceholderVariables,
		PlaceholderDependencies,
		PlaceholderRPackages,
	}
	if s.ProtocolNumber != "" {
		required = append(required, PlaceholderProtocolNumber)
	}

	var missing []string
	for _, p := range required {
		if !strings.Contains(tmpl, p) {
			missing = append(missing, fmt.Sprintf("%q", p))
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("placeholder %s not found in template", strings.Join(missing, ", "))
	}

	pairs := []string{
		PlaceholderStandards, s.Standards,
		PlaceholderProtocol, strings.TrimSpace(s.Protocol),
		PlaceholderAnalysis, strings.TrimSpace(s.Analysis),
		PlaceholderVariables, strings.TrimSpace(s.Variables),
		PlaceholderDependencies, strings.TrimSpace(s.Dependencies),
		PlaceholderRPackages, strings.TrimSpace(s.RPackages),
		PlaceholderInventory, strings.TrimSpace(s.Inventory),
		PlaceholderADaMPrograms, strings.TrimSpace(s.ADaMPrograms),
	}
	if s.ProtocolNumber != "" {
		pairs = append(pairs, PlaceholderProtocolNumber, "Study "+s.ProtocolNumber)
	}

	return strings.NewReplacer(pairs...).Replace(tmpl), nil
}
