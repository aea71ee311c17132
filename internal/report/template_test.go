package report

import (
	"strings"
	"testing"
)

const fullTemplate = `# Analysis Data Reviewer's Guide
Study <Protocol Number>

## Standards
{sdtm memo}
{sdtm medra version table}

## Protocol
{protocol info md}

## Analysis Outputs
{analysis output table}

## Variables
{variable description table}

## Dependencies
{data dependency table}

## Inventory
{dataset inventory table}

## Programs
{adam programs table}

## Packages
{r package table}
`

func sections() Sections {
	return Sections{
		Standards:    "| S |",
		Protocol:     "\n  protocol text  \n",
		Analysis:     "| A |\n",
		Variables:    "| V |",
		Dependencies: "| D |",
		RPackages:    "| R |",
		Inventory:    "| I |",
		ADaMPrograms: "| P |",
	}
}

func TestFill(t *testing.T) {
	s := sections()
	s.ProtocolNumber = "H2Q-MC-LZZT"

	got, err := Fill(fullTemplate, s)
	if err != nil {
		t.Fatalf("Fill failed: %v", err)
	}

	for _, want := range []string{
		"Study H2Q-MC-LZZT\n",
		"## Protocol\nprotocol text\n",
		"## Analysis Outputs\n| A |\n",
		"## Inventory\n| I |\n",
		"## Programs\n| P |\n",
		"## Packages\n| R |\n",
		"{sdtm memo}",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "{sdtm medra version table}") || strings.Contains(got, "<Protocol Number>") {
		t.Errorf("placeholders left unreplaced:\n%s", got)
	}
}

func TestFillOptionalPlaceholders(t *testing.T) {
	tmpl := "{sdtm medra version table}{protocol info md}{analysis output table}" +
		"{variable description table}{data dependency table}{r package table} Study <Protocol Number>"

	got, err := Fill(tmpl, sections())
	if err != nil {
		t.Fatalf("Fill failed: %v", err)
	}
	if !strings.HasSuffix(got, " Study <Protocol Number>") {
		t.Errorf("protocol number placeholder must stay when no number is given: %q", got)
	}
}

func TestFillMissingPlaceholder(t *testing.T) {
	tests := []struct {
		name   string
		remove string
		number string
	}{
		{name: "standards", remove: PlaceholderStandards},
		{name: "protocol", remove: PlaceholderProtocol},
		{name: "packages", remove: PlaceholderRPackages},
		{name: "protocol number", remove: PlaceholderProtocolNumber, number: "X-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sections()
			s.ProtocolNumber = tt.number

			_, err := Fill(strings.ReplaceAll(fullTemplate, tt.remove, ""), s)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.remove) {
				t.Errorf("error %q should name %q", err, tt.remove)
			}
		})
	}
}

func TestExtractProtocolNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{in: "Title\nProtocol Number: H2Q-MC-LZZT\nPhase 2", want: "H2Q-MC-LZZT", wantOK: true},
		{in: "protocol number :  ABC-123  ", want: "ABC-123", wantOK: true},
		{in: "PROTOCOLNUMBER:XYZ", want: "XYZ", wantOK: true},
		{in: "Protocol Number:   \n", want: "", wantOK: false},
		{in: "no number here", want: "", wantOK: false},
	}

	for _, tt := range tests {
		got, ok := ExtractProtocolNumber(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ExtractProtocolNumber(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
