package collaborator

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// sdtmIGToModel maps SDTM Implementation Guide versions to the model version
// they were published against.
var sdtmIGToModel = map[string]string{
	"3.1.1": "1.1",
	"3.1.2": "1.2",
	"3.1.3": "1.3",
	"3.2":   "1.4",
	"3.3":   "1.7",
	"3.4":   "2.0",
	"3.5":   "2.1",
}

var (
	meddraAttrRe = regexp.MustCompile(`(?i)Dictionary\s*=\s*["']MEDDRA["'][^>]*Version\s*=\s*["']([0-9]+(?:\.[0-9]+)*)["']`)
	meddraTextRe = regexp.MustCompile(`(?i)MedDRA\s*(?:version|v)?\s*([0-9]+(?:\.[0-9]+)*)`)
)

// Standards holds the versions found in a define.xml.
type Standards struct {
	SDTMIG        string
	SDTMModel     string
	MedDRA        string
	DefineVersion string
}

// Rows renders s as the "Standard or Dictionary,Versions Used" table.
func (s Standards) Rows() [][]string {
	var sdtm []string
	if s.SDTMIG != "" {
		sdtm = append(sdtm, "SDTM Implementation Guide Version "+s.SDTMIG)
	}
	if s.SDTMModel != "" {
		sdtm = append(sdtm, "SDTM Version "+s.SDTMModel)
	}

	var meddra, define string
	if s.MedDRA != "" {
		meddra = "MedDRA version " + s.MedDRA
	}
	if s.DefineVersion != "" {
		define = "Define version " + s.DefineVersion
	}

	return [][]string{
		{"Standard or Dictionary", "Versions Used"},
		{"SDTM", strings.Join(sdtm, " ; ")},
		{"Medical Events Dictionary", meddra},
		{"Define-XML", define},
	}
}

// DefineVersions extracts standards versions from the define.xml given by the
// --define flag and writes them to in.Output as CSV.
type DefineVersions struct{}

func (DefineVersions) Run(ctx context.Context, in Inputs) (string, error) {
	definePath, ok := in.Get("--define")
	if !ok || definePath == "" {
		return "", fmt.Errorf("%s: missing --define input", in.Step)
	}
	if in.Output == "" {
		return "", fmt.Errorf("%s: missing output path", in.Step)
	}

	data, err := os.ReadFile(definePath)
	if err != nil {
		return "", fmt.Errorf("failed to read define.xml: %w", err)
	}

	s, err := ParseDefine(data)
	if err != nil {
		return "", err
	}
	if err := writeCSV(in.Output, s.Rows()); err != nil {
		return "", err
	}

	in.progress(fmt.Sprintf("SDTM IG %s, MedDRA %s, Define %s", orNone(s.SDTMIG), orNone(s.MedDRA), orNone(s.DefineVersion)))
	return in.Output, nil
}

// ParseDefine reads the versions from define.xml content. Element and
// attribute names are matched by local name, so any namespace prefix works.
func ParseDefine(data []byte) (Standards, error) {
	var s Standards
	foundMDV := false

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return s, fmt.Errorf("failed to parse define.xml: %w", err)
		}

		el, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		if !foundMDV && el.Name.Local == "MetaDataVersion" {
			foundMDV = true
			s.SDTMIG = strings.TrimSpace(attr(el, "StandardVersion"))
			s.SDTMModel = sdtmIGToModel[s.SDTMIG]
			s.DefineVersion = strings.TrimSpace(attr(el, "DefineVersion"))
		}

		if s.MedDRA == "" {
			dict := attr(el, "Dictionary")
			if dict == "" {
				dict = attr(el, "dictionary")
			}
			if strings.EqualFold(dict, "MEDDRA") {
				v := attr(el, "Version")
				if v == "" {
					v = attr(el, "version")
				}
				s.MedDRA = v
			}
		}
	}

	if !foundMDV {
		return s, fmt.Errorf("MetaDataVersion not found in define.xml")
	}

	if s.MedDRA == "" {
		if m := meddraAttrRe.FindSubmatch(data); m != nil {
			s.MedDRA = string(m[1])
		} else if m := meddraTextRe.FindSubmatch(data); m != nil {
			s.MedDRA = string(m[1])
		}
	}
	return s, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func orNone(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
