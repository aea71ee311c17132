package report

import (
	"regexp"
	"strings"
)

var protocolNumberRe = regexp.MustCompile(`(?i)Protocol\s*Number\s*:\s*(.+)`)

// ExtractProtocolNumber finds "Protocol Number: X" in a protocol summary.
func ExtractProtocolNumber(md string) (string, bool) {
	m := protocolNumberRe.FindStringSubmatch(md)
	if m == nil {
		return "", false
	}
	v := strings.TrimSpace(m[1])
	return v, v != ""
}
