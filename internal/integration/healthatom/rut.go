package healthatom

import "strings"

// FormatRUT normalizes a Chilean RUT to the canonical upstream form:
// digits without leading zeros, a dash, then the verifier, uppercased
// and without dots. Inputs without a dash get one inserted before the
// last character.
func FormatRUT(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return s
	}
	if i := strings.LastIndex(s, "-"); i >= 0 {
		body := strings.ReplaceAll(s[:i], "-", "")
		return trimLeadingZeros(body) + "-" + s[i+1:]
	}
	if len(s) < 2 {
		return s
	}
	return trimLeadingZeros(s[:len(s)-1]) + "-" + s[len(s)-1:]
}

// trimLeadingZeros drops zero padding from the RUT body, keeping a
// single zero when the body is all zeros. Upstream stores bodies in
// numeric form, so a padded body would never match the eq filter.
func trimLeadingZeros(body string) string {
	trimmed := strings.TrimLeft(body, "0")
	if trimmed == "" && body != "" {
		return "0"
	}
	return trimmed
}
