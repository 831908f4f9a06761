// Package netx holds small HTTP helpers for file downloads.
package netx

import (
	"mime"
	"regexp"
	"strings"
)

var looseFilename = regexp.MustCompile(`(?i)filename\*?=(?:UTF-8'')?["']?([^"';\n]+)["']?`)

// FilenameFromDisposition extracts the file name from a Content-Disposition
// header value. The RFC 5987 form (filename*=UTF-8''...) wins over the plain
// one. Malformed headers that still carry a filename parameter are handled
// leniently.
func FilenameFromDisposition(header string) (string, bool) {
	if header == "" {
		return "", false
	}

	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name := params["filename"]; name != "" {
			return name, true
		}
	}

	m := looseFilename.FindStringSubmatch(header)
	if m == nil {
		return "", false
	}
	name := strings.TrimSpace(m[1])
	if decoded, err := decodePercent(name); err == nil {
		name = decoded
	}
	return name, name != ""
}

func decodePercent(s string) (string, error) {
	if !strings.Contains(s, "%") {
		return s, nil
	}
	_, params, err := mime.ParseMediaType("attachment; filename*=UTF-8''" + s)
	if err != nil {
		return "", err
	}
	return params["filename"], nil
}

// IsFileContentType reports whether ct names a downloadable report payload
// rather than an error document.
func IsFileContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "pdf") ||
		strings.Contains(ct, "spreadsheet") ||
		strings.Contains(ct, "octet-stream")
}
