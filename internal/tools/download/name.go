package download

import (
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
)

// fileName derives a safe local name from the URL path, falling back
// to a generated one when the path yields nothing usable.
func fileName(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return uuid.NewString()
	}
	name := sanitize(path.Base(parsed.Path))
	if name == "" {
		return uuid.NewString()
	}
	return name
}

// sanitize strips characters that are unsafe in file names and rejects
// names that cannot identify a file.
func sanitize(name string) string {
	switch name {
	case "", ".", "..", "/":
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	cleaned := strings.Trim(b.String(), "._")
	if cleaned == "" {
		return ""
	}
	return b.String()
}
