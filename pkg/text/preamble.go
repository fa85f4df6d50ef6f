package text

import (
	"os"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Placeholder marks where the preamble text goes inside a comment pattern
const Placeholder = "%s"

// DefaultPatterns maps extensions to the comment syntax used to wrap the
// preamble.
func DefaultPatterns() map[string]string {
	return map[string]string{
		"js":   "/* %s */",
		"ts":   "/* %s */",
		"css":  "/* %s */",
		"less": "// %s",
		"html": "<!-- %s -->",
	}
}

// 📜 Preamble is text prepended to eligible files, wrapped per extension
type Preamble struct {
	Text     string
	Patterns map[string]string
}

// 🏭 LoadPreamble reads the preamble file at p. A nil patterns map selects
// DefaultPatterns; entries in patterns override the defaults.
func LoadPreamble(p string, patterns map[string]string) (*Preamble, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, errors.Errorf("reading preamble file: %w", err)
	}

	merged := DefaultPatterns()
	for ext, pattern := range patterns {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		if !strings.Contains(pattern, Placeholder) {
			return nil, errors.Errorf("preamble pattern for %q has no %s placeholder", ext, Placeholder)
		}
		merged[ext] = pattern
	}

	return &Preamble{
		Text:     strings.TrimRight(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n"),
		Patterns: merged,
	}, nil
}

// Has reports whether ext has a registered pattern. A nil preamble has none.
func (p *Preamble) Has(ext string) bool {
	if p == nil {
		return false
	}
	_, ok := p.Patterns[ext]
	return ok
}

// Wrap returns the preamble wrapped for ext
func (p *Preamble) Wrap(ext string) (string, bool) {
	if !p.Has(ext) {
		return "", false
	}
	return strings.Replace(p.Patterns[ext], Placeholder, p.Text, 1), true
}
