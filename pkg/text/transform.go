package text

import (
	"context"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultImportPrefix is the reserved package prefix rewritten to a relative
// path inside the archive.
const DefaultImportPrefix = "mediamonkey/"

// AugmentSuffix marks a file that the host merges into its sibling module
const AugmentSuffix = "_add"

var emptyExportRe = regexp.MustCompile(`(?m)^[ \t]*export\s*\{\s*\};?[ \t]*(?:\r?\n|$)`)

// 📄 File describes the content handed to Transform
type File struct {
	Rel  string // slash separated path relative to the project root
	Role Role
}

// Depth is the number of directories between the root and the file
func (f File) Depth() int {
	dir := path.Dir(f.Rel)
	if dir == "." || dir == "/" {
		return 0
	}
	n := 0
	for _, seg := range strings.Split(dir, "/") {
		if seg != "" && seg != "." {
			n++
		}
	}
	return n
}

// 📝 Result holds the result of a transform
type Result struct {
	OriginalContent []byte
	ModifiedContent []byte
	WasModified     bool
	Changes         []string // names of the rules that changed the content
}

// ⚙️ Transformer rewrites source files before they are archived
type Transformer struct {
	importPrefix string
	importRe     *regexp.Regexp
	preamble     *Preamble
}

// 🏭 NewTransformer creates a Transformer. An empty importPrefix selects
// DefaultImportPrefix; preamble may be nil.
func NewTransformer(importPrefix string, preamble *Preamble) *Transformer {
	if importPrefix == "" {
		importPrefix = DefaultImportPrefix
	}
	return &Transformer{
		importPrefix: importPrefix,
		importRe:     regexp.MustCompile(`(\b(?:from|import|require)\s*\(?\s*['"])` + regexp.QuoteMeta(importPrefix)),
		preamble:     preamble,
	}
}

// Preamble returns the active preamble, nil when none
func (t *Transformer) Preamble() *Preamble {
	return t.preamble
}

// 🔄 Transform applies the rules for file.Role to content
func (t *Transformer) Transform(ctx context.Context, content io.Reader, file File) (*Result, error) {
	originalContent, err := io.ReadAll(content)
	if err != nil {
		return nil, errors.Errorf("reading content: %w", err)
	}

	result := &Result{
		OriginalContent: originalContent,
		ModifiedContent: originalContent,
	}

	if file.Role == RoleOpaque {
		return result, nil
	}

	current := string(originalContent)
	apply := func(name string, next string) {
		if next != current {
			result.WasModified = true
			result.Changes = append(result.Changes, name)
			current = next
		}
	}

	if file.Role.IsSource() {
		apply("imports", t.rewriteImports(current, file.Depth()))
		apply("self-import", stripSelfImport(current, file.Rel))
		apply("empty-export", emptyExportRe.ReplaceAllString(current, ""))
	}

	ext := Ext(file.Rel)
	if file.Role == RoleCompiledSource {
		ext = "js"
	}
	if wrapped, ok := t.preamble.Wrap(ext); ok {
		apply("preamble", wrapped+"\n\n"+current)
	}

	if result.WasModified {
		zerolog.Ctx(ctx).Debug().
			Str("file", file.Rel).
			Str("role", file.Role.String()).
			Strs("changes", result.Changes).
			Msg("transformed file")
	}

	result.ModifiedContent = []byte(current)
	return result, nil
}

// rewriteImports replaces the reserved prefix with ./ or one ../ per level
func (t *Transformer) rewriteImports(content string, depth int) string {
	rel := "./"
	if depth > 0 {
		rel = strings.Repeat("../", depth)
	}
	return t.importRe.ReplaceAllString(content, "${1}"+rel)
}

// stripSelfImport drops imports of X from a file named X_add
func stripSelfImport(content, rel string) string {
	base := path.Base(rel)
	base = strings.TrimSuffix(base, path.Ext(base))
	if !strings.HasSuffix(base, AugmentSuffix) || base == AugmentSuffix {
		return content
	}
	sibling := strings.TrimSuffix(base, AugmentSuffix)

	re := regexp.MustCompile(`(?m)^[ \t]*import\s[^\n]*?['"](?:[^'"\n]*/)?` +
		regexp.QuoteMeta(sibling) +
		`(?:\.[jt]s)?['"][ \t]*;?[ \t]*(?:\r?\n|$)`)
	return re.ReplaceAllString(content, "")
}
