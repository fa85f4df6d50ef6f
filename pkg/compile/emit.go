// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package compile

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// removed whole, they carry no runtime meaning
var typeOnlyKinds = map[string]bool{
	"type_annotation":           true,
	"type_predicate_annotation": true,
	"asserts_annotation":        true,
	"type_parameters":           true,
	"type_arguments":            true,
	"implements_clause":         true,
	"accessibility_modifier":    true,
	"override_modifier":         true,
}

// removed with their whole line when they stand alone
var typeOnlyStatements = map[string]bool{
	"interface_declaration":  true,
	"type_alias_declaration": true,
	"ambient_declaration":    true,
	"function_signature":     true,
}

// class members that are only signatures
var typeOnlyMembers = map[string]bool{
	"abstract_method_signature": true,
	"index_signature":           true,
	"method_signature":          true,
}

// keyword tokens stripped when they modify one of these parents
var modifierParents = map[string]map[string]bool{
	"readonly": {"required_parameter": true, "optional_parameter": true, "public_field_definition": true},
	"abstract": {"abstract_class_declaration": true},
	"?":        {"optional_parameter": true, "public_field_definition": true, "method_definition": true},
	"!":        {"public_field_definition": true, "variable_declarator": true},
}

type edit struct {
	start, end int
	text       string
}

// 🔧 emitter strips TypeScript syntax from one parsed file
type emitter struct {
	src   []byte
	rel   string
	edits []edit
	diags []Diagnostic

	used       map[string]bool // identifiers referenced as values
	hadModule  bool            // the source had import or export statements
	keptModule bool            // at least one survives in the output
}

// emitFile returns the JavaScript for the file and the diagnostics found
// while producing it.
func emitFile(root *sitter.Node, src []byte, rel string) (string, []Diagnostic) {
	e := &emitter{src: src, rel: rel, used: map[string]bool{}}

	e.syntaxDiagnostics(root)
	e.collectUsed(root)
	e.visit(root)

	out := applyEdits(src, e.edits)
	if e.hadModule && !e.keptModule {
		if out != "" && !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		out += "export {};\n"
	}
	return out, e.diags
}

func (e *emitter) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Utf8Text(e.src)
}

func (e *emitter) errorAt(n *sitter.Node, format string, args ...any) {
	pos := n.StartPosition()
	e.diags = append(e.diags, Diagnostic{
		File:     e.rel,
		Line:     int(pos.Row) + 1,
		Column:   int(pos.Column) + 1,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityError,
	})
}

// 🩺 syntaxDiagnostics reports every ERROR and MISSING node
func (e *emitter) syntaxDiagnostics(n *sitter.Node) {
	if n == nil || !n.HasError() && !n.IsMissing() {
		return
	}
	if n.IsMissing() {
		if n.Kind() == "identifier" || n.Kind() == "property_identifier" {
			e.errorAt(n, "Identifier expected.")
		} else {
			e.errorAt(n, "'%s' expected.", n.Kind())
		}
		return
	}
	if n.IsError() {
		tok := strings.TrimSpace(e.text(n))
		if i := strings.IndexAny(tok, "\r\n"); i >= 0 {
			tok = tok[:i]
		}
		if len(tok) > 20 {
			tok = tok[:20] + "..."
		}
		if tok == "" {
			e.errorAt(n, "Unexpected token.")
		} else {
			e.errorAt(n, "Unexpected token '%s'.", tok)
		}
		return
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		e.syntaxDiagnostics(n.Child(i))
	}
}

// collectUsed records identifiers that appear in value positions
func (e *emitter) collectUsed(n *sitter.Node) {
	if n == nil {
		return
	}
	kind := n.Kind()
	switch {
	case typeOnlyKinds[kind], typeOnlyStatements[kind], typeOnlyMembers[kind]:
		return
	case kind == "import_statement":
		return
	case kind == "as_expression" || kind == "satisfies_expression":
		e.collectUsed(n.NamedChild(0))
		return
	case kind == "identifier" || kind == "shorthand_property_identifier":
		e.used[e.text(n)] = true
		return
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		e.collectUsed(n.Child(i))
	}
}

func (e *emitter) visit(n *sitter.Node) {
	if n == nil || n.IsMissing() || n.IsError() {
		return
	}

	kind := n.Kind()
	switch {
	case typeOnlyStatements[kind]:
		e.removeLine(int(n.StartByte()), int(n.EndByte()))
		return
	case typeOnlyMembers[kind]:
		e.removeMember(n)
		return
	case kind == "implements_clause":
		start := int(n.StartByte())
		for start > 0 && (e.src[start-1] == ' ' || e.src[start-1] == '\t') {
			start--
		}
		e.add(start, int(n.EndByte()), "")
		return
	case kind == "accessibility_modifier" || kind == "override_modifier":
		e.removeToken(n)
		return
	case typeOnlyKinds[kind]:
		e.add(int(n.StartByte()), int(n.EndByte()), "")
		return
	}

	switch kind {
	case "public_field_definition":
		if hasToken(n, "declare") || hasToken(n, "abstract") {
			e.removeMember(n)
			return
		}
	case "required_parameter":
		if p := n.ChildByFieldName("pattern"); p != nil && p.Kind() == "this" {
			e.removeListItem(n)
			return
		}
	case "import_statement":
		e.importStatement(n)
		return
	case "import_alias":
		e.errorAt(n, "Import aliases are not supported; use 'import' declarations.")
		return
	case "export_statement":
		if e.exportStatement(n) {
			return
		}
	case "enum_declaration":
		e.enumDeclaration(n, n)
		return
	case "internal_module", "module":
		e.errorAt(n, "Namespaces are not supported; use ES modules.")
		return
	case "as_expression", "satisfies_expression":
		value := n.NamedChild(0)
		e.add(int(value.EndByte()), int(n.EndByte()), "")
		e.visit(value)
		return
	case "non_null_expression":
		value := n.NamedChild(0)
		e.add(int(value.EndByte()), int(n.EndByte()), "")
		e.visit(value)
		return
	case "method_definition":
		if e.text(n.ChildByFieldName("name")) == "constructor" {
			e.parameterProperties(n)
		}
	}

	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		if !c.IsNamed() {
			if parents, ok := modifierParents[c.Kind()]; ok && parents[kind] {
				e.removeToken(c)
			}
			continue
		}
		e.visit(c)
	}
}

// 📦 importStatement drops type only imports and unused bindings
func (e *emitter) importStatement(n *sitter.Node) {
	e.hadModule = true

	if hasToken(n, "type") || hasToken(n, "typeof") {
		e.removeLine(int(n.StartByte()), int(n.EndByte()))
		return
	}

	var clause *sitter.Node
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		switch c.Kind() {
		case "import_require_clause":
			e.errorAt(n, "Import assignments are not supported; use 'import' declarations.")
			return
		case "import_clause":
			clause = c
		}
	}

	if clause == nil {
		// side effect import
		e.keptModule = true
		return
	}

	var parts []string
	total, kept := 0, 0
	for i := uint(0); i < clause.NamedChildCount(); i++ {
		c := clause.NamedChild(i)
		switch c.Kind() {
		case "identifier":
			total++
			if e.used[e.text(c)] {
				kept++
				parts = append(parts, e.text(c))
			}
		case "namespace_import":
			total++
			id := c.NamedChild(0)
			if e.used[e.text(id)] {
				kept++
				parts = append(parts, "* as "+e.text(id))
			}
		case "named_imports":
			var named []string
			for j := uint(0); j < c.NamedChildCount(); j++ {
				spec := c.NamedChild(j)
				if spec.Kind() != "import_specifier" {
					continue
				}
				total++
				if hasToken(spec, "type") || hasToken(spec, "typeof") {
					continue
				}
				local := spec.ChildByFieldName("alias")
				if local == nil {
					local = spec.ChildByFieldName("name")
				}
				if e.used[e.text(local)] {
					kept++
					named = append(named, e.text(spec))
				}
			}
			if len(named) > 0 {
				parts = append(parts, "{ "+strings.Join(named, ", ")+" }")
			}
		}
	}

	if kept == 0 {
		e.removeLine(int(n.StartByte()), int(n.EndByte()))
		return
	}

	e.keptModule = true
	if kept == total {
		return
	}

	source := e.text(n.ChildByFieldName("source"))
	e.add(int(n.StartByte()), int(n.EndByte()), "import "+strings.Join(parts, ", ")+" from "+source+";")
}

// 📤 exportStatement handles the export forms that vanish or cannot be
// emitted. It reports whether the statement was fully handled.
func (e *emitter) exportStatement(n *sitter.Node) bool {
	e.hadModule = true

	if hasToken(n, "type") || hasToken(n, "namespace") {
		e.removeLine(int(n.StartByte()), int(n.EndByte()))
		return true
	}
	if hasToken(n, "=") {
		e.errorAt(n, "Export assignments are not supported; use 'export default'.")
		return true
	}

	if decl := n.ChildByFieldName("declaration"); decl != nil {
		switch {
		case typeOnlyStatements[decl.Kind()]:
			e.removeLine(int(n.StartByte()), int(n.EndByte()))
			return true
		case decl.Kind() == "enum_declaration":
			e.keptModule = true
			e.enumDeclaration(decl, n)
			return true
		}
	}

	for i := uint(0); i < n.NamedChildCount(); i++ {
		clause := n.NamedChild(i)
		if clause.Kind() != "export_clause" {
			continue
		}
		specs, typed := 0, 0
		for j := uint(0); j < clause.NamedChildCount(); j++ {
			spec := clause.NamedChild(j)
			if spec.Kind() != "export_specifier" {
				continue
			}
			specs++
			if hasToken(spec, "type") {
				typed++
				e.removeListItem(spec)
			}
		}
		if specs > 0 && specs == typed {
			e.removeLine(int(n.StartByte()), int(n.EndByte()))
			return true
		}
	}

	e.keptModule = true
	return false
}

// 🔢 enumDeclaration replaces stmt with the object building form of the enum
func (e *emitter) enumDeclaration(decl, stmt *sitter.Node) {
	name := e.text(decl.ChildByFieldName("name"))
	body := decl.ChildByFieldName("body")
	indent := e.lineIndent(int(stmt.StartByte()))

	var b strings.Builder
	if stmt != decl {
		b.WriteString("export ")
	}
	fmt.Fprintf(&b, "var %s;\n%s(function (%s) {\n", name, indent, name)

	const (
		prevNone = iota
		prevConst
		prevExpr
		prevString
	)
	prev, prevValue, prevKey := prevNone, float64(-1), ""
	members := map[string]bool{}

	for i := uint(0); body != nil && i < body.NamedChildCount(); i++ {
		m := body.NamedChild(i)
		if m.Kind() == "comment" {
			continue
		}
		nameNode, value := m, (*sitter.Node)(nil)
		if m.Kind() == "enum_assignment" {
			nameNode = m.ChildByFieldName("name")
			value = m.ChildByFieldName("value")
		}

		memberName := e.text(nameNode)
		if nameNode.Kind() == "string" {
			if s, err := strconv.Unquote(normalizeQuotes(memberName)); err == nil {
				memberName = s
			}
		}
		key := strconv.Quote(memberName)
		inner := "    "

		switch {
		case value != nil && (value.Kind() == "string" || value.Kind() == "template_string"):
			fmt.Fprintf(&b, "%s%s%s[%s] = %s;\n", indent, inner, name, key, e.text(value))
			prev = prevString
		case value != nil:
			text := e.enumValue(value, name, members)
			if v, ok := parseNumber(text); ok {
				prev, prevValue = prevConst, v
			} else {
				prev = prevExpr
			}
			fmt.Fprintf(&b, "%s%s%s[%s[%s] = %s] = %s;\n", indent, inner, name, name, key, text, key)
		case prev == prevString:
			e.errorAt(m, "Enum member must have initializer.")
		case prev == prevExpr:
			fmt.Fprintf(&b, "%s%s%s[%s[%s] = %s[%s] + 1] = %s;\n", indent, inner, name, name, key, name, prevKey, key)
		default:
			prevValue++
			prev = prevConst
			fmt.Fprintf(&b, "%s%s%s[%s[%s] = %s] = %s;\n", indent, inner, name, name, key, strconv.FormatFloat(prevValue, 'f', -1, 64), key)
		}

		members[memberName] = true
		prevKey = key
	}

	fmt.Fprintf(&b, "%s})(%s || (%s = {}));", indent, name, name)
	e.add(int(stmt.StartByte()), int(stmt.EndByte()), b.String())
}

// enumValue returns the initializer text with references to earlier members
// qualified by the enum name.
func (e *emitter) enumValue(value *sitter.Node, enum string, members map[string]bool) string {
	var refs []*sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Kind() == "identifier" && members[e.text(n)] {
			refs = append(refs, n)
			return
		}
		for i := uint(0); i < n.NamedChildCount(); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(value)

	var b strings.Builder
	last := int(value.StartByte())
	for _, r := range refs {
		b.Write(e.src[last:r.StartByte()])
		b.WriteString(enum + "." + e.text(r))
		last = int(r.EndByte())
	}
	b.Write(e.src[last:value.EndByte()])
	return b.String()
}

// 🏗️ parameterProperties assigns constructor parameters declared with an
// accessibility or readonly modifier to this.
func (e *emitter) parameterProperties(ctor *sitter.Node) {
	params := ctor.ChildByFieldName("parameters")
	body := ctor.ChildByFieldName("body")
	if params == nil || body == nil {
		return
	}

	var names []string
	for i := uint(0); i < params.NamedChildCount(); i++ {
		p := params.NamedChild(i)
		if p.Kind() != "required_parameter" && p.Kind() != "optional_parameter" {
			continue
		}
		if !hasNamedChild(p, "accessibility_modifier") && !hasToken(p, "readonly") && !hasNamedChild(p, "override_modifier") {
			continue
		}
		if pattern := p.ChildByFieldName("pattern"); pattern != nil && pattern.Kind() == "identifier" {
			names = append(names, e.text(pattern))
		}
	}
	if len(names) == 0 {
		return
	}

	at := int(body.StartByte()) + 1
	indent := e.lineIndent(int(ctor.StartByte())) + "    "
	statements := body.NamedChildCount()
	if statements > 0 {
		indent = e.lineIndent(int(body.NamedChild(0).StartByte()))
	}
	for i := uint(0); i < statements; i++ {
		stmt := body.NamedChild(i)
		if stmt.Kind() != "expression_statement" {
			continue
		}
		call := stmt.NamedChild(0)
		if call != nil && call.Kind() == "call_expression" {
			if fn := call.ChildByFieldName("function"); fn != nil && fn.Kind() == "super" {
				at = int(stmt.EndByte())
				break
			}
		}
	}

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "\n%sthis.%s = %s;", indent, name, name)
	}
	if statements == 0 {
		b.WriteString("\n" + e.lineIndent(int(ctor.StartByte())))
	}
	e.add(at, at, b.String())
}

func (e *emitter) add(start, end int, text string) {
	e.edits = append(e.edits, edit{start: start, end: end, text: text})
}

// removeToken deletes n and the blanks after it
func (e *emitter) removeToken(n *sitter.Node) {
	end := int(n.EndByte())
	for end < len(e.src) && (e.src[end] == ' ' || e.src[end] == '\t') {
		end++
	}
	e.add(int(n.StartByte()), end, "")
}

// removeMember deletes a class member and its separator
func (e *emitter) removeMember(n *sitter.Node) {
	end := int(n.EndByte())
	if next := n.NextSibling(); next != nil && (next.Kind() == ";" || next.Kind() == ",") {
		end = int(next.EndByte())
	}
	e.removeLine(int(n.StartByte()), end)
}

// removeListItem deletes n from a comma separated list
func (e *emitter) removeListItem(n *sitter.Node) {
	start, end := int(n.StartByte()), int(n.EndByte())
	if next := n.NextSibling(); next != nil && next.Kind() == "," {
		end = int(next.EndByte())
		for end < len(e.src) && (e.src[end] == ' ' || e.src[end] == '\t') {
			end++
		}
	} else if prev := n.PrevSibling(); prev != nil && prev.Kind() == "," {
		start = int(prev.StartByte())
	}
	e.add(start, end, "")
}

// removeLine deletes [start,end), widening to the whole line when nothing
// else shares it.
func (e *emitter) removeLine(start, end int) {
	ls := start
	for ls > 0 && (e.src[ls-1] == ' ' || e.src[ls-1] == '\t') {
		ls--
	}
	le := end
	for le < len(e.src) && (e.src[le] == ' ' || e.src[le] == '\t' || e.src[le] == '\r') {
		le++
	}
	if (ls == 0 || e.src[ls-1] == '\n') && (le == len(e.src) || e.src[le] == '\n') {
		start = ls
		end = le
		if end < len(e.src) {
			end++
		}
	}
	e.add(start, end, "")
}

// lineIndent returns the leading blanks of the line holding pos
func (e *emitter) lineIndent(pos int) string {
	ls := pos
	for ls > 0 && e.src[ls-1] != '\n' {
		ls--
	}
	le := ls
	for le < len(e.src) && (e.src[le] == ' ' || e.src[le] == '\t') {
		le++
	}
	return string(e.src[ls:le])
}

func applyEdits(src []byte, edits []edit) string {
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var b strings.Builder
	last := 0
	for _, ed := range edits {
		if ed.start < last {
			// nested inside an edit already applied
			continue
		}
		b.Write(src[last:ed.start])
		b.WriteString(ed.text)
		last = ed.end
	}
	b.Write(src[last:])
	return b.String()
}

func hasToken(n *sitter.Node, kind string) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		if c := n.Child(i); c != nil && !c.IsNamed() && c.Kind() == kind {
			return true
		}
	}
	return false
}

func hasNamedChild(n *sitter.Node, kind string) bool {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if c := n.NamedChild(i); c != nil && c.Kind() == kind {
			return true
		}
	}
	return false
}

func normalizeQuotes(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return `"` + strings.ReplaceAll(s[1:len(s)-1], `"`, `\"`) + `"`
	}
	return s
}

func parseNumber(text string) (float64, bool) {
	if i, err := strconv.ParseInt(text, 0, 64); err == nil {
		return float64(i), true
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f, true
	}
	return 0, false
}
