package ui

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/wordwrap"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// InlineCodeLimit is the length, in runes, below which an untagged code
// segment without line breaks renders inline rather than as a block.
const InlineCodeLimit = 100

// CodeKind classifies a code segment for presentation.
type CodeKind int

const (
	// CodeInline renders within the surrounding text flow.
	CodeInline CodeKind = iota
	// CodeHighlighted renders as a block with syntax colors for the
	// tagged language.
	CodeHighlighted
	// CodePlain renders as a preformatted block with no highlighting.
	CodePlain
)

// ClassifyCode applies the code presentation policy. Explicitly inline
// spans stay inline. A segment with a language tag always becomes a
// highlighted block, even a one-liner. An untagged segment renders inline
// only when it has no line breaks and fewer than InlineCodeLimit runes;
// otherwise it is preformatted without guessing a language.
func ClassifyCode(content, lang string, explicitInline bool) CodeKind {
	if explicitInline {
		return CodeInline
	}
	if lang != "" {
		return CodeHighlighted
	}
	if !strings.Contains(content, "\n") && utf8.RuneCountInString(content) < InlineCodeLimit {
		return CodeInline
	}
	return CodePlain
}

// MathTypesetter renders math segments. The renderer never interprets math
// source itself; each segment passes to the typesetter whole, delimiters
// stripped, and the result is spliced back into the surrounding text.
type MathTypesetter interface {
	TypesetInline(src string) string
	TypesetBlock(src string) string
}

// PlainTypesetter is the fallback MathTypesetter. It performs no layout:
// inline segments render in an italic accent and display segments are
// indented with their source intact.
type PlainTypesetter struct {
	Styles Styles
}

func (p PlainTypesetter) TypesetInline(src string) string {
	return p.Styles.Body.Italic(true).Foreground(p.Styles.Theme.Accent).Render(src)
}

func (p PlainTypesetter) TypesetBlock(src string) string {
	style := p.Styles.Body.Italic(true).Foreground(p.Styles.Theme.Accent)
	lines := strings.Split(strings.Trim(src, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "  " + style.Render(line)
	}
	return strings.Join(lines, "\n")
}

// Renderer turns markdown answers into styled terminal text. It is not
// safe for concurrent use from multiple goroutines; the chat model owns
// exactly one and renders on the update loop.
type Renderer struct {
	styles    Styles
	width     int
	math      MathTypesetter
	md        goldmark.Markdown
	codeStyle string
}

// RendererOption configures a Renderer at construction.
type RendererOption func(*Renderer)

// WithMathTypesetter replaces the fallback math typesetter.
func WithMathTypesetter(mt MathTypesetter) RendererOption {
	return func(r *Renderer) {
		if mt != nil {
			r.math = mt
		}
	}
}

// WithChromaStyle overrides the syntax highlighting palette.
func WithChromaStyle(name string) RendererOption {
	return func(r *Renderer) {
		if name != "" {
			r.codeStyle = name
		}
	}
}

// NewRenderer builds a renderer wrapping at the given width.
func NewRenderer(styles Styles, width int, opts ...RendererOption) *Renderer {
	r := &Renderer{
		styles:    styles,
		width:     width,
		math:      PlainTypesetter{Styles: styles},
		codeStyle: "monokailight",
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table, extension.Strikethrough),
		),
	}
	if styles.Theme.IsDark {
		r.codeStyle = "monokai"
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetWidth changes the wrap width for subsequent renders.
func (r *Renderer) SetWidth(width int) { r.width = width }

// Render converts one markdown document to styled terminal text.
func (r *Renderer) Render(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	prepared, segs := extractMath(src)
	source := []byte(prepared)
	doc := r.md.Parser().Parse(gmtext.NewReader(source))

	w := &walker{r: r, source: source, segs: segs}
	var blocks []string
	for child := doc.FirstChild(); child != nil; child = child.NextSibling() {
		if s := w.renderBlock(child, 0); s != "" {
			blocks = append(blocks, s)
		}
	}
	return strings.Join(blocks, "\n\n")
}

// walker carries the per-render state so the Renderer itself stays
// reusable across messages.
type walker struct {
	r      *Renderer
	source []byte
	segs   []mathSegment
}

func (w *walker) width() int {
	if w.r.width < 10 {
		return 10
	}
	return w.r.width
}

func (w *walker) wrap(s string, width int) string {
	if width < 10 {
		width = 10
	}
	return wordwrap.String(s, width)
}

func (w *walker) renderBlock(node ast.Node, depth int) string {
	switch n := node.(type) {
	case *ast.Heading:
		return w.renderHeading(n)
	case *ast.Paragraph:
		return w.wrap(w.renderInlineChildren(n), w.width())
	case *ast.TextBlock:
		return w.wrap(w.renderInlineChildren(n), w.width())
	case *ast.FencedCodeBlock:
		return w.renderCode(w.blockText(n), string(n.Language(w.source)))
	case *ast.CodeBlock:
		return w.renderCode(w.blockText(n), "")
	case *ast.List:
		return w.renderList(n, depth)
	case *ast.Blockquote:
		return w.renderBlockquote(n, depth)
	case *ast.ThematicBreak:
		return w.r.styles.RenderDivider(w.width())
	case *ast.HTMLBlock:
		return w.renderHTMLBlock(n)
	case *east.Table:
		return w.renderTable(n)
	default:
		// Unknown blocks degrade to their inline content rather than
		// vanishing.
		if node.HasChildren() {
			return w.wrap(w.renderInlineChildren(node), w.width())
		}
		return ""
	}
}

func (w *walker) renderHeading(n *ast.Heading) string {
	txt := w.renderInlineChildren(n)
	switch n.Level {
	case 1:
		return w.r.styles.Title.Render(txt)
	case 2:
		return w.r.styles.Subtitle.Render(txt)
	default:
		return w.r.styles.Bold.Render(txt)
	}
}

func (w *walker) renderCode(content, lang string) string {
	content = strings.TrimRight(content, "\n")
	switch ClassifyCode(content, lang, false) {
	case CodeInline:
		return w.r.styles.InlineCode.Render(content)
	case CodeHighlighted:
		return w.highlight(content, lang)
	default:
		return w.r.styles.CodeBlock.Render(content)
	}
}

func (w *walker) highlight(code, lang string) string {
	var sb strings.Builder
	if err := quick.Highlight(&sb, code, lang, "terminal256", w.r.codeStyle); err != nil {
		return w.r.styles.CodeBlock.Render(code)
	}
	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	// The tag is shown as written, even when chroma fell back to plaintext.
	label := w.r.styles.Muted.Render("  " + lang)
	return label + "\n" + strings.Join(lines, "\n")
}

func (w *walker) renderList(l *ast.List, depth int) string {
	var lines []string
	num := l.Start
	if num <= 0 {
		num = 1
	}
	pad := strings.Repeat("  ", depth)
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "• "
		if l.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		cont := strings.Repeat(" ", len([]rune(marker)))
		first := true
		for block := item.FirstChild(); block != nil; block = block.NextSibling() {
			if nested, ok := block.(*ast.List); ok {
				sub := w.renderList(nested, depth+1)
				if sub != "" {
					lines = append(lines, strings.Split(sub, "\n")...)
				}
				continue
			}
			rendered := w.renderItemBlock(block, len(pad)+len(cont))
			if rendered == "" {
				continue
			}
			for _, line := range strings.Split(rendered, "\n") {
				if first {
					lines = append(lines, pad+marker+line)
					first = false
					continue
				}
				lines = append(lines, pad+cont+line)
			}
		}
	}
	return strings.Join(lines, "\n")
}

func (w *walker) renderItemBlock(block ast.Node, indent int) string {
	switch b := block.(type) {
	case *ast.TextBlock:
		return w.wrap(w.renderInlineChildren(b), w.width()-indent)
	case *ast.Paragraph:
		return w.wrap(w.renderInlineChildren(b), w.width()-indent)
	default:
		return w.renderBlock(block, 0)
	}
}

func (w *walker) renderBlockquote(n *ast.Blockquote, depth int) string {
	var inner []string
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if s := w.renderBlock(child, depth); s != "" {
			inner = append(inner, s)
		}
	}
	gutter := w.r.styles.Blockquote.Render("│ ")
	var out []string
	for _, block := range inner {
		for _, line := range strings.Split(block, "\n") {
			out = append(out, gutter+w.r.styles.Blockquote.Render(line))
		}
	}
	return strings.Join(out, "\n")
}

func (w *walker) renderHTMLBlock(n *ast.HTMLBlock) string {
	raw := w.blockText(n)
	if n.HasClosure() {
		raw += string(n.ClosureLine.Value(w.source))
	}
	return w.r.styles.Muted.Render(strings.TrimRight(raw, "\n"))
}

func (w *walker) renderTable(t *east.Table) string {
	var header []string
	var body [][]string
	for c := t.FirstChild(); c != nil; c = c.NextSibling() {
		switch row := c.(type) {
		case *east.TableHeader:
			header = w.rowCells(row)
		case *east.TableRow:
			body = append(body, w.rowCells(row))
		}
	}
	cols := len(header)
	for _, row := range body {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return ""
	}
	widths := make([]int, cols)
	measure := func(row []string) {
		for i, cell := range row {
			if cw := ansi.PrintableRuneWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}
	measure(header)
	for _, row := range body {
		measure(row)
	}

	padCell := func(cell string, col int) string {
		gap := widths[col] - ansi.PrintableRuneWidth(cell)
		if gap < 0 {
			gap = 0
		}
		return cell + strings.Repeat(" ", gap)
	}
	joinRow := func(row []string) string {
		parts := make([]string, cols)
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			parts[i] = padCell(cell, i)
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	var lines []string
	if len(header) > 0 {
		styled := make([]string, len(header))
		for i, cell := range header {
			styled[i] = w.r.styles.TableHead.Render(cell)
		}
		lines = append(lines, joinRow(styled))
		rules := make([]string, cols)
		for i, cw := range widths {
			rules[i] = w.r.styles.Divider.Render(strings.Repeat("─", cw))
		}
		lines = append(lines, strings.Join(rules, "  "))
	}
	for _, row := range body {
		lines = append(lines, joinRow(row))
	}
	return strings.Join(lines, "\n")
}

func (w *walker) rowCells(row ast.Node) []string {
	var cells []string
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		if cell, ok := c.(*east.TableCell); ok {
			cells = append(cells, w.renderInlineChildren(cell))
		}
	}
	return cells
}

func (w *walker) renderInlineChildren(node ast.Node) string {
	var sb strings.Builder
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		sb.WriteString(w.renderInline(c))
	}
	return sb.String()
}

func (w *walker) renderInline(node ast.Node) string {
	switch n := node.(type) {
	case *ast.Text:
		txt := w.expandMath(string(n.Segment.Value(w.source)))
		if n.HardLineBreak() {
			return txt + "\n"
		}
		if n.SoftLineBreak() {
			return txt + " "
		}
		return txt
	case *ast.String:
		return w.expandMath(string(n.Value))
	case *ast.CodeSpan:
		return w.r.styles.InlineCode.Render(w.rawText(n))
	case *ast.Emphasis:
		txt := w.renderInlineChildren(n)
		if n.Level >= 2 {
			return w.r.styles.Bold.Render(txt)
		}
		return w.r.styles.Body.Italic(true).Render(txt)
	case *ast.Link:
		label := w.renderInlineChildren(n)
		url := string(n.Destination)
		if label == "" || label == url {
			return w.r.styles.Link.Render(url)
		}
		return w.r.styles.Link.Render(label) + w.r.styles.Muted.Render(" ("+url+")")
	case *ast.AutoLink:
		return w.r.styles.Link.Render(string(n.URL(w.source)))
	case *ast.Image:
		alt := w.renderInlineChildren(n)
		if alt == "" {
			alt = "image"
		}
		return w.r.styles.Muted.Render(alt + " (" + string(n.Destination) + ")")
	case *ast.RawHTML:
		var sb strings.Builder
		for i := 0; i < n.Segments.Len(); i++ {
			sb.Write(n.Segments.At(i).Value(w.source))
		}
		return w.r.styles.Muted.Render(sb.String())
	case *east.Strikethrough:
		return w.r.styles.Muted.Strikethrough(true).Render(w.renderInlineChildren(n))
	default:
		if node.HasChildren() {
			return w.renderInlineChildren(node)
		}
		return ""
	}
}

// rawText collects the literal text under an inline node without styling
// or math expansion, for code spans where every byte is content.
func (w *walker) rawText(node ast.Node) string {
	var sb strings.Builder
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		switch n := c.(type) {
		case *ast.Text:
			sb.Write(n.Segment.Value(w.source))
		case *ast.String:
			sb.Write(n.Value)
		default:
			sb.WriteString(w.rawText(c))
		}
	}
	return sb.String()
}

func (w *walker) blockText(node ast.Node) string {
	var sb strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		sb.Write(lines.At(i).Value(w.source))
	}
	return sb.String()
}

func (w *walker) expandMath(s string) string {
	if len(w.segs) == 0 || !strings.ContainsFunc(s, isMathPlaceholder) {
		return s
	}
	var sb strings.Builder
	for _, c := range s {
		idx := int(c) - mathRuneBase
		if idx < 0 || idx >= len(w.segs) {
			sb.WriteRune(c)
			continue
		}
		seg := w.segs[idx]
		if seg.display {
			sb.WriteString(w.r.math.TypesetBlock(seg.body))
			continue
		}
		sb.WriteString(w.r.math.TypesetInline(seg.body))
	}
	return sb.String()
}

// mathRuneBase sits in the plane 16 private use area, far from anything a
// backend answer or a nerd font will contain.
const mathRuneBase = 0x100000

func isMathPlaceholder(c rune) bool { return c >= mathRuneBase && c <= 0x10FFFD }

type mathSegment struct {
	display bool
	body    string
}

// extractMath lifts $...$ and $$...$$ spans out of the source before the
// markdown parse and replaces each with a private-use placeholder rune, so
// the parser cannot split a formula across emphasis or list markers.
// Dollar signs inside backtick spans and fenced code stay untouched, as do
// escaped \$ and lone dollars that never close.
func extractMath(src string) (string, []mathSegment) {
	var (
		out  strings.Builder
		segs []mathSegment
	)
	lines := strings.Split(src, "\n")
	inFence := false
	fence := ""
	writeLine := func(s string, i int) {
		out.WriteString(s)
		if i < len(lines)-1 {
			out.WriteByte('\n')
		}
	}
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if inFence {
			writeLine(line, i)
			if strings.HasPrefix(trimmed, fence) {
				inFence = false
			}
			continue
		}
		if f := fenceMarker(trimmed); f != "" {
			inFence = true
			fence = f
			writeLine(line, i)
			continue
		}

		if strings.HasPrefix(trimmed, "$$") {
			if done, consumed := extractDisplayMath(lines, i, trimmed, &segs, &out); done {
				i = consumed
				if i < len(lines)-1 {
					out.WriteByte('\n')
				}
				continue
			}
		}

		writeLine(scanInlineMath(line, &segs), i)
	}
	return out.String(), segs
}

func fenceMarker(trimmed string) string {
	for _, m := range []string{"```", "~~~"} {
		if strings.HasPrefix(trimmed, m) {
			return m
		}
	}
	return ""
}

// extractDisplayMath handles a line opening with $$. Single-line form
// closes on the same line; otherwise following lines are consumed until
// one ends with $$. Returns false when no closer exists, leaving the
// dollars for the inline scanner to reject.
func extractDisplayMath(lines []string, start int, trimmed string, segs *[]mathSegment, out *strings.Builder) (bool, int) {
	rest := trimmed[2:]
	if idx := strings.Index(rest, "$$"); idx >= 0 {
		*segs = append(*segs, mathSegment{display: true, body: strings.TrimSpace(rest[:idx])})
		out.WriteRune(rune(mathRuneBase + len(*segs) - 1))
		if tail := rest[idx+2:]; tail != "" {
			out.WriteString(scanInlineMath(tail, segs))
		}
		return true, start
	}
	var body []string
	if rest != "" {
		body = append(body, rest)
	}
	for j := start + 1; j < len(lines); j++ {
		t := strings.TrimSpace(lines[j])
		if strings.HasSuffix(t, "$$") {
			if head := strings.TrimSuffix(t, "$$"); head != "" {
				body = append(body, head)
			}
			*segs = append(*segs, mathSegment{display: true, body: strings.Join(body, "\n")})
			out.WriteRune(rune(mathRuneBase + len(*segs) - 1))
			return true, j
		}
		body = append(body, lines[j])
	}
	return false, start
}

// scanInlineMath replaces $...$ spans in one line. The opener must hug the
// character after it and the closer the character before it, and a closer
// followed by a digit does not count, so prose about prices ("$5 and $10")
// passes through unchanged.
func scanInlineMath(line string, segs *[]mathSegment) string {
	var out strings.Builder
	r := []rune(line)
	for i := 0; i < len(r); i++ {
		switch r[i] {
		case '\\':
			out.WriteRune(r[i])
			if i+1 < len(r) {
				i++
				out.WriteRune(r[i])
			}
		case '`':
			run := 1
			for i+run < len(r) && r[i+run] == '`' {
				run++
			}
			if end := closingBacktickRun(r, i+run, run); end >= 0 {
				out.WriteString(string(r[i : end+run]))
				i = end + run - 1
				continue
			}
			out.WriteString(string(r[i : i+run]))
			i += run - 1
		case '$':
			if i+1 < len(r) && !unicode.IsSpace(r[i+1]) && r[i+1] != '$' {
				if j := inlineMathCloser(r, i+1); j > 0 {
					*segs = append(*segs, mathSegment{body: string(r[i+1 : j])})
					out.WriteRune(rune(mathRuneBase + len(*segs) - 1))
					i = j
					continue
				}
			}
			out.WriteRune(r[i])
		default:
			out.WriteRune(r[i])
		}
	}
	return out.String()
}

// closingBacktickRun finds the start of a backtick run of exactly length n
// at or after position from, mirroring the commonmark code span rule.
func closingBacktickRun(r []rune, from, n int) int {
	for k := from; k < len(r); {
		if r[k] != '`' {
			k++
			continue
		}
		run := 1
		for k+run < len(r) && r[k+run] == '`' {
			run++
		}
		if run == n {
			return k
		}
		k += run
	}
	return -1
}

func inlineMathCloser(r []rune, from int) int {
	for j := from; j < len(r); j++ {
		if r[j] == '\\' {
			j++
			continue
		}
		if r[j] != '$' {
			continue
		}
		if unicode.IsSpace(r[j-1]) {
			continue
		}
		if j+1 < len(r) && unicode.IsDigit(r[j+1]) {
			continue
		}
		return j
	}
	return -1
}
