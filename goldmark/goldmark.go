// Package goldmark renders model replies for terminal display using goldmark
// for parsing and lipgloss for styling.
//
// Rendering is presentation only. The reply text stored in the exchange log
// and returned over HTTP is never altered.
package goldmark

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rivo/uniseg"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Palette maps styled elements to ANSI color indices (0-15). A negative index
// leaves the terminal's default color.
type Palette struct {
	Heading int
	Muted   int
}

// DefaultPalette returns the default ANSI color mapping.
func DefaultPalette() Palette {
	return Palette{Heading: 5, Muted: 8}
}

// Render parses markdown source and returns ANSI-styled text wrapped to width.
// Code blocks are kept at full width.
func Render(source string, width int, palette Palette) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r := renderer{
		src:     []byte(source),
		width:   width,
		bold:    lipgloss.NewStyle().Bold(true),
		italic:  lipgloss.NewStyle().Italic(true),
		heading: lipgloss.NewStyle().Foreground(color(palette.Heading)).Bold(true),
		muted:   lipgloss.NewStyle().Foreground(color(palette.Muted)).Faint(true),
		link:    lipgloss.NewStyle().Underline(true),
	}
	doc := goldmark.DefaultParser().Parse(text.NewReader(r.src))

	var out bytes.Buffer
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if out.Len() > 0 {
			out.WriteString("\n")
		}
		r.block(n, &out)
	}
	return strings.TrimRight(out.String(), "\n")
}

func color(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

type renderer struct {
	src   []byte
	width int

	bold, italic, heading, muted, link lipgloss.Style
}

func (r *renderer) wrap(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}

func (r *renderer) block(n ast.Node, out *bytes.Buffer) {
	switch b := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		out.WriteString(r.wrap(r.inlines(b), r.width) + "\n")
	case *ast.Heading:
		out.WriteString(r.wrap(r.heading.Render(r.inlines(b)), r.width) + "\n")
	case *ast.FencedCodeBlock:
		if lang := string(b.Language(r.src)); lang != "" {
			out.WriteString(r.muted.Render(lang) + "\n")
		}
		r.code(b, out)
	case *ast.CodeBlock:
		r.code(b, out)
	case *ast.List:
		r.list(b, 0, out)
	case *ast.ThematicBreak:
		out.WriteString(r.muted.Render(strings.Repeat("─", min(r.width, 40))) + "\n")
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			r.block(c, out)
		}
	}
}

func (r *renderer) code(n ast.Node, out *bytes.Buffer) {
	gutter := r.muted.Render("│") + " "
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out.WriteString(gutter + strings.TrimRight(string(seg.Value(r.src)), "\n") + "\n")
	}
}

func (r *renderer) list(l *ast.List, depth int, out *bytes.Buffer) {
	num := l.Start
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "• "
		if l.IsOrdered() {
			marker = strconv.Itoa(num) + ". "
			num++
		}
		indent := strings.Repeat("  ", depth)
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if sub, ok := c.(*ast.List); ok {
				r.list(sub, depth+1, out)
				continue
			}
			r.listItem(indent, marker, r.inlines(c), out)
			marker = strings.Repeat(" ", uniseg.StringWidth(marker))
		}
	}
}

func (r *renderer) listItem(indent, marker, content string, out *bytes.Buffer) {
	prefix := indent + marker
	pad := uniseg.StringWidth(prefix)
	lines := strings.Split(r.wrap(content, max(r.width-pad, 10)), "\n")
	for i, line := range lines {
		if i == 0 {
			out.WriteString(prefix + line + "\n")
			continue
		}
		out.WriteString(strings.Repeat(" ", pad) + line + "\n")
	}
}

func (r *renderer) inlines(n ast.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		r.inline(c, &buf)
	}
	return buf.String()
}

func (r *renderer) inline(n ast.Node, buf *bytes.Buffer) {
	switch in := n.(type) {
	case *ast.Text:
		buf.Write(in.Segment.Value(r.src))
		switch {
		case in.HardLineBreak():
			buf.WriteByte('\n')
		case in.SoftLineBreak():
			buf.WriteByte(' ')
		}
	case *ast.String:
		buf.Write(in.Value)
	case *ast.Emphasis:
		if in.Level == 1 {
			buf.WriteString(r.italic.Render(r.inlines(in)))
		} else {
			buf.WriteString(r.bold.Render(r.inlines(in)))
		}
	case *ast.CodeSpan:
		buf.WriteString(r.bold.Render(r.inlines(in)))
	case *ast.Link:
		buf.WriteString(r.link.Render(r.inlines(in)) + " " + r.muted.Render("("+string(in.Destination)+")"))
	case *ast.AutoLink:
		buf.WriteString(r.link.Render(string(in.URL(r.src))))
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			r.inline(c, buf)
		}
	}
}
