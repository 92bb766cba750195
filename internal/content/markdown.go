package content

import (
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var markdownParser = sync.OnceValue(func() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(extension.GFM))
})

// FromMarkdown imports a Markdown source into a document tree.
func FromMarkdown(src []byte) *Node {
	root := markdownParser().Parser().Parse(text.NewReader(src))
	doc := EmptyDocument()
	doc.Content = convertBlocks(root, src)
	return doc
}

func convertBlocks(parent ast.Node, src []byte) []*Node {
	var out []*Node
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		if n := convertBlock(c, src); n != nil {
			out = append(out, n)
		}
	}
	return out
}

func convertBlock(n ast.Node, src []byte) *Node {
	switch v := n.(type) {
	case *ast.Heading:
		return &Node{
			Type:    TypeHeading,
			Attrs:   map[string]any{"level": v.Level},
			Content: convertInlines(v, src, nil),
		}
	case *ast.Paragraph, *ast.TextBlock:
		return &Node{Type: TypeParagraph, Content: convertInlines(v, src, nil)}
	case *ast.List:
		return convertList(v, src)
	case *ast.Blockquote:
		return &Node{Type: TypeBlockquote, Content: convertBlocks(v, src)}
	case *ast.FencedCodeBlock:
		return codeBlock(linesText(v, src), string(v.Language(src)))
	case *ast.CodeBlock:
		return codeBlock(linesText(v, src), "")
	case *ast.ThematicBreak:
		return &Node{Type: TypeHorizontalRule}
	case *extast.Table:
		return convertTable(v, src)
	}
	// Raw HTML blocks and unknown extension blocks carry nothing indexable.
	return nil
}

func convertList(l *ast.List, src []byte) *Node {
	list := &Node{Type: TypeBulletList}
	if l.IsOrdered() {
		list.Type = TypeOrderedList
		if l.Start > 1 {
			list.Attrs = map[string]any{"start": l.Start}
		}
	}
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		li := &Node{Type: TypeListItem, Content: convertBlocks(item, src)}
		if checked, isTask := taskState(item); isTask {
			li.Type = TypeTaskItem
			li.Attrs = map[string]any{"checked": checked}
			if !l.IsOrdered() {
				list.Type = TypeTaskList
			}
		}
		list.Content = append(list.Content, li)
	}
	return list
}

func taskState(item ast.Node) (checked bool, isTask bool) {
	first := item.FirstChild()
	if first == nil {
		return false, false
	}
	if box, ok := first.FirstChild().(*extast.TaskCheckBox); ok {
		return box.IsChecked, true
	}
	return false, false
}

func convertTable(t *extast.Table, src []byte) *Node {
	table := &Node{Type: TypeTable}
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		cellType := TypeTableCell
		if _, isHeader := row.(*extast.TableHeader); isHeader {
			cellType = TypeTableHeader
		}
		r := &Node{Type: TypeTableRow}
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			r.Content = append(r.Content, &Node{Type: cellType, Content: convertInlines(cell, src, nil)})
		}
		table.Content = append(table.Content, r)
	}
	return table
}

func convertInlines(parent ast.Node, src []byte, marks []Mark) []*Node {
	var out []*Node
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			value := string(v.Segment.Value(src))
			if v.SoftLineBreak() {
				value += " "
			}
			out = appendText(out, value, marks)
			if v.HardLineBreak() {
				out = append(out, &Node{Type: TypeHardBreak})
			}
		case *ast.String:
			out = appendText(out, string(v.Value), marks)
		case *ast.CodeSpan:
			out = appendText(out, inlineText(v, src), withMark(marks, Mark{Type: MarkCode}))
		case *ast.Emphasis:
			markType := MarkItalic
			if v.Level >= 2 {
				markType = MarkBold
			}
			out = append(out, convertInlines(v, src, withMark(marks, Mark{Type: markType}))...)
		case *extast.Strikethrough:
			out = append(out, convertInlines(v, src, withMark(marks, Mark{Type: MarkStrike}))...)
		case *ast.Link:
			link := Mark{Type: MarkLink, Attrs: map[string]any{"href": string(v.Destination)}}
			out = append(out, convertInlines(v, src, withMark(marks, link))...)
		case *ast.AutoLink:
			url := string(v.URL(src))
			link := Mark{Type: MarkLink, Attrs: map[string]any{"href": url}}
			out = appendText(out, url, withMark(marks, link))
		case *ast.Image:
			out = append(out, &Node{
				Type:  TypeImage,
				Attrs: map[string]any{"src": string(v.Destination), "alt": inlineText(v, src)},
			})
		case *extast.TaskCheckBox, *ast.RawHTML:
		default:
			out = append(out, convertInlines(c, src, marks)...)
		}
	}
	return out
}

func appendText(out []*Node, value string, marks []Mark) []*Node {
	if value == "" {
		return out
	}
	return append(out, Text(value, marks...))
}

func withMark(marks []Mark, m Mark) []Mark {
	next := make([]Mark, 0, len(marks)+1)
	next = append(next, marks...)
	return append(next, m)
}

func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(src))
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func linesText(n ast.Node, src []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return strings.TrimRight(b.String(), "\n")
}

func codeBlock(code, language string) *Node {
	n := &Node{Type: TypeCodeBlock}
	if language != "" {
		n.Attrs = map[string]any{"language": language}
	}
	if code != "" {
		n.Content = []*Node{Text(code)}
	}
	return n
}
