package content

import (
	"strconv"
	"strings"
)

// Rendered is the outcome of rendering one node: either text (OK) or a
// skip. Callers aggregate results and drop skipped nodes instead of
// aborting the whole document.
type Rendered struct {
	Text string
	OK   bool
}

func okText(text string) Rendered { return Rendered{Text: text, OK: true} }

// Skip is the result for a node that could not be rendered.
var Skip = Rendered{}

// PlainText renders n without any markup. A doc renders as its top-level
// blocks joined by newline.
func PlainText(n *Node) string {
	return RenderPlain(n).Text
}

// PlainTextOf renders a run of sibling blocks joined by newline, the same
// way a doc renders its children.
func PlainTextOf(nodes []*Node) string {
	return joinRendered(nodes, RenderPlain, "\n")
}

// RenderPlain renders n as plain text.
func RenderPlain(n *Node) Rendered {
	if n == nil {
		return Skip
	}
	switch n.Type {
	case TypeText:
		return okText(n.Text)
	case TypeHardBreak:
		return okText("\n")
	case TypeParagraph, TypeHeading, TypeTableCell, TypeTableHeader, TypeCodeBlock:
		return okText(joinRendered(n.Content, RenderPlain, ""))
	case TypeDoc, TypeListItem, TypeTaskItem, TypeBlockquote,
		TypeBulletList, TypeOrderedList, TypeTaskList, TypeTable:
		return okText(joinRendered(n.Content, RenderPlain, "\n"))
	case TypeTableRow:
		return okText(joinRendered(n.Content, RenderPlain, " | "))
	case TypeHorizontalRule:
		return okText("")
	case TypeImage:
		return okText(stringAttr(n.Attrs, "alt"))
	}
	return Skip
}

// Markdown renders n as display markup.
func Markdown(n *Node) string {
	return RenderMarkdown(n).Text
}

// RenderMarkdown renders n as Markdown.
func RenderMarkdown(n *Node) Rendered {
	if n == nil {
		return Skip
	}
	switch n.Type {
	case TypeDoc:
		return okText(joinRendered(n.Content, RenderMarkdown, "\n\n"))
	case TypeText:
		return okText(markText(n))
	case TypeHardBreak:
		return okText("  \n")
	case TypeParagraph, TypeTableCell, TypeTableHeader:
		return okText(joinRendered(n.Content, RenderMarkdown, ""))
	case TypeHeading:
		level := n.HeadingLevel()
		if level < 1 {
			return Skip
		}
		return okText(strings.Repeat("#", level) + " " + joinRendered(n.Content, RenderMarkdown, ""))
	case TypeBulletList, TypeOrderedList, TypeTaskList:
		return okText(renderList(n))
	case TypeListItem, TypeTaskItem:
		return okText(joinRendered(n.Content, RenderMarkdown, "\n"))
	case TypeBlockquote:
		inner := joinRendered(n.Content, RenderMarkdown, "\n\n")
		return okText(prefixLines(inner, "> ", ">"))
	case TypeCodeBlock:
		code := joinRendered(n.Content, RenderPlain, "")
		return okText("```" + stringAttr(n.Attrs, "language") + "\n" + code + "\n```")
	case TypeHorizontalRule:
		return okText("---")
	case TypeImage:
		return okText("![" + stringAttr(n.Attrs, "alt") + "](" + stringAttr(n.Attrs, "src") + ")")
	case TypeTable:
		return okText(renderTable(n))
	}
	return Skip
}

func joinRendered(nodes []*Node, render func(*Node) Rendered, sep string) string {
	parts := make([]string, 0, len(nodes))
	for _, child := range nodes {
		r := render(child)
		if !r.OK {
			continue
		}
		parts = append(parts, r.Text)
	}
	return strings.Join(parts, sep)
}

func markText(n *Node) string {
	text := n.Text
	var href string
	for _, m := range n.Marks {
		if m.Type == MarkCode {
			text = "`" + text + "`"
		}
	}
	for _, m := range n.Marks {
		switch m.Type {
		case MarkBold:
			text = "**" + text + "**"
		case MarkItalic:
			text = "*" + text + "*"
		case MarkStrike:
			text = "~~" + text + "~~"
		case MarkLink:
			href = stringAttr(m.Attrs, "href")
		}
	}
	if href != "" {
		text = "[" + text + "](" + href + ")"
	}
	return text
}

func renderList(list *Node) string {
	start := intAttr(list.Attrs, "start")
	if start < 1 {
		start = 1
	}
	lines := make([]string, 0, len(list.Content))
	for i, item := range list.Content {
		r := RenderMarkdown(item)
		if !r.OK {
			continue
		}
		var marker string
		switch {
		case list.Type == TypeOrderedList:
			marker = strconv.Itoa(start+i) + ". "
		case item.Type == TypeTaskItem:
			if checked, _ := item.Attrs["checked"].(bool); checked {
				marker = "- [x] "
			} else {
				marker = "- [ ] "
			}
		default:
			marker = "- "
		}
		indent := strings.Repeat(" ", len(marker))
		lines = append(lines, marker+indentTail(r.Text, indent))
	}
	return strings.Join(lines, "\n")
}

func renderTable(table *Node) string {
	rows := make([]string, 0, len(table.Content)+1)
	for i, row := range table.Content {
		cells := make([]string, 0, len(row.Content))
		for _, cell := range row.Content {
			r := RenderMarkdown(cell)
			if !r.OK {
				continue
			}
			cells = append(cells, strings.ReplaceAll(r.Text, "|", `\|`))
		}
		rows = append(rows, "| "+strings.Join(cells, " | ")+" |")
		if i == 0 {
			sep := make([]string, len(cells))
			for j := range sep {
				sep[j] = "---"
			}
			rows = append(rows, "| "+strings.Join(sep, " | ")+" |")
		}
	}
	return strings.Join(rows, "\n")
}

// indentTail indents every line except the first.
func indentTail(s, indent string) string {
	lines := strings.Split(s, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = indent + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

func prefixLines(s, prefix, blank string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = blank
		} else {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
