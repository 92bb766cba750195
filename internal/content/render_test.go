package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	doc := Doc(
		Heading(1, "Guide"),
		Paragraph("Hello world"),
		&Node{Type: TypeBulletList, Content: []*Node{
			{Type: TypeListItem, Content: []*Node{Paragraph("first")}},
			{Type: TypeListItem, Content: []*Node{Paragraph("second")}},
		}},
	)

	assert.Equal(t, "Guide\nHello world\nfirst\nsecond", PlainText(doc))
}

func TestPlainText_SkipsUnknownNodes(t *testing.T) {
	doc := Doc(Paragraph("before"), &Node{Type: "mystery"}, Paragraph("after"))

	assert.Equal(t, "before\nafter", PlainText(doc))
	assert.False(t, RenderPlain(&Node{Type: "mystery"}).OK)
	assert.False(t, RenderPlain(nil).OK)
}

func TestPlainText_Table(t *testing.T) {
	table := &Node{Type: TypeTable, Content: []*Node{
		{Type: TypeTableRow, Content: []*Node{
			{Type: TypeTableHeader, Content: []*Node{Text("name")}},
			{Type: TypeTableHeader, Content: []*Node{Text("value")}},
		}},
		{Type: TypeTableRow, Content: []*Node{
			{Type: TypeTableCell, Content: []*Node{Text("a")}},
			{Type: TypeTableCell, Content: []*Node{Text("1")}},
		}},
	}}

	assert.Equal(t, "name | value\na | 1", PlainText(table))
	assert.Equal(t, "| name | value |\n| --- | --- |\n| a | 1 |", Markdown(table))
}

func TestPlainTextOf(t *testing.T) {
	nodes := []*Node{Heading(2, "Setup"), Paragraph("Install it.")}
	assert.Equal(t, "Setup\nInstall it.", PlainTextOf(nodes))
	assert.Equal(t, "", PlainTextOf(nil))
}

func TestMarkdown(t *testing.T) {
	tests := []struct {
		name string
		node *Node
		want string
	}{
		{
			name: "heading",
			node: Heading(3, "Deep"),
			want: "### Deep",
		},
		{
			name: "marked text",
			node: &Node{Type: TypeParagraph, Content: []*Node{
				Text("Run "),
				Text("make", Mark{Type: MarkCode}),
				Text(" then "),
				Text("docs", Mark{Type: MarkBold}, Mark{Type: MarkLink, Attrs: map[string]any{"href": "https://example.com"}}),
			}},
			want: "Run `make` then [**docs**](https://example.com)",
		},
		{
			name: "ordered list with start",
			node: &Node{Type: TypeOrderedList, Attrs: map[string]any{"start": float64(3)}, Content: []*Node{
				{Type: TypeListItem, Content: []*Node{Paragraph("three")}},
				{Type: TypeListItem, Content: []*Node{Paragraph("four")}},
			}},
			want: "3. three\n4. four",
		},
		{
			name: "task list",
			node: &Node{Type: TypeTaskList, Content: []*Node{
				{Type: TypeTaskItem, Attrs: map[string]any{"checked": true}, Content: []*Node{Paragraph("done")}},
				{Type: TypeTaskItem, Attrs: map[string]any{"checked": false}, Content: []*Node{Paragraph("open")}},
			}},
			want: "- [x] done\n- [ ] open",
		},
		{
			name: "nested list item indents tail lines",
			node: &Node{Type: TypeBulletList, Content: []*Node{
				{Type: TypeListItem, Content: []*Node{
					Paragraph("parent"),
					{Type: TypeBulletList, Content: []*Node{
						{Type: TypeListItem, Content: []*Node{Paragraph("child")}},
					}},
				}},
			}},
			want: "- parent\n  - child",
		},
		{
			name: "blockquote",
			node: &Node{Type: TypeBlockquote, Content: []*Node{Paragraph("one"), Paragraph("two")}},
			want: "> one\n>\n> two",
		},
		{
			name: "code block",
			node: &Node{Type: TypeCodeBlock, Attrs: map[string]any{"language": "go"}, Content: []*Node{Text("x := 1")}},
			want: "```go\nx := 1\n```",
		},
		{
			name: "image",
			node: &Node{Type: TypeImage, Attrs: map[string]any{"src": "a.png", "alt": "diagram"}},
			want: "![diagram](a.png)",
		},
		{
			name: "doc joins blocks with blank line",
			node: Doc(Heading(1, "T"), Paragraph("p"), &Node{Type: TypeHorizontalRule}),
			want: "# T\n\np\n\n---",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Markdown(tt.node))
		})
	}
}

func TestRenderMarkdown_HeadingWithoutLevelIsSkipped(t *testing.T) {
	n := &Node{Type: TypeHeading, Content: []*Node{Text("orphan")}}
	assert.False(t, RenderMarkdown(n).OK)
	assert.Equal(t, "orphan", PlainText(n))
}
