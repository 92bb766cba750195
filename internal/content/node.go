// Package content models the rich-text document tree that is chunked and
// indexed, together with its renderers and decoders.
package content

// NodeType names a node kind in the document tree.
type NodeType string

const (
	TypeDoc            NodeType = "doc"
	TypeParagraph      NodeType = "paragraph"
	TypeHeading        NodeType = "heading"
	TypeBulletList     NodeType = "bulletList"
	TypeOrderedList    NodeType = "orderedList"
	TypeTaskList       NodeType = "taskList"
	TypeListItem       NodeType = "listItem"
	TypeTaskItem       NodeType = "taskItem"
	TypeBlockquote     NodeType = "blockquote"
	TypeCodeBlock      NodeType = "codeBlock"
	TypeHorizontalRule NodeType = "horizontalRule"
	TypeImage          NodeType = "image"
	TypeTable          NodeType = "table"
	TypeTableRow       NodeType = "tableRow"
	TypeTableHeader    NodeType = "tableHeader"
	TypeTableCell      NodeType = "tableCell"
	TypeHardBreak      NodeType = "hardBreak"
	TypeText           NodeType = "text"
)

// Mark types applied to text nodes.
const (
	MarkBold      = "bold"
	MarkItalic    = "italic"
	MarkStrike    = "strike"
	MarkUnderline = "underline"
	MarkCode      = "code"
	MarkLink      = "link"
)

// Mark is an inline formatting annotation on a text node.
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Node is one node of a document tree. A decoded tree is treated as an
// immutable snapshot: chunkers and renderers never modify it.
type Node struct {
	Type    NodeType       `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []*Node        `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
}

// EmptyDocument returns a doc node without children.
func EmptyDocument() *Node {
	return &Node{Type: TypeDoc}
}

// Doc builds a doc node from top-level blocks.
func Doc(blocks ...*Node) *Node {
	return &Node{Type: TypeDoc, Content: blocks}
}

// Heading builds a heading node with a single text child.
func Heading(level int, text string) *Node {
	return &Node{
		Type:    TypeHeading,
		Attrs:   map[string]any{"level": level},
		Content: []*Node{Text(text)},
	}
}

// Paragraph builds a paragraph node with a single text child.
func Paragraph(text string) *Node {
	if text == "" {
		return &Node{Type: TypeParagraph}
	}
	return &Node{Type: TypeParagraph, Content: []*Node{Text(text)}}
}

// Text builds a text node with optional marks.
func Text(text string, marks ...Mark) *Node {
	return &Node{Type: TypeText, Text: text, Marks: marks}
}

// IsHeading reports whether n is a heading node.
func (n *Node) IsHeading() bool {
	return n != nil && n.Type == TypeHeading
}

// HeadingLevel returns the heading level of n, or 0 if n is not a heading
// or carries no usable level. JSON numbers decode as float64.
func (n *Node) HeadingLevel() int {
	if !n.IsHeading() {
		return 0
	}
	return intAttr(n.Attrs, "level")
}

// IsSectionHeading reports whether n is a level-1 or level-2 heading, the
// only headings that start a new section.
func (n *Node) IsSectionHeading() bool {
	level := n.HeadingLevel()
	return level == 1 || level == 2
}

// IsContentBlock reports whether n is a block that carries indexable body
// text (paragraphs, lists, quotes, code and tables).
func (n *Node) IsContentBlock() bool {
	if n == nil {
		return false
	}
	switch n.Type {
	case TypeParagraph, TypeBulletList, TypeOrderedList, TypeTaskList,
		TypeBlockquote, TypeCodeBlock, TypeTable:
		return true
	}
	return false
}

func intAttr(attrs map[string]any, key string) int {
	if attrs == nil {
		return 0
	}
	switch v := attrs[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v != float64(int(v)) {
			return 0
		}
		return int(v)
	}
	return 0
}

func stringAttr(attrs map[string]any, key string) string {
	if attrs == nil {
		return ""
	}
	s, _ := attrs[key].(string)
	return s
}
