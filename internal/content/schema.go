package content

import (
	"fmt"
	"sync"
)

// Schema describes which node and mark types a document may contain.
// It is built once and never mutated afterwards.
type Schema struct {
	nodes map[NodeType]nodeSpec
	marks map[string]struct{}
}

type nodeSpec struct {
	inline bool
	leaf   bool
}

var defaultSchema = sync.OnceValue(buildDefaultSchema)

// DefaultSchema returns the process-wide document schema.
func DefaultSchema() *Schema {
	return defaultSchema()
}

func buildDefaultSchema() *Schema {
	return &Schema{
		nodes: map[NodeType]nodeSpec{
			TypeDoc:            {},
			TypeParagraph:      {},
			TypeHeading:        {},
			TypeBulletList:     {},
			TypeOrderedList:    {},
			TypeTaskList:       {},
			TypeListItem:       {},
			TypeTaskItem:       {},
			TypeBlockquote:     {},
			TypeCodeBlock:      {},
			TypeHorizontalRule: {leaf: true},
			TypeImage:          {leaf: true},
			TypeTable:          {},
			TypeTableRow:       {},
			TypeTableHeader:    {},
			TypeTableCell:      {},
			TypeHardBreak:      {inline: true, leaf: true},
			TypeText:           {inline: true, leaf: true},
		},
		marks: map[string]struct{}{
			MarkBold:      {},
			MarkItalic:    {},
			MarkStrike:    {},
			MarkUnderline: {},
			MarkCode:      {},
			MarkLink:      {},
		},
	}
}

// ShapeError describes a node that does not conform to the schema.
type ShapeError struct {
	Type   NodeType
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("malformed %q node: %s", e.Type, e.Reason)
}

// Validate checks n and all of its descendants against the schema.
func (s *Schema) Validate(n *Node) error {
	if n == nil {
		return &ShapeError{Reason: "nil node"}
	}
	spec, ok := s.nodes[n.Type]
	if !ok {
		return &ShapeError{Type: n.Type, Reason: "unknown node type"}
	}
	if spec.leaf && len(n.Content) > 0 {
		return &ShapeError{Type: n.Type, Reason: "leaf node has children"}
	}
	if n.Type == TypeText && n.Text == "" {
		return &ShapeError{Type: n.Type, Reason: "empty text"}
	}
	if n.Type == TypeHeading {
		if level := n.HeadingLevel(); level < 1 || level > 6 {
			return &ShapeError{Type: n.Type, Reason: fmt.Sprintf("level %v out of range", n.Attrs["level"])}
		}
	}
	for _, m := range n.Marks {
		if _, ok := s.marks[m.Type]; !ok {
			return &ShapeError{Type: n.Type, Reason: fmt.Sprintf("unknown mark %q", m.Type)}
		}
	}
	for _, child := range n.Content {
		if err := s.Validate(child); err != nil {
			return err
		}
	}
	return nil
}
