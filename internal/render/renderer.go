package render

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/slack-go/slack"

	"github.com/haasonsaas/loom/internal/surface"
)

// Renderer maps a surface's component tree to Slack blocks. It assumes the
// surface is already renderable; an unresolved binding or dangling child at
// this point is a render error, surfaced to the caller rather than dropped.
type Renderer struct{}

// NewRenderer creates a renderer with the default icon table.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render implements surface.Renderer.
func (r *Renderer) Render(s *surface.Surface) (surface.Payload, error) {
	if s == nil || len(s.Nodes) == 0 {
		return nil, ErrEmptySurface
	}
	b := &builder{surf: s, budget: MaxTextLength, seen: map[string]bool{}}
	for _, id := range surface.Roots(s) {
		if err := b.walk(id); err != nil {
			return nil, err
		}
	}
	if len(b.blocks) == 0 {
		return nil, ErrEmptySurface
	}
	text, cut := truncateRunes(strings.Join(b.textParts, "\n"), MaxTextLength)
	return &Payload{
		Text:      text,
		Blocks:    b.blocks,
		Truncated: b.truncated || cut,
	}, nil
}

type builder struct {
	surf      *surface.Surface
	blocks    []slack.Block
	textParts []string
	budget    int
	truncated bool

	// seen guards the walk against children cycles, which the protocol does
	// not forbid and readiness does not reject.
	seen map[string]bool
}

func (b *builder) walk(id string) error {
	if b.seen[id] {
		return fmt.Errorf("render: node %q revisited, children form a cycle", id)
	}
	b.seen[id] = true

	node, ok := b.surf.Nodes[id]
	if !ok {
		return fmt.Errorf("render: missing node %q", id)
	}

	switch node.NodeKind {
	case surface.NodeText:
		content, err := b.resolveString(node.Value)
		if err != nil {
			return err
		}
		b.addText(content)

	case surface.NodeDivider:
		b.addBlock(slack.NewDividerBlock())

	case surface.NodeIcon:
		name, err := b.resolveString(node.Value)
		if err != nil {
			return err
		}
		b.addBlock(slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType, Glyph(name), false, false)))

	case surface.NodeProgress:
		bar, err := b.progressBar(node.Value)
		if err != nil {
			return err
		}
		b.addText(bar)

	case surface.NodeImage:
		url, err := b.resolveString(node.Source)
		if err != nil {
			return err
		}
		alt, err := b.resolveString(node.Alt)
		if err != nil {
			return err
		}
		b.addBlock(slack.NewImageBlock(url, alt, "", nil))

	case surface.NodeButton:
		element, err := b.buttonElement(id, node)
		if err != nil {
			return err
		}
		b.addBlock(slack.NewActionBlock("", element))

	case surface.NodeCard:
		if node.Title != nil {
			title, err := b.resolveString(node.Title)
			if err != nil {
				return err
			}
			b.addText("*" + title + "*")
		}
		if err := b.walkChildren(node.Children); err != nil {
			return err
		}
		b.addBlock(slack.NewDividerBlock())

	case surface.NodeColumn:
		if err := b.walkChildren(node.Children); err != nil {
			return err
		}

	case surface.NodeRow:
		if err := b.walkRow(node); err != nil {
			return err
		}

	default:
		return fmt.Errorf("render: unsupported node kind %q", node.NodeKind)
	}
	return nil
}

func (b *builder) walkChildren(children []string) error {
	for _, child := range children {
		if err := b.walk(child); err != nil {
			return err
		}
	}
	return nil
}

// walkRow lays out a row's inline children (text, icon, progress) as elements
// of a single context block and groups its buttons into one actions block.
// Children that have no inline form fall back to sequential layout.
func (b *builder) walkRow(node *surface.Node) error {
	var inline []slack.MixedElement
	var buttons []slack.BlockElement

	flush := func() {
		if len(inline) > 0 {
			b.addBlock(slack.NewContextBlock("", inline...))
			inline = nil
		}
	}

	for _, childID := range node.Children {
		child, ok := b.surf.Nodes[childID]
		if !ok {
			return fmt.Errorf("render: missing node %q", childID)
		}
		switch child.NodeKind {
		case surface.NodeText:
			content, err := b.resolveString(child.Value)
			if err != nil {
				return err
			}
			content = b.consume(content)
			if content != "" {
				b.textParts = append(b.textParts, content)
				inline = append(inline, slack.NewTextBlockObject(slack.MarkdownType, content, false, false))
			}
		case surface.NodeIcon:
			name, err := b.resolveString(child.Value)
			if err != nil {
				return err
			}
			inline = append(inline, slack.NewTextBlockObject(slack.MarkdownType, Glyph(name), false, false))
		case surface.NodeProgress:
			bar, err := b.progressBar(child.Value)
			if err != nil {
				return err
			}
			inline = append(inline, slack.NewTextBlockObject(slack.MarkdownType, bar, false, false))
		case surface.NodeButton:
			if len(buttons) >= MaxButtonsPerActions {
				b.truncated = true
				continue
			}
			element, err := b.buttonElement(childID, child)
			if err != nil {
				return err
			}
			buttons = append(buttons, element)
		default:
			flush()
			if err := b.walk(childID); err != nil {
				return err
			}
		}
	}
	flush()
	if len(buttons) > 0 {
		b.addBlock(slack.NewActionBlock("", buttons...))
	}
	return nil
}

// buttonElement builds the interactive control. The node id travels as the
// action id and the surface id as the value, which is how inbound
// block_actions events are mapped back to {surfaceId, nodeId}.
func (b *builder) buttonElement(id string, node *surface.Node) (*slack.ButtonBlockElement, error) {
	label, err := b.resolveString(node.Label)
	if err != nil {
		return nil, err
	}
	if label == "" {
		label = " "
	}
	return slack.NewButtonBlockElement(id, b.surf.ID,
		slack.NewTextBlockObject(slack.PlainTextType, label, false, false)), nil
}

func (b *builder) addText(content string) {
	content = b.consume(content)
	if content == "" {
		return
	}
	b.textParts = append(b.textParts, content)
	b.addBlock(slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, content, false, false), nil, nil))
}

func (b *builder) addBlock(block slack.Block) {
	if len(b.blocks) >= MaxBlocks {
		b.truncated = true
		return
	}
	b.blocks = append(b.blocks, block)
}

// consume charges content against the remaining text budget, truncating the
// straddling piece and dropping anything past an exhausted budget.
func (b *builder) consume(content string) string {
	out, cut := truncateRunes(content, b.budget)
	if cut {
		b.truncated = true
	}
	b.budget -= len([]rune(out))
	return out
}

func (b *builder) resolveString(v *surface.Value) (string, error) {
	val, ok := surface.Resolve(v, b.surf.DataModel)
	if !ok {
		return "", fmt.Errorf("render: unresolved binding %q", v.Bound)
	}
	return stringify(val), nil
}

func (b *builder) progressBar(v *surface.Value) (string, error) {
	val, ok := surface.Resolve(v, b.surf.DataModel)
	if !ok {
		return "", fmt.Errorf("render: unresolved binding %q", v.Bound)
	}
	pct, err := toPercent(val)
	if err != nil {
		return "", err
	}
	filled := int(pct/10 + 0.5)
	return fmt.Sprintf("%s%s %d%%",
		strings.Repeat("█", filled), strings.Repeat("░", 10-filled), int(pct+0.5)), nil
}

func toPercent(val any) (float64, error) {
	var pct float64
	switch n := val.(type) {
	case float64:
		pct = n
	case int:
		pct = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("render: progress value %q is not numeric", n)
		}
		pct = f
	default:
		return 0, fmt.Errorf("render: progress value %v is not numeric", val)
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct, nil
}

func stringify(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}
