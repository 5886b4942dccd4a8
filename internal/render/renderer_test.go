package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/slack-go/slack"

	"github.com/haasonsaas/loom/internal/surface"
)

func renderSurface(t *testing.T, s *surface.Surface) *Payload {
	t.Helper()
	payload, err := NewRenderer().Render(s)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return payload.(*Payload)
}

func textSurface(content string) *surface.Surface {
	return &surface.Surface{
		ID: "s1",
		Nodes: map[string]*surface.Node{
			"n1": {NodeKind: surface.NodeText, Value: surface.Lit(content)},
		},
		DataModel: map[string]any{},
	}
}

func TestRenderTextSection(t *testing.T) {
	payload := renderSurface(t, textSurface("hello"))
	if payload.Text != "hello" {
		t.Fatalf("expected fallback text hello, got %q", payload.Text)
	}
	if len(payload.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(payload.Blocks))
	}
	section, ok := payload.Blocks[0].(*slack.SectionBlock)
	if !ok {
		t.Fatalf("expected section block, got %T", payload.Blocks[0])
	}
	if section.Text.Text != "hello" {
		t.Fatalf("expected section text hello, got %q", section.Text.Text)
	}
}

func TestRenderBoundText(t *testing.T) {
	s := &surface.Surface{
		ID: "s1",
		Nodes: map[string]*surface.Node{
			"n1": {NodeKind: surface.NodeText, Value: surface.Bind("msg")},
		},
		DataModel: map[string]any{"msg": "hi"},
	}
	payload := renderSurface(t, s)
	if payload.Text != "hi" {
		t.Fatalf("expected bound text hi, got %q", payload.Text)
	}
}

func TestRenderUnresolvedBindingFails(t *testing.T) {
	s := &surface.Surface{
		ID: "s1",
		Nodes: map[string]*surface.Node{
			"n1": {NodeKind: surface.NodeText, Value: surface.Bind("missing")},
		},
		DataModel: map[string]any{},
	}
	if _, err := NewRenderer().Render(s); err == nil {
		t.Fatalf("expected unresolved binding to be a render error")
	}
}

func TestRenderUnknownIconUsesFallback(t *testing.T) {
	s := &surface.Surface{
		ID: "s1",
		Nodes: map[string]*surface.Node{
			"i1": {NodeKind: surface.NodeIcon, Value: surface.Lit("no-such-icon")},
		},
		DataModel: map[string]any{},
	}
	payload := renderSurface(t, s)
	ctx, ok := payload.Blocks[0].(*slack.ContextBlock)
	if !ok {
		t.Fatalf("expected context block, got %T", payload.Blocks[0])
	}
	text, ok := ctx.ContextElements.Elements[0].(*slack.TextBlockObject)
	if !ok {
		t.Fatalf("expected text element, got %T", ctx.ContextElements.Elements[0])
	}
	if text.Text != FallbackGlyph {
		t.Fatalf("expected fallback glyph %q, got %q", FallbackGlyph, text.Text)
	}
}

func TestGlyphTable(t *testing.T) {
	if Glyph("check") == FallbackGlyph {
		t.Fatalf("known icon must not fall back")
	}
	if Glyph("definitely-unknown") != FallbackGlyph {
		t.Fatalf("unknown icon must fall back")
	}
}

func TestRenderProgressBar(t *testing.T) {
	s := &surface.Surface{
		ID: "s1",
		Nodes: map[string]*surface.Node{
			"p": {NodeKind: surface.NodeProgress, Value: surface.Lit(float64(60))},
		},
		DataModel: map[string]any{},
	}
	payload := renderSurface(t, s)
	if !strings.Contains(payload.Text, "60%") {
		t.Fatalf("expected 60%% in %q", payload.Text)
	}
	if !strings.Contains(payload.Text, "█") || !strings.Contains(payload.Text, "░") {
		t.Fatalf("expected a bar in %q", payload.Text)
	}
}

func TestRenderProgressRejectsNonNumeric(t *testing.T) {
	s := &surface.Surface{
		ID: "s1",
		Nodes: map[string]*surface.Node{
			"p": {NodeKind: surface.NodeProgress, Value: surface.Lit("fast")},
		},
		DataModel: map[string]any{},
	}
	if _, err := NewRenderer().Render(s); err == nil {
		t.Fatalf("expected non-numeric progress to fail")
	}
}

func TestRenderButtonCarriesIDs(t *testing.T) {
	s := &surface.Surface{
		ID: "surf-9",
		Nodes: map[string]*surface.Node{
			"btn-1": {
				NodeKind: surface.NodeButton,
				Label:    surface.Lit("Go"),
				Action:   &surface.Action{Name: "go"},
			},
		},
		DataModel: map[string]any{},
	}
	payload := renderSurface(t, s)
	actions, ok := payload.Blocks[0].(*slack.ActionBlock)
	if !ok {
		t.Fatalf("expected actions block, got %T", payload.Blocks[0])
	}
	button, ok := actions.Elements.ElementSet[0].(*slack.ButtonBlockElement)
	if !ok {
		t.Fatalf("expected button element, got %T", actions.Elements.ElementSet[0])
	}
	if button.ActionID != "btn-1" || button.Value != "surf-9" {
		t.Fatalf("expected node id as action id and surface id as value, got %q/%q", button.ActionID, button.Value)
	}
	if button.Text.Text != "Go" {
		t.Fatalf("expected label Go, got %q", button.Text.Text)
	}
}

func TestRenderCardAndColumnLayout(t *testing.T) {
	s := &surface.Surface{
		ID: "s1",
		Nodes: map[string]*surface.Node{
			"card": {
				NodeKind: surface.NodeCard,
				Title:    surface.Lit("Status"),
				Children: []string{"col"},
			},
			"col": {NodeKind: surface.NodeColumn, Children: []string{"t1", "d", "t2"}},
			"t1":  {NodeKind: surface.NodeText, Value: surface.Lit("first")},
			"d":   {NodeKind: surface.NodeDivider},
			"t2":  {NodeKind: surface.NodeText, Value: surface.Lit("second")},
		},
		DataModel: map[string]any{},
	}
	payload := renderSurface(t, s)
	// title, first, divider, second, trailing card divider
	if len(payload.Blocks) != 5 {
		t.Fatalf("expected 5 blocks, got %d", len(payload.Blocks))
	}
	if payload.Text != "*Status*\nfirst\nsecond" {
		t.Fatalf("unexpected fallback text %q", payload.Text)
	}
}

func TestRenderRowGroupsInlineAndButtons(t *testing.T) {
	s := &surface.Surface{
		ID: "s1",
		Nodes: map[string]*surface.Node{
			"row": {NodeKind: surface.NodeRow, Children: []string{"i", "t", "b1", "b2"}},
			"i":   {NodeKind: surface.NodeIcon, Value: surface.Lit("check")},
			"t":   {NodeKind: surface.NodeText, Value: surface.Lit("done")},
			"b1":  {NodeKind: surface.NodeButton, Label: surface.Lit("A"), Action: &surface.Action{Name: "a"}},
			"b2":  {NodeKind: surface.NodeButton, Label: surface.Lit("B"), Action: &surface.Action{Name: "b"}},
		},
		DataModel: map[string]any{},
	}
	payload := renderSurface(t, s)
	if len(payload.Blocks) != 2 {
		t.Fatalf("expected context + actions blocks, got %d", len(payload.Blocks))
	}
	ctx, ok := payload.Blocks[0].(*slack.ContextBlock)
	if !ok {
		t.Fatalf("expected context block first, got %T", payload.Blocks[0])
	}
	if len(ctx.ContextElements.Elements) != 2 {
		t.Fatalf("expected 2 inline elements, got %d", len(ctx.ContextElements.Elements))
	}
	actions, ok := payload.Blocks[1].(*slack.ActionBlock)
	if !ok {
		t.Fatalf("expected actions block second, got %T", payload.Blocks[1])
	}
	if len(actions.Elements.ElementSet) != 2 {
		t.Fatalf("expected 2 buttons, got %d", len(actions.Elements.ElementSet))
	}
}

func TestRenderImageBlock(t *testing.T) {
	s := &surface.Surface{
		ID: "s1",
		Nodes: map[string]*surface.Node{
			"img": {
				NodeKind: surface.NodeImage,
				Source:   surface.Lit("https://example.com/a.png"),
				Alt:      surface.Lit("a chart"),
			},
		},
		DataModel: map[string]any{},
	}
	payload := renderSurface(t, s)
	img, ok := payload.Blocks[0].(*slack.ImageBlock)
	if !ok {
		t.Fatalf("expected image block, got %T", payload.Blocks[0])
	}
	if img.ImageURL != "https://example.com/a.png" || img.AltText != "a chart" {
		t.Fatalf("unexpected image block %+v", img)
	}
}

func TestRenderCyclicChildrenFails(t *testing.T) {
	s := &surface.Surface{
		ID: "s1",
		Nodes: map[string]*surface.Node{
			"r": {NodeKind: surface.NodeCard, Title: surface.Lit("loop"), Children: []string{"a"}},
			"a": {NodeKind: surface.NodeColumn, Children: []string{"b"}},
			"b": {NodeKind: surface.NodeColumn, Children: []string{"a"}},
		},
		DataModel: map[string]any{},
	}
	// Readiness tolerates the cycle; the renderer must reject it instead of
	// recursing without bound.
	if !surface.Ready(s) {
		t.Fatalf("cyclic surface should still be ready")
	}
	if _, err := NewRenderer().Render(s); err == nil {
		t.Fatalf("expected cyclic children to be a render error")
	}
}

func TestRenderDeterministic(t *testing.T) {
	s := &surface.Surface{
		ID: "s1",
		Nodes: map[string]*surface.Node{
			"b": {NodeKind: surface.NodeText, Value: surface.Lit("beta")},
			"a": {NodeKind: surface.NodeText, Value: surface.Lit("alpha")},
			"c": {NodeKind: surface.NodeIcon, Value: surface.Lit("star")},
		},
		DataModel: map[string]any{},
	}
	first, err := NewRenderer().Render(s)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	second, err := NewRenderer().Render(s)
	if err != nil {
		t.Fatalf("Render(repeat) error = %v", err)
	}
	a, _ := first.CanonicalJSON()
	b, _ := second.CanonicalJSON()
	if string(a) != string(b) {
		t.Fatalf("render must be deterministic:\n%s\n%s", a, b)
	}
}

func TestRenderEmptySurfaceFails(t *testing.T) {
	s := &surface.Surface{ID: "s1", Nodes: map[string]*surface.Node{}, DataModel: map[string]any{}}
	if _, err := NewRenderer().Render(s); !errors.Is(err, ErrEmptySurface) {
		t.Fatalf("expected ErrEmptySurface, got %v", err)
	}
}

func TestRenderTruncatesLongText(t *testing.T) {
	long := strings.Repeat("x", MaxTextLength+500)
	payload := renderSurface(t, textSurface(long))
	if !payload.Truncated {
		t.Fatalf("expected payload to be marked truncated")
	}
	if got := len([]rune(payload.Text)); got > MaxTextLength {
		t.Fatalf("fallback text exceeds budget: %d runes", got)
	}
	if !strings.HasSuffix(payload.Text, "…") {
		t.Fatalf("expected ellipsis at truncation point")
	}
}

func TestRenderDropsBlocksPastCap(t *testing.T) {
	nodes := map[string]*surface.Node{}
	for i := 0; i < MaxBlocks+10; i++ {
		id := string(rune('a'+i%26)) + strings.Repeat("z", i/26+1)
		nodes[id] = &surface.Node{NodeKind: surface.NodeDivider}
	}
	s := &surface.Surface{ID: "s1", Nodes: nodes, DataModel: map[string]any{}}
	payload := renderSurface(t, s)
	if len(payload.Blocks) != MaxBlocks {
		t.Fatalf("expected block cap %d, got %d", MaxBlocks, len(payload.Blocks))
	}
	if !payload.Truncated {
		t.Fatalf("expected payload to be marked truncated")
	}
}

func TestPayloadValidate(t *testing.T) {
	payload := renderSurface(t, textSurface("ok"))
	if err := payload.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	empty := &Payload{}
	if err := empty.Validate(); !errors.Is(err, ErrEmptySurface) {
		t.Fatalf("expected ErrEmptySurface, got %v", err)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got, cut := truncateRunes("héllo", 10); got != "héllo" || cut {
		t.Fatalf("short string must pass through, got %q cut=%v", got, cut)
	}
	got, cut := truncateRunes("héllo wörld", 5)
	if !cut {
		t.Fatalf("expected truncation")
	}
	if len([]rune(got)) != 5 || !strings.HasSuffix(got, "…") {
		t.Fatalf("unexpected truncation result %q", got)
	}
}
