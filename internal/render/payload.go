// Package render converts a ready surface into a Slack Block Kit payload.
// Rendering is pure and deterministic: the same resolved tree always yields a
// byte-identical canonical form.
package render

import (
	"encoding/json"

	"github.com/slack-go/slack"
)

// Payload is the rendered platform message: a plain-text fallback plus an
// ordered block list, within the platform's length and block-count budgets.
type Payload struct {
	Text   string        `json:"text"`
	Blocks []slack.Block `json:"blocks"`

	// Truncated is set when the platform budgets forced content to be cut.
	Truncated bool `json:"truncated,omitempty"`
}

// CanonicalJSON returns the deterministic serialized form used for
// change detection and idempotence checks.
func (p *Payload) CanonicalJSON() ([]byte, error) {
	return json.Marshal(p)
}

// Validate checks the payload against the platform limits. Deliverers call
// this before posting so an oversized payload fails loudly instead of being
// silently corrupted by the platform.
func (p *Payload) Validate() error {
	if len(p.Blocks) == 0 {
		return ErrEmptySurface
	}
	if len(p.Blocks) > MaxBlocks {
		return ErrPayloadTooLarge
	}
	if len([]rune(p.Text)) > MaxTextLength {
		return ErrPayloadTooLarge
	}
	return nil
}
