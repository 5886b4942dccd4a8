package render

import "errors"

// Platform budgets. Exceeding them is handled by truncation, not silent
// corruption: text is cut on a rune boundary with a trailing ellipsis, and
// blocks past the cap are dropped in walk order (lowest priority last). Both
// cases mark the payload as truncated.
const (
	// MaxTextLength is the total character budget across all rendered text.
	MaxTextLength = 4000

	// MaxBlocks is the platform's per-message block cap.
	MaxBlocks = 50

	// MaxButtonsPerActions is the platform's per-actions-block element cap.
	MaxButtonsPerActions = 25

	ellipsis = "…"
)

var (
	// ErrEmptySurface is returned when a surface renders to no content.
	ErrEmptySurface = errors.New("render: surface has no renderable content")

	// ErrPayloadTooLarge is returned when a payload exceeds the platform
	// budgets even after truncation.
	ErrPayloadTooLarge = errors.New("render: payload exceeds platform limits")
)

// truncateRunes cuts s to at most limit runes, appending an ellipsis when
// anything was removed. A limit too small for the ellipsis yields "".
func truncateRunes(s string, limit int) (string, bool) {
	runes := []rune(s)
	if len(runes) <= limit {
		return s, false
	}
	if limit < 1 {
		return "", true
	}
	return string(runes[:limit-1]) + ellipsis, true
}
