package render

// FallbackGlyph renders for icon names missing from the table.
const FallbackGlyph = "❖"

var defaultIcons = map[string]string{
	"check":    "✅",
	"cross":    "❌",
	"warning":  "⚠️",
	"error":    "🛑",
	"info":     "ℹ️",
	"question": "❓",
	"spinner":  "⏳",
	"clock":    "🕒",
	"star":     "⭐",
	"sparkles": "✨",
	"rocket":   "🚀",
	"fire":     "🔥",
	"bolt":     "⚡",
	"gear":     "⚙️",
	"lock":     "🔒",
	"unlock":   "🔓",
	"search":   "🔍",
	"folder":   "📁",
	"document": "📄",
	"chart":    "📊",
	"calendar": "📅",
	"mail":     "📧",
	"bell":     "🔔",
	"pin":      "📌",
	"link":     "🔗",
	"user":     "👤",
	"users":    "👥",
	"robot":    "🤖",
	"heart":    "❤️",
	"eyes":     "👀",
}

// Glyph maps an icon name to its glyph, falling back to FallbackGlyph for
// names not present in the table.
func Glyph(name string) string {
	if glyph, ok := defaultIcons[name]; ok {
		return glyph
	}
	return FallbackGlyph
}
