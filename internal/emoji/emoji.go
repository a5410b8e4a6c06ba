package emoji

// EmojiMap holds emoji and fallback mappings
var emojiMap = map[string][2]string{
	// [emoji, fallback]
	"error":      {"❌", "[ERR]"},
	"warning":    {"⚠️", "[WRN]"},
	"info":       {"ℹ️", "[INF]"},
	"success":    {"✅", "[OK]"},
	"pattern":    {"🔍", "[PAT]"},
	"statistics": {"📊", "[STATS]"},
	"graph":      {"📈", "[GRAPH]"},
	"filter":     {"🧹", "[FLT]"},
	"host":       {"🖥️", "[HOST]"},
	"daemon":     {"⚙️", "[DMN]"},
	"words":      {"🔤", "[WRD]"},
	"template":   {"🧩", "[TPL]"},
	"clock":      {"🕒", "[TIME]"},
	"file":       {"📄", "[FILE]"},
	"rocket":     {"🚀", "[LOG]"},
	"help":       {"❓", "[?]"},
	"door":       {"🚪", "[EXIT]"},
	"number":     {"🔢", "[#]"},
}

var emojiDisabled bool

// SetEmojiDisabled sets the global emoji disabled state
func SetEmojiDisabled(disabled bool) {
	emojiDisabled = disabled
}

// IsEmojiDisabled returns the current emoji disabled state
func IsEmojiDisabled() bool {
	return emojiDisabled
}

// GetEmoji returns emoji or fallback based on no-emoji setting
func GetEmoji(key string) string {
	if mapping, exists := emojiMap[key]; exists {
		if emojiDisabled {
			return mapping[1] // fallback
		}
		return mapping[0] // emoji
	}
	return "[?]" // unknown key
}

// ForMode returns the symbol used to title a grouping mode's output
func ForMode(mode string) string {
	switch mode {
	case "daemon", "host", "words", "template", "graph":
		return GetEmoji(mode)
	default:
		return GetEmoji("pattern")
	}
}
