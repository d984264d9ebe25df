package model

// Status glyphs shared by the report, TUI and web output.
// Single-width characters keep terminal columns aligned.
const (
	IconPending  = "·"
	IconArchived = "✓"
	IconFailed   = "✗"
	IconMissing  = "?"
	IconFile     = "ƒ"
	IconEmpty    = "∅"
)

// Icon picks the glyph for an item.
func (it Item) Icon() string {
	switch it.Status {
	case StatusArchived:
		return IconArchived
	case StatusFailed:
		return IconFailed
	case StatusSkipped:
		switch it.Reason {
		case SkipMissing:
			return IconMissing
		case SkipFile:
			return IconFile
		case SkipEmpty:
			return IconEmpty
		}
		return IconFailed
	}
	return IconPending
}
