package models

// Response modes select the server's model routing policy. Ultimate fans the
// prompt out to several models and aggregates; manual pins an exact model.
const (
	ModeGeneral  = "general"
	ModePrecise  = "precise"
	ModeTurbo    = "turbo"
	ModeUltimate = "ultimate"
	ModeManual   = "manual"
)

// ModelAuto asks the server to pick a model for the request.
const ModelAuto = "AI"

// Modes lists the valid mode names.
func Modes() []string {
	return []string{ModeGeneral, ModePrecise, ModeTurbo, ModeUltimate, ModeManual}
}

// ValidMode reports whether name is a known mode.
func ValidMode(name string) bool {
	for _, m := range Modes() {
		if m == name {
			return true
		}
	}
	return false
}

// ModeLabel returns the display label for a mode, or the raw name for
// unknown modes.
func ModeLabel(mode string) string {
	switch mode {
	case ModeGeneral:
		return "General"
	case ModePrecise:
		return "Precise"
	case ModeTurbo:
		return "Turbo"
	case ModeUltimate:
		return "Ultimate"
	case ModeManual:
		return "Manual"
	default:
		return mode
	}
}
