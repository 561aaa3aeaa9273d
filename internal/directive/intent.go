package directive

import "strings"

// Intent is the transformation mode requested by a directive comment.
type Intent uint8

const (
	IntentNone Intent = iota
	// IntentExport exports a function under its own name with the C calling
	// convention (//plbind:export).
	IntentExport
	// IntentRecord gives a struct a C-compatible layout (//plbind:record).
	IntentRecord
	// IntentOpaque marks a struct or named type as a boundary handle (//plbind:opaque).
	IntentOpaque
	// IntentPlatypus exports a function and lowers its slice parameters to
	// pointer+length pairs (//plbind:platypus).
	IntentPlatypus
)

// UnsafeDirective marks a function as an unchecked boundary function.
const UnsafeDirective = "unsafe"

var intentNames = [...]string{
	IntentNone:     "",
	IntentExport:   "export",
	IntentRecord:   "record",
	IntentOpaque:   "opaque",
	IntentPlatypus: "platypus",
}

// Directive returns the directive name, e.g. "export".
func (i Intent) Directive() string {
	if int(i) < len(intentNames) {
		return intentNames[i]
	}
	return ""
}

func (i Intent) String() string {
	switch i {
	case IntentExport:
		return "export-function"
	case IntentRecord:
		return "export-record"
	case IntentOpaque:
		return "export-opaque"
	case IntentPlatypus:
		return "auto-slice-conversion"
	default:
		return "none"
	}
}

// ParseIntent maps a directive name to its intent.
func ParseIntent(name string) (Intent, bool) {
	name = strings.TrimSpace(name)
	for i, n := range intentNames {
		if n != "" && n == name {
			return Intent(i), true
		}
	}
	return IntentNone, false
}
