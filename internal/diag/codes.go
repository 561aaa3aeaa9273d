package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// declaration conventions
	ConvInfo             Code = 1000
	VisibilityError      Code = 1001
	ShapeError           Code = 1002
	PairingError         Code = 1003
	UnsupportedItemError Code = 1004

	// directives
	DirInfo         Code = 2000
	DirUnknown      Code = 2001
	DirConflict     Code = 2002
	DirMisplaced    Code = 2003
	DirUnsafeOrphan Code = 2004

	// input / output
	IOInfo          Code = 3000
	IOLoadFileError Code = 3001
	IOSyntaxError   Code = 3002
	IOFormatError   Code = 3003
)

var codeName = map[Code]string{
	UnknownCode:          "UnknownError",
	ConvInfo:             "ConventionInfo",
	VisibilityError:      "VisibilityError",
	ShapeError:           "ShapeError",
	PairingError:         "PairingError",
	UnsupportedItemError: "UnsupportedItemError",
	DirInfo:              "DirectiveInfo",
	DirUnknown:           "UnknownDirective",
	DirConflict:          "ConflictingDirectives",
	DirMisplaced:         "MisplacedDirective",
	DirUnsafeOrphan:      "UnsafeWithoutIntent",
	IOInfo:               "IOInfo",
	IOLoadFileError:      "LoadFileError",
	IOSyntaxError:        "SyntaxError",
	IOFormatError:        "FormatError",
}

// ID returns the stable identifier used in every output format.
func (c Code) ID() string {
	return fmt.Sprintf("PLB%04d", uint16(c))
}

// Title returns the human-readable name of the code.
func (c Code) Title() string {
	if name, ok := codeName[c]; ok {
		return name
	}
	return codeName[UnknownCode]
}

func (c Code) String() string {
	return c.ID()
}
