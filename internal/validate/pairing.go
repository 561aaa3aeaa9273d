package validate

import (
	"fmt"

	"fortio.org/safecast"

	"plbind/internal/abi"
	"plbind/internal/decl"
	"plbind/internal/diag"
	"plbind/internal/fix"
	"plbind/internal/shape"
	"plbind/internal/source"
)

// pairState is the single pending-pairing slot scanned over a parameter list.
type pairState struct {
	awaiting bool
	// name of the open array parameter and its index.
	name  string
	index int
}

func isArrayParam(p decl.Param, cfg abi.Config) bool {
	return shape.Classify(p.Type, cfg).Kind == shape.ArrayAlias
}

func isSliceParam(p decl.Param, cfg abi.Config) bool {
	return shape.Classify(p.Type, cfg).Kind == shape.SliceReference
}

// Pairs runs the pairing state machine over params and returns the index of
// the first array parameter whose pairing fails, or -1 when every array
// parameter is immediately followed by its length parameter.
func Pairs(params []decl.Param, cfg abi.Config) int {
	cfg = cfg.Normalize()
	var st pairState
	for i, p := range params {
		if st.awaiting {
			if p.Name != abi.LengthName(st.name) || !shape.IsLengthType(p.Type, cfg) {
				return st.index
			}
			st = pairState{}
			continue
		}
		if isArrayParam(p, cfg) {
			st = pairState{awaiting: true, name: p.Name, index: i}
		}
	}
	if st.awaiting {
		return st.index
	}
	return -1
}

func (v *validator) pairingMessage(arr decl.Param) string {
	return fmt.Sprintf("'%s' must be followed by %s: %s", arr.Name, abi.LengthName(arr.Name), v.cfg.LengthType)
}

// closes checks that params[i] is the length parameter of the open array
// params[open] and reports a PairingError anchored at the array otherwise.
func (v *validator) closes(params []decl.Param, open, i int) bool {
	arr, next := params[open], params[i]
	want := abi.LengthName(arr.Name)
	nameOK := next.Name == want
	typeOK := shape.IsLengthType(next.Type, v.cfg)
	if nameOK && typeOK {
		return true
	}
	b := v.report(diag.PairingError, arr.Span, "%s", v.pairingMessage(arr))
	switch {
	case isArrayParam(next, v.cfg):
		b.WithNote(next.Span, fmt.Sprintf("'%s' opens a second array while '%s' is still unpaired", next.Name, arr.Name))
		v.insertLengthFix(b, params, open)
	case nameOK:
		b.WithNote(next.Span, fmt.Sprintf("'%s' has type %s, expected %s", next.Name, next.TypeText, v.cfg.LengthType))
		if next.Type != arr.Type {
			b.WithFixSuggestion(fix.ReplaceSpan(
				fmt.Sprintf("change type of '%s' to %s", want, v.cfg.LengthType),
				typeSpan(next), v.cfg.LengthType, next.TypeText,
				fix.Preferred(),
			))
		}
	case typeOK:
		b.WithNote(next.Span, fmt.Sprintf("found '%s' instead", next.Name))
	default:
		b.WithNote(next.Span, fmt.Sprintf("found '%s %s' instead", next.Name, next.TypeText))
		v.insertLengthFix(b, params, open)
	}
	b.Emit()
	return false
}

// unclosed reports an array parameter left open at the end of the list.
func (v *validator) unclosed(params []decl.Param, open int) {
	arr := params[open]
	b := v.report(diag.PairingError, arr.Span, "%s", v.pairingMessage(arr)).
		WithNote(arr.Span, "the parameter list ends here")
	v.insertLengthFix(b, params, open)
	b.Emit()
}

// insertLengthFix suggests inserting the missing length parameter right after
// the array parameter. Grouped parameters sharing one type get no fix.
func (v *validator) insertLengthFix(b *diag.ReportBuilder, params []decl.Param, i int) {
	arr := params[i]
	if i+1 < len(params) && params[i+1].Type == arr.Type {
		return
	}
	at := source.Span{File: arr.Span.File, Start: arr.Span.End, End: arr.Span.End}
	text := fmt.Sprintf(", %s %s", abi.LengthName(arr.Name), v.cfg.LengthType)
	b.WithFixSuggestion(fix.InsertText(
		fmt.Sprintf("insert '%s %s'", abi.LengthName(arr.Name), v.cfg.LengthType),
		at, text, fix.Preferred(),
	))
}

// typeSpan is the span of the parameter's type text, which ends the
// parameter span.
func typeSpan(p decl.Param) source.Span {
	n, err := safecast.Conv[uint32](len(p.TypeText))
	if err != nil || n > p.Span.Len() {
		return p.Span
	}
	return source.Span{File: p.Span.File, Start: p.Span.End - n, End: p.Span.End}
}
