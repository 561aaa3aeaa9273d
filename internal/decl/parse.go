package decl

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"

	"plbind/internal/abi"
	"plbind/internal/diag"
	"plbind/internal/directive"
	"plbind/internal/source"
)

// File is one parsed source file with its annotated declarations.
type File struct {
	ID      source.FileID
	Path    string
	Package string
	Fset    *token.FileSet
	AST     *ast.File
	// Items are the annotated declarations in source order.
	Items []*Declaration
	// Diags holds syntax errors and directive diagnostics.
	Diags []*diag.Diagnostic
}

// HasSyntaxErrors reports whether the file could not be parsed.
func (f *File) HasSyntaxErrors() bool {
	for _, d := range f.Diags {
		if d.Code == diag.IOSyntaxError {
			return true
		}
	}
	return false
}

type lowerer struct {
	id      source.FileID
	content []byte
	tok     *token.File
	cfg     abi.Config
	out     *File
	// consumed tracks comment groups that were read as doc comments.
	consumed map[*ast.CommentGroup]bool
}

// Parse parses the file id of fs and lowers every annotated top-level
// declaration. A file with syntax errors yields no items.
func Parse(fs *source.FileSet, id source.FileID, cfg abi.Config) *File {
	cfg = cfg.Normalize()
	src := fs.Get(id)
	if src == nil {
		return &File{ID: id}
	}
	out := &File{ID: id, Path: src.Path, Fset: token.NewFileSet()}
	astFile, err := parser.ParseFile(out.Fset, src.Path, src.Content, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		out.Diags = append(out.Diags, syntaxDiags(id, len(src.Content), err)...)
		return out
	}
	out.AST = astFile
	out.Package = astFile.Name.Name

	l := &lowerer{
		id:       id,
		content:  src.Content,
		tok:      out.Fset.File(astFile.Pos()),
		cfg:      cfg,
		out:      out,
		consumed: make(map[*ast.CommentGroup]bool),
	}
	for _, d := range astFile.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			l.lowerFunc(d)
		case *ast.GenDecl:
			l.lowerGen(d)
		}
	}
	l.reportStray(astFile)
	return out
}

func syntaxDiags(id source.FileID, size int, err error) []*diag.Diagnostic {
	var list scanner.ErrorList
	if !errors.As(err, &list) {
		return []*diag.Diagnostic{diag.NewError(diag.IOSyntaxError, source.Span{File: id}, err.Error())}
	}
	out := make([]*diag.Diagnostic, 0, len(list))
	for _, e := range list {
		off := e.Pos.Offset
		end := off + 1
		if end > size {
			end = size
		}
		out = append(out, diag.NewError(diag.IOSyntaxError, source.SpanFromOffsets(id, off, end), e.Msg))
	}
	return out
}

func (l *lowerer) span(pos, end token.Pos) source.Span {
	return source.SpanFromOffsets(l.id, l.tok.Offset(pos), l.tok.Offset(end))
}

func (l *lowerer) text(pos, end token.Pos) string {
	return string(l.content[l.tok.Offset(pos):l.tok.Offset(end)])
}

func (l *lowerer) scan(doc *ast.CommentGroup) directive.ScanResult {
	if doc == nil {
		return directive.ScanResult{}
	}
	l.consumed[doc] = true
	res := directive.Scan(doc, l.cfg.DirectivePrefix, l.span)
	l.out.Diags = append(l.out.Diags, res.Diags...)
	return res
}

// base fills the fields shared by all declaration kinds.
func (l *lowerer) base(kind Kind, name *ast.Ident, res directive.ScanResult, doc *ast.CommentGroup, pos, end token.Pos) *Declaration {
	d := &Declaration{
		Kind:   kind,
		Marker: res.Marker,
		Doc:    res.Doc,
		Text:   l.text(pos, end),
		Span:   l.span(pos, end),
	}
	if name != nil {
		d.Name = name.Name
		d.NameSpan = l.span(name.Pos(), name.End())
		if ast.IsExported(name.Name) {
			d.Visibility = Public
		}
	}
	d.ReplaceSpan = d.Span
	if doc != nil {
		d.ReplaceSpan = l.span(doc.Pos(), end)
	}
	return d
}

func (l *lowerer) lowerFunc(fd *ast.FuncDecl) {
	res := l.scan(fd.Doc)
	if !res.Found || res.Marker.Intent == directive.IntentNone {
		return
	}
	d := l.base(KindFunction, fd.Name, res, fd.Doc, fd.Pos(), fd.End())
	fn := &FuncDecl{}
	if fd.Recv != nil {
		fn.Receiver = l.text(fd.Recv.Pos(), fd.Recv.End())
	}
	if tp := fd.Type.TypeParams; tp != nil && len(tp.List) > 0 {
		fn.TypeParams = l.text(tp.Pos(), tp.End())
	}
	params := fd.Type.Params
	fn.ParamsSpan = l.span(params.Opening+1, params.Closing)
	for _, field := range params.List {
		_, variadic := field.Type.(*ast.Ellipsis)
		typeText := l.text(field.Type.Pos(), field.Type.End())
		if len(field.Names) == 0 {
			sp := l.span(field.Type.Pos(), field.Type.End())
			fn.Params = append(fn.Params, Param{
				Type: field.Type, TypeText: typeText, Span: sp, NameSpan: sp, Variadic: variadic,
			})
			continue
		}
		for _, n := range field.Names {
			fn.Params = append(fn.Params, Param{
				Name:     n.Name,
				NameSpan: l.span(n.Pos(), n.End()),
				Type:     field.Type,
				TypeText: typeText,
				Span:     l.span(n.Pos(), field.Type.End()),
				Variadic: variadic,
			})
		}
	}
	if r := fd.Type.Results; r != nil && len(r.List) > 0 {
		fn.Results = l.text(r.Pos(), r.End())
		for _, field := range r.List {
			for _, n := range field.Names {
				fn.ResultNames = append(fn.ResultNames, n.Name)
			}
		}
	}
	if fd.Body != nil {
		fn.Body = l.text(fd.Body.Pos(), fd.Body.End())
		fn.BodySpan = l.span(fd.Body.Pos(), fd.Body.End())
	}
	d.Func = fn
	l.out.Items = append(l.out.Items, d)
}

func (l *lowerer) lowerGen(gd *ast.GenDecl) {
	grouped := gd.Lparen.IsValid()
	if gd.Tok != token.TYPE {
		l.lowerOther(gd, grouped)
		return
	}
	if grouped {
		if res := l.scan(gd.Doc); res.Found {
			w := diag.New(diag.SevWarning, diag.DirMisplaced, res.Marker.Span,
				fmt.Sprintf("//%s directives on a type group are ignored; annotate each type instead", l.cfg.DirectivePrefix))
			l.out.Diags = append(l.out.Diags, &w)
		}
	}
	for _, spec := range gd.Specs {
		ts, ok := spec.(*ast.TypeSpec)
		if !ok {
			continue
		}
		doc, pos := ts.Doc, ts.Pos()
		if !grouped {
			doc, pos = gd.Doc, gd.Pos()
		}
		res := l.scan(doc)
		if !res.Found || res.Marker.Intent == directive.IntentNone {
			continue
		}
		end := ts.End()
		if !grouped {
			end = gd.End()
		}
		l.lowerType(ts, res, doc, pos, end, grouped)
	}
}

func (l *lowerer) lowerType(ts *ast.TypeSpec, res directive.ScanResult, doc *ast.CommentGroup, pos, end token.Pos, grouped bool) {
	var typeParams string
	if tp := ts.TypeParams; tp != nil && len(tp.List) > 0 {
		typeParams = l.text(tp.Pos(), tp.End())
	}
	st, isStruct := ts.Type.(*ast.StructType)
	if !isStruct || ts.Assign.IsValid() {
		d := l.base(KindAlias, ts.Name, res, doc, pos, end)
		d.Grouped = grouped
		d.Alias = &AliasDecl{
			TypeParams: typeParams,
			TypeText:   l.text(ts.Type.Pos(), ts.Type.End()),
			Assign:     ts.Assign.IsValid(),
		}
		l.out.Items = append(l.out.Items, d)
		return
	}
	d := l.base(KindStruct, ts.Name, res, doc, pos, end)
	d.Grouped = grouped
	sd := &StructDecl{
		TypeParams:  typeParams,
		FieldsSpan:  l.span(st.Fields.Opening, st.Fields.Closing+1),
		BraceOffset: l.tok.Offset(st.Fields.Opening) - l.tok.Offset(pos),
		Shape:       FieldsNamed,
	}
	for _, f := range st.Fields.List {
		fl := Field{
			TypeText: l.text(f.Type.Pos(), f.Type.End()),
			Span:     l.span(f.Pos(), f.End()),
			Embedded: len(f.Names) == 0,
		}
		for _, n := range f.Names {
			fl.Names = append(fl.Names, n.Name)
		}
		if f.Tag != nil {
			fl.Tag = f.Tag.Value
		}
		if fl.Embedded {
			sd.Shape = FieldsPositional
		}
		sd.Fields = append(sd.Fields, fl)
	}
	if len(sd.Fields) == 0 {
		sd.Shape = FieldsUnit
	}
	d.Struct = sd
	l.out.Items = append(l.out.Items, d)
}

// lowerOther records annotated import, const and var declarations so the
// validator can reject them.
func (l *lowerer) lowerOther(gd *ast.GenDecl, grouped bool) {
	docs := []*ast.CommentGroup{gd.Doc}
	if grouped {
		for _, spec := range gd.Specs {
			if vs, ok := spec.(*ast.ValueSpec); ok {
				docs = append(docs, vs.Doc)
			}
		}
	}
	for i, doc := range docs {
		res := l.scan(doc)
		if !res.Found || res.Marker.Intent == directive.IntentNone {
			continue
		}
		var name *ast.Ident
		pos, end := gd.Pos(), gd.End()
		if i > 0 {
			vs := gd.Specs[i-1].(*ast.ValueSpec)
			pos, end = vs.Pos(), vs.End()
			name = vs.Names[0]
		} else if len(gd.Specs) > 0 {
			if vs, ok := gd.Specs[0].(*ast.ValueSpec); ok {
				name = vs.Names[0]
			}
		}
		d := l.base(KindOther, name, res, doc, pos, end)
		if d.Name == "" {
			d.Name = gd.Tok.String()
			d.NameSpan = l.span(gd.TokPos, gd.TokPos+token.Pos(len(d.Name)))
		}
		d.Grouped = i > 0
		l.out.Items = append(l.out.Items, d)
	}
}

// reportStray warns about directives that are not part of any declaration's
// doc comment and therefore have no effect.
func (l *lowerer) reportStray(f *ast.File) {
	for _, group := range f.Comments {
		if l.consumed[group] {
			continue
		}
		for _, c := range group.List {
			if _, ok := directive.IsDirective(c.Text, l.cfg.DirectivePrefix); !ok {
				continue
			}
			w := diag.New(diag.SevWarning, diag.DirMisplaced, l.span(c.Pos(), c.End()),
				fmt.Sprintf("//%s directive is not attached to a top-level declaration", l.cfg.DirectivePrefix))
			l.out.Diags = append(l.out.Diags, &w)
		}
	}
}
