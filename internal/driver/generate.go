package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"plbind/internal/abi"
	"plbind/internal/decl"
	"plbind/internal/diag"
	"plbind/internal/directive"
	"plbind/internal/manifest"
	"plbind/internal/pipeline"
	"plbind/internal/project"
	"plbind/internal/source"
	"plbind/internal/trace"
)

// Options configures a generation run.
type Options struct {
	ABI abi.Config
	// Jobs bounds the number of files processed at once; zero means
	// GOMAXPROCS.
	Jobs int
	// CgoImport adds `import "C"` to files that gain an exported function.
	CgoImport bool
	// MaxDiagnostics caps the diagnostics kept per file; zero keeps all.
	MaxDiagnostics int
	Cache          *DiskCache
	Progress       ProgressSink
	// BaseDir anchors relative file names in manifests.
	BaseDir string
}

// FileResult is the outcome of one source file.
type FileResult struct {
	Path    string
	FileID  source.FileID
	Package string
	// Output is the rewritten file; nil when any declaration was rejected
	// or the file could not be loaded or parsed.
	Output   []byte
	Changed  bool
	Accepted int
	Rejected int
	Entries  []manifest.Entry
	// Seen lists every annotated declaration in source order.
	Seen   []directive.Entry
	Bag    *diag.Bag
	Cached bool
}

// OK reports whether the file produced output.
func (r *FileResult) OK() bool {
	return r.Output != nil
}

// Result aggregates a run over many files.
type Result struct {
	FileSet *source.FileSet
	Files   []*FileResult
	// Registry holds the annotated declarations of every file.
	Registry *directive.Registry
	Elapsed  time.Duration
}

// HasErrors reports whether any file carries an error diagnostic.
func (r *Result) HasErrors() bool {
	for _, f := range r.Files {
		if f.Bag.HasErrors() {
			return true
		}
	}
	return false
}

// Diagnostics returns every diagnostic, file by file in input order.
func (r *Result) Diagnostics() []*diag.Diagnostic {
	var out []*diag.Diagnostic
	for _, f := range r.Files {
		out = append(out, f.Bag.Items()...)
	}
	return out
}

// Counts returns the number of accepted and rejected declarations.
func (r *Result) Counts() (accepted, rejected int) {
	for _, f := range r.Files {
		accepted += f.Accepted
		rejected += f.Rejected
	}
	return accepted, rejected
}

// Manifest collects the entries of every file that produced output.
func (r *Result) Manifest(cfg abi.Config) *manifest.Manifest {
	m := manifest.New(cfg)
	for _, f := range r.Files {
		if f.OK() {
			m.Entries = append(m.Entries, f.Entries...)
		}
	}
	m.Sort()
	return m
}

// Generate loads every Go file under paths and processes it. Per-file
// failures are reported as diagnostics; the returned error covers only
// failures that stop the whole run.
func Generate(ctx context.Context, paths []string, opts Options) (*Result, error) {
	files, err := CollectFiles(ctx, paths)
	if err != nil {
		return nil, err
	}
	fs := source.NewFileSetWithBase(opts.BaseDir)
	ids := make([]source.FileID, len(files))
	loadErrs := make(map[int]error)
	for i, p := range files {
		emit(opts.Progress, Event{File: p, Stage: StageLoad, Status: StatusQueued})
		id, loadErr := fs.Load(p)
		if loadErr != nil {
			loadErrs[i] = loadErr
			ids[i] = NoFile
			continue
		}
		ids[i] = id
	}
	res := GenerateFiles(ctx, fs, ids, opts)
	for i, loadErr := range loadErrs {
		fr := res.Files[i]
		fr.Path = files[i]
		fr.Bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{File: NoFile},
			fmt.Sprintf("cannot read '%s': %v", files[i], loadErr)))
		emit(opts.Progress, Event{File: files[i], Stage: StageLoad, Status: StatusError, Err: loadErr})
	}
	return res, ctx.Err()
}

// NoFile marks an input slot without a loaded file.
const NoFile = ^source.FileID(0)

// GenerateFiles processes files already held by fs. IDs that fs does not
// hold yield empty result slots, which callers fill with their own
// diagnostics.
func GenerateFiles(ctx context.Context, fs *source.FileSet, ids []source.FileID, opts Options) *Result {
	opts.ABI = opts.ABI.Normalize()
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "generate", trace.CurrentSpan(ctx)).
		WithExtra("files", fmt.Sprint(len(ids)))
	ctx = trace.WithSpan(ctx, span)
	start := time.Now()

	out := &Result{FileSet: fs, Files: make([]*FileResult, len(ids)), Registry: directive.NewRegistry()}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, id := range ids {
		out.Files[i] = &FileResult{FileID: id, Bag: diag.NewBag(opts.MaxDiagnostics)}
		if fs.Get(id) == nil {
			continue
		}
		slot := out.Files[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			processFile(gctx, fs, slot, opts)
			for _, e := range slot.Seen {
				out.Registry.Add(e)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		span.Fail(err)
	} else {
		accepted, rejected := out.Counts()
		span.End(fmt.Sprintf("accepted=%d rejected=%d", accepted, rejected))
	}
	out.Elapsed = time.Since(start)
	return out
}

func processFile(ctx context.Context, fs *source.FileSet, fr *FileResult, opts Options) {
	src := fs.Get(fr.FileID)
	fr.Path = src.Path
	start := time.Now()
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeFile, "file", trace.CurrentSpan(ctx)).WithExtra("path", src.Path)
	ctx = trace.WithSpan(ctx, span)

	relPath := src.FormatPath("relative", fs.BaseDir())
	key := CacheKey(src.Hash, opts)
	var payload DiskPayload
	if hit, err := opts.Cache.Get(key, &payload); err == nil && hit {
		restore(fr, &payload, relPath)
		span.End("cached")
		emit(opts.Progress, Event{File: fr.Path, Stage: StageGenerate, Status: StatusCached, Elapsed: time.Since(start)})
		return
	}

	emit(opts.Progress, Event{File: fr.Path, Stage: StageParse, Status: StatusWorking})
	file := decl.Parse(fs, fr.FileID, opts.ABI)
	fr.Package = file.Package
	for _, d := range file.Diags {
		fr.Bag.Add(d)
	}
	if file.HasSyntaxErrors() {
		finishFile(fr, span, opts, start, errors.New("syntax error"))
		return
	}

	emit(opts.Progress, Event{File: fr.Path, Stage: StageGenerate, Status: StatusWorking})
	var (
		reps    []replacement
		imports []string
		export  bool
	)
	for _, d := range file.Items {
		ds := trace.Begin(tracer, trace.ScopeDecl, "decl", span.ID()).WithExtra("name", d.Name)
		res := pipeline.Run(opts.ABI, d.Marker.Intent, d)
		fr.Seen = append(fr.Seen, directive.Entry{
			Intent: d.Marker.Intent, Name: d.Name, Path: fr.Path, Span: d.NameSpan, Accepted: res.Accepted(),
		})
		if !res.Accepted() {
			fr.Rejected++
			fr.Bag.Add(res.Diag)
			ds.Fail(res.Diag)
			continue
		}
		fr.Accepted++
		ds.End(d.Marker.Intent.String())
		reps = append(reps, replacement{
			start: int(d.ReplaceSpan.Start),
			end:   int(d.ReplaceSpan.End),
			text:  res.Output.Text,
		})
		imports = append(imports, res.Output.Imports...)
		export = export || res.Decl.Attrs.Export
		fr.Entries = append(fr.Entries, manifest.FromDecl(file.Package, relPath, d.Marker.Intent, res.Decl, opts.ABI))
	}

	if fr.Bag.HasErrors() {
		fr.Entries = nil
		finishFile(fr, span, opts, start, errors.New("declarations rejected"))
		storeCache(opts.Cache, key, fr)
		return
	}
	if len(reps) == 0 {
		fr.Output = src.Content
		finishFile(fr, span, opts, start, nil)
		storeCache(opts.Cache, key, fr)
		return
	}

	emit(opts.Progress, Event{File: fr.Path, Stage: StageFormat, Status: StatusWorking})
	formatted, err := finalize(src.Path, splice(src.Content, reps), imports, opts.CgoImport && export)
	if err != nil {
		fr.Entries = nil
		fr.Bag.Add(diag.NewError(diag.IOFormatError, source.Span{File: fr.FileID},
			fmt.Sprintf("generated code for '%s' does not format: %v", fr.Path, err)))
		finishFile(fr, span, opts, start, err)
		return
	}
	fr.Output = formatted
	fr.Changed = string(formatted) != string(src.Content)
	finishFile(fr, span, opts, start, nil)
	storeCache(opts.Cache, key, fr)
}

func finishFile(fr *FileResult, span *trace.Span, opts Options, start time.Time, err error) {
	elapsed := time.Since(start)
	if err != nil {
		span.Fail(err)
		emit(opts.Progress, Event{File: fr.Path, Stage: StageGenerate, Status: StatusError, Err: err, Elapsed: elapsed})
		return
	}
	span.End(fmt.Sprintf("accepted=%d", fr.Accepted))
	emit(opts.Progress, Event{File: fr.Path, Stage: StageGenerate, Status: StatusDone, Elapsed: elapsed})
}

func storeCache(c *DiskCache, key project.Digest, fr *FileResult) {
	if c == nil {
		return
	}
	payload := &DiskPayload{
		Schema:   diskCacheSchemaVersion,
		Package:  fr.Package,
		Output:   fr.Output,
		Changed:  fr.Changed,
		Accepted: fr.Accepted,
		Rejected: fr.Rejected,
		Diags:    toCachedDiags(fr.Bag.Items()),
	}
	// The key ignores the path, so identical files share a payload.
	for _, e := range fr.Entries {
		e.File = ""
		payload.Entries = append(payload.Entries, e)
	}
	for _, e := range fr.Seen {
		payload.Seen = append(payload.Seen, CachedItem{
			Intent: uint8(e.Intent), Name: e.Name, Start: e.Span.Start, End: e.Span.End, Accepted: e.Accepted,
		})
	}
	// A failed write only costs a future cache miss.
	_ = c.Put(key, payload)
}

func restore(fr *FileResult, p *DiskPayload, relPath string) {
	fr.Cached = true
	fr.Package = p.Package
	fr.Output = p.Output
	fr.Changed = p.Changed
	fr.Accepted = p.Accepted
	fr.Rejected = p.Rejected
	fr.Entries = p.Entries
	for i := range fr.Entries {
		fr.Entries[i].File = relPath
	}
	for _, d := range fromCachedDiags(fr.FileID, p.Diags) {
		fr.Bag.Add(d)
	}
	for _, it := range p.Seen {
		fr.Seen = append(fr.Seen, directive.Entry{
			Intent:   directive.Intent(it.Intent),
			Name:     it.Name,
			Path:     fr.Path,
			Span:     source.Span{File: fr.FileID, Start: it.Start, End: it.End},
			Accepted: it.Accepted,
		})
	}
}
