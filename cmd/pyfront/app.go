// # cmd/pyfront/app.go
package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"pyfront/internal/ast"
	"pyfront/internal/callgraph"
	"pyfront/internal/config"
	"pyfront/internal/diagnostics"
	"pyfront/internal/environment"
	"pyfront/internal/loader"
	"pyfront/internal/parser"
	"pyfront/internal/preprocess"
	"pyfront/internal/shared/observability"
	"pyfront/internal/shared/util"
	"pyfront/internal/watcher"
)

type App struct {
	Config *config.Config
	Parser *parser.Parser
	Loader *loader.Loader
	cache  *diagnostics.Cache
}

type Result struct {
	Sources   []*ast.Source
	Deferred  []string
	Errors    []map[string]any
	Edges     callgraph.Edges
	Overrides map[string][]string
	Partition [][]string
	RunID     string
}

func NewApp(cfg *config.Config) (*App, error) {
	l, err := loader.New(cfg.Exclude.Dirs, cfg.Exclude.Files)
	if err != nil {
		return nil, err
	}
	app := &App{
		Config: cfg,
		Parser: parser.New(),
		Loader: l,
	}
	if cfg.Cache.Path != "" {
		cache, err := diagnostics.OpenCache(cfg.Cache.Path)
		if err != nil {
			return nil, err
		}
		app.cache = cache
	}
	return app, nil
}

func (a *App) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
}

// Analyze runs the full pipeline: discover, parse, normalize, populate the
// environment, and build the call graph with its override map and partition.
func (a *App) Analyze(ctx context.Context) (*Result, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Analyze")
	defer span.End()
	started := time.Now()
	defer func() {
		observability.AnalysisDuration.WithLabelValues("analyze").Observe(time.Since(started).Seconds())
	}()

	files, err := a.Loader.Scan(a.Config.Paths)
	if err != nil {
		return nil, err
	}

	env := environment.New()
	result := &Result{Overrides: make(map[string][]string), Edges: make(callgraph.Edges)}

	parsed := a.parseAll(ctx, files, env, result)
	for _, source := range parsed {
		env.Modules.Add(source.Qualifier.Key(), toplevelExports(source))
	}
	env.Modules.Freeze()
	env.Handles.Freeze()

	pipeline := &preprocess.Pipeline{Reparser: a.Parser, Modules: env.Modules}
	normalized := a.normalizeAll(parsed, pipeline, result)
	result.Sources = normalized

	environment.Populate(env, normalized)
	// Stand-in for the external type checker: resolve call sites whose access
	// chains name defines of the analyzed sources directly. A real checker
	// replaces this with per-statement type resolution.
	bootstrapResolutions(env, normalized)
	env.Hierarchy.Freeze()
	env.Resolutions.Freeze()

	for _, source := range normalized {
		for caller, callees := range callgraph.Create(env, source) {
			result.Edges[caller] = append(result.Edges[caller], callees...)
		}
		for method, overriding := range callgraph.Overrides(env, source) {
			result.Overrides[method] = append(result.Overrides[method], overriding...)
		}
	}
	result.Partition = callgraph.Partition(result.Edges)

	if a.cache != nil {
		runID, err := a.cache.SaveRun(len(normalized), result.Errors)
		if err != nil {
			slog.Warn("failed to persist diagnostics", "error", err)
		} else {
			result.RunID = runID
		}
	}
	return result, nil
}

// parseAll parses files concurrently; parallelism is across sources only.
func (a *App) parseAll(ctx context.Context, files []loader.Discovered, env *environment.Environment, result *Result) []*ast.Source {
	type parseOutcome struct {
		source  *ast.Source
		file    loader.Discovered
		failure error
	}

	jobs := make(chan loader.Discovered)
	outcomes := make(chan parseOutcome)
	var wg sync.WaitGroup
	for i := 0; i < runtime.NumCPU(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range jobs {
				content, err := os.ReadFile(file.Path)
				if err != nil {
					outcomes <- parseOutcome{file: file, failure: err}
					continue
				}
				source, err := a.Parser.ParseModule(file.Handle, parser.QualifierForPath(file.Handle), content)
				outcomes <- parseOutcome{source: source, file: file, failure: err}
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, file := range files {
			select {
			case jobs <- file:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var parsed []*ast.Source
	for outcome := range outcomes {
		env.Handles.Add(outcome.file.Handle, outcome.file.Path)
		if outcome.failure != nil {
			slog.Warn("failed to parse file", "path", outcome.file.Path, "error", outcome.failure)
			e := diagnostics.Create(
				ast.Location{Path: outcome.file.Path, Start: ast.Position{Line: 1}},
				diagnostics.ParseFailure{Detail: outcome.failure.Error()},
				nil,
			)
			result.Errors = append(result.Errors, e.ToJSON(false))
			continue
		}
		parsed = append(parsed, outcome.source)
	}
	sort.Slice(parsed, func(i, j int) bool { return parsed[i].Handle < parsed[j].Handle })
	return parsed
}

func (a *App) normalizeAll(parsed []*ast.Source, pipeline *preprocess.Pipeline, result *Result) []*ast.Source {
	normalized := make([]*ast.Source, 0, len(parsed))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, source := range parsed {
		wg.Add(1)
		go func(source *ast.Source) {
			defer wg.Done()
			var out *ast.Source
			if a.Config.Wildcards.Force {
				out = pipeline.Preprocess(source)
			} else {
				out = pipeline.TryPreprocess(source)
			}
			mu.Lock()
			defer mu.Unlock()
			if out == nil {
				observability.SourcesDeferredTotal.Inc()
				result.Deferred = append(result.Deferred, source.Handle)
				e := diagnostics.Create(
					ast.Location{Path: source.Handle, Start: ast.Position{Line: 1}},
					diagnostics.DeferredSource{Qualifier: source.Qualifier.Key()},
					nil,
				)
				result.Errors = append(result.Errors, e.ToJSON(false))
				return
			}
			observability.SourcesProcessedTotal.Inc()
			normalized = append(normalized, out)
		}(source)
	}
	wg.Wait()
	sort.Slice(normalized, func(i, j int) bool { return normalized[i].Handle < normalized[j].Handle })
	return normalized
}

// toplevelExports lists the names a wildcard import of the module would bind.
func toplevelExports(source *ast.Source) []string {
	var out []string
	for _, statement := range source.Statements {
		name := ""
		switch s := statement.(type) {
		case *ast.Define:
			name = s.Name.Last()
		case *ast.Class:
			name = s.Name.Last()
		case *ast.Assign:
			if access, ok := s.Target.(*ast.AccessExpr); ok {
				if reference, refOK := access.AsReference(); refOK && len(reference.Names) == 1 {
					name = reference.Names[0]
				}
			}
		}
		if name != "" && !strings.HasPrefix(name, "_") {
			out = append(out, name)
		}
	}
	return out
}

// bootstrapResolutions records a Named signature for call sites that directly
// name a define or a class constructor of the analyzed sources.
func bootstrapResolutions(env *environment.Environment, sources []*ast.Source) {
	known := make(map[string]string)
	for _, source := range sources {
		for _, define := range preprocess.Defines(source, preprocess.DefinesOptions{IncludeStubs: true, IncludeNested: true}) {
			known[define.Name.Key()] = define.Name.Key()
		}
		for _, class := range preprocess.Classes(source) {
			known[class.Name.Key()] = class.Name.Key() + ".__init__"
		}
	}
	for _, source := range sources {
		for _, define := range preprocess.Defines(source, preprocess.DefinesOptions{IncludeStubs: true, IncludeNested: true}) {
			for index, statement := range define.Body {
				var sites []string
				ast.Inspect(statement, func(n ast.Node) bool {
					switch n := n.(type) {
					case nil:
						return false
					case *ast.Define, *ast.Class, *ast.Lambda:
						return false
					case *ast.AccessExpr:
						if n.IsCall() {
							sites = append(sites, n.Key())
						}
					}
					return true
				})
				for _, site := range sites {
					target := strings.TrimSuffix(site, ".(...)")
					if resolved, ok := known[target]; ok {
						env.Resolutions.AddAnnotation(define.ID, index, site, environment.SignatureElement{
							Callable: environment.Callable{Kind: environment.CallableNamed, Name: resolved},
						})
					}
				}
			}
		}
	}
}

// Report writes the analysis summary and diagnostics as JSON lines.
func (a *App) Report(w io.Writer, result *Result) {
	encoder := json.NewEncoder(w)
	for _, e := range result.Errors {
		encoder.Encode(e)
	}
	summary := map[string]any{
		"sources":    len(result.Sources),
		"deferred":   len(result.Deferred),
		"errors":     len(result.Errors),
		"edges":      edgeTotal(result.Edges),
		"components": len(result.Partition),
	}
	if result.RunID != "" {
		summary["run_id"] = result.RunID
	}
	encoder.Encode(summary)
}

func edgeTotal(edges callgraph.Edges) int {
	total := 0
	for _, callees := range edges {
		total += len(callees)
	}
	return total
}

// WatchAndServe re-runs the full analysis when sources change.
func (a *App) WatchAndServe(ctx context.Context) error {
	limiter := util.NewLimiter(a.Config.Watch.Rate, a.Config.Watch.Burst)
	w, err := watcher.New(a.Config.Watch.Debounce, limiter, a.Config.Exclude.Dirs, a.Config.Exclude.Files, func(paths []string) {
		result, err := a.Analyze(ctx)
		if err != nil {
			slog.Error("re-analysis failed", "error", err)
			return
		}
		a.Report(os.Stdout, result)
	})
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Watch(a.Config.Paths); err != nil {
		return err
	}
	slog.Info("watching for changes", "paths", a.Config.Paths)
	<-ctx.Done()
	return ctx.Err()
}
