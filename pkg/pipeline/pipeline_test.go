package pipeline

import (
	"context"
	stderrors "errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/modelir/pkg/cache"
	"github.com/matzehuels/modelir/pkg/errors"
	modelio "github.com/matzehuels/modelir/pkg/io"
	"github.com/matzehuels/modelir/pkg/ir"
	"github.com/matzehuels/modelir/pkg/ir/rewrite"
	"github.com/matzehuels/modelir/pkg/observability"
)

func gemmModel(t *testing.T) []byte {
	t.Helper()
	g := ir.NewGraph("dense")
	g.AddInput(ir.ValueInfo{Name: "x", DataType: ir.Float, Shape: []int64{1, 2}})
	g.AddInitializer(ir.NewFloatTensor("w", []int64{2, 2}, []float32{1, 2, 3, 4}))
	g.AddInitializer(ir.NewFloatTensor("b", []int64{2}, []float32{0, 1}))
	g.AddInitializer(ir.NewFloatTensor("spare", []int64{1}, []float32{0}))
	g.AddOutput(ir.ValueInfo{Name: "y"})
	g.AddNode(ir.NewNode("Gemm", "fc", []string{"x", "w", "b"}, []string{"y"}))

	data, err := modelio.Encode(ir.NewModel(g, ir.OpsetImport{Version: 13}))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return data
}

func cycleModel(t *testing.T) []byte {
	t.Helper()
	g := ir.NewGraph("loop")
	g.AddOutput(ir.ValueInfo{Name: "a"})
	g.AddNode(ir.NewNode("Relu", "a", []string{"b"}, []string{"a"}))
	g.AddNode(ir.NewNode("Relu", "b", []string{"a"}, []string{"b"}))

	data, err := modelio.Encode(ir.NewModel(g))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return data
}

func fileRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	return NewRunner(c, nil, nil)
}

func TestOptionsDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}

	if !slices.Equal(opts.Passes, rewrite.DefaultPassNames()) {
		t.Errorf("Passes = %v, want %v", opts.Passes, rewrite.DefaultPassNames())
	}
	if opts.CacheTTL != cache.ResultTTL {
		t.Errorf("CacheTTL = %v, want %v", opts.CacheTTL, cache.ResultTTL)
	}
	if opts.Logger == nil {
		t.Error("Logger not defaulted")
	}
}

func TestValidatePasses(t *testing.T) {
	tests := []struct {
		name    string
		passes  []string
		wantErr bool
	}{
		{"defaults", rewrite.DefaultPassNames(), false},
		{"single", []string{rewrite.PassRemoveConstants}, false},
		{"repeated", []string{rewrite.PassRemoveConstants, rewrite.PassRemoveConstants}, false},
		{"unknown", []string{"fold-batchnorm"}, true},
		{"malformed", []string{"Lower_Gemm"}, true},
		{"empty name", []string{""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePasses(tt.passes)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePasses(%v) error = %v, wantErr %v", tt.passes, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidPass) {
				t.Errorf("error code = %s, want INVALID_PASS", errors.GetCode(err))
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"dot", false},
		{"pdf", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestExecute(t *testing.T) {
	r := fileRunner(t)
	defer r.Close()

	res, err := r.Execute(context.Background(), gemmModel(t), Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if res.CacheHit {
		t.Error("first run reported a cache hit")
	}
	want := Stats{NodesBefore: 1, NodesAfter: 2, InitializersBefore: 3, InitializersAfter: 2}
	if res.Stats != want {
		t.Errorf("Stats = %+v, want %+v", res.Stats, want)
	}
	if len(res.Passes) != 2 {
		t.Fatalf("Passes = %d entries, want 2", len(res.Passes))
	}
	if res.Passes[0].Name != rewrite.PassLowerGemm || res.Passes[0].Result.GemmsLowered != 1 {
		t.Errorf("Passes[0] = %+v, want one Gemm lowered", res.Passes[0])
	}
	if res.Passes[1].Result.InitializersRemoved != 1 {
		t.Errorf("Passes[1] = %+v, want one initializer removed", res.Passes[1])
	}
	if !ir.IsTopologicallySorted(res.Model.Graph) {
		t.Error("result graph is not sorted")
	}

	decoded, err := modelio.Decode(res.Encoded)
	if err != nil {
		t.Fatalf("Decode(Encoded) error = %v", err)
	}
	if decoded.Graph.NodeCount() != 2 {
		t.Errorf("encoded graph has %d nodes, want 2", decoded.Graph.NodeCount())
	}
	if res.RunID.String() == "" || res.InputHash == "" {
		t.Error("RunID or InputHash not set")
	}
}

func TestExecute_Cache(t *testing.T) {
	r := fileRunner(t)
	defer r.Close()
	ctx := context.Background()
	data := gemmModel(t)

	first, err := r.Execute(ctx, data, Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	second, err := r.Execute(ctx, data, Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !second.CacheHit {
		t.Error("second run missed the cache")
	}
	if string(second.Encoded) != string(first.Encoded) {
		t.Error("cached document differs from the computed one")
	}
	if second.Stats.NodesAfter != 2 || len(second.Passes) != 0 {
		t.Errorf("cache hit result = %+v", second)
	}
	if second.RunID == first.RunID {
		t.Error("RunID reused across runs")
	}

	refreshed, err := r.Execute(ctx, data, Options{Refresh: true})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if refreshed.CacheHit {
		t.Error("Refresh read from the cache")
	}

	other, err := r.Execute(ctx, data, Options{Passes: []string{rewrite.PassRemoveConstants}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if other.CacheHit {
		t.Error("different pass list shared a cache entry")
	}
	if other.Stats.NodesAfter != 1 {
		t.Errorf("NodesAfter = %d, want the Gemm kept", other.Stats.NodesAfter)
	}
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name string
		data func(t *testing.T) []byte
		opts Options
		code errors.Code
	}{
		{"malformed json", func(*testing.T) []byte { return []byte("{") }, Options{}, errors.ErrCodeInvalidFormat},
		{"unknown pass", gemmModel, Options{Passes: []string{"fuse-conv"}}, errors.ErrCodeInvalidPass},
		{"cycle", cycleModel, Options{}, errors.ErrCodeCycle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunner(nil, nil, nil)
			_, err := r.Execute(context.Background(), tt.data(t), tt.opts)
			if err == nil {
				t.Fatal("Execute() succeeded, want error")
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("error code = %s, want %s", got, tt.code)
			}
		})
	}
}

func TestExecute_CycleWrapsSentinel(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	_, err := r.Execute(context.Background(), cycleModel(t), Options{})
	if !stderrors.Is(err, ir.ErrCycle) {
		t.Errorf("Execute() error = %v, want ir.ErrCycle in chain", err)
	}
}

func TestExecute_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(nil, nil, nil)
	if _, err := r.Execute(ctx, gemmModel(t), Options{}); !stderrors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestRender_DOT(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), gemmModel(t), Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	dot, err := r.Render(context.Background(), res.Model, RenderOptions{Format: FormatDOT, RankDir: "LR"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for _, want := range []string{"rankdir=LR", `label="MatMul\nfc_MatMul"`, `label="Add\nfc_Add"`} {
		if !strings.Contains(string(dot), want) {
			t.Errorf("Render() output missing %q", want)
		}
	}
}

func TestRender_InvalidOptions(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	m := ir.NewModel(ir.NewGraph("g"))

	tests := []struct {
		name string
		opts RenderOptions
	}{
		{"format", RenderOptions{Format: "pdf"}},
		{"rankdir", RenderOptions{RankDir: "BT"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Render(context.Background(), m, tt.opts)
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("Render() error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestRender_SVGCached(t *testing.T) {
	r := fileRunner(t)
	defer r.Close()
	ctx := context.Background()
	m := ir.NewModel(ir.NewGraph("g"))
	m.Graph.AddInput(ir.ValueInfo{Name: "x"})
	m.Graph.AddOutput(ir.ValueInfo{Name: "y"})
	m.Graph.AddNode(ir.NewNode("Relu", "act", []string{"x"}, []string{"y"}))

	svg, err := r.Render(ctx, m, RenderOptions{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Fatal("Render() did not produce SVG")
	}

	key := r.Keyer.ArtifactKey(cacheHash(t, m), cache.ArtifactKeyOpts{Format: FormatSVG})
	if _, hit, _ := r.Cache.Get(ctx, key); !hit {
		t.Error("rendered SVG not cached")
	}
}

func cacheHash(t *testing.T, m *ir.Model) string {
	t.Helper()
	data, err := modelio.Encode(m)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return cache.Hash(data)
}

func TestNewRunner_Defaults(t *testing.T) {
	r := NewRunner(nil, nil, nil)

	if r.Logger == nil || r.Logger == log.Default() {
		t.Error("NewRunner(nil logger) should use a discard logger, not the default logger")
	}
	if _, ok := r.Cache.(*cache.NullCache); !ok {
		t.Errorf("Cache = %T, want *cache.NullCache", r.Cache)
	}
	if r.Keyer == nil {
		t.Error("Keyer = nil, want the default keyer")
	}
}

type passRecorder struct {
	observability.NoopPipelineHooks
	changes map[string]int
}

func (p *passRecorder) OnPassComplete(_ context.Context, pass string, changes int, _ time.Duration) {
	p.changes[pass] = changes
}

func TestRunPass_ReportsEveryChange(t *testing.T) {
	rec := &passRecorder{changes: map[string]int{}}
	observability.SetPipelineHooks(rec)
	t.Cleanup(observability.Reset)

	g := ir.NewGraph("dense")
	g.AddInput(ir.ValueInfo{Name: "x"})
	g.AddInitializer(ir.NewFloatTensor("w", []int64{2, 2}, []float32{1, 2, 3, 4}))
	g.AddOutput(ir.ValueInfo{Name: "y"})
	g.AddNode(ir.NewNode("Gemm", "fc", []string{"x", "w"}, []string{"y"}, ir.IntAttr("transB", 1)))

	stat := RunPass(context.Background(), g, rewrite.PassLowerGemm)

	want := rewrite.Result{GemmsLowered: 1, WeightsTransposed: 1}
	if stat.Result != want {
		t.Fatalf("RunPass() result = %+v, want %+v", stat.Result, want)
	}
	if got := rec.changes[rewrite.PassLowerGemm]; got != 2 {
		t.Errorf("OnPassComplete changes = %d, want 2", got)
	}
}
