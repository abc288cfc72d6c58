package io

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/modelir/pkg/errors"
	"github.com/matzehuels/modelir/pkg/ir"
)

func sampleModel() *ir.Model {
	g := ir.NewGraph("mlp")
	g.AddInput(ir.ValueInfo{Name: "x", DataType: ir.Float, Shape: []int64{-1, 2}})
	g.AddOutput(ir.ValueInfo{Name: "y", DataType: ir.Float})
	g.AddInitializer(ir.NewFloatTensor("w", []int64{2, 2}, []float32{1, 2, 3, 4}))
	g.AddInitializer(ir.NewFloatTensor("b", []int64{2}, []float32{0.5, -0.5}))
	g.AddNode(ir.NewNode("Gemm", "fc", []string{"x", "w", "b"}, []string{"h"},
		ir.FloatAttr("alpha", 1),
		ir.IntAttr("transB", 1),
	))
	g.AddNode(ir.NewNode("Relu", "act", []string{"h"}, []string{"y"},
		ir.StringAttr("note", "hidden"),
		ir.IntsAttr("axes", 0, 1),
		ir.TensorAttr("value", ir.NewInt64Tensor("k", []int64{2}, []int64{7, 8})),
	))
	m := ir.NewModel(g, ir.OpsetImport{Version: 17})
	m.ProducerName = "test"
	return m
}

func TestWriteReadJSON_RoundTrip(t *testing.T) {
	m := sampleModel()

	var buf bytes.Buffer
	if err := WriteJSON(m, &buf); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	got, err := ReadJSON(&buf, "")
	if err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}

	if got.IRVersion != ir.DefaultIRVersion || got.ProducerName != "test" {
		t.Errorf("model header = %d %q", got.IRVersion, got.ProducerName)
	}
	if v, ok := got.OpsetVersion(""); !ok || v != 17 {
		t.Errorf("OpsetVersion() = %d, %v, want 17", v, ok)
	}

	g := got.Graph
	if g.Name != "mlp" || g.NodeCount() != 2 {
		t.Fatalf("graph = %q with %d nodes", g.Name, g.NodeCount())
	}
	fc, ok := g.FindNodeByName("fc", nil)
	if !ok || !slices.Equal(fc.Inputs, []string{"x", "w", "b"}) {
		t.Fatalf("fc = %+v", fc)
	}
	if fc.AttrInt("transB", 0) != 1 || fc.AttrFloat("alpha", 0) != 1 {
		t.Errorf("fc attributes = %+v", fc.Attributes)
	}
	act, _ := g.FindNodeByName("act", nil)
	if act.AttrString("note", "") != "hidden" || !slices.Equal(act.AttrInts("axes", nil), []int64{0, 1}) {
		t.Errorf("act attributes = %+v", act.Attributes)
	}
	if k := act.AttrTensor("value"); k == nil || !slices.Equal(k.Int64s(), []int64{7, 8}) {
		t.Errorf("tensor attribute = %+v", k)
	}

	w, _ := g.Initializer("w")
	if !slices.Equal(w.Floats(), []float32{1, 2, 3, 4}) || !slices.Equal(w.Dims, []int64{2, 2}) {
		t.Errorf("w = %v %v", w.Dims, w.Floats())
	}
	if in := g.Inputs(); len(in) != 1 || in[0].DataType != ir.Float || !slices.Equal(in[0].Shape, []int64{-1, 2}) {
		t.Errorf("inputs = %+v", in)
	}
	if !g.IsGraphOutput("y") {
		t.Error("output y lost")
	}
}

func TestEncodeDecode(t *testing.T) {
	data, err := Encode(sampleModel())
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !bytes.Contains(data, []byte(`"op_type": "Gemm"`)) {
		t.Errorf("encoded model missing op_type:\n%s", data)
	}
	m, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if m.Graph.NodeCount() != 2 {
		t.Errorf("NodeCount() = %d, want 2", m.Graph.NodeCount())
	}
}

func TestSave_SortsFirst(t *testing.T) {
	m := sampleModel()
	// Put the consumer first.
	nodes := m.Graph.Nodes()
	m.Graph.SetNodes([]*ir.Node{nodes[1], nodes[0]})

	path := filepath.Join(t.TempDir(), "mlp.json")
	if err := Save(m, path, SaveOptions{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON() error = %v", err)
	}
	if !ir.IsTopologicallySorted(got.Graph) {
		t.Error("saved graph is not sorted")
	}
	if first := got.Graph.Nodes()[0]; first.Name != "fc" {
		t.Errorf("first node = %q, want fc", first.Name)
	}
}

func TestSave_Cycle(t *testing.T) {
	g := ir.NewGraph("loop")
	g.AddNode(ir.NewNode("Relu", "a", []string{"b"}, []string{"a"}))
	g.AddNode(ir.NewNode("Relu", "b", []string{"a"}, []string{"b"}))

	path := filepath.Join(t.TempDir(), "loop.json")
	err := Save(ir.NewModel(g), path, SaveOptions{})
	if !errors.Is(err, errors.ErrCodeCycle) {
		t.Errorf("Save() error = %v, want code CYCLE", err)
	}
	if !stderrors.Is(err, ir.ErrCycle) {
		t.Errorf("Save() error does not wrap ir.ErrCycle: %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("unsorted model was written")
	}
}

func TestSave_ExternalData(t *testing.T) {
	m := sampleModel()
	big := make([]float32, 64)
	for i := range big {
		big[i] = float32(i)
	}
	m.Graph.AddInitializer(ir.NewFloatTensor("embed", []int64{8, 8}, big))

	dir := t.TempDir()
	path := filepath.Join(dir, "mlp.json")
	if err := Save(m, path, SaveOptions{ExternalData: true, SizeThreshold: 16}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "mlp.json.data"))
	if err != nil {
		t.Fatalf("sidecar missing: %v", err)
	}
	// w (16 bytes) and embed (256 bytes) move, b (8 bytes) stays inline.
	if info.Size() != 16+256 {
		t.Errorf("sidecar size = %d, want %d", info.Size(), 16+256)
	}

	doc, _ := os.ReadFile(path)
	if !strings.Contains(string(doc), `"location": "mlp.json.data"`) {
		t.Errorf("model does not reference the sidecar:\n%s", doc)
	}

	got, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON() error = %v", err)
	}
	embed, _ := got.Graph.Initializer("embed")
	if !slices.Equal(embed.Floats(), big) {
		t.Error("external tensor data did not round-trip")
	}
	b, _ := got.Graph.Initializer("b")
	if !slices.Equal(b.Floats(), []float32{0.5, -0.5}) {
		t.Errorf("inline tensor b = %v", b.Floats())
	}

	// The in-memory model keeps its data.
	if w, _ := m.Graph.Initializer("w"); len(w.Raw) != 16 {
		t.Errorf("Save() stripped data from the in-memory model")
	}
}

func TestSave_ExternalDataBelowThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "small.json")
	if err := Save(sampleModel(), path, SaveOptions{ExternalData: true}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(ExternalDataPath(path)); !os.IsNotExist(err) {
		t.Error("sidecar written although no tensor reaches the default threshold")
	}
}

func TestSave_RemovesStaleSidecar(t *testing.T) {
	tests := []struct {
		name string
		opts SaveOptions
	}{
		{"nothing reaches threshold", SaveOptions{ExternalData: true, SizeThreshold: 1 << 20}},
		{"inline save", SaveOptions{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "model.json")
			if err := Save(sampleModel(), path, SaveOptions{ExternalData: true, SizeThreshold: 1}); err != nil {
				t.Fatalf("first Save() error = %v", err)
			}
			if _, err := os.Stat(ExternalDataPath(path)); err != nil {
				t.Fatalf("first Save() wrote no sidecar: %v", err)
			}

			if err := Save(sampleModel(), path, tt.opts); err != nil {
				t.Fatalf("second Save() error = %v", err)
			}
			if _, err := os.Stat(ExternalDataPath(path)); !os.IsNotExist(err) {
				t.Errorf("stale sidecar kept next to %s", filepath.Base(path))
			}
			m, err := ImportJSON(path)
			if err != nil {
				t.Fatalf("ImportJSON() error = %v", err)
			}
			if w, _ := m.Graph.Initializer("w"); !slices.Equal(w.Floats(), []float32{1, 2, 3, 4}) {
				t.Errorf("w = %v, want inline data [1 2 3 4]", w.Floats())
			}
		})
	}
}

func TestReadJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errors.Code
	}{
		{"malformed", `{"graph": `, errors.ErrCodeInvalidFormat},
		{"missing op_type", `{"graph": {"nodes": [{"name": "n"}]}}`, errors.ErrCodeInvalidFormat},
		{"unknown attribute type", `{"graph": {"nodes": [{"op_type": "Relu", "attributes": [{"name": "a", "type": "graph"}]}]}}`, errors.ErrCodeInvalidFormat},
		{"unknown data type", `{"graph": {"nodes": [], "initializers": [{"name": "w", "data_type": "complex64", "dims": [1]}]}}`, errors.ErrCodeInvalidFormat},
		{"duplicate initializer", `{"graph": {"nodes": [], "initializers": [
			{"name": "w", "data_type": "uint8", "dims": [1], "raw_data": "AQ=="},
			{"name": "w", "data_type": "uint8", "dims": [1], "raw_data": "Ag=="}]}}`, errors.ErrCodeInvalidFormat},
		{"size mismatch", `{"graph": {"nodes": [], "initializers": [{"name": "w", "data_type": "float", "dims": [2], "raw_data": "AQ=="}]}}`, errors.ErrCodeInvalidFormat},
		{"negative dims", `{"graph": {"nodes": [], "initializers": [{"name": "w", "data_type": "float", "dims": [-1, -2], "raw_data": "AACAPwAAAEA="}]}}`, errors.ErrCodeInvalidFormat},
		{"unnamed input", `{"graph": {"nodes": [], "inputs": [{"data_type": "float"}]}}`, errors.ErrCodeInvalidFormat},
		{"external without base dir", `{"graph": {"nodes": [], "initializers": [
			{"name": "w", "data_type": "uint8", "dims": [1], "external": {"location": "w.data", "offset": 0, "length": 1}}]}}`, errors.ErrCodeUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.doc), "")
			if !errors.Is(err, tt.code) {
				t.Errorf("ReadJSON() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestReadJSON_ExternalDataErrors(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "w.data"), []byte{1, 2, 3, 4}, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		location string
		offset   string
		length   string
		code     errors.Code
	}{
		{"path traversal", "../w.data", "0", "4", errors.ErrCodeInvalidPath},
		{"absolute path", "/etc/passwd", "0", "4", errors.ErrCodeInvalidPath},
		{"missing file", "other.data", "0", "4", errors.ErrCodeFileNotFound},
		{"past end", "w.data", "2", "4", errors.ErrCodeInvalidFormat},
		{"negative offset", "w.data", "-1", "4", errors.ErrCodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `{"graph": {"nodes": [], "initializers": [{"name": "w", "data_type": "uint8", "dims": [4],
				"external": {"location": "` + tt.location + `", "offset": ` + tt.offset + `, "length": ` + tt.length + `}}]}}`
			_, err := ReadJSON(strings.NewReader(doc), dir)
			if !errors.Is(err, tt.code) {
				t.Errorf("ReadJSON() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestImportJSON_NotFound(t *testing.T) {
	_, err := ImportJSON(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("ImportJSON() error = %v, want code FILE_NOT_FOUND", err)
	}
}
