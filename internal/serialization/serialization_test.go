package serialization

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/born-ml/quantumnat/internal/gates"
	"github.com/born-ml/quantumnat/internal/qerr"
	"github.com/born-ml/quantumnat/internal/qnn"
)

func testParams() []*qnn.Parameter {
	return []*qnn.Parameter{
		qnn.NewParameter("rx0", gates.RX, 0.25),
		qnn.NewParameter("u3", gates.U3, 0.1, -0.2, 3.0),
	}
}

// TestRoundTrip verifies parameters, optimizer state and metadata survive.
func TestRoundTrip(t *testing.T) {
	ck := NewCheckpoint("QFCModel", testParams())
	ck.Optimizer = map[string][]float64{"velocity.0": {0.5}, "velocity.1": {1, 2, 3}}
	ck.Metadata = map[string]string{"encoder": "4x4_ryzxy"}
	ck.Meta = &CheckpointMeta{Epoch: 3, Loss: 0.42, OptimizerType: "SGD", NoiseProfile: "fake_quito"}

	var buf bytes.Buffer
	if err := Write(&buf, ck); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, header, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if header.ModelType != "QFCModel" || got.ModelType != "QFCModel" {
		t.Errorf("Expected model type QFCModel, got %q", got.ModelType)
	}
	if len(header.Tensors) != 4 {
		t.Errorf("Expected 4 stored vectors, got %d", len(header.Tensors))
	}
	if got.Meta == nil || got.Meta.Epoch != 3 || got.Meta.OptimizerType != "SGD" {
		t.Errorf("Checkpoint meta not preserved: %+v", got.Meta)
	}
	if got.Metadata["encoder"] != "4x4_ryzxy" {
		t.Errorf("Metadata not preserved: %v", got.Metadata)
	}
	if v := got.Optimizer["velocity.1"]; len(v) != 3 || v[2] != 3 {
		t.Errorf("Optimizer state not preserved: %v", got.Optimizer)
	}
	if got.Kinds["u3"] != gates.U3 {
		t.Errorf("Expected kind u3, got %s", got.Kinds["u3"])
	}

	params := []*qnn.Parameter{
		qnn.NewParameter("rx0", gates.RX, 0),
		qnn.NewParameter("u3", gates.U3, 0, 0, 0),
	}
	if err := got.LoadParameters(params); err != nil {
		t.Fatalf("LoadParameters failed: %v", err)
	}
	if params[0].Values[0] != 0.25 || params[1].Values[1] != -0.2 {
		t.Errorf("Loaded values %v %v", params[0].Values, params[1].Values)
	}
}

// TestSaveLoad writes through the filesystem.
func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.qnat")
	if err := Save(path, NewCheckpoint("QFCModel", testParams())); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	ck, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(ck.Params) != 2 {
		t.Errorf("Expected 2 parameters, got %d", len(ck.Params))
	}
	if ck.Optimizer != nil {
		t.Errorf("Expected no optimizer state, got %v", ck.Optimizer)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.qnat")); err == nil {
		t.Error("Expected error for missing file")
	}
}

// TestRead_Corruption detects damaged files.
func TestRead_Corruption(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, NewCheckpoint("QFCModel", testParams())); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	good := buf.Bytes()

	flipped := bytes.Clone(good)
	flipped[len(flipped)-1] ^= 0xff
	if _, _, err := Read(bytes.NewReader(flipped)); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Expected ErrChecksumMismatch, got %v", err)
	}

	badMagic := bytes.Clone(good)
	copy(badMagic, "BORN")
	if _, _, err := Read(bytes.NewReader(badMagic)); !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("Expected ErrInvalidMagic, got %v", err)
	}

	if _, _, err := Read(bytes.NewReader(good[:FixedHeaderSize+4])); !errors.Is(err, ErrTruncated) {
		t.Errorf("Expected ErrTruncated, got %v", err)
	}
}

// TestLoadParameters_Mismatch rejects checkpoints for another model.
func TestLoadParameters_Mismatch(t *testing.T) {
	ck := NewCheckpoint("QFCModel", testParams())
	tests := []struct {
		name   string
		params []*qnn.Parameter
	}{
		{"missing", []*qnn.Parameter{qnn.NewParameter("ry9", gates.RY, 0)}},
		{"length", []*qnn.Parameter{qnn.NewParameter("u3", gates.U3, 0)}},
		{"kind", []*qnn.Parameter{qnn.NewParameter("rx0", gates.RZ, 0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ck.LoadParameters(tt.params)
			if !errors.Is(err, qerr.ErrConfig) {
				t.Errorf("Expected config error, got %v", err)
			}
		})
	}
}

// TestValidateTensorOffsets checks bounds, sizes and overlaps.
func TestValidateTensorOffsets(t *testing.T) {
	tests := []struct {
		name     string
		tensors  []TensorMeta
		dataSize int64
		wantType string
	}{
		{
			name: "exact boundary",
			tensors: []TensorMeta{
				{Name: "a", Len: 2, Offset: 0, Size: 16},
				{Name: "b", Len: 1, Offset: 16, Size: 8},
			},
			dataSize: 24,
		},
		{
			name: "overlap",
			tensors: []TensorMeta{
				{Name: "a", Len: 2, Offset: 0, Size: 16},
				{Name: "b", Len: 1, Offset: 8, Size: 8},
			},
			dataSize: 24,
			wantType: "offset_overlap",
		},
		{
			name:     "out of bounds",
			tensors:  []TensorMeta{{Name: "a", Len: 2, Offset: 8, Size: 16}},
			dataSize: 16,
			wantType: "out_of_bounds",
		},
		{
			name:     "negative",
			tensors:  []TensorMeta{{Name: "a", Len: 0, Offset: -8, Size: 0}},
			dataSize: 16,
			wantType: "negative_offset",
		},
		{
			name:     "size mismatch",
			tensors:  []TensorMeta{{Name: "a", Len: 3, Offset: 0, Size: 16}},
			dataSize: 32,
			wantType: "size_mismatch",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensorOffsets(tt.tensors, tt.dataSize)
			if tt.wantType == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if verr.Type != tt.wantType {
				t.Errorf("Expected type %s, got %s", tt.wantType, verr.Type)
			}
		})
	}
}

// TestValidateTensorName rejects path-like names.
func TestValidateTensorName(t *testing.T) {
	for _, name := range []string{"param.rx0", "optim.velocity.3", "param.history.2.crx"} {
		if err := ValidateTensorName(name); err != nil {
			t.Errorf("Expected %q to be valid, got %v", name, err)
		}
	}
	for _, name := range []string{"", "../etc", "param/rx0", "a\x00b", string(make([]byte, MaxTensorNameLen+1))} {
		if err := ValidateTensorName(name); err == nil {
			t.Errorf("Expected %q to be rejected", name)
		}
	}
}
