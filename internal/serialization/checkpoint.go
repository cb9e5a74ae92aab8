package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/born-ml/quantumnat/internal/gates"
	"github.com/born-ml/quantumnat/internal/qerr"
	"github.com/born-ml/quantumnat/internal/qnn"
)

const quantumnatVersion = "0.1.0"

// Checkpoint is the in-memory form of a .qnat file.
type Checkpoint struct {
	ModelType string
	Params    map[string][]float64
	Kinds     map[string]gates.Kind // gate kind per parameter, optional
	Optimizer map[string][]float64  // optimizer state dict, optional
	Metadata  map[string]string
	Meta      *CheckpointMeta
	CreatedAt time.Time
}

// NewCheckpoint snapshots the values of params.
func NewCheckpoint(modelType string, params []*qnn.Parameter) *Checkpoint {
	ck := &Checkpoint{
		ModelType: modelType,
		Params:    make(map[string][]float64, len(params)),
		Kinds:     make(map[string]gates.Kind, len(params)),
	}
	for _, p := range params {
		ck.Params[p.Name] = append([]float64(nil), p.Values...)
		ck.Kinds[p.Name] = p.Kind
	}
	return ck
}

// LoadParameters copies stored values into params by name. Every
// parameter must be present with a matching length and gate kind.
func (ck *Checkpoint) LoadParameters(params []*qnn.Parameter) error {
	const op = "serialization.LoadParameters"
	for _, p := range params {
		v, ok := ck.Params[p.Name]
		if !ok {
			return qerr.Config(op, "checkpoint has no parameter %q", p.Name)
		}
		if len(v) != len(p.Values) {
			return qerr.Config(op, "parameter %q has %d values, checkpoint has %d", p.Name, len(p.Values), len(v))
		}
		if k, ok := ck.Kinds[p.Name]; ok && k != p.Kind {
			return qerr.Config(op, "parameter %q is %s, checkpoint has %s", p.Name, p.Kind, k)
		}
		copy(p.Values, v)
	}
	return nil
}

type entry struct {
	meta   TensorMeta
	values []float64
}

func (ck *Checkpoint) entries() []entry {
	var out []entry
	add := func(prefix string, m map[string][]float64, kinds map[string]gates.Kind) {
		names := make([]string, 0, len(m))
		for name := range m {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			e := entry{meta: TensorMeta{Name: prefix + name, Len: len(m[name])}, values: m[name]}
			if k, ok := kinds[name]; ok {
				e.meta.Kind = k.String()
			}
			out = append(out, e)
		}
	}
	add(ParamPrefix, ck.Params, ck.Kinds)
	add(OptimizerPrefix, ck.Optimizer, nil)
	return out
}

// Write encodes ck in .qnat format.
func Write(w io.Writer, ck *Checkpoint) error {
	created := ck.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	header := Header{
		FormatVersion:  FormatVersion,
		Version:        quantumnatVersion,
		ModelType:      ck.ModelType,
		CreatedAt:      created,
		Metadata:       ck.Metadata,
		CheckpointMeta: ck.Meta,
	}

	var data bytes.Buffer
	var buf [ValueSize]byte
	for _, e := range ck.entries() {
		e.meta.Offset = int64(data.Len())
		e.meta.Size = int64(len(e.values)) * ValueSize
		for _, v := range e.values {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			data.Write(buf[:])
		}
		header.Tensors = append(header.Tensors, e.meta)
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	var flags uint32
	if len(ck.Optimizer) > 0 {
		flags |= FlagHasOptimizer
	}
	if len(ck.Metadata) > 0 {
		flags |= FlagHasMetadata
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], flags)
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	sum := ComputeChecksum(headerJSON, data.Bytes())
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], sum[:])

	for _, part := range [][]byte{fixed, headerJSON, data.Bytes()} {
		if _, err := w.Write(part); err != nil {
			return fmt.Errorf("failed to write checkpoint: %w", err)
		}
	}
	return nil
}

// Read decodes a .qnat stream, verifying its checksum and offsets.
func Read(r io.Reader) (*Checkpoint, Header, error) {
	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, Header{}, fmt.Errorf("%w: fixed header: %v", ErrTruncated, err)
	}
	if string(fixed[0:4]) != MagicBytes {
		return nil, Header{}, ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint32(fixed[4:8]); v != FormatVersion {
		return nil, Header{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	if headerSize > MaxHeaderSize {
		return nil, Header{}, ErrHeaderTooLarge
	}
	var stored [ChecksumSize]byte
	copy(stored[:], fixed[ChecksumOffset:ChecksumOffset+ChecksumSize])

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, Header{}, fmt.Errorf("%w: header: %v", ErrTruncated, err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Header{}, fmt.Errorf("failed to read data: %w", err)
	}
	if err := ValidateChecksum(ComputeChecksum(headerJSON, data), stored); err != nil {
		return nil, Header{}, err
	}

	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, Header{}, fmt.Errorf("failed to parse header: %w", err)
	}
	if err := ValidateHeader(&header, int64(len(data))); err != nil {
		return nil, Header{}, err
	}

	ck := &Checkpoint{
		ModelType: header.ModelType,
		Params:    make(map[string][]float64),
		Kinds:     make(map[string]gates.Kind),
		Metadata:  header.Metadata,
		Meta:      header.CheckpointMeta,
		CreatedAt: header.CreatedAt,
	}
	for _, t := range header.Tensors {
		values := make([]float64, t.Len)
		for i := range values {
			off := t.Offset + int64(i)*ValueSize
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[off : off+ValueSize]))
		}
		switch {
		case strings.HasPrefix(t.Name, ParamPrefix):
			name := strings.TrimPrefix(t.Name, ParamPrefix)
			ck.Params[name] = values
			if t.Kind != "" {
				k, ok := gates.Lookup(t.Kind)
				if !ok {
					return nil, Header{}, &ValidationError{Type: "unknown_kind", Tensor: t.Name, Details: t.Kind}
				}
				ck.Kinds[name] = k
			}
		case strings.HasPrefix(t.Name, OptimizerPrefix):
			if ck.Optimizer == nil {
				ck.Optimizer = make(map[string][]float64)
			}
			ck.Optimizer[strings.TrimPrefix(t.Name, OptimizerPrefix)] = values
		default:
			return nil, Header{}, &ValidationError{Type: "invalid_name", Tensor: t.Name, Details: "unknown prefix"}
		}
	}
	return ck, header, nil
}

// Save writes ck to path.
func Save(path string, ck *Checkpoint) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for checkpoint saving
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := Write(f, ck); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Load reads a checkpoint from path.
func Load(path string) (*Checkpoint, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for checkpoint loading
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	ck, _, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("checkpoint %s: %w", path, err)
	}
	return ck, nil
}
