package serialization

import (
	"time"
)

// Format constants.
const (
	MagicBytes      = "QNAT"
	FormatVersion   = 1
	FixedHeaderSize = 64   // fixed header size (0x40 bytes)
	ChecksumSize    = 32   // SHA-256 checksum size
	ChecksumOffset  = 0x18 // checksum offset in the fixed header
	ValueSize       = 8    // bytes per float64
)

// Tensor name prefixes.
const (
	ParamPrefix     = "param."
	OptimizerPrefix = "optim."
)

// Flags for the .qnat format.
const (
	FlagHasOptimizer uint32 = 1 << 0 // bit 0: optimizer state included
	FlagHasMetadata  uint32 = 1 << 1 // bit 1: custom metadata included
)

// Header represents the JSON header in a .qnat file.
type Header struct {
	FormatVersion  int               `json:"format_version"`
	Version        string            `json:"quantumnat_version"`
	ModelType      string            `json:"model_type"`
	CreatedAt      time.Time         `json:"created_at"`
	Tensors        []TensorMeta      `json:"tensors"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CheckpointMeta *CheckpointMeta   `json:"checkpoint,omitempty"`
}

// CheckpointMeta contains training state information.
type CheckpointMeta struct {
	Epoch         int     `json:"epoch"`
	Step          int64   `json:"step"`
	Loss          float64 `json:"loss"`
	LR            float64 `json:"lr"`
	OptimizerType string  `json:"optimizer_type,omitempty"` // "SGD", "Adam", ...
	NoiseProfile  string  `json:"noise_profile,omitempty"`
	NoiseFactor   float64 `json:"noise_factor,omitempty"`
}

// TensorMeta describes one stored vector. Offset and Size are in bytes
// from the start of the data section.
type TensorMeta struct {
	Name   string `json:"name"`
	Kind   string `json:"kind,omitempty"` // gate kind for circuit parameters
	Len    int    `json:"len"`
	Offset int64  `json:"offset"`
	Size   int64  `json:"size"`
}
