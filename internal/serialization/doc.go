// Package serialization provides the .qnat checkpoint format for saving
// and restoring trained circuit parameters and optimizer state.
//
// The .qnat format is a small binary container:
//
//	Format Structure:
//	  [4 bytes: Magic "QNAT"]
//	  [4 bytes: Version (uint32 LE)]
//	  [4 bytes: Flags (uint32 LE)]
//	  [4 bytes: Reserved]
//	  [8 bytes: Header Size (uint64 LE)]
//	  [32 bytes: SHA-256 of header and data]
//	  [8 bytes: Reserved, pads the fixed header to 64 bytes]
//	  [Header: JSON metadata]
//	  [Data: float64 LE values]
//
// Every vector is stored as float64. Names are prefixed "param." for
// circuit parameters and "optim." for optimizer state.
//
// Example usage:
//
//	ck := serialization.NewCheckpoint("QFCModel", model.Parameters())
//	ck.Optimizer = sgd.StateDict()
//	if err := serialization.Save("model.qnat", ck); err != nil {
//	    log.Fatal(err)
//	}
//
//	ck, err := serialization.Load("model.qnat")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := ck.LoadParameters(model.Parameters()); err != nil {
//	    log.Fatal(err)
//	}
package serialization
