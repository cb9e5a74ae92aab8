package backend

import (
	"time"

	"github.com/born-ml/quantumnat/internal/qasm"
	"github.com/born-ml/quantumnat/internal/qerr"
)

// JSON bodies exchanged between Remote and the server returned by
// NewRemoteServer.

// SubmitRequest carries a job. Circuits are OpenQASM 2 sources.
type SubmitRequest struct {
	ID          string   `json:"id,omitempty"`
	Circuits    []string `json:"circuits" binding:"required,min=1"`
	Shots       int      `json:"shots" binding:"gte=0"`
	Statevector bool     `json:"statevector"`
	Seed        int64    `json:"seed,omitempty"`
}

// SubmitResponse returns the job ID.
type SubmitResponse struct {
	ID string `json:"id"`
}

// StatusResponse reports a job state by name.
type StatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ResultResponse is the wire form of Result. Amplitudes are [re, im].
type ResultResponse struct {
	JobID        string         `json:"job_id"`
	Backend      string         `json:"backend"`
	Counts       []Counts       `json:"counts"`
	Statevectors [][][2]float64 `json:"statevectors,omitempty"`
	Shots        int            `json:"shots"`
	DurationMS   float64        `json:"duration_ms"`
}

// CapabilitiesResponse names the backend and its limits.
type CapabilitiesResponse struct {
	Name         string       `json:"name"`
	Capabilities Capabilities `json:"capabilities"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func encodeJob(job *Job) (*SubmitRequest, error) {
	req := &SubmitRequest{
		ID:          job.ID,
		Shots:       job.Shots,
		Statevector: job.Statevector,
		Seed:        job.Seed,
	}
	for i, c := range job.Circuits {
		src, err := qasm.Emit(c)
		if err != nil {
			return nil, qerr.Backendf("backend.encodeJob", false, "circuit %d: %v", i, err)
		}
		req.Circuits = append(req.Circuits, src)
	}
	return req, nil
}

func decodeJob(req *SubmitRequest) (*Job, error) {
	job := &Job{ID: req.ID, Shots: req.Shots, Statevector: req.Statevector, Seed: req.Seed}
	for i, src := range req.Circuits {
		c, err := qasm.Parse(src)
		if err != nil {
			return nil, qerr.Backendf("backend.decodeJob", false, "circuit %d: %v", i, err)
		}
		job.Circuits = append(job.Circuits, c)
	}
	return job, nil
}

func encodeResult(r *Result) *ResultResponse {
	out := &ResultResponse{
		JobID:      r.JobID,
		Backend:    r.Backend,
		Counts:     r.Counts,
		Shots:      r.Shots,
		DurationMS: float64(r.Duration) / float64(time.Millisecond),
	}
	for _, sv := range r.Statevectors {
		pairs := make([][2]float64, len(sv))
		for i, a := range sv {
			pairs[i] = [2]float64{real(a), imag(a)}
		}
		out.Statevectors = append(out.Statevectors, pairs)
	}
	return out
}

func decodeResult(r *ResultResponse, nCircuits int) (*Result, error) {
	const op = "backend.decodeResult"
	if len(r.Counts) != nCircuits {
		return nil, qerr.Backendf(op, false, "malformed response: %d count sets for %d circuits", len(r.Counts), nCircuits)
	}
	if len(r.Statevectors) != 0 && len(r.Statevectors) != nCircuits {
		return nil, qerr.Backendf(op, false, "malformed response: %d state vectors for %d circuits", len(r.Statevectors), nCircuits)
	}
	out := &Result{
		JobID:    r.JobID,
		Backend:  r.Backend,
		Counts:   r.Counts,
		Shots:    r.Shots,
		Duration: time.Duration(r.DurationMS * float64(time.Millisecond)),
	}
	for i, pairs := range r.Statevectors {
		if n := len(pairs); n == 0 || n&(n-1) != 0 {
			return nil, qerr.Backendf(op, false, "malformed response: state vector %d has length %d", i, n)
		}
		sv := make([]complex128, len(pairs))
		for j, p := range pairs {
			sv[j] = complex(p[0], p[1])
		}
		out.Statevectors = append(out.Statevectors, sv)
	}
	return out, nil
}
