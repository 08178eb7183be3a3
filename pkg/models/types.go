package models

import (
	"time"
)

// ParamType identifies the CAD parameter types the bridge understands
type ParamType string

const (
	ParamDimension ParamType = "dimension"
	ParamReal      ParamType = "real"
	ParamInteger   ParamType = "integer"
	ParamBoolean   ParamType = "boolean"
	ParamString    ParamType = "string"
)

// Valid reports whether the type is one the bridge understands
func (pt ParamType) Valid() bool {
	switch pt {
	case ParamDimension, ParamReal, ParamInteger, ParamBoolean, ParamString:
		return true
	default:
		return false
	}
}

// Continuous reports whether parameters of this type carry real values
func (pt ParamType) Continuous() bool {
	return pt == ParamDimension || pt == ParamReal
}

// Discrete reports whether parameters of this type default to discrete variables
func (pt ParamType) Discrete() bool {
	return pt == ParamInteger || pt == ParamBoolean || pt == ParamString
}

// EvalStatus represents the status of an evaluation
type EvalStatus string

const (
	EvalStatusPending   EvalStatus = "pending"
	EvalStatusRunning   EvalStatus = "running"
	EvalStatusCompleted EvalStatus = "completed"
	EvalStatusFailed    EvalStatus = "failed"
	EvalStatusCancelled EvalStatus = "cancelled"
)

// Terminal reports whether the status is final
func (s EvalStatus) Terminal() bool {
	switch s {
	case EvalStatusCompleted, EvalStatusFailed, EvalStatusCancelled:
		return true
	default:
		return false
	}
}

// Valid reports whether the status is one the daemon produces
func (s EvalStatus) Valid() bool {
	switch s {
	case EvalStatusPending, EvalStatusRunning, EvalStatusCompleted, EvalStatusFailed, EvalStatusCancelled:
		return true
	default:
		return false
	}
}

// Evaluation represents one evaluation cycle: inputs written to the CAD
// model, the model updated, outputs read back
type Evaluation struct {
	ID         string           `json:"id"`
	Status     EvalStatus       `json:"status"`
	Inputs     map[string]Value `json:"inputs,omitempty"`
	Outputs    map[string]Value `json:"outputs,omitempty"`
	Error      string           `json:"error,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	StartedAt  time.Time        `json:"started_at,omitzero"`
	FinishedAt time.Time        `json:"finished_at,omitzero"`
	DurationMS float64          `json:"duration_ms,omitempty"`
}

// Clone returns a deep copy of the evaluation
func (e *Evaluation) Clone() *Evaluation {
	if e == nil {
		return nil
	}
	out := *e
	if e.Inputs != nil {
		out.Inputs = make(map[string]Value, len(e.Inputs))
		for k, v := range e.Inputs {
			out.Inputs[k] = v
		}
	}
	if e.Outputs != nil {
		out.Outputs = make(map[string]Value, len(e.Outputs))
		for k, v := range e.Outputs {
			out.Outputs[k] = v
		}
	}
	return &out
}

// VarInfo describes one resolved variable mapping
type VarInfo struct {
	CADName  string    `json:"cad_name"`
	Name     string    `json:"name"`
	Type     ParamType `json:"type"`
	Units    string    `json:"units,omitempty"`
	Discrete bool      `json:"discrete"`
	Default  Value     `json:"default"`
	Desc     string    `json:"desc,omitempty"`
	Tags     []string  `json:"tags,omitempty"`
}
