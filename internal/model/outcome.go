package model

import "time"

// OutcomeKind classifies the result of one management run.
type OutcomeKind string

const (
	OutcomeSkipped OutcomeKind = "skipped"
	OutcomeClosed  OutcomeKind = "closed"
	OutcomeOpened  OutcomeKind = "opened"
	OutcomeFailed  OutcomeKind = "failed"
)

// Stages reported with failed outcomes.
const (
	StageSetup     = "setup"
	StagePreflight = "preflight"
	StageQuery     = "query"
	StageClose     = "close"
	StageRebalance = "rebalance"
	StageOpen      = "open"
	StageLease     = "lease"
	StageInternal  = "internal"
)

// Skip reasons.
const (
	ReasonInsufficientGas = "insufficient gas"
	ReasonInRange         = "in range"
	ReasonLocked          = "locked"
)

// Outcome is the result of managing one position once.
type Outcome struct {
	Kind     OutcomeKind `json:"kind"`
	Stage    string      `json:"stage,omitempty"`
	Reason   string      `json:"reason,omitempty"`
	Position string      `json:"position,omitempty"`
	TxHash   string      `json:"tx_hash,omitempty"`
}

func Skipped(reason string) Outcome {
	return Outcome{Kind: OutcomeSkipped, Reason: reason}
}

func Failed(stage string, err error) Outcome {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	return Outcome{Kind: OutcomeFailed, Stage: stage, Reason: reason}
}

// RunResult pairs an outcome with the position record it belongs to.
type RunResult struct {
	PositionID int64     `json:"position_id"`
	Pool       string    `json:"pool"`
	Account    string    `json:"account"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcome    Outcome   `json:"outcome"`
}

// OK reports whether the run ended without failure.
func (r RunResult) OK() bool {
	return r.Outcome.Kind != OutcomeFailed
}
