package status

import (
	"time"

	"github.com/gitsyncd/gitsyncd/internal/history"
	"github.com/gitsyncd/gitsyncd/internal/syncer"
)

// ListQuery holds the query parameters of the history listing.
type ListQuery struct {
	Limit int `query:"limit" validate:"min=0,max=500"`
}

type OutcomeResponse struct {
	Result     string     `json:"result"`
	Message    string     `json:"message,omitempty"`
	Commit     string     `json:"commit,omitempty"`
	ErrorKind  string     `json:"error_kind,omitempty"`
	Detail     string     `json:"detail,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time  `json:"finished_at"`
	DurationMS int64      `json:"duration_ms"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Phase       string           `json:"phase"`
	LastSync    *time.Time       `json:"last_sync,omitempty"`
	Pending     bool             `json:"pending"`
	LastOutcome *OutcomeResponse `json:"last_outcome,omitempty"`
}

type RecordResponse struct {
	OutcomeResponse

	ID string `json:"id"`
}

type TriggerResponse struct {
	Accepted bool `json:"accepted"`
}

func newStatusResponse(state syncer.State) StatusResponse {
	response := StatusResponse{
		Phase:   string(state.Phase),
		Pending: state.Pending,
	}

	if !state.LastSync.IsZero() {
		lastSync := state.LastSync
		response.LastSync = &lastSync
	}

	if state.LastOutcome != nil {
		outcome := newOutcomeResponse(*state.LastOutcome)
		response.LastOutcome = &outcome
	}

	return response
}

func newOutcomeResponse(outcome syncer.Outcome) OutcomeResponse {
	response := OutcomeResponse{
		Result:     string(outcome.Result),
		Message:    outcome.Message,
		Commit:     outcome.Commit,
		ErrorKind:  string(outcome.ErrorKind),
		Detail:     outcome.Detail,
		FinishedAt: outcome.Timestamp,
		DurationMS: outcome.Duration.Milliseconds(),
	}

	if !outcome.StartedAt.IsZero() {
		started := outcome.StartedAt
		response.StartedAt = &started
	}

	return response
}

func newRecordResponse(record history.Record) RecordResponse {
	return RecordResponse{
		OutcomeResponse: newOutcomeResponse(syncer.Outcome{
			Result:    record.Result,
			Message:   record.Message,
			Commit:    record.Commit,
			ErrorKind: record.ErrorKind,
			Detail:    record.Detail,
			Timestamp: record.FinishedAt,
			StartedAt: record.StartedAt,
			Duration:  record.Duration,
		}),
		ID: record.ID.String(),
	}
}
