package history

import (
	"encoding/json"
	"time"

	"github.com/gitsyncd/gitsyncd/internal/syncer"
	"github.com/google/uuid"
)

const (
	prefix = "sync:"

	prefixByID      = prefix + "id:"
	prefixBySuccess = prefix + "success:"
)

// Record is a persisted synchronization outcome.
type Record struct {
	ID uuid.UUID

	Result    syncer.Result
	Message   string
	Commit    string
	ErrorKind syncer.ErrorKind
	Detail    string

	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
}

// Succeeded reports whether the record advanced the remote.
func (r Record) Succeeded() bool {
	return r.Result == syncer.ResultSuccess || r.Result == syncer.ResultConflictResolved
}

type recordModel struct {
	ID uuid.UUID `json:"id"`

	Result    string `json:"result"`
	Message   string `json:"message,omitempty"`
	Commit    string `json:"commit,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Detail    string `json:"detail,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`
}

func newRecordModel(outcome syncer.Outcome) *recordModel {
	return &recordModel{
		ID: uuid.Must(uuid.NewV7()),

		Result:    string(outcome.Result),
		Message:   outcome.Message,
		Commit:    outcome.Commit,
		ErrorKind: string(outcome.ErrorKind),
		Detail:    outcome.Detail,

		StartedAt:  outcome.StartedAt,
		FinishedAt: outcome.Timestamp,
		DurationMS: outcome.Duration.Milliseconds(),
	}
}

func newRecord(model *recordModel) *Record {
	if model == nil {
		return nil
	}

	return &Record{
		ID: model.ID,

		Result:    syncer.Result(model.Result),
		Message:   model.Message,
		Commit:    model.Commit,
		ErrorKind: syncer.ErrorKind(model.ErrorKind),
		Detail:    model.Detail,

		StartedAt:  model.StartedAt,
		FinishedAt: model.FinishedAt,
		Duration:   time.Duration(model.DurationMS) * time.Millisecond,
	}
}

func (m *recordModel) StorageKey() string {
	return prefixByID + m.ID.String()
}

func (m *recordModel) StorageIndexes() []string {
	if m.Result != string(syncer.ResultSuccess) && m.Result != string(syncer.ResultConflictResolved) {
		return nil
	}

	return []string{prefixBySuccess + m.ID.String()}
}

func (m *recordModel) MarshalStorage() ([]byte, error) {
	return json.Marshal(m)
}

func (m *recordModel) UnmarshalStorage(data []byte) error {
	return json.Unmarshal(data, m)
}
