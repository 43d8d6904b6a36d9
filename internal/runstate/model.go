package runstate

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// StageStatus describes the outcome of a single stage execution recorded
// against a site.
type StageStatus string

const (
	StageStatusRunning   StageStatus = "running"
	StageStatusCompleted StageStatus = "completed"
	StageStatusFailed    StageStatus = "failed"
)

// Stage identifies which orchestrator phase a run row belongs to.
type Stage string

const (
	StageRetrieval    Stage = "retrieval"
	StageTranscribe   Stage = "transcribe"
	StageSync         Stage = "sync"
	StageIndex        Stage = "index"
	StageCorrections  Stage = "corrections"
)

// StageRun is one execution of one stage for one site. The orchestrator
// records a row for each transcribe and index stage it runs, with the
// Fingerprint of that stage's inputs. Store.LastCompletedFingerprint reads
// the latest completed fingerprint back; the orchestrator does not consult
// it, so stages are not skipped on the basis of these rows.
type StageRun struct {
	gorm.Model
	SiteID      string      `gorm:"not null;index:idx_runstate_site_stage"`
	Stage       Stage       `gorm:"not null;index:idx_runstate_site_stage"`
	Status      StageStatus `gorm:"default:'running'"`
	Fingerprint string      `gorm:"index"` // content hash of the stage's inputs for this run
	ItemsWritten int
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string `gorm:"type:text"`
	Detail      Detail `gorm:"type:json"`
}

// Detail carries free-form per-stage bookkeeping (e.g. which feed IDs were
// touched) without forcing a schema migration for every new stage.
type Detail map[string]interface{}

func (d Detail) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

func (d *Detail) Scan(value interface{}) error {
	if value == nil {
		*d = make(Detail)
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("runstate: type assertion to []byte failed")
	}
	return json.Unmarshal(b, d)
}

// TableName specifies the table name for GORM.
func (StageRun) TableName() string {
	return "stage_runs"
}
