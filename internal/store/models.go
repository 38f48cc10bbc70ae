package store

import (
	"time"

	"github.com/google/uuid"
)

// DailyMetrics is one calendar day of wellness telemetry for a user.
// Every metric is optional; providers do not report all of them
type DailyMetrics struct {
	Date             time.Time `db:"date" json:"date"`                           // calendar day, UTC midnight
	HRV              *float64  `db:"hrv" json:"hrv"`                             // ms
	SleepHours       *float64  `db:"sleep_hours" json:"sleep_hours"`             // hours
	EnergyCharged    *float64  `db:"energy_charged" json:"energy_charged"`       // 0-100
	EnergyDrained    *float64  `db:"energy_drained" json:"energy_drained"`       // 0-100
	RestingHR        *float64  `db:"resting_hr" json:"resting_hr"`               // bpm
	Steps            *int      `db:"steps" json:"steps"`                         // count
	IntensityMinutes *int      `db:"intensity_minutes" json:"intensity_minutes"` // minutes
	TrainingLoad     *float64  `db:"training_load" json:"training_load"`         // provider-reported daily load
}

// ImportRecord describes the last batch of days imported for a user
type ImportRecord struct {
	UserID     uuid.UUID `json:"user_id"`
	Source     string    `json:"source"`
	Days       int       `json:"days"`
	Earliest   time.Time `json:"earliest"`
	Latest     time.Time `json:"latest"`
	ImportedAt time.Time `json:"imported_at"`
}

// LoadCheckpoint is the carried-forward fitness/fatigue state for a user,
// valid through LastUpdate inclusive
type LoadCheckpoint struct {
	UserID     uuid.UUID `json:"user_id"`
	CTL        float64   `json:"ctl"`
	ATL        float64   `json:"atl"`
	LastUpdate time.Time `json:"last_update"`
}
