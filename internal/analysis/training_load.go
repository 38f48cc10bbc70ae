package analysis

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/RaulAdSe/garmin-trainer-sub003/internal/store"
)

const (
	CTLTimeConstant = 42.0 // days, "fitness"
	ATLTimeConstant = 7.0  // days, "fatigue"
)

// Checkpoint sentinels, shared with the checkpoint stores
var (
	ErrNoCheckpoint       = store.ErrNoCheckpoint
	ErrCheckpointConflict = store.ErrCheckpointConflict
)

// RiskZone classifies the acute:chronic workload ratio
type RiskZone string

const (
	RiskUndertrained RiskZone = "undertrained"
	RiskOptimal      RiskZone = "optimal"
	RiskCaution      RiskZone = "caution"
	RiskDanger       RiskZone = "danger"
	RiskUnknown      RiskZone = "unknown"
)

// LoadCheckpoint is the carried-forward fitness/fatigue state for a user
type LoadCheckpoint = store.LoadCheckpoint

// DailyLoad represents training load for a single day
type DailyLoad struct {
	Date time.Time
	Load float64
}

// LoadState is the reported fitness-fatigue snapshot
type LoadState struct {
	CTL      float64  `json:"ctl"`  // Chronic Training Load (42-day EWMA) - "Fitness"
	ATL      float64  `json:"atl"`  // Acute Training Load (7-day EWMA) - "Fatigue"
	TSB      float64  `json:"tsb"`  // Training Stress Balance (CTL - ATL) - "Form"
	ACWR     *float64 `json:"acwr"` // ATL / CTL, nil when CTL is zero
	RiskZone RiskZone `json:"risk_zone"`
	Form     string   `json:"form"`
}

// LoadModel is the running CTL/ATL accumulator
type LoadModel struct {
	ctl float64
	atl float64
}

// NewLoadModel resumes a model from carried-forward values
func NewLoadModel(ctl, atl float64) *LoadModel {
	return &LoadModel{ctl: ctl, atl: atl}
}

// FromCheckpoint resumes a model from a stored checkpoint
func FromCheckpoint(cp LoadCheckpoint) *LoadModel {
	return NewLoadModel(cp.CTL, cp.ATL)
}

func (m *LoadModel) CTL() float64 { return m.ctl }
func (m *LoadModel) ATL() float64 { return m.atl }

// Step advances the model by one day with the given load
func (m *LoadModel) Step(load float64) {
	m.ctl += (load - m.ctl) / CTLTimeConstant
	m.atl += (load - m.atl) / ATLTimeConstant
}

// Replay steps once per calendar day from `from` through `through`
// inclusive. Days without an entry in loads count as zero load
func (m *LoadModel) Replay(loads []DailyLoad, from, through time.Time) {
	from, through = Day(from), Day(through)
	if through.Before(from) {
		return
	}

	loadMap := make(map[string]float64, len(loads))
	for _, dl := range loads {
		loadMap[DateKey(Day(dl.Date))] += dl.Load
	}

	for d := from; !d.After(through); d = d.AddDate(0, 0, 1) {
		m.Step(loadMap[DateKey(d)])
	}
}

// State reports the current values with display rounding applied
func (m *LoadModel) State() LoadState {
	tsb := m.ctl - m.atl
	state := LoadState{
		CTL:      round(m.ctl, 1),
		ATL:      round(m.atl, 1),
		TSB:      round(tsb, 1),
		RiskZone: RiskUnknown,
		Form:     FormDescription(tsb),
	}
	if m.ctl > 0 {
		acwr := m.atl / m.ctl
		state.ACWR = floatPtr(round(acwr, 2))
		state.RiskZone = ClassifyACWR(acwr)
	}
	return state
}

// Checkpoint captures the model for a user as of a day
func (m *LoadModel) Checkpoint(userID uuid.UUID, through time.Time) LoadCheckpoint {
	return LoadCheckpoint{
		UserID:     userID,
		CTL:        m.ctl,
		ATL:        m.atl,
		LastUpdate: Day(through),
	}
}

// ClassifyACWR maps the acute:chronic ratio to an injury-risk zone
func ClassifyACWR(acwr float64) RiskZone {
	switch {
	case acwr < 0.8:
		return RiskUndertrained
	case acwr <= 1.3:
		return RiskOptimal
	case acwr <= 1.5:
		return RiskCaution
	default:
		return RiskDanger
	}
}

// DayLoad is the training load attributed to a day: the provider-reported
// load when present, otherwise the day's strain score, otherwise zero
func DayLoad(d store.DailyMetrics) float64 {
	if d.TrainingLoad != nil {
		return *d.TrainingLoad
	}
	if strain := DayStrain(d); strain != nil {
		return *strain
	}
	return 0
}

// DailyLoads converts records into date-ordered daily loads
func DailyLoads(days []store.DailyMetrics) []DailyLoad {
	loads := make([]DailyLoad, 0, len(days))
	for _, d := range days {
		loads = append(loads, DailyLoad{Date: Day(d.Date), Load: DayLoad(d)})
	}
	sort.Slice(loads, func(i, j int) bool {
		return loads[i].Date.Before(loads[j].Date)
	})
	return loads
}

// FormDescription returns a human-readable description of TSB
func FormDescription(tsb float64) string {
	switch {
	case tsb > 25:
		return "Very fresh (possibly detrained)"
	case tsb > 10:
		return "Fresh and ready to perform"
	case tsb > 0:
		return "Neutral - good for training"
	case tsb > -10:
		return "Slightly fatigued"
	case tsb > -25:
		return "Tired but building fitness"
	default:
		return "Very fatigued - rest needed"
	}
}
