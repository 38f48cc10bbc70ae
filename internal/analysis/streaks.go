package analysis

import "time"

// Streak names
const (
	StreakGreenRecovery = "green_recovery"
	StreakStepGoal      = "step_goal"
	StreakSleepGoal     = "sleep_goal"
)

// DefaultStreakWindowDays is how far back streaks are scanned
const DefaultStreakWindowDays = 60

// DayFlag is the outcome of a per-day predicate. A nil Met means the
// predicate could not be evaluated that day
type DayFlag struct {
	Date time.Time
	Met  *bool
}

// Streak is the current and best run of consecutive days meeting a condition
type Streak struct {
	Name         string     `json:"name"`
	CurrentCount int        `json:"current_count"`
	BestCount    int        `json:"best_count"`
	IsActive     bool       `json:"is_active"`
	LastDate     *time.Time `json:"last_date"`
}

// TrackStreak scans flags (newest first) once. The current streak is the
// leading run of met days; missing data ends a run
func TrackStreak(name string, flags []DayFlag) Streak {
	s := Streak{Name: name}

	run := 0
	leading := true
	for _, f := range flags {
		if f.Met != nil && *f.Met {
			run++
			if leading {
				s.CurrentCount++
			}
			if s.LastDate == nil {
				d := f.Date
				s.LastDate = &d
			}
		} else {
			run = 0
			leading = false
		}
		if run > s.BestCount {
			s.BestCount = run
		}
	}

	s.IsActive = s.CurrentCount > 0
	return s
}

func boolPtr(v bool) *bool {
	return &v
}
