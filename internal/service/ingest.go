package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/RaulAdSe/garmin-trainer-sub003/internal/analysis"
	"github.com/RaulAdSe/garmin-trainer-sub003/internal/store"
)

// DayRecord is the import format for one day, dated YYYY-MM-DD
type DayRecord struct {
	Date             string   `json:"date"`
	HRV              *float64 `json:"hrv"`
	SleepHours       *float64 `json:"sleep_hours"`
	EnergyCharged    *float64 `json:"energy_charged"`
	EnergyDrained    *float64 `json:"energy_drained"`
	RestingHR        *float64 `json:"resting_hr"`
	Steps            *int     `json:"steps"`
	IntensityMinutes *int     `json:"intensity_minutes"`
	TrainingLoad     *float64 `json:"training_load"`
}

// DecodeDays reads a JSON array of DayRecord. Later records for the same
// date replace earlier ones. The result is sorted oldest first
func DecodeDays(r io.Reader) ([]store.DailyMetrics, error) {
	var records []DayRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding days: %w", err)
	}

	byDate := make(map[string]store.DailyMetrics, len(records))
	for i, rec := range records {
		d, err := rec.toDailyMetrics()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		byDate[analysis.DateKey(d.Date)] = d
	}

	days := make([]store.DailyMetrics, 0, len(byDate))
	for _, d := range byDate {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
	return days, nil
}

func (r DayRecord) toDailyMetrics() (store.DailyMetrics, error) {
	date, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return store.DailyMetrics{}, fmt.Errorf("invalid date %q: %w", r.Date, err)
	}

	checks := []struct {
		name  string
		value *float64
		max   float64
	}{
		{"hrv", r.HRV, 0},
		{"sleep_hours", r.SleepHours, 24},
		{"energy_charged", r.EnergyCharged, 100},
		{"energy_drained", r.EnergyDrained, 100},
		{"resting_hr", r.RestingHR, 0},
		{"training_load", r.TrainingLoad, 0},
	}
	for _, c := range checks {
		if c.value == nil {
			continue
		}
		if *c.value < 0 || (c.max > 0 && *c.value > c.max) {
			return store.DailyMetrics{}, fmt.Errorf("%s on %s out of range: %v", c.name, r.Date, *c.value)
		}
	}
	if r.Steps != nil && *r.Steps < 0 {
		return store.DailyMetrics{}, fmt.Errorf("steps on %s must not be negative", r.Date)
	}
	if r.IntensityMinutes != nil && *r.IntensityMinutes < 0 {
		return store.DailyMetrics{}, fmt.Errorf("intensity_minutes on %s must not be negative", r.Date)
	}

	return store.DailyMetrics{
		Date:             analysis.Day(date),
		HRV:              r.HRV,
		SleepHours:       r.SleepHours,
		EnergyCharged:    r.EnergyCharged,
		EnergyDrained:    r.EnergyDrained,
		RestingHR:        r.RestingHR,
		Steps:            r.Steps,
		IntensityMinutes: r.IntensityMinutes,
		TrainingLoad:     r.TrainingLoad,
	}, nil
}

// ImportRecorder keeps the last import per user
type ImportRecorder interface {
	RecordImport(ctx context.Context, rec store.ImportRecord) error
}

// IngestResult contains the results of an import
type IngestResult struct {
	DaysStored int
	Earliest   time.Time
	Latest     time.Time
	Load       analysis.LoadState
}

// IngestService records already-fetched days and keeps the load checkpoint
// consistent with them
type IngestService struct {
	sink    DaySink
	tracker *LoadTracker
	imports ImportRecorder
	logger  logrus.FieldLogger
	now     func() time.Time
}

// NewIngestService creates a new ingest service. imports may be nil
func NewIngestService(sink DaySink, tracker *LoadTracker, imports ImportRecorder, logger logrus.FieldLogger) *IngestService {
	return &IngestService{
		sink:    sink,
		tracker: tracker,
		imports: imports,
		logger:  logger,
		now:     time.Now,
	}
}

// Ingest stores days, drops the checkpoint if any stored day predates it,
// then advances the checkpoint through the newest imported day
func (s *IngestService) Ingest(ctx context.Context, userID uuid.UUID, source string, days []store.DailyMetrics) (*IngestResult, error) {
	result := &IngestResult{}
	if len(days) == 0 {
		return result, nil
	}

	for i := range days {
		days[i].Date = analysis.Day(days[i].Date)
		if i == 0 || days[i].Date.Before(result.Earliest) {
			result.Earliest = days[i].Date
		}
		if days[i].Date.After(result.Latest) {
			result.Latest = days[i].Date
		}
	}

	if err := s.sink.UpsertDailyMetrics(ctx, userID, days); err != nil {
		return nil, fmt.Errorf("storing days: %w", err)
	}
	result.DaysStored = len(days)

	if err := s.tracker.Invalidate(ctx, userID, result.Earliest); err != nil {
		return nil, fmt.Errorf("invalidating load checkpoint: %w", err)
	}

	load, err := s.tracker.Advance(ctx, userID, result.Latest)
	if err != nil {
		return nil, fmt.Errorf("advancing training load: %w", err)
	}
	result.Load = load

	if s.imports != nil {
		// Bookkeeping only, a failure here doesn't undo the import
		err := s.imports.RecordImport(ctx, store.ImportRecord{
			UserID:     userID,
			Source:     source,
			Days:       result.DaysStored,
			Earliest:   result.Earliest,
			Latest:     result.Latest,
			ImportedAt: s.now().UTC(),
		})
		if err != nil {
			s.logger.WithError(err).Warn("Failed to record import")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"days":     result.DaysStored,
		"earliest": analysis.DateKey(result.Earliest),
		"latest":   analysis.DateKey(result.Latest),
		"source":   source,
	}).Info("Imported daily metrics")

	return result, nil
}
