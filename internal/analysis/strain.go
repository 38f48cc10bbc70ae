package analysis

import "github.com/RaulAdSe/garmin-trainer-sub003/internal/store"

const (
	MaxStrain = 21.0

	stepsPerStrainPoint     = 2000.0
	drainPerStrainPoint     = 12.0
	intensityPerStrainPoint = 20.0

	maxStepsStrain     = 8.0
	maxDrainStrain     = 8.0
	maxIntensityStrain = 5.0
)

// Strain scores daily exertion on a 0-21 scale. Each input contributes an
// independently capped term; missing inputs contribute nothing
func Strain(energyDrained *float64, steps, intensityMinutes *int) float64 {
	var strain float64
	if steps != nil {
		strain += min(maxStepsStrain, float64(*steps)/stepsPerStrainPoint)
	}
	if energyDrained != nil {
		strain += min(maxDrainStrain, *energyDrained/drainPerStrainPoint)
	}
	if intensityMinutes != nil {
		strain += min(maxIntensityStrain, float64(*intensityMinutes)/intensityPerStrainPoint)
	}
	return round(clamp(strain, 0, MaxStrain), 1)
}

// DayStrain scores a single day, nil when it has none of the inputs
func DayStrain(d store.DailyMetrics) *float64 {
	if d.EnergyDrained == nil && d.Steps == nil && d.IntensityMinutes == nil {
		return nil
	}
	return floatPtr(Strain(d.EnergyDrained, d.Steps, d.IntensityMinutes))
}
