package service

const (
	// Extra days fetched before the history window so the oldest scored
	// day still has a full baseline
	BaselineLookbackDays = 30

	// Checkpoint writes lost to a concurrent writer are retried this often
	MaxCheckpointRetries = 3

	// Days of scored recovery included for the trend chart
	recoveryHistoryDays = 30
)
