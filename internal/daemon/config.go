package daemon

import "time"

type Config struct {
	// Interval adds a periodic trigger. Zero disables it.
	Interval time.Duration
	// OnStart runs one cycle right after startup.
	OnStart bool
}
