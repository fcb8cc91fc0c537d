package syncer

// TriggerPolicy decides what happens to a trigger that arrives while a
// cycle is running.
type TriggerPolicy string

const (
	// TriggerCoalesce queues a single re-run after the current cycle.
	TriggerCoalesce TriggerPolicy = "coalesce"
	// TriggerIgnore drops triggers while the engine is busy.
	TriggerIgnore TriggerPolicy = "ignore"
)

type Config struct {
	// MonitoredFile is the base name of the file whose changes trigger a sync.
	MonitoredFile string
	TriggerPolicy TriggerPolicy
}
