package history

type Config struct {
	// Limit is the number of records kept; older ones are pruned on write.
	// Zero keeps everything.
	Limit int
}
