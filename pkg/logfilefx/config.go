package logfilefx

type Config struct {
	// Filename of the log file. Empty disables file logging.
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}
