package logger

// Permission decides whether a caller may log at the moment. Components
// that run inside the emulation loop pass themselves so that logging can be
// suppressed, for example while replaying a snapshot.
type Permission interface {
	AllowLogging() bool
}

type allow struct{}

func (allow) AllowLogging() bool {
	return true
}

// Allow always permits logging.
var Allow Permission = allow{}
