package stdlog

import (
	"io"
	"log"
)

// Logger writes diagnostics through the standard library logger.
type Logger struct {
	l     *log.Logger
	debug bool
}

// New creates a Logger writing to w. Debug messages are dropped unless
// debug is set.
func New(w io.Writer, debug bool) *Logger {
	return &Logger{l: log.New(w, "tmaps: ", log.LstdFlags), debug: debug}
}

func (l *Logger) Debug(message string) {
	if !l.debug {
		return
	}
	l.l.Printf("DEBUG %s", message)
}

func (l *Logger) Error(message string) {
	l.l.Printf("ERROR %s", message)
}
