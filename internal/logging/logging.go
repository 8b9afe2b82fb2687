package logging

import (
	"log"
	"os"
)

// Logger is a simple logger that writes to the console.
type Logger struct {
	*log.Logger
}

// NewLogger creates a new Logger.
func NewLogger() *Logger {
	return &Logger{
		Logger: log.New(os.Stdout, "", log.LstdFlags),
	}
}

// Info logs an informational message.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.Printf("INFO: "+msg+kvSuffix(args), args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.Printf("WARN: "+msg+kvSuffix(args), args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.Printf("ERROR: "+msg+kvSuffix(args), args...)
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.Printf("DEBUG: "+msg+kvSuffix(args), args...)
}

// kvSuffix renders trailing key/value pairs as " key=value" placeholders so
// callers can pass structured-style arguments to the printf-based logger.
func kvSuffix(args []interface{}) string {
	s := ""
	for i := 0; i+1 < len(args); i += 2 {
		s += " %v=%v"
	}
	if len(args)%2 == 1 {
		s += " %v"
	}
	return s
}
