package logger

import corelogger "github.com/kilianp07/meshcast/core/logger"

type Logger = corelogger.Logger

type NopLogger = corelogger.NopLogger

// New returns a component logger using the settings applied by Configure.
// Before Configure is called the output format follows APP_ENV.
func New(component string) Logger {
	return NewZerologLogger(component)
}

// With returns l with fields attached to every entry. Loggers not backed by
// zerolog are returned unchanged.
func With(l Logger, fields map[string]any) Logger {
	z, ok := l.(*ZerologLogger)
	if !ok || len(fields) == 0 {
		return l
	}
	return &ZerologLogger{log: z.log.With().Fields(fields).Logger()}
}
