package logging

import "time"

// Timed measures one operation. Begin captures the start time and any
// fields shared by all outcomes; End, Warn and Fail close the
// measurement with an entry carrying those fields, the outcome's own
// fields and the elapsed time.
type Timed struct {
	logger Logger
	start  time.Time
	fields []Field
}

// Begin starts a measurement.
func Begin(logger Logger, fields ...Field) *Timed {
	return &Timed{logger: logger, start: time.Now(), fields: fields}
}

// Elapsed returns the time since Begin.
func (t *Timed) Elapsed() time.Duration {
	return time.Since(t.start)
}

// End logs the outcome at info level.
func (t *Timed) End(msg string, fields ...Field) {
	t.logger.Info(msg, t.close(fields)...)
}

// Warn logs the outcome at warn level.
func (t *Timed) Warn(msg string, fields ...Field) {
	t.logger.Warn(msg, t.close(fields)...)
}

// Fail logs the outcome and its error at error level.
func (t *Timed) Fail(msg string, err error, fields ...Field) {
	t.logger.Error(msg, append(t.close(fields), Error(err))...)
}

func (t *Timed) close(fields []Field) []Field {
	out := make([]Field, 0, len(t.fields)+len(fields)+1)
	out = append(out, t.fields...)
	out = append(out, fields...)
	return append(out, Latency(t.Elapsed()))
}
