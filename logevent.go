package libdex

import (
	"fmt"
	"io"
	"os"

	"github.com/joeycumines/logiface"
)

// logEvent is a minimal concrete logiface.Event implementation: a small,
// allocation-light event that accumulates fields and writes a single line
// per event rather than JSON.
type logEvent struct {
	logiface.UnimplementedEvent
	lvl    logiface.Level
	msg    string
	err    error
	fields []logField
}

type logField struct {
	key string
	val any
}

func (e *logEvent) Level() logiface.Level { return e.lvl }

func (e *logEvent) AddField(key string, val any) {
	e.fields = append(e.fields, logField{key, val})
}

func (e *logEvent) AddMessage(msg string) bool {
	e.msg = msg
	return true
}

func (e *logEvent) AddError(err error) bool {
	e.err = err
	return true
}

func (e *logEvent) reset() {
	e.msg = ""
	e.err = nil
	e.fields = e.fields[:0]
}

// lineWriter writes events as a single "[level] msg key=val ... err=..." line.
type lineWriter struct {
	out io.Writer
}

func (w lineWriter) Write(e *logEvent) error {
	_, err := fmt.Fprintf(w.out, "[%s] %s", e.lvl, e.msg)
	if err != nil {
		return err
	}
	for _, f := range e.fields {
		if _, err := fmt.Fprintf(w.out, " %s=%v", f.key, f.val); err != nil {
			return err
		}
	}
	if e.err != nil {
		if _, err := fmt.Fprintf(w.out, " err=%v", e.err); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(w.out)
	return err
}

var eventFactory = logiface.NewEventFactoryFunc(func(level logiface.Level) *logEvent {
	return &logEvent{lvl: level}
})

var eventReleaser = logiface.NewEventReleaserFunc(func(e *logEvent) {
	e.reset()
})

// L is the logEvent-typed logiface.LoggerFactory.
var L = logiface.LoggerFactory[*logEvent]{}

// discardLogger is the package default: it never writes anywhere, matching
// the core's "never writes to stderr unasked" contract.
var discardLogger = L.New(
	L.WithEventFactory(eventFactory),
	L.WithEventReleaser(eventReleaser),
)

// NewLineLogger builds a Logger that writes human-readable lines to w (or
// os.Stderr if w is nil), for callers who want libdex's diagnostics visible
// without wiring in their own logiface backend.
func NewLineLogger(w io.Writer, level logiface.Level) Logger {
	if w == nil {
		w = os.Stderr
	}
	return L.New(
		L.WithLevel(level),
		L.WithEventFactory(eventFactory),
		L.WithEventReleaser(eventReleaser),
		L.WithWriter(lineWriter{out: w}),
	)
}
