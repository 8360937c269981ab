// Package debug builds the command line logger.
package debug

import (
	"fmt"
	"io"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

const defaultTimeFormat = "2006-01-02T15:04:05.0000Z"

// Options configures NewLogger.
type Options struct {
	Level zerolog.Level
	// Console writes human readable lines instead of JSON.
	Console bool
	Color   bool
	// Caller adds the calling package, file and line to every event.
	Caller     bool
	TimeFormat string
}

// NewLogger builds a logger writing to w.
func NewLogger(w io.Writer, opts Options) zerolog.Logger {
	if opts.Console {
		w = zerolog.ConsoleWriter{Out: w, NoColor: !opts.Color, TimeFormat: time.TimeOnly}
	}
	logger := zerolog.New(w).Level(opts.Level).Hook(TimeHook{Format: opts.TimeFormat})
	if opts.Caller {
		logger = logger.Hook(CallerHook{WithColor: opts.Color})
	}
	return logger
}

// skipFrames reads the frame count an event was told to skip with CallerSkipFrame.
func skipFrames(e *zerolog.Event) int {
	field := reflect.ValueOf(e).Elem().FieldByName("skipFrame")
	if field.IsValid() {
		return int(field.Int())
	}
	return 0
}

// TimeHook stamps events with millisecond precision.
type TimeHook struct {
	Format string
}

func (h TimeHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	format := h.Format
	if format == "" {
		format = defaultTimeFormat
	}
	e.Str("time", time.Now().UTC().Format(format))
}

// CallerHook adds a "caller" field naming the package, file and line that logged.
type CallerHook struct {
	WithColor bool
}

func (h CallerHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	pc, file, line, ok := runtime.Caller(skipFrames(e) + 3)
	if !ok {
		return
	}
	pkg := "?"
	if fn := runtime.FuncForPC(pc); fn != nil {
		pkg, _ = SplitFuncName(fn.Name())
	}
	e.Str("caller", FormatCaller(pkg, file, line, h.WithColor))
}

// SplitFuncName splits a runtime function name such as
// "github.com/walteh/tagoverlay/pkg/tagger.(*Tagger).Tags" into its package
// path and the function, methods keeping their receiver.
func SplitFuncName(name string) (pkg, function string) {
	lastSlash := max(strings.LastIndexByte(name, '/'), 0)
	dot := strings.IndexByte(name[lastSlash:], '.')
	if dot < 0 {
		return name, ""
	}
	dot += lastSlash
	pkg, function = name[:dot], name[dot+1:]
	if before, after, found := strings.Cut(pkg, ".("); found {
		pkg = before
		function = "(" + after + "." + function
	}
	return pkg, function
}

// FormatCaller renders pkg:file:line, optionally colored for terminals.
func FormatCaller(pkg, path string, line int, colorize bool) string {
	file := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		file = path[i+1:]
	}
	if !colorize {
		return fmt.Sprintf("%s:%s:%d", pkg, file, line)
	}
	sep := color.New(color.Faint).Sprint(":")
	return pkg + sep + color.New(color.Bold).Sprint(file) + sep + color.New(color.FgHiRed, color.Bold).Sprintf("%d", line)
}
