// Package logx is the ambient structured-logging wrapper used
// throughout tarfs. It reproduces the call convention rclone's
// backend/local uses against its own fs package (fs.Debugf(ctx, fmt,
// args...), fs.Infof, fs.Errorf, fs.Logf — see DESIGN.md) backed by
// logrus, the teacher's own direct logging dependency.
package logx

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Context is anything loggable that names what a message is about —
// typically an archive-relative path. A nil Context is fine; it just
// omits the field.
type Context interface {
	String() string
}

// StringContext adapts a plain string to Context.
type StringContext string

func (s StringContext) String() string { return string(s) }

var std = logrus.StandardLogger()

func entryFor(ctx Context) *logrus.Entry {
	if ctx == nil {
		return logrus.NewEntry(std)
	}
	return std.WithField("path", ctx.String())
}

// Debugf logs at debug level, scoped to ctx.
func Debugf(ctx Context, format string, args ...any) {
	entryFor(ctx).Debug(fmt.Sprintf(format, args...))
}

// Infof logs at info level, scoped to ctx.
func Infof(ctx Context, format string, args ...any) {
	entryFor(ctx).Info(fmt.Sprintf(format, args...))
}

// Logf logs at the default informational level callers use for
// routine notices worth surfacing without the verbosity of Debugf.
func Logf(ctx Context, format string, args ...any) {
	entryFor(ctx).Info(fmt.Sprintf(format, args...))
}

// Errorf logs at error level, scoped to ctx.
func Errorf(ctx Context, format string, args ...any) {
	entryFor(ctx).Error(fmt.Sprintf(format, args...))
}

// SetLevel adjusts the package logger's verbosity; extraction callers
// wire this to their own CLI/config layer.
func SetLevel(level logrus.Level) {
	std.SetLevel(level)
}
