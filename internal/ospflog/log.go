// Package ospflog is the thin logging facade every package in this module
// logs through. It wraps logrus so components depend on a small interface
// rather than the concrete logger, letting tests substitute a buffer-backed
// entry and assert on log lines.
package ospflog

import (
	"io"

	"github.com/sirupsen/logrus"
)

// A Logger is the subset of *logrus.Entry components use. Pre-populated
// with contextual fields (area, iface, neighbor, lsa-type) by whoever
// constructs it for a given component.
type Logger interface {
	WithField(key string, value interface{}) Logger
	WithFields(fields Fields) Logger
	WithError(err error) Logger
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Fields is an alias of logrus.Fields so callers don't need to import
// logrus directly just to build a field set.
type Fields = logrus.Fields

// entry adapts *logrus.Entry to Logger.
type entry struct {
	*logrus.Entry
}

func (e entry) WithField(key string, value interface{}) Logger {
	return entry{e.Entry.WithField(key, value)}
}

func (e entry) WithFields(fields Fields) Logger {
	return entry{e.Entry.WithFields(fields)}
}

func (e entry) WithError(err error) Logger {
	return entry{e.Entry.WithError(err)}
}

// New returns a Logger backed by a fresh *logrus.Logger writing to w in
// text format, suitable for both process startup and test substitution.
func New(w io.Writer) Logger {
	l := logrus.New()
	l.SetOutput(w)
	return entry{logrus.NewEntry(l)}
}

// FromEntry adapts an existing *logrus.Entry, for callers that already
// hold one (e.g. cmd/ospfd's process-wide logger).
func FromEntry(e *logrus.Entry) Logger {
	return entry{e}
}

// Discard is a Logger that drops everything, used as a default when a
// component is constructed without an explicit logger (tests, fakes).
var Discard Logger = entry{logrus.NewEntry(func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}())}
