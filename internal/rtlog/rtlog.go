// Package rtlog provides the structured logrus logger shared across
// the runtime, configured once at process start and threaded through
// via *logrus.Entry fields rather than a global logger pulled in
// ad-hoc by each package.
package rtlog

import "github.com/sirupsen/logrus"

// New returns a base logger configured the way OPA's own plugins
// configure logrus: text formatter, full timestamps, level left to the
// caller (cmd/marine sets it from its -v flag).
func New() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// For returns an Entry scoped to subsystem, the unit every package in
// this module logs through.
func For(l *logrus.Logger, subsystem string) *logrus.Entry {
	return l.WithField("subsystem", subsystem)
}
