// Package log centralizes the logrus setup used across this module: a base
// entry callers attach fields to, and a context-scoped accessor (G) so a
// call deep in the launch/bootstrap sequence can log with whatever fields an
// earlier caller already attached, without threading a logger argument
// through every function signature.
package log

import (
	"context"

	"github.com/sirupsen/logrus"
)

type loggerKey struct{}

// L is the package's base entry. Callers that want JSON output or a
// different level should mutate L.Logger directly during startup.
var L = logrus.NewEntry(logrus.StandardLogger())

// WithContext attaches entry to ctx, returning a context G will recover it
// from.
func WithContext(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, entry)
}

// G returns the logrus entry attached to ctx via WithContext, or L if none
// was attached.
func G(ctx context.Context) *logrus.Entry {
	if e, ok := ctx.Value(loggerKey{}).(*logrus.Entry); ok {
		return e
	}
	return L
}
