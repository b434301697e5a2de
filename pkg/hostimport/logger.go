package hostimport

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/fluencelabs/marine-sub002/pkg/memview"
)

// LogUTF8String builds the log_utf8_string standard import: target ==
// 0 always logs; otherwise the call is emitted only if target &
// loggingMask is nonzero, per the logging API contract's Open
// Question (b) resolution — zero is deliberately "always log", not
// "never".
func LogUTF8String(log *logrus.Entry, moduleName string, loggingMask int32) func(ctx context.Context, mem memview.View, args []uint64) ([]uint64, error) {
	return func(_ context.Context, mem memview.View, args []uint64) ([]uint64, error) {
		if len(args) != 4 {
			return nil, ErrMalformedCallParameters
		}
		level := int32(args[0])
		target := int32(args[1])
		offset := uint32(args[2])
		size := uint32(args[3])

		if target != 0 && target&loggingMask == 0 {
			return nil, nil
		}
		b, err := mem.Read(offset, size)
		if err != nil {
			return nil, err
		}
		entry := log.WithField("module", moduleName).WithField("target", target)
		switch {
		case level <= 0:
			entry.Error(string(b))
		case level == 1:
			entry.Warn(string(b))
		case level == 2:
			entry.Info(string(b))
		default:
			entry.Debug(string(b))
		}
		return nil, nil
	}
}
