package hisab

import log "github.com/sirupsen/logrus"

// Notifier receives user-facing messages. Calls are fire-and-forget.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}

// LogNotifier writes notifications to a logrus logger.
type LogNotifier struct {
	Log log.FieldLogger
}

func (n LogNotifier) logger() log.FieldLogger {
	if n.Log == nil {
		return log.StandardLogger()
	}
	return n.Log
}

func (n LogNotifier) Success(msg string) { n.logger().WithField("notify", "success").Info(msg) }
func (n LogNotifier) Error(msg string)   { n.logger().WithField("notify", "error").Warn(msg) }
func (n LogNotifier) Info(msg string)    { n.logger().WithField("notify", "info").Info(msg) }
