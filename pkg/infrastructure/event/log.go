package event

import (
	"github.com/sirupsen/logrus"

	"github.com/valerusyaaa/crossplatform2/pkg/domain/service"
)

// LogDispatcher writes events to the log. It stands in for the broker when no
// Kafka address is configured.
type LogDispatcher struct {
	log *logrus.Logger
}

var _ service.EventDispatcher = &LogDispatcher{}

func NewLogDispatcher(log *logrus.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) Dispatch(e service.Event) error {
	d.log.WithFields(logrus.Fields{
		"type":  e.Type(),
		"event": e,
	}).Info("domain event")
	return nil
}
