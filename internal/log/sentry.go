package log

import (
	"time"

	"github.com/getsentry/sentry-go"
	sentrylogrus "github.com/getsentry/sentry-go/logrus"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// SentrySettings holds the values needed to bootstrap Sentry reporting.
type SentrySettings struct {
	DSN         string
	Environment string
	Release     string
}

const sentryFlushTimeout = 2 * time.Second

// sentryLevels are the logrus levels forwarded to Sentry as events.
var sentryLevels = []logrus.Level{
	logrus.ErrorLevel,
	logrus.FatalLevel,
	logrus.PanicLevel,
}

// InitSentry creates a Sentry hub and hooks it into the logger so error-level
// entries become Sentry events. An empty DSN disables reporting: the returned
// hub is nil and the flush func is a no-op.
func InitSentry(logger *logrus.Logger, settings SentrySettings) (*sentry.Hub, func(), error) {
	if settings.DSN == "" {
		return nil, func() {}, nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         settings.DSN,
		Environment: settings.Environment,
		Release:     settings.Release,
	})
	if err != nil {
		return nil, nil, eris.Wrap(err, "error initializing sentry client")
	}

	hub := sentry.NewHub(client, sentry.NewScope())

	if logger != nil {
		logger.AddHook(sentrylogrus.NewLogHookFromClient(sentryLevels, client))
	}

	flush := func() {
		hub.Flush(sentryFlushTimeout)
	}

	return hub, flush, nil
}
