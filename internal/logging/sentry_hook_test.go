package logging

import (
	"errors"
	"sync"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentryHook_Fire(t *testing.T) {
	var (
		mutex  sync.Mutex
		events []*sentry.Event
	)
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mutex.Lock()
			defer mutex.Unlock()
			events = append(events, event)
			// nothing leaves the process
			return nil
		},
	})
	require.NoError(t, err)

	hook := NewSentryHookWithHub(
		sentry.NewHub(client, sentry.NewScope()),
		[]logrus.Level{logrus.ErrorLevel},
	)
	assert.Equal(t, []logrus.Level{logrus.ErrorLevel}, hook.Levels())

	logger := logrus.New()
	logger.AddHook(hook)
	logger.WithField("data_type", "steps").
		WithError(errors.New("remote failed")).
		Errorln("aggregate query failed")
	logger.Warnln("not sent")

	mutex.Lock()
	defer mutex.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, sentry.LevelError, events[0].Level)
	assert.Equal(t, "aggregate query failed", events[0].Message)
	assert.Equal(t, "steps", events[0].Extra["data_type"])
	assert.Equal(t, "remote failed", events[0].Extra[logrus.ErrorKey])
}

func TestSentryLevel(t *testing.T) {
	assert.Equal(t, sentry.LevelFatal, sentryLevel(logrus.PanicLevel))
	assert.Equal(t, sentry.LevelFatal, sentryLevel(logrus.FatalLevel))
	assert.Equal(t, sentry.LevelError, sentryLevel(logrus.ErrorLevel))
	assert.Equal(t, sentry.LevelWarning, sentryLevel(logrus.WarnLevel))
	assert.Equal(t, sentry.LevelInfo, sentryLevel(logrus.InfoLevel))
	assert.Equal(t, sentry.LevelDebug, sentryLevel(logrus.TraceLevel))
}
