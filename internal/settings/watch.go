package settings

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/knadh/koanf/providers/file"
)

// observe (re)subscribes to change notifications for the user settings
// file. Each change triggers a reconciliation pass. When the watcher itself
// fails (editor swap-file shuffles can briefly remove the file), the watch
// is re-established with exponential backoff.
func (s *Settings) observe() {
	s.mu.Lock()
	unwatch := s.unwatch
	s.unwatch = nil
	s.mu.Unlock()
	if unwatch != nil {
		unwatch()
	}

	if s.path == "" || !fileExists(s.path) {
		return
	}

	f := file.Provider(s.path)
	err := f.Watch(func(_ any, err error) {
		if err != nil {
			s.log.Warnf("settings watch interrupted: %v", err)
			go s.rewatch()
			return
		}
		if rerr := s.Reconcile(); rerr != nil {
			s.log.Errorf("settings reconcile failed: %v", rerr)
		}
	})
	if err != nil {
		s.log.Warnf("cannot watch %s: %v", s.path, err)
		return
	}

	s.mu.Lock()
	s.unwatch = func() { _ = f.Unwatch() }
	s.mu.Unlock()
}

// rewatch retries observe until the settings file is watchable again.
func (s *Settings) rewatch() {
	_, err := backoff.Retry(context.Background(), func() (struct{}, error) {
		if !fileExists(s.path) {
			return struct{}{}, errSettingsGone
		}
		s.observe()
		return struct{}{}, nil
	},
		backoff.WithBackOff(newWatchBackoff()),
		backoff.WithMaxTries(10),
	)
	if err != nil {
		s.log.Errorf("giving up re-watching %s: %v", s.path, err)
		return
	}
	// The change that killed the watcher may have been a settings write.
	if err := s.Reconcile(); err != nil {
		s.log.Errorf("settings reconcile failed: %v", err)
	}
}

type watchError string

func (e watchError) Error() string { return string(e) }

const errSettingsGone = watchError("settings file missing")

func newWatchBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.Multiplier = 2.0
	return b
}
