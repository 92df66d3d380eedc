package coachsdk

import (
	"context"
	"time"
)

// Refresher renews the access token on a fixed interval until stopped or
// until a refresh fails.
type Refresher struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// startRefresher calls refresh every interval. Failures are passed to
// onFailure, and the loop ends when it returns true. Failures caused by
// Stop are not reported.
func startRefresher(interval time.Duration, refresh func(context.Context) error, onFailure func(*Refresher, error) bool) *Refresher {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Refresher{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(r.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				err := refresh(ctx)
				if err == nil {
					continue
				}
				if ctx.Err() != nil || onFailure(r, err) {
					return
				}
			}
		}
	}()

	return r
}

// Stop cancels the loop and waits for it to exit. Safe to call twice.
func (r *Refresher) Stop() {
	r.cancel()
	<-r.done
}
