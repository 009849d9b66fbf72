// Package shutdown coordinates graceful teardown on SIGINT/SIGTERM.
// Components register hooks (close the store, flush history); the watcher
// cancels the run context so an in-flight plan stops at the next group
// boundary, then runs the hooks under a grace period before exiting.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rohanthewiz/logger"
)

const gracePeriod = 10 * time.Second

// HookFunc performs one piece of teardown within the grace period.
type HookFunc func(grace time.Duration) error

type namedHook struct {
	name string
	fn   HookFunc
}

var (
	mu      sync.Mutex
	hooks   []namedHook
	started bool
)

// Register adds a teardown hook. Safe to call before or after Watch.
func Register(name string, fn HookFunc) {
	mu.Lock()
	defer mu.Unlock()
	hooks = append(hooks, namedHook{name: name, fn: fn})
}

// InProgress reports whether a shutdown signal has been received.
func InProgress() bool {
	mu.Lock()
	defer mu.Unlock()
	return started
}

// Watch installs the signal handler and returns a context derived from
// parent that is cancelled the moment a signal arrives.
func Watch(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		mu.Lock()
		started = true
		toRun := append([]namedHook(nil), hooks...)
		mu.Unlock()

		cancel()

		var wg sync.WaitGroup
		for _, h := range toRun {
			wg.Add(1)
			go func(h namedHook) {
				defer wg.Done()
				if err := h.fn(gracePeriod); err != nil {
					logger.LogErr(err, "shutdown hook failed", "hook", h.name)
				} else {
					logger.Debug("Shutdown hook completed", "hook", h.name)
				}
			}(h)
		}

		finished := make(chan struct{})
		go func() {
			wg.Wait()
			close(finished)
		}()

		select {
		case <-finished:
		case <-time.After(gracePeriod):
			logger.Warn("Shutdown hooks timed out", "grace", gracePeriod.String())
		}
		os.Exit(0)
	}()

	return ctx
}
