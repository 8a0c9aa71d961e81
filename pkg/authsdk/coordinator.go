package authsdk

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/cryptox"
)

// Coordinator coalesces concurrent refresh demands so that at most one
// refresh call is outstanding at any time.
//
// Callers that observe an expired access token join the in-flight refresh
// for that token instead of starting their own. When it settles every
// waiter is released with the same outcome. A failed refresh always ends
// the session; it is never retried.
type Coordinator struct {
	store     *Store
	refresher Refresher
	clock     clockwork.Clock
	logger    *slog.Logger

	group singleflight.Group

	// refreshMu is held for the whole network call, so two refresh calls
	// can never overlap even across different stale tokens.
	refreshMu sync.Mutex

	// ctx is the lifetime of the coordinator. Refresh calls run on it so a
	// single waiter giving up does not abort the shared call.
	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
}

// NewCoordinator creates a refresh coordinator for store.
func NewCoordinator(store *Store, refresher Refresher, clock clockwork.Clock, logger *slog.Logger) *Coordinator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Coordinator{
		store:     store,
		refresher: refresher,
		clock:     clock,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// EnsureFreshCredential returns once the store holds a credential newer
// than staleAccess, refreshing if needed. staleAccess is the access token
// the caller saw rejected.
//
// It returns an error wrapping ErrSessionExpired if the refresh failed, the
// session already ended, or the coordinator was closed. If ctx ends first
// the caller stops waiting and gets ctx.Err(); the shared refresh carries on.
func (c *Coordinator) EnsureFreshCredential(ctx context.Context, staleAccess string) error {
	if c.ctx.Err() != nil {
		return fmt.Errorf("%w: session closed", ErrSessionExpired)
	}

	cur, ok := c.store.Get()
	if !ok {
		return ErrSessionExpired
	}
	if cur.AccessToken != staleAccess {
		return nil
	}

	ch := c.group.DoChan(staleAccess, func() (any, error) {
		return nil, c.refresh(staleAccess)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		return fmt.Errorf("%w: session closed", ErrSessionExpired)
	}
}

// refresh performs the single network refresh for staleAccess.
func (c *Coordinator) refresh(staleAccess string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Re-check under the lock: a previous refresh may have already replaced
	// or cleared the credential.
	cur, ok := c.store.Get()
	if !ok {
		return ErrSessionExpired
	}
	if cur.AccessToken != staleAccess {
		return nil
	}

	logger := c.logger.With("access_fp", cryptox.FingerprintToken(staleAccess))
	logger.Debug("refreshing credential")

	tokenResp, err := c.refresher.Refresh(c.ctx, cur.RefreshToken)
	if err != nil {
		if c.ctx.Err() != nil {
			// Close clears the store with its own reason.
			return fmt.Errorf("%w: session closed", ErrSessionExpired)
		}

		_, _ = c.store.CompareAndSet(staleAccess, nil, ReasonExpired)
		logger.Warn("credential refresh failed, session ended", "err", err)
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}

	next := tokenResp.pair(c.clock.Now(), cur.RefreshToken)
	written, err := c.store.CompareAndSet(staleAccess, &next, ReasonRefresh)
	if err != nil {
		_, _ = c.store.CompareAndSet(staleAccess, nil, ReasonExpired)
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	if !written {
		// The session was replaced or ended while the call was outstanding.
		if _, ok := c.store.Get(); !ok {
			return ErrSessionExpired
		}
		return nil
	}

	logger.Info("credential refreshed", "new_access_fp", cryptox.FingerprintToken(next.AccessToken))
	return nil
}

// Expire ends the session held under rejectedAccess. The dispatcher calls
// it when a request is rejected as expired even after a refresh.
func (c *Coordinator) Expire(rejectedAccess string) {
	written, _ := c.store.CompareAndSet(rejectedAccess, nil, ReasonExpired)
	if written {
		c.logger.Warn("credential rejected after refresh, session ended",
			"access_fp", cryptox.FingerprintToken(rejectedAccess),
		)
	}
}

// Close tears the coordinator down: the in-flight refresh is cancelled,
// waiters are released with ErrSessionExpired and the store is cleared.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		c.cancel()

		// Wait for an in-flight refresh to observe cancellation.
		c.refreshMu.Lock()
		c.store.Clear(ReasonTeardown)
		c.refreshMu.Unlock()
	})
}
