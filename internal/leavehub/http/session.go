package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/authsdk"
	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/httpx"
	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/slogx"
)

// SessionView is what the UI renders from: who is signed in, with which
// roles, and why the session last changed.
type SessionView struct {
	Authenticated bool              `json:"authenticated"`
	Identity      *authsdk.Identity `json:"identity,omitempty"`
	Reason        authsdk.Reason    `json:"reason,omitempty"`
	// Message is set while signed out: the expired-session message after
	// an expiry, the plain sign-in prompt otherwise.
	Message   string     `json:"message,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func viewOf(s authsdk.State) SessionView {
	v := SessionView{
		Authenticated: s.Authenticated,
		Identity:      s.Identity,
		Reason:        s.Reason,
		ExpiresAt:     s.ExpiresAt,
	}

	if !s.Authenticated {
		v.Message = authsdk.MessageUnauthenticated
		if s.Reason == authsdk.ReasonExpired {
			v.Message = authsdk.MessageSessionExpired
		}
	}
	return v
}

// SessionHandler reports the current session.
type SessionHandler struct {
	Guard *authsdk.Guard
}

// ServeHTTP godoc
//
//	@Summary		Current session
//	@Description	Authentication state and identity projected from the access token. expires_at is
//	@Description	advisory; the backend decides expiry.
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	SessionView
//	@Failure		403	{object}	map[string]interface{}	"Cross-origin request"
//	@Router			/session [get]
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, viewOf(h.Guard.Current()))
}

// EventsHandler streams session transitions as server-sent events.
type EventsHandler struct {
	Guard     *authsdk.Guard
	Heartbeat time.Duration
	Clock     clockwork.Clock
	// Done is closed when the server shuts down.
	Done <-chan struct{}
}

// eventBuffer bounds transitions queued for a slow reader. On overflow the
// oldest is dropped; the newest state is always delivered.
const eventBuffer = 8

// ServeHTTP godoc
//
//	@Summary		Session transitions
//	@Description	Server-sent events. The current state is sent first as event "session", then one
//	@Description	event per change: login, refresh, logout, expired or teardown. The stream ends
//	@Description	after a teardown.
//	@Tags			Session
//	@Produce		text/event-stream
//	@Success		200	{object}	SessionView	"event: session"
//	@Router			/session/events [get]
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())
	rc := http.NewResponseController(w)

	events := make(chan authsdk.State, eventBuffer)
	cancel := h.Guard.Watch(func(s authsdk.State) {
		// Runs inside the store's write; it must never block.
		for {
			select {
			case events <- s:
				return
			default:
			}
			select {
			case <-events:
			default:
			}
		}
	})
	defer cancel()

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	send := func(s authsdk.State) error {
		data, err := json.Marshal(viewOf(s))
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: session\ndata: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	if err := send(h.Guard.Current()); err != nil {
		log.Debug("event stream closed", "error", err)
		return
	}

	heartbeat := h.Clock.NewTicker(h.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case s := <-events:
			if err := send(s); err != nil {
				log.Debug("event stream closed", "error", err)
				return
			}
			if s.Reason == authsdk.ReasonTeardown {
				return
			}
		case <-heartbeat.Chan():
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		case <-h.Done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
