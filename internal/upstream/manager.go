package upstream

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var (
	errSuperseded = errors.New("upstream request superseded by a newer identical request")
	errAbandoned  = errors.New("upstream request cancelled by caller")
)

// RequestKey identifies an outbound call. Two calls with the same key never run concurrently:
// starting the second cancels the first.
type RequestKey struct {
	Scope  string
	Method string
	URL    string
}

// String renders the key in a stable form.
func (k RequestKey) String() string {
	return k.Scope + " " + strings.ToUpper(k.Method) + " " + k.URL
}

type inflightRequest struct {
	id     uint64
	scope  string
	cancel context.CancelCauseFunc
}

// RequestManager tracks in-flight upstream calls so they can be superseded or abandoned.
// It is safe for concurrent use.
type RequestManager struct {
	mu       sync.Mutex
	seq      uint64
	inflight map[string]inflightRequest
}

// NewRequestManager constructs an empty manager.
func NewRequestManager() *RequestManager {
	return &RequestManager{inflight: make(map[string]inflightRequest)}
}

// Start registers a call under key and returns the context the call must use. Any call already
// registered under the same key is cancelled first. done must be called once the call finishes.
func (m *RequestManager) Start(ctx context.Context, key RequestKey) (context.Context, func()) {
	reqCtx, cancel := context.WithCancelCause(ctx)
	k := key.String()

	m.mu.Lock()
	if prev, ok := m.inflight[k]; ok {
		prev.cancel(errSuperseded)
	}
	m.seq++
	id := m.seq
	m.inflight[k] = inflightRequest{id: id, scope: key.Scope, cancel: cancel}
	m.mu.Unlock()

	done := func() {
		m.mu.Lock()
		if cur, ok := m.inflight[k]; ok && cur.id == id {
			delete(m.inflight, k)
		}
		m.mu.Unlock()
		cancel(nil)
	}
	return reqCtx, done
}

// Cancel aborts the call registered under key. It reports whether one was found.
func (m *RequestManager) Cancel(key RequestKey) bool {
	k := key.String()
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.inflight[k]
	if !ok {
		return false
	}
	entry.cancel(errAbandoned)
	delete(m.inflight, k)
	return true
}

// CancelScope aborts every call started for one console session and returns how many were cancelled.
func (m *RequestManager) CancelScope(scope string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cancelled := 0
	for k, entry := range m.inflight {
		if entry.scope != scope {
			continue
		}
		entry.cancel(errAbandoned)
		delete(m.inflight, k)
		cancelled++
	}
	return cancelled
}

// CancelAll aborts every in-flight call.
func (m *RequestManager) CancelAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cancelled := len(m.inflight)
	for k, entry := range m.inflight {
		entry.cancel(errAbandoned)
		delete(m.inflight, k)
	}
	return cancelled
}

// InFlight returns the number of registered calls.
func (m *RequestManager) InFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inflight)
}

func cancelledByManager(ctx context.Context) bool {
	cause := context.Cause(ctx)
	return errors.Is(cause, errSuperseded) || errors.Is(cause, errAbandoned)
}
