package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bus-console-api/internal/models"
	appErrors "github.com/noah-isme/bus-console-api/pkg/errors"
	"github.com/noah-isme/bus-console-api/pkg/middleware/requestid"
)

type observation struct {
	method, endpoint, outcome string
}

type recordingObserver struct {
	mu      sync.Mutex
	samples []observation
}

func (o *recordingObserver) ObserveUpstream(method, endpoint, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.samples = append(o.samples, observation{method, endpoint, outcome})
}

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) (*Client, *recordingObserver) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	observer := &recordingObserver{}
	return NewClient(Options{BaseURL: srv.URL + "/api/", Timeout: timeout, Observer: observer}), observer
}

func TestClientForwardsRoleTokenAndRequestID(t *testing.T) {
	var gotPath, gotAuth, gotReqID string
	client, observer := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get(requestid.HeaderKey)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}, time.Second)

	ctx := WithRole(context.Background(), models.RoleAdmin)
	ctx = WithAuthToken(ctx, "tok")
	ctx = requestid.WithValue(ctx, "req-1")

	var out map[string]bool
	require.NoError(t, client.Do(ctx, Request{Method: http.MethodGet, Path: "/schedules/42/emergency-cancel"}, &out))

	assert.True(t, out["ok"])
	assert.Equal(t, "/api/admin/schedules/42/emergency-cancel", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "req-1", gotReqID)
	require.Len(t, observer.samples, 1)
	assert.Equal(t, observation{http.MethodGet, "/schedules/:id/emergency-cancel", "ok"}, observer.samples[0])
}

func TestClientDefaultsToOperatorNamespace(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}, time.Second)

	require.NoError(t, client.Do(context.Background(), Request{Method: http.MethodDelete, Path: "schedules/1"}, nil))
	assert.Equal(t, "/api/operator/schedules/1", gotPath)
}

func TestClientClassifiesStatusCodes(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		code     string
		message  string
		wantHTTP int
	}{
		{"not found uses body error", http.StatusNotFound, `{"error":"schedule is gone"}`, appErrors.ErrNotFound.Code, "schedule is gone", http.StatusNotFound},
		{"nested message object", http.StatusBadRequest, `{"error":{"message":"fare too high"}}`, appErrors.ErrBadRequest.Code, "fare too high", http.StatusBadRequest},
		{"session expired", http.StatusUnauthorized, ``, appErrors.ErrSessionExpired.Code, appErrors.ErrSessionExpired.Message, http.StatusUnauthorized},
		{"server error default", http.StatusInternalServerError, `not json`, "UPSTREAM_ERROR", "server error, please try again later", http.StatusInternalServerError},
		{"unlisted status", http.StatusTeapot, `{"message":"short and stout"}`, "UPSTREAM_ERROR", "short and stout", http.StatusTeapot},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			client, observer := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, time.Second)

			err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/schedules"}, nil)
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.message, appErr.Message)
			assert.Equal(t, tt.wantHTTP, appErr.Status)
			require.Len(t, observer.samples, 1)
		})
	}
}

func TestClientTimeout(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}, 50*time.Millisecond)

	err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/routes"}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstreamTimeout.Code, appErrors.FromError(err).Code)
}

func TestClientCallerCancellationIsNotAFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := client.Do(ctx, Request{Method: http.MethodGet, Path: "/routes"}, nil)
	assert.True(t, appErrors.IsCancelled(err))
}

func TestClientSupersedesIdenticalRequest(t *testing.T) {
	var calls int32
	firstArrived := make(chan struct{})
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(firstArrived)
			<-r.Context().Done()
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}, 2*time.Second)

	ctx := WithScope(context.Background(), "tab-1")
	firstErr := make(chan error, 1)
	go func() {
		firstErr <- client.Do(ctx, Request{Method: http.MethodGet, Path: "/schedules"}, nil)
	}()
	<-firstArrived

	require.NoError(t, client.Do(ctx, Request{Method: http.MethodGet, Path: "/schedules"}, nil))
	assert.True(t, appErrors.IsCancelled(<-firstErr))
	assert.Zero(t, client.Manager().InFlight())
}

func TestFetchListDecodesWrappedList(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"routes":[{"id":1,"name":"A"},{"id":"2","name":"B"}]}}`))
	}, time.Second)

	routes, err := FetchList[models.Route](context.Background(), client, Request{Method: http.MethodGet, Path: "/routes"}, "routes")
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Equal(t, models.EntityID("2"), routes[1].ID)
}

func TestEndpointLabel(t *testing.T) {
	assert.Equal(t, "/schedules", endpointLabel("/schedules"))
	assert.Equal(t, "/schedules/:id", endpointLabel("schedules/17"))
	assert.Equal(t, "/tariff-rates/current", endpointLabel("/tariff-rates/current"))
}

func TestFetchListOrReturnsFallbackOnCancellation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fallback := []models.Driver{{ID: "x", Name: "cached"}}
	drivers, err := FetchListOr(ctx, client, Request{Method: http.MethodGet, Path: "/drivers"}, "drivers", fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, drivers)
}

func TestFetchListOrKeepsRealErrors(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}, time.Second)

	_, err := FetchListOr(context.Background(), client, Request{Method: http.MethodGet, Path: "/drivers"}, "drivers", []models.Driver{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
