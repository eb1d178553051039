package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bus-console-api/internal/models"
	"github.com/noah-isme/bus-console-api/internal/upstream"
)

type recordedCall struct {
	Method string
	Path   string
	Body   []byte
}

func newFakeUpstream(t *testing.T, routes map[string]string) (*upstream.Client, *[]recordedCall) {
	t.Helper()
	calls := make([]recordedCall, 0)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, recordedCall{Method: r.Method, Path: r.URL.Path, Body: body})
		payload, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not here"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	client := upstream.NewClient(upstream.Options{BaseURL: srv.URL, Timeout: 2 * time.Second})
	return client, &calls
}

func TestCatalogRepositoryAcceptsWrappedAndBareLists(t *testing.T) {
	client, _ := newFakeUpstream(t, map[string]string{
		"GET /operator/routes":  `{"routes":[{"id":1,"name":"Jakarta - Bandung","distance_km":"150"}]}`,
		"GET /operator/buses":   `[{"id":"b1","bus_number":"B-01","category":"vip","capacity":40}]`,
		"GET /operator/drivers": `{"data":{"items":[{"id":3,"name":"Budi"}]}}`,
	})
	repo := NewCatalogRepository(client)
	ctx := context.Background()

	routes, err := repo.ListRoutes(ctx)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, models.EntityID("1"), routes[0].ID)
	assert.Equal(t, 150.0, routes[0].DistanceKm.Float64())

	buses, err := repo.ListBuses(ctx)
	require.NoError(t, err)
	require.Len(t, buses, 1)
	assert.Equal(t, models.BusCategoryVIP, buses[0].NormalizedCategory())

	drivers, err := repo.ListDrivers(ctx)
	require.NoError(t, err)
	require.Len(t, drivers, 1)
	assert.Equal(t, "Budi", drivers[0].Name)
}

func TestScheduleRepositoryFindByID(t *testing.T) {
	client, _ := newFakeUpstream(t, map[string]string{
		"GET /operator/schedules": `{"schedules":[{"id":5,"bus_number":"B-01"},{"id":6,"bus_number":"B-02"}]}`,
	})
	repo := NewScheduleRepository(client)

	found, err := repo.FindByID(context.Background(), "6")
	require.NoError(t, err)
	assert.Equal(t, "B-02", found.BusNumber)

	_, err = repo.FindByID(context.Background(), "99")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestScheduleRepositoryCreateEchoesPayloadWhenBodyHasNoRecord(t *testing.T) {
	client, calls := newFakeUpstream(t, map[string]string{
		"POST /admin/schedules": `{"message":"created","id":77}`,
	})
	repo := NewScheduleRepository(client)
	ctx := upstream.WithRole(context.Background(), models.RoleAdmin)

	saved, err := repo.Create(ctx, models.SchedulePayload{BusNumber: "B-01", DriverName: "Budi", Fare: 120})
	require.NoError(t, err)
	assert.Equal(t, models.EntityID("77"), saved.ID)
	assert.Equal(t, "B-01", saved.BusNumber)
	assert.Equal(t, 120.0, saved.Fare.Float64())

	require.Len(t, *calls, 1)
	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal((*calls)[0].Body, &sent))
	assert.Equal(t, "Budi", sent["driver_name"])
}

func TestScheduleRepositoryEmergencyCancel(t *testing.T) {
	client, calls := newFakeUpstream(t, map[string]string{
		"POST /operator/schedules/5/emergency-cancel": `{"refunded":3}`,
	})
	repo := NewScheduleRepository(client)

	out, err := repo.EmergencyCancel(context.Background(), "5", models.EmergencyCancellation{Reason: "flood", RefundPercentage: 100})
	require.NoError(t, err)
	assert.EqualValues(t, 3, out["refunded"])
	require.Len(t, *calls, 1)
	assert.JSONEq(t, `{"reason":"flood","refund_percentage":100}`, string((*calls)[0].Body))
}

func TestTariffRateRepositoryCurrentNormalisesEntries(t *testing.T) {
	client, _ := newFakeUpstream(t, map[string]string{
		"GET /operator/tariff-rates/current": `{"tariff_rates":{"vip":5.25,"Luxury":{"rate_per_km":"3.75","minimum_fare":80},"Premium":0,"Hover":9},"minimum_fares":{"Standard":60},"using_defaults":false}`,
	})
	repo := NewTariffRateRepository(client)

	table, err := repo.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5.25, table.Rates[models.BusCategoryVIP])
	assert.Equal(t, 3.75, table.Rates[models.BusCategoryLuxury])
	assert.Equal(t, 80.0, table.MinimumFares[models.BusCategoryLuxury])
	assert.Equal(t, 60.0, table.MinimumFares[models.BusCategoryStandard])
	_, hasPremium := table.Rates[models.BusCategoryPremium]
	assert.False(t, hasPremium)
	assert.Len(t, table.Rates, 2)
}

func TestTariffRateRepositoryPropagatesUpstreamErrors(t *testing.T) {
	client, _ := newFakeUpstream(t, map[string]string{})
	repo := NewTariffRateRepository(client)

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not here")
}
