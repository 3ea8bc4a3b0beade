package temperature

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/common/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	vector := model.Vector{
		{Metric: model.Metric{"location": "kitchen", "job": "sensors"}, Value: 71.5},
		{Metric: model.Metric{"location": "garden"}, Value: 48},
		{Metric: model.Metric{"job": "sensors"}, Value: 99},
		{Metric: model.Metric{"location": ""}, Value: 12},
	}
	readings, err := parse(vector)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"kitchen": 71.5, "garden": 48}, readings)

	_, err = parse(&model.Scalar{Value: 1})
	assert.Error(t, err)
	_, err = parse(nil)
	assert.Error(t, err)
}

func prometheusServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/query" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPoll(t *testing.T) {
	srv := prometheusServer(t, `{"status":"success","data":{"resultType":"vector","result":[
		{"metric":{"location":"Office"},"value":[1700000000,"68.9"]},
		{"metric":{"location":"Garage"},"value":[1700000000,"41"]},
		{"metric":{},"value":[1700000000,"1"]}
	]}}`)

	p, err := New(srv.URL, "temperature_fahrenheit", time.Second)
	require.NoError(t, err)

	_, ok := p.Temperature("Office")
	assert.False(t, ok, "no readings before the first poll")

	require.NoError(t, p.Poll(context.Background()))

	v, ok := p.Temperature("Office")
	require.True(t, ok)
	assert.InDelta(t, 68.9, v, 1e-9)
	v, ok = p.Temperature("Garage")
	require.True(t, ok)
	assert.InDelta(t, 41, v, 1e-9)
	_, ok = p.Temperature("Attic")
	assert.False(t, ok)
}

func TestPollError(t *testing.T) {
	srv := prometheusServer(t, `{"status":"error","errorType":"bad_data","error":"parse error"}`)

	p, err := New(srv.URL, "(", time.Second)
	require.NoError(t, err)
	p.readings["Office"] = 70

	assert.Error(t, p.Poll(context.Background()))
	_, ok := p.Temperature("Office")
	assert.True(t, ok, "a failed poll keeps the previous readings")
}

func TestRunStops(t *testing.T) {
	srv := prometheusServer(t, `{"status":"success","data":{"resultType":"vector","result":[]}}`)
	p, err := New(srv.URL, "up", 10*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
