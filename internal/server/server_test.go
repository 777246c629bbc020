package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/momentlens/internal/config"
	"github.com/sanspareilsmyn/momentlens/internal/measure"
	"github.com/sanspareilsmyn/momentlens/internal/pipeline"
	"github.com/sanspareilsmyn/momentlens/internal/search"
	"github.com/sanspareilsmyn/momentlens/internal/series"
)

type fakeProvider struct {
	clips []search.Clip
	calls int
}

func (p *fakeProvider) Search(context.Context, string) ([]search.Clip, int, error) {
	p.calls++
	return p.clips, len(p.clips), nil
}

func newTestServer(t *testing.T, withSearch bool) (*httptest.Server, *fakeProvider) {
	t.Helper()

	times := []float64{0, 0.5, 1, 1.5, 2, 2.5, 3, 3.5, 4}
	a, err := series.New("vid-a", "Ad A", times, map[measure.Measure][]float64{
		measure.Engagement: {0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9},
	})
	require.NoError(t, err)
	b, err := series.New("vid-b", "Ad B", times, map[measure.Measure][]float64{
		measure.Engagement: {0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.2, 0.1},
	})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	rec := pipeline.NewRecorder("test", reg, zap.NewNop())
	p, err := pipeline.New(config.AggregationConfig{Policy: "clamp", DefaultMode: "box", Concurrency: 2},
		series.NewMemoryStore(a, b), rec, nil, zap.NewNop())
	require.NoError(t, err)

	deps := Deps{Pipeline: p, Gatherer: reg, Preview: config.PreviewConfig{BaseURL: "https://cdn.example"}}
	var provider *fakeProvider
	if withSearch {
		provider = &fakeProvider{clips: []search.Clip{
			{VideoID: "vid-a", Start: 1, End: 2, Score: 77},
			{VideoID: "vid-b", Start: 0, End: 1.5, Score: 91},
			{VideoID: "vid-a", Start: 3, End: 4, Score: 40},
		}}
		deps.Searcher = search.NewSearcher(provider, search.NewMemoryCache(4), zap.NewNop())
	}

	srv := httptest.NewServer(New(config.ServerConfig{}, deps, zap.NewNop()).Handler())
	t.Cleanup(srv.Close)
	return srv, provider
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthAndRequestID(t *testing.T) {
	srv, _ := newTestServer(t, false)

	resp := get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, "abc-123", resp2.Header.Get(RequestIDHeader))

	metrics := get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, metrics.StatusCode)
}

func TestAggregate_Box(t *testing.T) {
	srv, _ := newTestServer(t, false)

	resp := postJSON(t, srv.URL+"/aggregate", map[string]interface{}{
		"query": "cats",
		"moments": []map[string]interface{}{
			{"video_id": "vid-a", "start_time": 1, "end_time": 1},
			{"video_id": "vid-b", "start_time": "oops", "end_time": 2},
		},
		"selections": []string{"bad-selection"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)

	assert.Equal(t, "box", body["mode"])
	assert.Equal(t, float64(1), body["included"])
	assert.Len(t, body["rejected"], 1)
	assert.Equal(t, []interface{}{"bad-selection"}, body["malformed"])

	pooled := body["pooled"].(map[string]interface{})
	eng := pooled[string(measure.Engagement)].(map[string]interface{})
	stats := eng["stats"].(map[string]interface{})
	assert.Equal(t, float64(1), stats["count"])
	assert.Nil(t, stats["std"], "single sample std is encoded as null")
	assert.Len(t, body["charts"], len(measure.Clusters()))
}

func TestAggregate_Line(t *testing.T) {
	srv, _ := newTestServer(t, false)

	resp := postJSON(t, srv.URL+"/aggregate", map[string]interface{}{
		"mode":          "line",
		"pre_duration":  0.5,
		"post_duration": 0.5,
		"selections":    []string{"vid-a|1|2||Ad A", "vid-b|1|2||Ad B"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)

	assert.Equal(t, "line", body["mode"])
	assert.Equal(t, float64(2), body["included"])
	assert.Len(t, body["time_ms"], 100)
	assert.Equal(t, float64(-500), body["time_ms"].([]interface{})[0])
	curves := body["curves"].(map[string]interface{})
	assert.Len(t, curves[string(measure.Engagement)], 100)
}

func TestAggregate_NoData(t *testing.T) {
	srv, _ := newTestServer(t, false)

	resp := postJSON(t, srv.URL+"/aggregate", map[string]interface{}{
		"moments": []map[string]interface{}{{"video_id": "ghost", "start_time": 0, "end_time": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode(t, resp)
	assert.Contains(t, body["error"], "no valid data")
	assert.NotEmpty(t, body["request_id"])

	bad, err := http.Post(srv.URL+"/aggregate", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestAggregate_CSV(t *testing.T) {
	srv, _ := newTestServer(t, false)

	resp := postJSON(t, srv.URL+"/aggregate/csv", map[string]interface{}{
		"query":   "cats & dogs",
		"moments": []map[string]interface{}{{"video_id": "vid-a", "start_time": 0, "end_time": 1}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "cats___dogs_results.csv")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Query,Measure,Value_1,Value_2,Value_3\r\n"), string(data))
}

func TestAggregate_Charts(t *testing.T) {
	srv, _ := newTestServer(t, false)

	resp := postJSON(t, srv.URL+"/aggregate/charts", map[string]interface{}{
		"query":   "cats",
		"moments": []map[string]interface{}{{"video_id": "vid-a", "start_time": 0, "end_time": 2}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Aggregated Moments - Query: cats")
	assert.Contains(t, string(data), "Engagement")
}

func TestSegmentMetrics(t *testing.T) {
	srv, _ := newTestServer(t, false)

	resp := get(t, srv.URL+"/segments/metrics?video_id=vid-a&start=1&end=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	eng := body["measures"].(map[string]interface{})[string(measure.Engagement)].(map[string]interface{})
	assert.Equal(t, float64(3), eng["count"])
	assert.InDelta(t, 0.4, eng["mean"], 1e-9)
	assert.InDelta(t, 0.1, eng["std"], 1e-9)

	assert.Equal(t, http.StatusNotFound, get(t, srv.URL+"/segments/metrics?video_id=ghost&start=0&end=1").StatusCode)
	assert.Equal(t, http.StatusBadRequest, get(t, srv.URL+"/segments/metrics?video_id=vid-a&start=x&end=1").StatusCode)
	assert.Equal(t, http.StatusBadRequest, get(t, srv.URL+"/segments/metrics?video_id=vid-a&start=2&end=1").StatusCode)
}

func TestSearch(t *testing.T) {
	srv, provider := newTestServer(t, true)

	resp := get(t, srv.URL+"/search?q=Cats")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)

	assert.Equal(t, float64(3), body["total"])
	counts := body["counts"].(map[string]interface{})
	assert.Equal(t, float64(1), counts["high"])
	assert.Equal(t, float64(1), counts["medium"])
	assert.Equal(t, float64(1), counts["low"])

	clips := body["clips"].([]interface{})
	require.Len(t, clips, 3)
	first := clips[0].(map[string]interface{})
	assert.Equal(t, "vid-b", first["video_id"])
	assert.Equal(t, "high", first["confidence"])
	assert.Equal(t, "https://cdn.example/vid-b.mp4", first["preview_url"])
	assert.Equal(t, "vid-b|0|1.5||", first["selection"])

	high := decode(t, get(t, srv.URL+"/search?q=cats&confidence=high"))
	assert.Len(t, high["clips"], 1)
	assert.Equal(t, 1, provider.calls, "second query is served from the snapshot cache")

	assert.Equal(t, http.StatusBadRequest, get(t, srv.URL+"/search?q=cats&confidence=extreme").StatusCode)
	assert.Equal(t, http.StatusBadRequest, get(t, srv.URL+"/search?q=cats&page=0").StatusCode)
	assert.Equal(t, http.StatusBadRequest, get(t, srv.URL+"/search?q=").StatusCode)
}

func TestSearch_NotConfigured(t *testing.T) {
	srv, _ := newTestServer(t, false)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv.URL+"/search?q=cats").StatusCode)
}

func TestResolve(t *testing.T) {
	srv, _ := newTestServer(t, false)

	resp := postJSON(t, srv.URL+"/moments/resolve", []string{
		"vid-a|1|3|https://t/1.jpg|Ad A",
		"vid-b|2|2.5||",
		"too|few",
		"vid-c|abc|1||",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)

	assert.Len(t, body["moments"], 2)
	assert.Equal(t, 0.5, body["pure_duration"])
	assert.Equal(t, []interface{}{"too|few"}, body["malformed"])
	assert.Len(t, body["rejected"], 1)
}

func TestSegmentMetricsWebsocket(t *testing.T) {
	srv, _ := newTestServer(t, false)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/metrics"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"video_id": "vid-a", "start_time": 1, "end_time": 2}))
	var reply map[string]interface{}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "vid-a", reply["video_id"])
	assert.Nil(t, reply["error"])
	assert.Contains(t, reply["measures"], string(measure.Engagement))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	reply = nil
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Contains(t, reply["error"], "invalid request body")

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"video_id": "ghost", "start_time": 0, "end_time": 1}))
	reply = nil
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Contains(t, reply["error"], "not found")
}
