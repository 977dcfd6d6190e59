package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
	Auth      string         `json:"-"`
}

// fakeAPI answers every request with the given data object and records what it received
type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	respond  func(req recordedRequest) string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req recordedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req.Auth = r.Header.Get("Authorization")

	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(f.respond(req)))
}

func (f *fakeAPI) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, "secret-token", WithHTTPClient(server.Client()))
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	_, err := NewClient("", "")
	assert.Error(t, err)
}

func TestFetchProgress(t *testing.T) {
	api := &fakeAPI{respond: func(recordedRequest) string {
		return `{"data":{"viewerProgress":[
			{"id":1,"videoId":5,"percentComplete":80,"saveForLater":false,"rating":null},
			{"id":2,"videoId":9,"percentComplete":12,"saveForLater":true,"rating":4}
		]}}`
	}}
	repo := NewProgressRepository(newTestClient(t, api))

	records, err := repo.FetchProgress(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 1, *records[0].ID)
	assert.Equal(t, 5, records[0].VideoID)
	assert.Equal(t, 80, records[0].PercentComplete)
	assert.Nil(t, records[0].Rating)

	assert.True(t, records[1].SaveForLater)
	require.NotNil(t, records[1].Rating)
	assert.Equal(t, 4, *records[1].Rating)

	reqs := api.recorded()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Query, "viewerProgress")
	assert.Equal(t, "Bearer secret-token", reqs[0].Auth)
}

func TestUpdateProgressCreatesWithNullID(t *testing.T) {
	api := &fakeAPI{respond: func(recordedRequest) string {
		return `{"data":{"saveProgress":{"id":44,"videoId":5,"percentComplete":97,"saveForLater":false}}}`
	}}
	repo := NewProgressRepository(newTestClient(t, api))

	record, err := repo.UpdateProgress(context.Background(), nil, 5, 97)
	require.NoError(t, err)
	assert.Equal(t, 44, *record.ID)
	assert.Equal(t, 97, record.PercentComplete)

	reqs := api.recorded()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Query, "saveProgress")
	assert.Nil(t, reqs[0].Variables["id"])
	assert.Equal(t, float64(5), reqs[0].Variables["videoId"])
	assert.Equal(t, map[string]any{"percentComplete": float64(97)}, reqs[0].Variables["input"])
}

func TestRateAndSaveForLaterUpdateExistingRecord(t *testing.T) {
	api := &fakeAPI{respond: func(recordedRequest) string {
		return `{"data":{"saveProgress":{"id":7,"videoId":5,"percentComplete":50,"saveForLater":true,"rating":5}}}`
	}}
	repo := NewProgressRepository(newTestClient(t, api))
	id := 7

	_, err := repo.RateVideo(context.Background(), &id, 5, 5)
	require.NoError(t, err)
	_, err = repo.SetSaveForLater(context.Background(), &id, 5, true)
	require.NoError(t, err)

	reqs := api.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, float64(7), reqs[0].Variables["id"])
	assert.Equal(t, map[string]any{"rating": float64(5)}, reqs[0].Variables["input"])
	assert.Equal(t, map[string]any{"saveForLater": true}, reqs[1].Variables["input"])
}

func TestAPIErrorIsNotANetworkError(t *testing.T) {
	api := &fakeAPI{respond: func(recordedRequest) string {
		return `{"errors":[{"message":"video not found"}]}`
	}}
	repo := NewProgressRepository(newTestClient(t, api))

	_, err := repo.UpdateProgress(context.Background(), nil, 999, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "video not found")

	var netErr NetworkError
	assert.False(t, errors.As(err, &netErr))
}

func TestUnreachableAPIIsANetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	client, err := NewClient(endpoint, "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = NewProgressRepository(client).FetchProgress(ctx)
	require.Error(t, err)

	var netErr NetworkError
	assert.True(t, errors.As(err, &netErr), "expected a network error, got %v", err)
}

func TestReporterSendsHeartbeatsAndEvents(t *testing.T) {
	api := &fakeAPI{respond: func(req recordedRequest) string {
		if strings.Contains(req.Query, "sessionHeartbeat") {
			return `{"data":{"sessionHeartbeat":true}}`
		}
		return `{"data":{"trackEvent":true}}`
	}}
	reporter := NewReporter(newTestClient(t, api), "session-1")

	reporter.SendHeartbeat()
	reporter.Track("playback-started", map[string]any{"position": 0, "bitrate": 2500})
	reporter.Close()

	reqs := api.recorded()
	require.Len(t, reqs, 2)

	var heartbeat, track *recordedRequest
	for i := range reqs {
		if strings.Contains(reqs[i].Query, "sessionHeartbeat") {
			heartbeat = &reqs[i]
		} else {
			track = &reqs[i]
		}
	}
	require.NotNil(t, heartbeat)
	require.NotNil(t, track)
	assert.Equal(t, "session-1", heartbeat.Variables["sessionId"])
	assert.Equal(t, "playback-started", track.Variables["event"])
	assert.Equal(t, map[string]any{"position": float64(0), "bitrate": float64(2500)}, track.Variables["properties"])
}
