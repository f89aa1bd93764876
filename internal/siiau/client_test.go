package siiau

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siiau-planner-api/internal/models"
	appErrors "github.com/noah-isme/siiau-planner-api/pkg/errors"
)

type observerStub struct {
	mu    sync.Mutex
	calls []string
}

func (o *observerStub) ObserveUpstream(endpoint, outcome string, duration time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, endpoint+":"+outcome)
}

func TestClientFetchOfferingPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, offeringPath, r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "202510", r.PostForm.Get("ciclop"))
		assert.Equal(t, "D", r.PostForm.Get("cup"))
		assert.Equal(t, "INCO", r.PostForm.Get("majrp"))
		assert.Equal(t, "1000", r.PostForm.Get("mostrarp"))
		assert.Equal(t, "0", r.PostForm.Get("ordenp"))
		assert.NotEmpty(t, r.UserAgent())
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<p>Programaci\xf3n L\xf3gica</p>"))
	}))
	defer srv.Close()

	obs := &observerStub{}
	client := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: time.Second}, obs, nil)
	body, err := client.FetchOfferingPage(context.Background(), models.OfferingQuery{Cycle: "202510", Campus: "D", Major: "INCO"})
	require.NoError(t, err)
	assert.Equal(t, "<p>Programación Lógica</p>", body)
	assert.Equal(t, []string{"offering:ok"}, obs.calls)
}

func TestClientFetchMajorsPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, majorsPath, r.URL.Path)
		assert.Equal(t, "D", r.URL.Query().Get("cup"))
		_, _ = w.Write([]byte("<table></table>"))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL + "/"}, nil, nil)
	body, err := client.FetchMajorsPage(context.Background(), "D")
	require.NoError(t, err)
	assert.Equal(t, "<table></table>", body)
}

func TestClientUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	obs := &observerStub{}
	client := NewClient(ClientConfig{BaseURL: srv.URL}, obs, nil)
	_, err := client.FetchFormPage(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUpstreamUnavailable))
	assert.Equal(t, []string{"form:error"}, obs.calls)
}

func TestClientHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	client := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}, nil, nil)
	_, err := client.FetchFormPage(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUpstreamUnavailable))
}
