package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/vision-extractor/internal/domain"
)

func newCompatServer(t *testing.T, calls *atomic.Int32, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCompatBackend_Submit(t *testing.T) {
	img := testImage(t)
	var calls atomic.Int32

	srv := newCompatServer(t, &calls, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer or-test", r.Header.Get("Authorization"))

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content []struct {
					Type     string `json:"type"`
					Text     string `json:"text"`
					ImageURL struct {
						URL    string `json:"url"`
						Detail string `json:"detail"`
					} `json:"image_url"`
				} `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		assert.Equal(t, "google/gemini-2.5-flash-preview-09-2025", body.Model)
		require.Len(t, body.Messages, 1)
		msg := body.Messages[0]
		assert.Equal(t, "user", msg.Role)
		require.Len(t, msg.Content, 2)
		assert.Equal(t, "text", msg.Content[0].Type)
		assert.Equal(t, "prompt", msg.Content[0].Text)
		assert.Equal(t, "image_url", msg.Content[1].Type)
		assert.Equal(t, "high", msg.Content[1].ImageURL.Detail)

		const prefix = "data:image/png;base64,"
		require.True(t, strings.HasPrefix(msg.Content[1].ImageURL.URL, prefix))
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(msg.Content[1].ImageURL.URL, prefix))
		require.NoError(t, err)
		assert.Equal(t, img.Data, decoded)

		writeJSON(w, http.StatusOK, `{"id":"gen-1","object":"chat.completion","created":1700000000,"model":"m",`+
			`"choices":[{"index":0,"message":{"role":"assistant","content":"[1, 2]"},"finish_reason":"stop"}]}`)
	})

	rec := &eventRecorder{}
	backend := NewCompatBackend(CompatOptions{APIKey: "or-test", BaseURL: srv.URL + "/v1/"})
	reply, err := backend.Submit(context.Background(), img, "prompt", rec.emit())
	require.NoError(t, err)

	assert.Equal(t, "[1, 2]", reply.Text)
	assert.Equal(t, "compat", reply.Backend)
	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, []domain.EventType{domain.EventAssetReady, domain.EventGenerating}, rec.types())
}

func TestCompatBackend_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   domain.ErrorType
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"No auth credentials found","code":401}}`, domain.ErrorTypeAuth},
		{"forbidden plain body", http.StatusForbidden, `forbidden`, domain.ErrorTypeAuth},
		{"server error", http.StatusInternalServerError, `{"error":{"message":"upstream failed","code":500}}`, domain.ErrorTypeModelRequest},
		{"no choices", http.StatusOK, `{"id":"gen-1","object":"chat.completion","created":0,"model":"m","choices":[]}`, domain.ErrorTypeModelRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := newCompatServer(t, &calls, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := NewCompatBackend(CompatOptions{APIKey: "or-test", BaseURL: srv.URL + "/v1"}).
				Submit(context.Background(), testImage(t), "prompt", nil)

			assert.Equal(t, tt.want, domain.TypeOf(err), "got %v", err)
			assert.EqualValues(t, 1, calls.Load())
		})
	}
}

func TestCompatBackend_MissingKeySendsNothing(t *testing.T) {
	var calls atomic.Int32
	srv := newCompatServer(t, &calls, func(w http.ResponseWriter, r *http.Request) {})

	_, err := NewCompatBackend(CompatOptions{BaseURL: srv.URL + "/v1"}).
		Submit(context.Background(), testImage(t), "prompt", nil)

	assert.True(t, domain.IsType(err, domain.ErrorTypeAuth), "got %v", err)
	assert.Zero(t, calls.Load())
}

func TestCompatBackend_Timeout(t *testing.T) {
	var calls atomic.Int32
	srv := newCompatServer(t, &calls, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})

	_, err := NewCompatBackend(CompatOptions{APIKey: "k", BaseURL: srv.URL + "/v1", Timeout: 100 * time.Millisecond}).
		Submit(context.Background(), testImage(t), "prompt", nil)

	assert.True(t, domain.IsType(err, domain.ErrorTypeTimeout), "got %v", err)
}
