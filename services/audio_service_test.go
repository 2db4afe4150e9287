package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortsmith/utils"
)

func newTestAudioService(srv *httptest.Server, keys ...string) *AudioService {
	as := NewAudioService(utils.NewKeyPool(keys), "default-voice", 0)
	as.baseURL = srv.URL
	as.backoff = time.Millisecond
	return as
}

func TestAudioService_Synthesize(t *testing.T) {
	var gotPath, gotKey string
	var gotBody TTSRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte("ID3 mp3 bytes"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "audio", "scene_000.mp3")
	as := newTestAudioService(srv, "k1")

	require.NoError(t, as.Synthesize(context.Background(), "Hello there", "", dest))

	assert.Equal(t, "/v1/text-to-speech/default-voice", gotPath)
	assert.Equal(t, "k1", gotKey)
	assert.Equal(t, "Hello there", gotBody.Text)
	assert.Equal(t, elevenLabsModel, gotBody.ModelID)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "ID3 mp3 bytes", string(data))
}

func TestAudioService_RotatesKeysOnFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("xi-api-key") == "bad" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":{"status":"invalid_api_key","message":"Invalid API key"}}`))
			return
		}
		w.Write([]byte("audio"))
	}))
	defer srv.Close()

	as := NewAudioService(utils.NewKeyPool([]string{"bad", "good"}), "v", time.Hour)
	as.baseURL = srv.URL
	as.backoff = time.Millisecond

	require.NoError(t, as.Synthesize(context.Background(), "text", "custom", filepath.Join(t.TempDir(), "a.mp3")))
	assert.Equal(t, int32(2), calls.Load())
}

func TestAudioService_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "api error message",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"detail":{"message":"quota exceeded"}}`))
			},
			wantErr: "quota exceeded",
		},
		{
			name:    "empty audio",
			handler: func(w http.ResponseWriter, r *http.Request) {},
			wantErr: "empty audio",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			err := newTestAudioService(srv, "k").Synthesize(context.Background(), "x", "", filepath.Join(t.TempDir(), "a.mp3"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
