package driver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alorle/tv-channels/internal/adapter/driven"
	"github.com/alorle/tv-channels/internal/application"
	"github.com/alorle/tv-channels/internal/logo"
)

func TestChannelHTTPHandler_List(t *testing.T) {
	s := newTestServer(t, logo.BackendConfig{})

	req := httptest.NewRequest(http.MethodGet, "/channels", nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	var resp map[string][]channelResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	for _, typ := range []string{"GR", "BS", "CS", "CATV", "SKY", "STARDIGIO"} {
		if _, ok := resp[typ]; !ok {
			t.Errorf("missing group %s", typ)
		}
	}
	if len(resp["GR"]) != 2 || len(resp["BS"]) != 1 || len(resp["CATV"]) != 0 {
		t.Fatalf("unexpected group sizes GR=%d BS=%d CATV=%d", len(resp["GR"]), len(resp["BS"]), len(resp["CATV"]))
	}

	gr011 := resp["GR"][0]
	if gr011.ChannelID != "gr011" || !gr011.IsDisplay {
		t.Errorf("unexpected gr011 %+v", gr011)
	}
	if gr011.ProgramPresent == nil || gr011.ProgramPresent.Title != "ニュース7" {
		t.Errorf("expected present program, got %+v", gr011.ProgramPresent)
	}
	if gr011.ProgramFollowing == nil || gr011.ProgramFollowing.Title != "天気予報" {
		t.Errorf("expected following program, got %+v", gr011.ProgramFollowing)
	}

	gr012 := resp["GR"][1]
	if gr012.IsDisplay {
		t.Error("expected sub-channel without present program to be hidden")
	}
	if gr012.ProgramPresent != nil {
		t.Errorf("expected no present program, got %+v", gr012.ProgramPresent)
	}
}

func TestChannelHTTPHandler_Get(t *testing.T) {
	s := newTestServer(t, logo.BackendConfig{})

	t.Run("GET /channels/{channel_id} returns the channel", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/channels/gr011", nil)
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		// detail keeps the broadcast order
		if i, j := strings.Index(body, "番組内容"), strings.Index(body, "出演者"); i < 0 || j < i {
			t.Errorf("expected ordered detail object, got %s", body)
		}

		var resp channelResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.ID != "NID32736-SID1024" || resp.ChannelType != "GR" || resp.RemoconID != 1 {
			t.Errorf("unexpected channel %+v", resp)
		}
		p := resp.ProgramPresent
		if p == nil {
			t.Fatal("expected present program")
		}
		if p.Duration != (30 * time.Minute).Seconds() {
			t.Errorf("expected duration 1800, got %v", p.Duration)
		}
		if len(p.Genre) != 1 || p.Genre[0].Major != "ニュース・報道" {
			t.Errorf("unexpected genres %+v", p.Genre)
		}
		if _, err := time.Parse(time.RFC3339, p.StartTime); err != nil {
			t.Errorf("start_time is not RFC 3339: %v", err)
		}
	})

	t.Run("unknown channel returns 422", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/channels/gr999", nil)
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected status 422, got %d", rec.Code)
		}
		var resp errorResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Error == "" {
			t.Error("expected error message")
		}
	})

	t.Run("unknown sub-resource returns 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/channels/gr011/viewers", nil)
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("POST is not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/channels/gr011", nil)
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status 405, got %d", rec.Code)
		}
	})
}

func TestChannelHTTPHandler_Logo(t *testing.T) {
	mirakurun := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/services/400211/logo" {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("\x89PNG bs11"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(mirakurun.Close)

	backend := logo.BackendConfig{Kind: logo.BackendMirakurun, MirakurunURL: mirakurun.URL}
	remote := application.RemoteBackend{
		Kind:   logo.BackendMirakurun,
		Source: driven.NewMirakurunHTTPAdapter(time.Second, discardLogger()),
	}
	s := newTestServer(t, backend, remote)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
		wantSource string
	}{
		{"bundled", "/channels/gr011/logo", http.StatusOK, "\x89PNG nhk", "bundled"},
		{"sub-channel uses main channel logo", "/channels/gr012/logo", http.StatusOK, "\x89PNG nhk", "subchannel"},
		{"mirakurun", "/channels/bs211/logo", http.StatusOK, "\x89PNG bs11", "mirakurun"},
		{"default", "/channels/cs055/logo", http.StatusOK, "\x89PNG default", "default"},
		{"unknown channel", "/channels/gr999/logo", http.StatusUnprocessableEntity, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			s.handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("expected body %q, got %q", tt.wantBody, rec.Body.String())
			}
			if got := rec.Header().Get("Content-Type"); got != "image/png" {
				t.Errorf("expected image/png, got %q", got)
			}
			if got := rec.Header().Get("Cache-Control"); got != "public, max-age=2592000" {
				t.Errorf("unexpected Cache-Control %q", got)
			}
			if got := rec.Header().Get("X-Logo-Source"); got != tt.wantSource {
				t.Errorf("expected source %q, got %q", tt.wantSource, got)
			}
		})
	}

	t.Run("missing default logo returns 404", func(t *testing.T) {
		delete(s.logos, "default.png")

		req := httptest.NewRequest(http.MethodGet, "/channels/cs055/logo", nil)
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})
}
