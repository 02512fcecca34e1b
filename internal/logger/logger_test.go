package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Heidric/storefront/pkg/log"
	"github.com/rs/zerolog"
)

func TestInitializeLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := initialize(&log.Config{Level: tt.level}, &buf)
			if err != nil {
				t.Fatalf("initialize: %v", err)
			}
			if got := l.Zerolog().GetLevel(); got != tt.want {
				t.Fatalf("want level %v, got %v", tt.want, got)
			}
		})
	}
}

func TestInitializeNilConfig(t *testing.T) {
	if _, err := initialize(nil, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestMiddlewareLogsRequest(t *testing.T) {
	var buf bytes.Buffer
	if _, err := initialize(&log.Config{Level: "info"}, &buf); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	t.Cleanup(func() { Log = nop() })

	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/products/", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["path"] != "/products/" {
		t.Fatalf("unexpected path: %v", line["path"])
	}
	if line["status"] != float64(http.StatusTeapot) {
		t.Fatalf("unexpected status: %v", line["status"])
	}
	if bytes.Contains(buf.Bytes(), []byte("secret-token")) {
		t.Fatal("token leaked into access log")
	}
}
