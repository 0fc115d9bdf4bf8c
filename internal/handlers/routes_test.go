package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"

	"lambda-http-adapter/pkg/lambda"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter() *gin.Engine {
	logger, _ := test.NewNullLogger()
	return NewRouter(&RouterConfig{Logger: logger, DeploymentMode: "server"})
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "healthy" || body["deployment_mode"] != "server" {
		t.Errorf("body = %v", body)
	}
}

func TestEcho(t *testing.T) {
	router := newTestRouter()

	t.Run("keeps content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/echo", strings.NewReader(`{"a":1}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Body.String() != `{"a":1}` {
			t.Errorf("body = %q", w.Body.String())
		}
		if w.Header().Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
		}
		if w.Header().Get("X-Echo-Method") != http.MethodPut {
			t.Errorf("X-Echo-Method = %q", w.Header().Get("X-Echo-Method"))
		}
	})

	t.Run("defaults to octet-stream", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("\x00\xff"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Header().Get("Content-Type") != "application/octet-stream" {
			t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
		}
		if w.Body.String() != "\x00\xff" {
			t.Errorf("body = %q", w.Body.String())
		}
	})
}

func TestStream(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		query      string
		wantStatus int
		wantBody   string
	}{
		{query: "", wantStatus: http.StatusOK, wantBody: "chunk 0\nchunk 1\nchunk 2\n"},
		{query: "?chunks=1", wantStatus: http.StatusOK, wantBody: "chunk 0\n"},
		{query: "?chunks=0", wantStatus: http.StatusOK, wantBody: ""},
		{query: "?chunks=-1", wantStatus: http.StatusBadRequest},
		{query: "?chunks=many", wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stream"+tt.query, nil))
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestEvent(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/event", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status without envelope = %d, want 404", w.Code)
	}

	env, err := lambda.DecodeEvent(lambda.SourceAPIGatewayV2, []byte(`{
		"version": "2.0",
		"rawPath": "/event",
		"rawQueryString": "debug=1",
		"requestContext": {"http": {"method": "GET", "path": "/event"}}
	}`))
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}

	a := lambda.NewAdapter[*lambda.StreamResponse](lambda.NewHandlerService(router))
	resp, err := a.Call(lambda.ContextWithEnvelope(context.Background(), env), env.Request)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]string
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["source"] != "apigw-v2" || body["query"] != "debug=1" {
		t.Errorf("body = %v", body)
	}
}
