package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"lambda-http-adapter/pkg/lambda"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	t.Run("header wins", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "client-id")
		req = req.WithContext(lambdacontext.NewContext(req.Context(), &lambdacontext.LambdaContext{AwsRequestID: "aws-id"}))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Body.String() != "client-id" {
			t.Errorf("request id = %q, want client-id", w.Body.String())
		}
	})

	t.Run("lambda context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(lambdacontext.NewContext(req.Context(), &lambdacontext.LambdaContext{AwsRequestID: "aws-id"}))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Body.String() != "aws-id" {
			t.Errorf("request id = %q, want aws-id", w.Body.String())
		}
		if w.Header().Get("X-Request-ID") != "aws-id" {
			t.Errorf("X-Request-ID = %q, want aws-id", w.Header().Get("X-Request-ID"))
		}
	})

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if len(w.Body.String()) != 36 {
			t.Errorf("request id = %q, want a UUID", w.Body.String())
		}
	})
}

func TestStructuredLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	router := gin.New()
	router.Use(RequestID(), StructuredLogger(logger))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/fail", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })

	req := httptest.NewRequest(http.MethodGet, "/ok?x=1", nil)
	env := &lambda.Envelope{Source: lambda.SourceALB}
	req = req.WithContext(lambda.ContextWithEnvelope(req.Context(), env))
	router.ServeHTTP(httptest.NewRecorder(), req)

	entry := hook.LastEntry()
	if entry == nil || entry.Message != "Request completed" {
		t.Fatalf("last entry = %+v", entry)
	}
	if entry.Data["event_source"] != "alb" || entry.Data["query"] != "x=1" {
		t.Errorf("fields = %v", entry.Data)
	}

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))
	entry = hook.LastEntry()
	if entry.Level != logrus.ErrorLevel || entry.Message != "Server error" {
		t.Errorf("entry = %v %q, want error Server error", entry.Level, entry.Message)
	}
	if _, ok := entry.Data["event_source"]; ok {
		t.Error("event_source logged for a request without an envelope")
	}
}

func TestPerformanceMonitor(t *testing.T) {
	logger, hook := test.NewNullLogger()
	router := gin.New()
	router.Use(PerformanceMonitor(logger, 5*time.Millisecond))
	router.GET("/slow", func(c *gin.Context) {
		time.Sleep(10 * time.Millisecond)
		c.Status(http.StatusOK)
	})
	router.GET("/fast", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fast", nil))
	if len(hook.AllEntries()) != 0 {
		t.Fatalf("fast request logged: %v", hook.AllEntries())
	}

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/slow", nil))
	entry := hook.LastEntry()
	if entry == nil || entry.Message != "Slow request detected" {
		t.Fatalf("last entry = %+v", entry)
	}
}

func TestCORSPreflight(t *testing.T) {
	router := gin.New()
	router.Use(CORS())
	router.POST("/echo", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.OPTIONS("/echo", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/echo", nil))

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing Access-Control-Allow-Origin")
	}
}

func TestErrorHandler(t *testing.T) {
	logger, hook := test.NewNullLogger()
	router := gin.New()
	router.Use(ErrorHandler(logger))
	router.GET("/internal", func(c *gin.Context) {
		_ = c.Error(errors.New("disk full"))
	})
	router.GET("/public", func(c *gin.Context) {
		_ = c.Error(errors.New("bad input")).SetType(gin.ErrorTypePublic)
	})
	router.GET("/written", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		_ = c.Error(errors.New("late failure"))
	})

	tests := []struct {
		path       string
		wantStatus int
	}{
		{path: "/internal", wantStatus: http.StatusInternalServerError},
		{path: "/public", wantStatus: http.StatusBadRequest},
		{path: "/written", wantStatus: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}

	if len(hook.AllEntries()) != len(tests) {
		t.Errorf("logged %d errors, want %d", len(hook.AllEntries()), len(tests))
	}
}
