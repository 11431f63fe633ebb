package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogMiddleware_TextBody(t *testing.T) {
	core, obs := observer.New(zap.InfoLevel)
	logger := zap.New(core).Sugar()

	h := LogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/monitoring/errors/report", bytes.NewBufferString("hello"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, "ok", rr.Body.String())

	entries := obs.FilterMessage("request handled").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.EqualValues(t, http.StatusCreated, fields["status"])
	require.EqualValues(t, 2, fields["size"])
	require.Equal(t, "hello", fields["body"])
}

func TestLogMiddleware_BinaryBody(t *testing.T) {
	core, obs := observer.New(zap.InfoLevel)
	logger := zap.New(core).Sugar()

	h := LogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("resp"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte{0xff, 0x01, 0x02}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, "resp", rr.Body.String())
	require.Equal(t, "<skipped>", obs.All()[0].ContextMap()["body"])
}

func TestLogMiddleware_TruncatesBody(t *testing.T) {
	core, obs := observer.New(zap.InfoLevel)
	h := LogMiddleware(zap.New(core).Sugar())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("a", 2000)))
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, obs.All()[0].ContextMap()["body"], maxLoggedBody)
}

func TestIsProbablyText(t *testing.T) {
	require.True(t, isProbablyText([]byte("abc")))
	require.False(t, isProbablyText([]byte{0xff}))
	require.False(t, isProbablyText([]byte{0x00}))
}
