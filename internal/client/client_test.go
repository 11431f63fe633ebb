package client

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fitcoach/perfmon/internal/utils"
	"github.com/stretchr/testify/require"
)

func readGzip(t *testing.T, r *http.Request) []byte {
	t.Helper()
	gr, err := gzip.NewReader(r.Body)
	require.NoError(t, err)
	defer gr.Close()
	data, err := io.ReadAll(gr)
	require.NoError(t, err)
	return data
}

func TestPostJSON_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "gzip", r.Header.Get("Content-Encoding"))
		require.Empty(t, r.Header.Get(utils.HashHeader))

		var got map[string]int
		require.NoError(t, json.Unmarshal(readGzip(t, r), &got))
		require.Equal(t, 42, got["value"])
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	c := New(time.Second, "")
	require.NoError(t, c.PostJSON(context.Background(), ts.URL, map[string]int{"value": 42}))
}

func TestPostJSON_Signed(t *testing.T) {
	const key = "secret"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.True(t, utils.ValidHash(raw, key, r.Header.Get(utils.HashHeader)))
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := New(time.Second, key)
	require.NoError(t, c.PostJSON(context.Background(), ts.URL, []int{1, 2, 3}))
}

func TestPostJSON_ErrorStatus(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := New(time.Second, "")
	err := c.PostJSON(context.Background(), ts.URL, "x")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusInternalServerError, se.Code)
	require.Contains(t, err.Error(), "unexpected status")
	require.EqualValues(t, 1, calls.Load())
}

func TestPostJSON_Unmarshalable(t *testing.T) {
	c := New(time.Second, "")
	err := c.PostJSON(context.Background(), "http://127.0.0.1:1", func() {})
	require.ErrorContains(t, err, "marshal")
}

func TestStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	code, err := New(time.Second, "").Status(context.Background(), ts.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, code)
}

func TestAnalytics_RecordError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var rec errorRecord
		require.NoError(t, json.Unmarshal(readGzip(t, r), &rec))
		require.Equal(t, "u-1", rec.UserID)
		require.Equal(t, "payment_error", rec.ErrorType)
		require.Equal(t, "declined", rec.Message)
		require.Equal(t, "card", rec.Context["method"])
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	a := NewAnalytics(New(time.Second, ""), ts.URL)
	require.NoError(t, a.RecordError(context.Background(), "u-1", "payment_error", "declined",
		map[string]any{"method": "card"}))
}
