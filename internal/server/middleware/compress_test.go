package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func gzipBody(data []byte) []byte {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write(data)
	_ = zw.Close()
	return buf.Bytes()
}

func TestDecompressMiddleware_PassThrough_NoGzip(t *testing.T) {
	h := DecompressMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		require.Equal(t, "plain", string(b))
		w.WriteHeader(200)
	}))
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("plain"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, 200, rr.Code)
}

func TestDecompressMiddleware_ValidGzip(t *testing.T) {
	h := DecompressMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		require.Equal(t, `{"error_type":"io"}`, string(data))
		require.Empty(t, r.Header.Get("Content-Encoding"))
		w.WriteHeader(200)
	}))
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(gzipBody([]byte(`{"error_type":"io"}`))))
	req.Header.Set("Content-Encoding", "gzip")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, 200, rr.Code)
}

func TestDecompressMiddleware_InvalidGzip_Returns400(t *testing.T) {
	h := DecompressMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called on bad gzip")
	}))
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("not-gzip"))
	req.Header.Set("Content-Encoding", "gzip")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCompressMiddleware_SkipWhenNoAcceptGzip(t *testing.T) {
	h := CompressMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("plain"))
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, "", rr.Header().Get("Content-Encoding"))
	require.Equal(t, "plain", rr.Body.String())
}

func TestCompressMiddleware_GzipJSON(t *testing.T) {
	h := CompressMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"he`))
		_, _ = w.Write([]byte(`llo":1}`))
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))

	gr, err := gzip.NewReader(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	defer gr.Close()
	decompressed, _ := io.ReadAll(gr)
	require.Equal(t, `{"hello":1}`, string(decompressed))
}

func TestCompressMiddleware_SkipsBinary(t *testing.T) {
	h := CompressMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{1, 2, 3})
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Empty(t, rr.Header().Get("Content-Encoding"))
	require.Equal(t, []byte{1, 2, 3}, rr.Body.Bytes())
}

func TestGzipResponseWriter_Close_NoWrites(t *testing.T) {
	rw := httptest.NewRecorder()
	grw := &gzipResponseWriter{ResponseWriter: rw}
	require.NoError(t, grw.Close())
	require.Equal(t, "", rw.Header().Get("Content-Encoding"))
}
