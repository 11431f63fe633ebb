// Package middleware provides HTTP middleware for the monitoring API.
package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
)

// MaxBodySize caps decompressed request bodies.
const MaxBodySize = 1 << 20

// DecompressMiddleware inflates gzip request bodies. A body that is not
// valid gzip is rejected with 400.
func DecompressMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Encoding") != "gzip" {
			next.ServeHTTP(w, r)
			return
		}

		gr, err := gzip.NewReader(r.Body)
		if err != nil {
			http.Error(w, "bad gzip body", http.StatusBadRequest)
			return
		}
		defer gr.Close()

		r.Body = http.MaxBytesReader(w, io.NopCloser(gr), MaxBodySize)
		r.Header.Del("Content-Encoding")
		r.ContentLength = -1
		next.ServeHTTP(w, r)
	})
}

// CompressMiddleware gzips JSON and text responses for clients that accept
// it. Other content types pass through untouched.
func CompressMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		grw := &gzipResponseWriter{ResponseWriter: w}
		defer grw.Close()

		next.ServeHTTP(grw, r)
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	writer  *gzip.Writer
	decided bool
}

func compressible(contentType string) bool {
	return contentType == "" ||
		strings.Contains(contentType, "application/json") ||
		strings.HasPrefix(contentType, "text/")
}

func (w *gzipResponseWriter) decide() {
	if w.decided {
		return
	}
	w.decided = true

	h := w.Header()
	if h.Get("Content-Encoding") != "" || !compressible(h.Get("Content-Type")) {
		return
	}
	h.Set("Content-Encoding", "gzip")
	h.Add("Vary", "Accept-Encoding")
	h.Del("Content-Length")
	w.writer = gzip.NewWriter(w.ResponseWriter)
}

func (w *gzipResponseWriter) WriteHeader(code int) {
	if code != http.StatusNoContent && code != http.StatusNotModified {
		w.decide()
	} else {
		w.decided = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	w.decide()
	if w.writer == nil {
		return w.ResponseWriter.Write(b)
	}
	return w.writer.Write(b)
}

func (w *gzipResponseWriter) Close() error {
	if w.writer != nil {
		return w.writer.Close()
	}
	return nil
}
