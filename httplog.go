package main

import (
	"log"
	"net/http"
	"time"
)

// logResponseWriter captures the status code and body size a handler wrote,
// for the access log.
type logResponseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *logResponseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *logResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// HttpLog wraps a handler with one access-log line per request:
// remote address, method, path, status, response size, latency, user agent.
func HttpLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := &logResponseWriter{ResponseWriter: w}
		next.ServeHTTP(lw, r)
		if lw.status == 0 {
			lw.status = http.StatusOK
		}
		log.Printf("%s %s %s %d %d %dms %q",
			r.RemoteAddr, r.Method, r.URL.RequestURI(),
			lw.status, lw.bytes,
			time.Since(start).Milliseconds(),
			r.Header.Get("User-Agent"))
	})
}
