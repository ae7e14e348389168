package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

const (
	LogFieldRequestID   = "request_id"
	LogFieldHTTPRequest = "httpRequest"
)

const (
	contentTypeJSON  = "application/json; charset=utf-8"
	contentTypeWasm  = "application/wasm"
	contentTypePlain = "text/plain; charset=utf-8"

	dprintOrigin = "https://dprint.dev"
)

var errMethodNotAllowed = errors.New("method not allowed")

func (s *Server) setContentTypeJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", contentTypeJSON)
}

func (s *Server) writeJSON(w http.ResponseWriter, d any) {
	s.setContentTypeJSON(w)
	err := json.NewEncoder(w).Encode(d)
	if err != nil {
		s.log.Error(err)
	}
}

// writePublicJSON writes an indented JSON file that the dprint website is
// allowed to read.
func (s *Server) writePublicJSON(w http.ResponseWriter, r *http.Request, d any) {
	s.setContentTypeJSON(w)
	w.Header().Set("Access-Control-Allow-Origin", accessControlAllowOrigin(r))
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		s.log.Error(err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, r *http.Request, statusCode int, err error, alternativeMessage ...string) {
	errMsg := err.Error()
	s.log.WithFields(logrus.Fields{
		LogFieldRequestID: middleware.GetReqID(r.Context()),
		LogFieldHTTPRequest: map[string]any{
			"requestMethod": r.Method,
			"requestUrl":    r.URL.EscapedPath(),
			"status":        statusCode,
		},
	}).Errorf("error: %s", errMsg)

	s.setContentTypeJSON(w)
	w.WriteHeader(statusCode)

	if len(alternativeMessage) > 0 {
		errMsg = strings.Join(alternativeMessage, " ")
	}
	s.writeJSON(w, map[string]string{"error": errMsg})
}

func (s *Server) requestLogger(r *http.Request) *logrus.Entry {
	return s.log.WithFields(logrus.Fields{
		LogFieldRequestID: middleware.GetReqID(r.Context()),
		LogFieldHTTPRequest: map[string]any{
			"requestMethod": r.Method,
			"requestUrl":    r.URL.EscapedPath(),
		},
	})
}

func originHostname(r *http.Request) (string, bool) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return "", false
	}
	u, err := url.Parse(origin)
	if err != nil {
		return "", false
	}
	return u.Hostname(), true
}

func accessControlAllowOrigin(r *http.Request) string {
	if hostname, ok := originHostname(r); ok && hostname == "localhost" {
		return r.Header.Get("Origin")
	}
	return dprintOrigin
}

// shouldServeDirectly reports whether the file should be proxied instead of
// redirected to, which is needed by Deno and the dprint playground.
func shouldServeDirectly(r *http.Request) bool {
	if strings.HasPrefix(r.UserAgent(), "Deno/") {
		return true
	}
	hostname, ok := originHostname(r)
	return ok && (hostname == "localhost" || hostname == "dprint.dev")
}

func contentTypeForURL(target string) string {
	switch {
	case strings.HasSuffix(target, ".json"):
		return contentTypeJSON
	case strings.HasSuffix(target, ".wasm"):
		return contentTypeWasm
	default:
		return contentTypePlain
	}
}
