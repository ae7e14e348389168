package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const checksumLength = 64

type peerAddrKey struct{}

// peerAddrMiddleware records the address of the connection peer before
// middleware.RealIP replaces RemoteAddr with client supplied headers.
func peerAddrMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), peerAddrKey{}, r.RemoteAddr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func peerAddr(r *http.Request) string {
	if addr, ok := r.Context().Value(peerAddrKey{}).(string); ok {
		return addr
	}
	return r.RemoteAddr
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requestLogger(r).Infof("%s %s (%s)", r.Method, r.URL.EscapedPath(), r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.writeJSONError(w, r, http.StatusInternalServerError, fmt.Errorf("panic: %v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// checksumRedirectMiddleware redirects urls that carry a plugin checksum
// (path ending in @{checksum}) to the url without it.
func (s *Server) checksumRedirectMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		atIndex := strings.LastIndex(path, "@")
		if atIndex >= 0 && len(path)-atIndex == checksumLength+1 {
			target := *r.URL
			target.Path = path[:atIndex]
			target.RawPath = ""
			target.RawQuery = ""
			http.Redirect(w, r, target.String(), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
