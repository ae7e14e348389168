package server

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/dprint/plugins/internal/fetch"
	"github.com/go-chi/chi/v5"
)

// downloadHandler serves /download/{path} by always proxying the file
// {path} resolves to.
func (s *Server) downloadHandler(w http.ResponseWriter, r *http.Request) {
	target, ok := s.resolver.Resolve(r.Context(), "/"+chi.URLParam(r, "*"))
	if !ok {
		s.notFoundHandler(w, r)
		return
	}
	s.serveFile(w, r, target)
}

func (s *Server) serveConditionalRedirect(w http.ResponseWriter, r *http.Request, target string) {
	if shouldServeDirectly(r) {
		s.serveFile(w, r, target)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// clientHost returns the key used for rate limiting a request. It is the
// connection peer, or with trustedHops > 0 the X-Forwarded-For entry that
// many hops from the right, which only trusted proxies can have written.
func clientHost(r *http.Request, trustedHops int) string {
	if trustedHops > 0 {
		var hops []string
		for _, v := range r.Header.Values("X-Forwarded-For") {
			for _, hop := range strings.Split(v, ",") {
				hops = append(hops, strings.TrimSpace(hop))
			}
		}
		if len(hops) >= trustedHops {
			if hop := hops[len(hops)-trustedHops]; hop != "" {
				return hop
			}
		}
	}
	addr := peerAddr(r)
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, target string) {
	body, err := s.fetcher.FetchCached(r.Context(), target, clientHost(r, s.config.TrustedProxyHops))
	if err != nil {
		var fetchErr *fetch.Error
		if !errors.As(err, &fetchErr) {
			s.requestLogger(r).WithError(err).Errorf("failed to fetch %s", target)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.requestLogger(r).Warnf("fetching %s failed with status %d", target, fetchErr.StatusCode)
		contentType := contentTypePlain
		if ct := fetchErr.Header.Get("Content-Type"); ct != "" {
			contentType = ct
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(fetchErr.StatusCode)
		_, _ = w.Write([]byte(fetchErr.Message))
		return
	}

	w.Header().Set("Content-Type", contentTypeForURL(target))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	// allow the playground to download this
	w.Header().Set("Access-Control-Allow-Origin", accessControlAllowOrigin(r))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
