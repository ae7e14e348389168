package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dprint/plugins/pkg/registry"
)

func (s *Server) resolveHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if target, ok := s.resolver.Resolve(r.Context(), path); ok {
		s.serveConditionalRedirect(w, r, target)
		return
	}

	latest, matched, err := s.resolver.ResolveLatestJSON(r.Context(), path)
	if err != nil {
		s.writeJSONError(w, r, http.StatusInternalServerError, err, "could not get latest release")
		return
	}
	if matched {
		if latest == nil {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		s.writePublicJSON(w, r, latest)
		return
	}

	s.notFoundHandler(w, r)
}

func (s *Server) infoHandler(w http.ResponseWriter, r *http.Request) {
	info, err := s.latestPluginsInfo(r)
	if err != nil {
		s.writeJSONError(w, r, http.StatusInternalServerError, err, "could not get plugin info")
		return
	}
	s.setInCache(r.Context(), s.getCacheKeyFromRequest(r), info)
	s.writePublicJSON(w, r, info)
}

// latestPluginsInfo refreshes the version and url of every listed plugin.
// Plugins without a published release are left out.
func (s *Server) latestPluginsInfo(r *http.Request) (*registry.PluginsInfo, error) {
	res := &registry.PluginsInfo{
		SchemaVersion: pluginsInfo.SchemaVersion,
		Latest:        make([]registry.PluginInfo, 0, len(pluginsInfo.Latest)),
	}
	for _, p := range pluginsInfo.Latest {
		owner, name, found := strings.Cut(p.Name, "/")
		if !found {
			owner, name = "dprint", p.Name
		}
		latest, err := s.resolver.LatestInfo(r.Context(), owner, name)
		if err != nil {
			return nil, fmt.Errorf("could not get latest info of %s: %w", p.Name, err)
		}
		if latest == nil {
			s.requestLogger(r).Warnf("no release found for %s", p.Name)
			continue
		}
		p.Version = latest.Version
		p.URL = latest.URL
		res.Latest = append(res.Latest, p)
	}
	return res, nil
}

func (s *Server) cliHandler(w http.ResponseWriter, r *http.Request) {
	v, err := s.ghClient.LatestCLIVersion(r.Context())
	if err != nil {
		s.writeJSONError(w, r, http.StatusInternalServerError, err, "could not get latest cli release")
		return
	}
	s.writePublicJSON(w, r, &registry.CLIInfo{Version: v})
}
