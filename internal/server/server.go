package server

import (
	"context"
	"net/http"
	"time"

	"github.com/dprint/plugins/internal/config"
	"github.com/dprint/plugins/internal/fetch"
	"github.com/dprint/plugins/internal/plugin"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// GitHubClient is the metadata the server needs from GitHub.
type GitHubClient interface {
	plugin.MetadataClient
	LatestCLIVersion(ctx context.Context) (string, error)
}

type Server struct {
	router   chi.Router
	log      *logrus.Logger
	ghClient GitHubClient
	resolver *plugin.Resolver
	fetcher  *fetch.Cacher
	config   *config.ServerConfig
	cache    *cache.Cache
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "Not Found", http.StatusNotFound)
}

func (s *Server) methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSONError(w, r, http.StatusMethodNotAllowed, errMethodNotAllowed)
}

func (s *Server) indexHandler(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{
		"service":   "dprint plugins",
		"stage":     s.config.Stage,
		"version":   s.config.Version,
		"publicUrl": s.config.PublicURL,
	})
}

func New(log *logrus.Logger, ghClient GitHubClient, fetcher *fetch.Cacher, serverCfg *config.ServerConfig) *Server {
	router := chi.NewRouter()
	server := &Server{
		router:   router,
		log:      log,
		ghClient: ghClient,
		resolver: plugin.NewResolver(config.Plugins, ghClient, serverCfg.PublicURL),
		fetcher:  fetcher,
		config:   serverCfg,
		cache:    cache.New(time.Minute, 5*time.Minute),
	}
	router.Use(middleware.RequestID)
	router.Use(peerAddrMiddleware)
	router.Use(middleware.RealIP)
	router.Use(server.logMiddleware)
	router.Use(server.recoverMiddleware)
	router.Use(middleware.GetHead)
	router.Use(middleware.Timeout(time.Minute))
	router.Use(server.checksumRedirectMiddleware)

	router.NotFound(server.notFoundHandler)
	router.MethodNotAllowed(server.methodNotAllowedHandler)

	router.Get("/", server.indexHandler)
	router.With(server.cacheMiddleware).Get("/info.json", server.infoHandler)
	router.Get("/cli.json", server.cliHandler)
	router.Get("/download/*", server.downloadHandler)
	router.Get("/*", server.resolveHandler)

	return server
}
