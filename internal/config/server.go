package config

import (
	"net/url"
	"os"
	"time"

	"github.com/dprint/plugins/internal/github"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const StageProd = "prod"

type ServerConfig struct {
	Stage               string        `envconfig:"STAGE" default:"dev"`
	ProjectID           string        `envconfig:"GOOGLE_CLOUD_PROJECT_ID" default:"dprint-plugins"`
	Port                string        `envconfig:"PORT" default:"8080"`
	BindAddress         string        `envconfig:"BIND_ADDRESS"`
	PublicURL           string        `envconfig:"PUBLIC_URL" default:"https://plugins.dprint.dev"`
	GitHubToken         string        `envconfig:"DPRINT_PLUGINS_GH_TOKEN"`
	GitHubAPIURL        string        `envconfig:"GITHUB_API_URL"`
	GitHubTimeout       time.Duration `envconfig:"GITHUB_REQUEST_TIMEOUT" default:"10s"`
	ReleaseCacheTTL     time.Duration `envconfig:"RELEASE_CACHE_TTL" default:"5m"`
	CLICacheTTL         time.Duration `envconfig:"CLI_CACHE_TTL" default:"10m"`
	FetchRetryMax       int           `envconfig:"FETCH_RETRY_MAX" default:"2"`
	TrustedProxyHops    int           `envconfig:"TRUSTED_PROXY_HOPS" default:"0"`
	DisableRequestCache bool          `envconfig:"DISABLE_REQUEST_CACHE"`
	DisableMetrics      bool          `envconfig:"DISABLE_METRICS"`
	LogFormat           string        `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel            string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFile             string        `envconfig:"LOG_FILE"`
	Version             string
}

func NewServerConfigFromEnv() (*ServerConfig, error) {
	var sCfg ServerConfig
	err := envconfig.Process("", &sCfg)
	if err != nil {
		return nil, err
	}
	if _, err := url.ParseRequestURI(sCfg.PublicURL); err != nil {
		return nil, err
	}
	// metrics are only exported from prod unless explicitly configured
	if _, ok := os.LookupEnv("DISABLE_METRICS"); !ok {
		sCfg.DisableMetrics = sCfg.Stage != StageProd
	}
	return &sCfg, nil
}

func (s *ServerConfig) GetServerAddr() string {
	return s.BindAddress + ":" + s.Port
}

func (s *ServerConfig) CreateGitHubClient(log logrus.FieldLogger) (*github.Client, error) {
	return github.NewClient(github.Config{
		Token:           s.GitHubToken,
		BaseURL:         s.GitHubAPIURL,
		RequestTimeout:  s.GitHubTimeout,
		ReleaseCacheTTL: s.ReleaseCacheTTL,
		CLICacheTTL:     s.CLICacheTTL,
		Log:             log,
	})
}
