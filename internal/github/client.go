// Package github talks to the GitHub REST API on behalf of the registry.
// All requests go through a single Actioner so that at most one API call is
// in flight at any time.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/dprint/plugins/internal/cache"
	"github.com/dprint/plugins/internal/clock"
	"github.com/dprint/plugins/internal/metrics"
	"github.com/google/go-github/v59/github"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
	"golang.org/x/oauth2"
)

var ErrMalformedResponse = errors.New("malformed github response")

// UpstreamError is returned for unexpected GitHub response statuses.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("invalid response status: %d: %s", e.StatusCode, e.Message)
}

type Kind string

const (
	KindWasm    Kind = "wasm"
	KindProcess Kind = "process"
)

type ReleaseInfo struct {
	TagName string
	// Checksum is empty when the release notes do not contain one.
	Checksum      string
	Kind          Kind
	DownloadCount int
}

const (
	repoExistsCacheSize = 1000
	releasesCacheSize   = 1000
	cliRepoOwner        = "dprint"
	cliRepoName         = "dprint"
)

var (
	nameRe     = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)
	checksumRe = regexp.MustCompile(`(?i)@([a-z0-9]{64})\b`)
)

func validName(name string) bool {
	return nameRe.MatchString(name)
}

type Config struct {
	// Token is optional. Requests are sent unauthenticated without it.
	Token           string
	BaseURL         string
	RequestTimeout  time.Duration
	ReleaseCacheTTL time.Duration
	CLICacheTTL     time.Duration
	HTTPClient      *http.Client
	Clock           clock.Clock
	Log             logrus.FieldLogger
}

type Client struct {
	gh         *github.Client
	actioner   *Actioner
	log        logrus.FieldLogger
	repoExists *cache.Cache[string, bool]
	releases   *cache.Expiring[[]*github.RepositoryRelease]
	cliRelease *cache.Expiring[string]
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.ReleaseCacheTTL == 0 {
		cfg.ReleaseCacheTTL = 5 * time.Minute
	}
	if cfg.CLICacheTTL == 0 {
		cfg.CLICacheTTL = 10 * time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}

	httpClient := cfg.HTTPClient
	if cfg.Token != "" {
		ctx := context.Background()
		if httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		}
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
	}
	gh := github.NewClient(httpClient)
	if cfg.BaseURL != "" {
		baseURL := cfg.BaseURL
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}
		gh.BaseURL = u
	}

	return &Client{
		gh:         gh,
		actioner:   NewActioner(cfg.RequestTimeout),
		log:        cfg.Log,
		repoExists: cache.New[string, bool](repoExistsCacheSize),
		releases:   cache.NewExpiring[[]*github.RepositoryRelease](releasesCacheSize, cfg.ReleaseCacheTTL, cfg.Clock, cfg.Log),
		cliRelease: cache.NewExpiring[string](1, cfg.CLICacheTTL, cfg.Clock, cfg.Log),
	}, nil
}

func recordRequest(ctx context.Context, method string) {
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.TagMethod, method))
	stats.Record(ctx, metrics.CounterGitHubRequests.M(1))
}

// do sends req through the actioner. The returned response is nil only when
// the request itself failed.
func (c *Client) do(ctx context.Context, req *http.Request, v any) (*github.Response, error) {
	c.log.WithField("url", req.URL.String()).Infof("making %s request to github", req.Method)
	recordRequest(ctx, req.Method)
	var resp *github.Response
	err := c.actioner.Do(ctx, func(ctx context.Context) error {
		var err error
		resp, err = c.gh.Do(ctx, req, v)
		return err
	})
	return resp, err
}

// RepoExists reports whether owner/name exists on GitHub. Failed lookups
// report false and are not cached.
func (c *Client) RepoExists(ctx context.Context, owner, name string) bool {
	if !validName(owner) || !validName(name) {
		return false
	}
	key := owner + "/" + name
	if exists, ok := c.repoExists.Get(key); ok {
		return exists
	}

	req, err := c.gh.NewRequest(http.MethodHead, fmt.Sprintf("repos/%s/%s", owner, name), nil)
	if err != nil {
		c.log.WithError(err).Error("failed to create request")
		return false
	}
	resp, err := c.do(ctx, req, nil)
	switch {
	case resp != nil && resp.StatusCode == http.StatusOK:
		c.repoExists.Set(key, true)
		return true
	case resp != nil && resp.StatusCode == http.StatusNotFound:
		c.repoExists.Set(key, false)
		return false
	}
	if err == nil {
		err = &UpstreamError{StatusCode: resp.StatusCode}
	}
	c.log.WithError(err).WithField("repo", key).Error("checking if repo exists failed")
	return false
}

// releasesData returns the releases of owner/name, newest first. A nil slice
// without error means the repo does not exist.
func (c *Client) releasesData(ctx context.Context, owner, name string) ([]*github.RepositoryRelease, error) {
	if !validName(owner) || !validName(name) {
		return nil, nil
	}
	return c.releases.GetOrSet(ctx, owner+"/"+name, func(ctx context.Context) ([]*github.RepositoryRelease, error) {
		req, err := c.gh.NewRequest(http.MethodGet, fmt.Sprintf("repos/%s/%s/releases", owner, name), nil)
		if err != nil {
			return nil, err
		}
		var releases []*github.RepositoryRelease
		resp, err := c.do(ctx, req, &releases)
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		if err != nil {
			var errResp *github.ErrorResponse
			if errors.As(err, &errResp) {
				return nil, &UpstreamError{StatusCode: errResp.Response.StatusCode, Message: errResp.Message}
			}
			return nil, err
		}
		if releases == nil {
			releases = []*github.RepositoryRelease{}
		}
		return releases, nil
	})
}

// LatestReleaseInfo returns information about the newest published release
// of owner/name. It returns nil when the repo or such a release does not
// exist.
func (c *Client) LatestReleaseInfo(ctx context.Context, owner, name string) (*ReleaseInfo, error) {
	releases, err := c.releasesData(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	for _, release := range releases {
		if release.GetDraft() || release.GetPrerelease() {
			continue
		}
		return toReleaseInfo(release)
	}
	return nil, nil
}

// AllDownloadCount sums the plugin download counts of all releases of
// owner/name.
func (c *Client) AllDownloadCount(ctx context.Context, owner, name string) (int, error) {
	releases, err := c.releasesData(ctx, owner, name)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, release := range releases {
		total += downloadCount(release.Assets)
	}
	return total, nil
}

// LatestCLIVersion returns the tag of the latest dprint CLI release.
func (c *Client) LatestCLIVersion(ctx context.Context) (string, error) {
	key := cliRepoOwner + "/" + cliRepoName
	if v, ok := c.cliRelease.Get(key); ok {
		return v, nil
	}
	req, err := c.gh.NewRequest(http.MethodGet, fmt.Sprintf("repos/%s/%s/releases/latest", cliRepoOwner, cliRepoName), nil)
	if err != nil {
		return "", err
	}
	release := new(github.RepositoryRelease)
	resp, err := c.do(ctx, req, release)
	if err != nil {
		var errResp *github.ErrorResponse
		if errors.As(err, &errResp) && resp != nil {
			return "", &UpstreamError{StatusCode: resp.StatusCode, Message: errResp.Message}
		}
		return "", err
	}
	if release.TagName == nil {
		return "", fmt.Errorf("%w: missing tag name", ErrMalformedResponse)
	}
	c.cliRelease.Set(key, release.GetTagName())
	return release.GetTagName(), nil
}

func toReleaseInfo(release *github.RepositoryRelease) (*ReleaseInfo, error) {
	if release.TagName == nil {
		return nil, fmt.Errorf("%w: the tag name was not a string", ErrMalformedResponse)
	}
	info := &ReleaseInfo{
		TagName:       release.GetTagName(),
		Kind:          KindWasm,
		DownloadCount: downloadCount(release.Assets),
	}
	if m := checksumRe.FindStringSubmatch(release.GetBody()); m != nil {
		info.Checksum = m[1]
	}
	for _, asset := range release.Assets {
		if asset.GetName() == "plugin.json" {
			info.Kind = KindProcess
			break
		}
	}
	return info, nil
}

func downloadCount(assets []*github.ReleaseAsset) int {
	for _, asset := range assets {
		if asset.GetName() == "plugin.wasm" || asset.GetName() == "plugin.json" {
			return asset.GetDownloadCount()
		}
	}
	return 0
}
