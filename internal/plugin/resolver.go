package plugin

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dprint/plugins/internal/github"
	"github.com/dprint/plugins/pkg/registry"
)

const (
	firstPartyOwner  = "dprint"
	repoPrefix       = "dprint-plugin-"
	latestJSONSchema = 1
)

var (
	dprintWasmPattern    = regexp.MustCompile(`^/` + repoPattern + `-` + tagPattern + `\.wasm$`)
	dprintProcessPattern = regexp.MustCompile(`^/` + repoPattern + `-` + tagPattern + `\.json$`)
	dprintExePattern     = regexp.MustCompile(`^/` + repoPattern + `-` + tagPattern + `\.exe-plugin$`)
	dprintSchemaPattern  = regexp.MustCompile(`^/schemas/` + repoPattern + `-` + tagPattern + `\.json$`)

	userRepoPattern    = usernamePattern + `/` + repoPattern
	userWasmPattern    = regexp.MustCompile(`^/` + userRepoPattern + `-` + tagPattern + `\.wasm$`)
	userProcessPattern = regexp.MustCompile(`^/` + userRepoPattern + `-` + tagPattern + `\.json$`)
	userSchemaPattern  = regexp.MustCompile(`^/` + userRepoPattern + `/` + tagPattern + `/schema\.json$`)
	userLatestPattern  = regexp.MustCompile(`^/` + userRepoPattern + `/latest\.json$`)
)

// MetadataClient is the part of the GitHub client the resolver needs.
type MetadataClient interface {
	RepoExists(ctx context.Context, owner, name string) bool
	LatestReleaseInfo(ctx context.Context, owner, name string) (*github.ReleaseInfo, error)
}

// Resolver maps request paths to the upstream location of plugin artifacts.
type Resolver struct {
	rules     Rules
	legacy    map[string]string
	client    MetadataClient
	publicURL string
}

func NewResolver(rules Rules, client MetadataClient, publicURL string) *Resolver {
	return &Resolver{
		rules:     rules,
		legacy:    legacyRedirects,
		client:    client,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

// Resolve returns the upstream url for a plugin or schema request path.
func (r *Resolver) Resolve(ctx context.Context, path string) (string, bool) {
	if u, ok := r.ResolvePluginURL(ctx, path); ok {
		return u, true
	}
	return r.ResolveSchemaURL(ctx, path)
}

// ResolvePluginURL resolves plugin artifact paths. Legacy urls are checked
// first, then first-party plugins and finally owner/repo plugins.
func (r *Resolver) ResolvePluginURL(ctx context.Context, path string) (string, bool) {
	if u, ok := r.legacy[path]; ok {
		return u, true
	}
	if u, ok := r.rules.Match(path); ok {
		return u, true
	}
	for _, p := range []struct {
		re       *regexp.Regexp
		fileName string
	}{
		{dprintWasmPattern, "plugin.wasm"},
		{dprintProcessPattern, "plugin.json"},
		{dprintExePattern, "plugin.exe-plugin"},
	} {
		if m := p.re.FindStringSubmatch(path); m != nil {
			return releaseDownloadURL(firstPartyOwner, repoPrefix+m[1], m[2], p.fileName), true
		}
	}
	// would otherwise be taken for a "schemas" owner
	if dprintSchemaPattern.MatchString(path) {
		return "", false
	}
	if u, ok := r.userRepoURL(ctx, userWasmPattern, path, "plugin.wasm"); ok {
		return u, true
	}
	return r.userRepoURL(ctx, userProcessPattern, path, "plugin.json")
}

// ResolveSchemaURL resolves json schema paths of first-party and owner/repo
// plugins.
func (r *Resolver) ResolveSchemaURL(ctx context.Context, path string) (string, bool) {
	if m := dprintSchemaPattern.FindStringSubmatch(path); m != nil && r.rules.HasSchema(m[1]) {
		return releaseDownloadURL(firstPartyOwner, repoPrefix+m[1], m[2], "schema.json"), true
	}
	return r.userRepoURL(ctx, userSchemaPattern, path, "schema.json")
}

func (r *Resolver) userRepoURL(ctx context.Context, re *regexp.Regexp, path, fileName string) (string, bool) {
	m := re.FindStringSubmatch(path)
	if m == nil {
		return "", false
	}
	owner, tag := m[1], m[3]
	repo := r.fullRepoName(ctx, owner, m[2])
	if owner == "lucacasonato" && repo == "mf2-tools" {
		switch fileName {
		case "plugin.wasm":
			fileName = "dprint-plugin-mf2.wasm"
		case "schema.json":
			fileName = "dprint-plugin-mf2.schema.json"
		}
	}
	return releaseDownloadURL(owner, repo, tag, fileName), true
}

// fullRepoName expands name to dprint-plugin-{name} when such a repo exists.
func (r *Resolver) fullRepoName(ctx context.Context, owner, name string) string {
	if strings.HasPrefix(name, repoPrefix) {
		return name
	}
	if r.client.RepoExists(ctx, owner, repoPrefix+name) {
		return repoPrefix + name
	}
	return name
}

// ResolveLatestJSON handles /{owner}/{repo}/latest.json paths. The bool
// reports whether path has that shape; a nil result means the plugin has no
// published release.
func (r *Resolver) ResolveLatestJSON(ctx context.Context, path string) (*registry.LatestJSON, bool, error) {
	m := userLatestPattern.FindStringSubmatch(path)
	if m == nil {
		return nil, false, nil
	}
	info, err := r.LatestInfo(ctx, m[1], m[2])
	if err != nil {
		return nil, true, err
	}
	if info == nil {
		return nil, true, nil
	}
	return &info.LatestJSON, true, nil
}

// LatestInfo describes the newest release of owner/name as served by this
// registry. It returns nil when there is no such release.
func (r *Resolver) LatestInfo(ctx context.Context, owner, name string) (*registry.LatestInfo, error) {
	repo := r.fullRepoName(ctx, owner, name)
	release, err := r.client.LatestReleaseInfo(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest release of %s/%s: %w", owner, repo, err)
	}
	if release == nil {
		return nil, nil
	}

	displayName := strings.TrimPrefix(repo, repoPrefix)
	extension := "wasm"
	if release.Kind == github.KindProcess {
		extension = "json"
	}
	info := &registry.LatestInfo{
		LatestJSON: registry.LatestJSON{
			SchemaVersion: latestJSONSchema,
			Version:       release.TagName,
		},
		DownloadCount: release.DownloadCount,
	}
	if owner == firstPartyOwner {
		info.URL = fmt.Sprintf("%s/%s-%s.%s", r.publicURL, displayName, release.TagName, extension)
	} else {
		info.URL = fmt.Sprintf("%s/%s/%s-%s.%s", r.publicURL, owner, displayName, release.TagName, extension)
		info.Version = strings.TrimPrefix(release.TagName, "v")
	}
	if release.Checksum != "" {
		checksum := release.Checksum
		info.Checksum = &checksum
	}
	return info, nil
}
