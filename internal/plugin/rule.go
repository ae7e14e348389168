package plugin

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dprint/plugins/internal/version"
)

const (
	tagPattern      = `([A-Za-z0-9._]+)`
	repoPattern     = `([A-Za-z0-9\-._]+)`
	usernamePattern = `([A-Za-z0-9\-]+)`

	latestTag = "latest"
)

// FileNameThreshold selects FileName for all versions up to and including
// UpTo. A "%s" in FileName is replaced with the requested version.
type FileNameThreshold struct {
	UpTo     version.Version
	FileName string
}

// Rule resolves the artifacts of a first-party plugin that were published
// under different file names over time.
type Rule struct {
	Name string
	// Extension of the artifact without the leading dot, for example "wasm"
	// or "exe-plugin".
	Extension  string
	Thresholds []FileNameThreshold
	// Schema enables /schemas/{name}-{version}.json for this plugin.
	Schema bool

	pattern *regexp.Regexp
}

func NewRule(name, extension string, schema bool, thresholds ...FileNameThreshold) *Rule {
	return &Rule{
		Name:       name,
		Extension:  extension,
		Thresholds: thresholds,
		Schema:     schema,
		pattern:    regexp.MustCompile(fmt.Sprintf(`^/%s-%s\.%s$`, regexp.QuoteMeta(name), tagPattern, regexp.QuoteMeta(extension))),
	}
}

// UpTo is a shorthand for building thresholds.
func UpTo(v, fileName string) FileNameThreshold {
	return FileNameThreshold{UpTo: version.MustParse(v), FileName: fileName}
}

func (r *Rule) repo() string {
	return "dprint-plugin-" + r.Name
}

// FileName returns the artifact file name that was used for v.
func (r *Rule) FileName(v version.Version) string {
	for _, t := range r.Thresholds {
		if v.LessThanEqual(t.UpTo) {
			if strings.Contains(t.FileName, "%s") {
				return fmt.Sprintf(t.FileName, v.String())
			}
			return t.FileName
		}
	}
	return "plugin." + r.Extension
}

// Match returns the upstream url for path. Tags that are not strict
// versions are left to the generic first-party patterns.
func (r *Rule) Match(path string) (string, bool) {
	m := r.pattern.FindStringSubmatch(path)
	if m == nil {
		return "", false
	}
	v, err := version.Parse(m[1])
	if err != nil {
		return "", false
	}
	return releaseDownloadURL("dprint", r.repo(), m[1], r.FileName(v)), true
}

type Rules []*Rule

func (rs Rules) Match(path string) (string, bool) {
	for _, r := range rs {
		if u, ok := r.Match(path); ok {
			return u, true
		}
	}
	return "", false
}

func (rs Rules) HasSchema(name string) bool {
	for _, r := range rs {
		if r.Name == name && r.Schema {
			return true
		}
	}
	return false
}

func releaseDownloadURL(owner, repo, tag, fileName string) string {
	if tag == latestTag {
		return fmt.Sprintf("https://github.com/%s/%s/releases/latest/download/%s", owner, repo, fileName)
	}
	return fmt.Sprintf("https://github.com/%s/%s/releases/download/%s/%s", owner, repo, tag, fileName)
}
