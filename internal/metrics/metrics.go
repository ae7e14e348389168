package metrics

import (
	"fmt"

	"contrib.go.opencensus.io/exporter/stackdriver"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	CounterCacheHit        = stats.Int64("cache_hits", "Number of cache hits", "1")
	CounterCacheMiss       = stats.Int64("cache_misses", "Number of cache misses", "1")
	CounterRateLimited     = stats.Int64("rate_limited", "Number of rate limited proxy requests", "1")
	CounterPayloadTooLarge = stats.Int64("payload_too_large", "Number of upstream files exceeding the size limit", "1")
	CounterUpstreamFetches = stats.Int64("upstream_fetches", "Number of upstream file downloads", "1")
	CounterGitHubRequests  = stats.Int64("github_requests", "Number of GitHub API requests", "1")

	TagLimiter = tag.MustNewKey("limiter")
	TagMethod  = tag.MustNewKey("method")
)

var views = []*view.View{
	{
		Name:        "cache_hits",
		Measure:     CounterCacheHit,
		Description: "Number of cache hits",
		Aggregation: view.Count(),
	},
	{
		Name:        "cache_misses",
		Measure:     CounterCacheMiss,
		Description: "Number of cache misses",
		Aggregation: view.Count(),
	},
	{
		Name:        "rate_limited",
		Measure:     CounterRateLimited,
		Description: "Number of rate limited proxy requests",
		TagKeys:     []tag.Key{TagLimiter},
		Aggregation: view.Count(),
	},
	{
		Name:        "payload_too_large",
		Measure:     CounterPayloadTooLarge,
		Description: "Number of upstream files exceeding the size limit",
		Aggregation: view.Count(),
	},
	{
		Name:        "upstream_fetches",
		Measure:     CounterUpstreamFetches,
		Description: "Number of upstream file downloads",
		Aggregation: view.Count(),
	},
	{
		Name:        "github_requests",
		Measure:     CounterGitHubRequests,
		Description: "Number of GitHub API requests",
		TagKeys:     []tag.Key{TagMethod},
		Aggregation: view.Count(),
	},
}

func RegisterViews() error {
	return view.Register(views...)
}

func NewExporter(projectID, stage string) (*stackdriver.Exporter, error) {
	err := RegisterViews()
	if err != nil {
		return nil, err
	}
	exporter, err := stackdriver.NewExporter(stackdriver.Options{
		ProjectID:    projectID,
		MetricPrefix: fmt.Sprintf("dprint-plugins/%s", stage),
	})
	if err != nil {
		return nil, err
	}
	err = exporter.StartMetricsExporter()
	if err != nil {
		return nil, err
	}
	return exporter, nil
}
