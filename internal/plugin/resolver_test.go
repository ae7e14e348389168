package plugin

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dprint/plugins/internal/github"
	"github.com/dprint/plugins/pkg/registry"
	"github.com/stretchr/testify/require"
)

type fakeMetadataClient struct {
	mu       sync.Mutex
	repos    map[string]bool
	releases map[string]*github.ReleaseInfo
	err      error
	checked  []string
}

func (f *fakeMetadataClient) RepoExists(_ context.Context, owner, name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checked = append(f.checked, owner+"/"+name)
	return f.repos[owner+"/"+name]
}

func (f *fakeMetadataClient) LatestReleaseInfo(_ context.Context, owner, name string) (*github.ReleaseInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.releases[owner+"/"+name], nil
}

func newTestResolver() (*Resolver, *fakeMetadataClient) {
	client := &fakeMetadataClient{
		repos: map[string]bool{
			"dprint/dprint-plugin-typescript": true,
			"dprint/dprint-plugin-exec":       true,
			"owner/dprint-plugin-sample":      true,
		},
		releases: map[string]*github.ReleaseInfo{
			"dprint/dprint-plugin-typescript": {TagName: "0.90.0", Checksum: "abc", Kind: github.KindWasm, DownloadCount: 10},
			"dprint/dprint-plugin-exec":       {TagName: "0.4.0", Kind: github.KindProcess},
			"owner/dprint-plugin-sample":      {TagName: "v1.2.0", Kind: github.KindWasm, DownloadCount: 3},
			"owner/other":                     {TagName: "v0.1.0", Kind: github.KindProcess},
		},
	}
	rules := Rules{
		NewRule("typescript", "wasm", true, UpTo("0.44.0", "typescript-%s.wasm"), UpTo("0.62.1", "typescript.wasm")),
		NewRule("prettier", "exe-plugin", false, UpTo("0.5.0", "prettier.exe-plugin")),
	}
	return NewResolver(rules, client, "https://plugins.dprint.dev/"), client
}

func TestResolvePluginURL(t *testing.T) {
	r, _ := newTestResolver()
	testCases := []struct {
		path     string
		expected string
	}{
		{"/typescript-0.19.4.wasm", "https://github.com/dprint/dprint-plugin-typescript/releases/download/0.19.4/typescript-0.19.4.wasm"},
		{"/typescript-0.44.1.wasm", "https://github.com/dprint/dprint-plugin-typescript/releases/download/0.44.1/typescript.wasm"},
		{"/typescript-1.2.3.wasm", "https://github.com/dprint/dprint-plugin-typescript/releases/download/1.2.3/plugin.wasm"},
		{"/typescript-latest.wasm", "https://github.com/dprint/dprint-plugin-typescript/releases/latest/download/plugin.wasm"},
		{"/prettier-0.5.0.exe-plugin", "https://github.com/dprint/dprint-plugin-prettier/releases/download/0.5.0/prettier.exe-plugin"},
		{"/prettier-0.7.0.json", "https://github.com/dprint/dprint-plugin-prettier/releases/download/0.7.0/plugin.json"},
		{"/exec-0.1.0.exe-plugin", "https://github.com/dprint/dprint-plugin-exec/releases/download/0.1.0/plugin.exe-plugin"},
		{"/dprint/typescript-1.2.3.wasm", "https://github.com/dprint/dprint-plugin-typescript/releases/download/1.2.3/plugin.wasm"},
		{"/dprint/dprint-plugin-typescript-1.2.3.wasm", "https://github.com/dprint/dprint-plugin-typescript/releases/download/1.2.3/plugin.wasm"},
		{"/dprint/dprint-plugin-typescript-latest.wasm", "https://github.com/dprint/dprint-plugin-typescript/releases/latest/download/plugin.wasm"},
		{"/dprint/dprint-plugin-exec-0.3.0.json", "https://github.com/dprint/dprint-plugin-exec/releases/download/0.3.0/plugin.json"},
		{"/owner/non-existent-1.0.0.wasm", "https://github.com/owner/non-existent/releases/download/1.0.0/plugin.wasm"},
		{"/lucacasonato/mf2-tools-0.1.0.wasm", "https://github.com/lucacasonato/mf2-tools/releases/download/0.1.0/dprint-plugin-mf2.wasm"},
		{"/rustfmt-0.1.0.wasm", "https://github.com/dprint/dprint-plugin-rustfmt/releases/download/0.1.0/rustfmt.wasm"},
	}
	for _, tc := range testCases {
		u, ok := r.ResolvePluginURL(context.Background(), tc.path)
		require.True(t, ok, tc.path)
		require.Equal(t, tc.expected, u, tc.path)
	}

	for _, path := range []string{"/", "/info.json", "/cli.json", "/typescript.wasm", "/a/b/c-1.0.0.wasm", "/owner/repo-1.0.0.zip", "/schemas/typescript-0.1.0.json"} {
		_, ok := r.ResolvePluginURL(context.Background(), path)
		require.False(t, ok, path)
	}
}

func TestResolvePluginURLSkipsLookupForFullName(t *testing.T) {
	r, client := newTestResolver()
	_, ok := r.ResolvePluginURL(context.Background(), "/owner/dprint-plugin-sample-0.1.0.wasm")
	require.True(t, ok)
	require.Empty(t, client.checked)

	_, ok = r.ResolvePluginURL(context.Background(), "/owner/sample-0.1.0.wasm")
	require.True(t, ok)
	require.Equal(t, []string{"owner/dprint-plugin-sample"}, client.checked)
}

func TestResolveSchemaURL(t *testing.T) {
	r, _ := newTestResolver()
	testCases := []struct {
		path     string
		expected string
	}{
		{"/schemas/typescript-0.52.1.json", "https://github.com/dprint/dprint-plugin-typescript/releases/download/0.52.1/schema.json"},
		{"/dprint/typescript/1.2.3/schema.json", "https://github.com/dprint/dprint-plugin-typescript/releases/download/1.2.3/schema.json"},
		{"/dprint/dprint-plugin-typescript/latest/schema.json", "https://github.com/dprint/dprint-plugin-typescript/releases/latest/download/schema.json"},
		{"/dprint/non-existent/1.2.3/schema.json", "https://github.com/dprint/non-existent/releases/download/1.2.3/schema.json"},
		{"/lucacasonato/mf2-tools/0.1.0/schema.json", "https://github.com/lucacasonato/mf2-tools/releases/download/0.1.0/dprint-plugin-mf2.schema.json"},
	}
	for _, tc := range testCases {
		u, ok := r.ResolveSchemaURL(context.Background(), tc.path)
		require.True(t, ok, tc.path)
		require.Equal(t, tc.expected, u, tc.path)
	}

	_, ok := r.ResolveSchemaURL(context.Background(), "/schemas/prettier-0.1.0.json")
	require.False(t, ok)
}

func TestResolve(t *testing.T) {
	r, _ := newTestResolver()
	u, ok := r.Resolve(context.Background(), "/schemas/typescript-v0.json")
	require.True(t, ok)
	require.Equal(t, "https://github.com/dprint/dprint-plugin-typescript/releases/download/0.44.1/schema.json", u)

	u, ok = r.Resolve(context.Background(), "/schemas/typescript-0.1.0.json")
	require.True(t, ok)
	require.Equal(t, "https://github.com/dprint/dprint-plugin-typescript/releases/download/0.1.0/schema.json", u)

	_, ok = r.Resolve(context.Background(), "/owner/repo/latest.json")
	require.False(t, ok)
}

func TestResolveLatestJSON(t *testing.T) {
	r, _ := newTestResolver()
	ctx := context.Background()

	info, matched, err := r.ResolveLatestJSON(ctx, "/dprint/typescript/latest.json")
	require.NoError(t, err)
	require.True(t, matched)
	checksum := "abc"
	require.Equal(t, &registry.LatestJSON{
		SchemaVersion: 1,
		URL:           "https://plugins.dprint.dev/typescript-0.90.0.wasm",
		Version:       "0.90.0",
		Checksum:      &checksum,
	}, info)

	info, matched, err = r.ResolveLatestJSON(ctx, "/owner/sample/latest.json")
	require.NoError(t, err)
	require.True(t, matched)
	require.Equal(t, "https://plugins.dprint.dev/owner/sample-v1.2.0.wasm", info.URL)
	require.Equal(t, "1.2.0", info.Version)
	require.Nil(t, info.Checksum)

	info, matched, err = r.ResolveLatestJSON(ctx, "/owner/other/latest.json")
	require.NoError(t, err)
	require.True(t, matched)
	require.Equal(t, "https://plugins.dprint.dev/owner/other-v0.1.0.json", info.URL)

	info, matched, err = r.ResolveLatestJSON(ctx, "/owner/missing/latest.json")
	require.NoError(t, err)
	require.True(t, matched)
	require.Nil(t, info)

	_, matched, err = r.ResolveLatestJSON(ctx, "/owner/sample-1.0.0.wasm")
	require.NoError(t, err)
	require.False(t, matched)
}

func TestLatestInfo(t *testing.T) {
	r, client := newTestResolver()

	info, err := r.LatestInfo(context.Background(), "dprint", "exec")
	require.NoError(t, err)
	require.Equal(t, "https://plugins.dprint.dev/exec-0.4.0.json", info.URL)
	require.Equal(t, "0.4.0", info.Version)

	info, err = r.LatestInfo(context.Background(), "dprint", "typescript")
	require.NoError(t, err)
	require.Equal(t, 10, info.DownloadCount)

	client.err = errors.New("boom")
	_, err = r.LatestInfo(context.Background(), "dprint", "typescript")
	require.ErrorContains(t, err, "boom")
}
