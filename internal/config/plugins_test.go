package config

import (
	"context"
	"fmt"
	"testing"

	"github.com/dprint/plugins/internal/github"
	"github.com/dprint/plugins/internal/plugin"
	"github.com/stretchr/testify/require"
)

type noReposClient struct{}

func (noReposClient) RepoExists(context.Context, string, string) bool { return false }

func (noReposClient) LatestReleaseInfo(context.Context, string, string) (*github.ReleaseInfo, error) {
	return nil, nil
}

func TestPluginFileNames(t *testing.T) {
	r := plugin.NewResolver(Plugins, noReposClient{}, "https://plugins.dprint.dev")
	testCases := []struct {
		name, version, ext, fileName string
	}{
		{"typescript", "0.19.4", "wasm", "typescript-0.19.4.wasm"},
		{"typescript", "0.44.0", "wasm", "typescript-0.44.0.wasm"},
		{"typescript", "0.44.1", "wasm", "typescript.wasm"},
		{"typescript", "0.62.1", "wasm", "typescript.wasm"},
		{"typescript", "0.62.2", "wasm", "plugin.wasm"},
		{"json", "0.10.1", "wasm", "json-0.10.1.wasm"},
		{"json", "0.14.0", "wasm", "json.wasm"},
		{"json", "0.14.1", "wasm", "plugin.wasm"},
		{"markdown", "0.7.0", "wasm", "markdown-0.7.0.wasm"},
		{"markdown", "0.12.1", "wasm", "markdown.wasm"},
		{"markdown", "0.12.2", "wasm", "plugin.wasm"},
		{"toml", "0.5.3", "wasm", "toml.wasm"},
		{"toml", "0.5.4", "wasm", "plugin.wasm"},
		{"dockerfile", "0.2.1", "wasm", "dockerfile.wasm"},
		{"dockerfile", "0.2.2", "wasm", "plugin.wasm"},
		{"sql", "0.1.1", "wasm", "sql.wasm"},
		{"sql", "0.1.2", "wasm", "plugin.wasm"},
		{"prettier", "0.5.0", "exe-plugin", "prettier.exe-plugin"},
		{"prettier", "0.5.1", "exe-plugin", "plugin.exe-plugin"},
		{"prettier", "0.7.0", "json", "plugin.json"},
		{"roslyn", "0.4.0", "exe-plugin", "roslyn.exe-plugin"},
		{"roslyn", "0.5.0", "exe-plugin", "plugin.exe-plugin"},
		{"rustfmt", "0.4.0", "exe-plugin", "rustfmt.exe-plugin"},
		{"rustfmt", "0.6.2", "json", "plugin.json"},
		{"yapf", "0.2.0", "exe-plugin", "yapf.exe-plugin"},
		{"yapf", "0.2.1", "exe-plugin", "plugin.exe-plugin"},
		{"exec", "0.1.0", "exe-plugin", "plugin.exe-plugin"},
	}
	for _, tc := range testCases {
		path := fmt.Sprintf("/%s-%s.%s", tc.name, tc.version, tc.ext)
		u, ok := r.ResolvePluginURL(context.Background(), path)
		require.True(t, ok, path)
		require.Equal(t, fmt.Sprintf("https://github.com/dprint/dprint-plugin-%s/releases/download/%s/%s", tc.name, tc.version, tc.fileName), u, path)
	}
}

func TestPluginSchemas(t *testing.T) {
	r := plugin.NewResolver(Plugins, noReposClient{}, "https://plugins.dprint.dev")
	for _, name := range []string{"typescript", "json", "markdown", "toml", "dockerfile", "sql"} {
		u, ok := r.ResolveSchemaURL(context.Background(), fmt.Sprintf("/schemas/%s-0.1.0.json", name))
		require.True(t, ok, name)
		require.Equal(t, fmt.Sprintf("https://github.com/dprint/dprint-plugin-%s/releases/download/0.1.0/schema.json", name), u)
	}
}
