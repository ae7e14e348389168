package server

import (
	_ "embed"
	"encoding/json"

	"github.com/dprint/plugins/pkg/registry"
)

//go:embed info.json
var pluginsInfoJSON []byte

// pluginsInfo is the plugin list served at /info.json before versions are
// refreshed.
var pluginsInfo = mustParsePluginsInfo(pluginsInfoJSON)

func mustParsePluginsInfo(data []byte) *registry.PluginsInfo {
	var info registry.PluginsInfo
	if err := json.Unmarshal(data, &info); err != nil {
		panic(err)
	}
	return &info
}
