package registry

import "encoding/json"

// LatestJSON is the body of the /{owner}/{repo}/latest.json endpoint.
type LatestJSON struct {
	SchemaVersion int     `json:"schemaVersion"`
	URL           string  `json:"url"`
	Version       string  `json:"version"`
	Checksum      *string `json:"checksum"`
}

// LatestInfo describes the newest release of a plugin.
type LatestInfo struct {
	LatestJSON
	DownloadCount int `json:"downloadCount"`
}

// PluginInfo is one entry of the /info.json plugin list. Fields other than
// the known ones are kept as they are.
type PluginInfo struct {
	Name    string
	URL     string
	Version string
	Extra   map[string]json.RawMessage
}

func (p *PluginInfo) UnmarshalJSON(data []byte) error {
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for key, target := range map[string]*string{"name": &p.Name, "url": &p.URL, "version": &p.Version} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, target); err != nil {
			return err
		}
		delete(fields, key)
	}
	p.Extra = fields
	return nil
}

func (p PluginInfo) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(p.Extra)+3)
	for key, value := range p.Extra {
		fields[key] = value
	}
	fields["name"] = p.Name
	fields["url"] = p.URL
	fields["version"] = p.Version
	return json.Marshal(fields)
}

// PluginsInfo is the body of the /info.json endpoint.
type PluginsInfo struct {
	SchemaVersion int          `json:"schemaVersion"`
	Latest        []PluginInfo `json:"latest"`
}

// CLIInfo is the body of the /cli.json endpoint.
type CLIInfo struct {
	Version string `json:"version"`
}
