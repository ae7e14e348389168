package plugin

import (
	_ "embed"
	"encoding/json"
)

//go:embed legacy_redirects.json
var legacyRedirectsJSON []byte

// legacyRedirects maps discontinued request paths to fixed targets.
var legacyRedirects = mustParseLegacyRedirects(legacyRedirectsJSON)

func mustParseLegacyRedirects(data []byte) map[string]string {
	redirects := make(map[string]string)
	if err := json.Unmarshal(data, &redirects); err != nil {
		panic(err)
	}
	return redirects
}
