package config

import "github.com/dprint/plugins/internal/plugin"

// Plugins are the first-party plugins whose artifacts were published under
// other file names before being renamed to plugin.{ext}.
var Plugins = plugin.Rules{
	plugin.NewRule("typescript", "wasm", true,
		plugin.UpTo("0.44.0", "typescript-%s.wasm"),
		plugin.UpTo("0.62.1", "typescript.wasm"),
	),
	plugin.NewRule("json", "wasm", true,
		plugin.UpTo("0.10.1", "json-%s.wasm"),
		plugin.UpTo("0.14.0", "json.wasm"),
	),
	plugin.NewRule("markdown", "wasm", true,
		plugin.UpTo("0.7.0", "markdown-%s.wasm"),
		plugin.UpTo("0.12.1", "markdown.wasm"),
	),
	plugin.NewRule("toml", "wasm", true,
		plugin.UpTo("0.5.3", "toml.wasm"),
	),
	plugin.NewRule("dockerfile", "wasm", true,
		plugin.UpTo("0.2.1", "dockerfile.wasm"),
	),
	plugin.NewRule("sql", "wasm", true,
		plugin.UpTo("0.1.1", "sql.wasm"),
	),
	plugin.NewRule("prettier", "exe-plugin", false,
		plugin.UpTo("0.5.0", "prettier.exe-plugin"),
	),
	plugin.NewRule("roslyn", "exe-plugin", false,
		plugin.UpTo("0.4.0", "roslyn.exe-plugin"),
	),
	plugin.NewRule("rustfmt", "exe-plugin", false,
		plugin.UpTo("0.4.0", "rustfmt.exe-plugin"),
	),
	plugin.NewRule("yapf", "exe-plugin", false,
		plugin.UpTo("0.2.0", "yapf.exe-plugin"),
	),
	plugin.NewRule("exec", "exe-plugin", false),
}
