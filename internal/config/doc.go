// Package config loads and validates docsmith's TOML configuration. Load
// resolves the config path (flag override, then ~/.config/docsmith, then a
// project-local docsmith.toml), decodes over compiled defaults, expands ~
// in path fields, and validates the result. Missing config files are fine;
// a missing Gemini API key is only fatal when api-assisted conversion is
// actually requested.
package config
