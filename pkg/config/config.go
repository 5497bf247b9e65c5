// Package config loads server settings from an HCL file and resolves
// per-file editor conventions.
package config

import (
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/editorconfig/editorconfig-core-go/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// Language associates a file glob with a language identifier.
type Language struct {
	Pattern string
	ID      string
}

// Config is the resolved server configuration.
type Config struct {
	// EnableSnippets controls whether snippet triggers appear in
	// completions and exact-trigger expansion.
	EnableSnippets bool

	// TriggerCharacters are offered to the client at initialize time.
	TriggerCharacters []string

	// SnippetDir, when set, is loaded into the snippet registry on start.
	SnippetDir string

	Languages []Language
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		EnableSnippets:    true,
		TriggerCharacters: []string{"<", ".", "#", "{", "%", "|", "!"},
		Languages: []Language{
			{Pattern: "**/*.{html,htm}", ID: "html"},
			{Pattern: "**/*.{jinja,jinja2,j2}", ID: "jinja-html"},
		},
	}
}

type fileLanguage struct {
	Pattern string `hcl:"pattern,label"`
	ID      string `hcl:"id"`
}

type fileConfig struct {
	EnableSnippets    *bool          `hcl:"enable_snippets,optional"`
	TriggerCharacters []string       `hcl:"trigger_characters,optional"`
	SnippetDir        string         `hcl:"snippet_dir,optional"`
	Languages         []fileLanguage `hcl:"language,block"`
}

// Load reads an HCL configuration file and merges it over the defaults.
func Load(fsys afero.Fs, path string) (Config, error) {
	cfg := Default()

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return cfg, errors.Errorf("reading config %s: %w", path, err)
	}

	var file fileConfig
	if err := hclsimple.Decode(path, data, nil, &file); err != nil {
		return cfg, errors.Errorf("parsing config %s: %w", path, err)
	}

	if file.EnableSnippets != nil {
		cfg.EnableSnippets = *file.EnableSnippets
	}
	if len(file.TriggerCharacters) > 0 {
		cfg.TriggerCharacters = file.TriggerCharacters
	}
	if file.SnippetDir != "" {
		cfg.SnippetDir = file.SnippetDir
	}
	if len(file.Languages) > 0 {
		cfg.Languages = make([]Language, len(file.Languages))
		for i, l := range file.Languages {
			cfg.Languages[i] = Language{Pattern: l.Pattern, ID: l.ID}
		}
	}
	return cfg, nil
}

// LanguageFor maps a file path to its configured language identifier, or
// "" when no pattern matches.
func (c Config) LanguageFor(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	for _, l := range c.Languages {
		if ok, err := doublestar.Match(l.Pattern, path); err == nil && ok {
			return l.ID
		}
	}
	return ""
}

// ResolveIndent derives the indent unit for a file from its editorconfig,
// falling back to four spaces.
func ResolveIndent(path string) string {
	const fallback = "    "

	def, err := editorconfig.GetDefinitionForFilename(path)
	if err != nil {
		return fallback
	}
	if def.IndentStyle == editorconfig.IndentStyleTab {
		return "\t"
	}
	if def.IndentSize != "" {
		if n, err := strconv.Atoi(def.IndentSize); err == nil && n > 0 && n <= 16 {
			return strings.Repeat(" ", n)
		}
	}
	return fallback
}
