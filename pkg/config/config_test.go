package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.EnableSnippets)
	assert.NotEmpty(t, cfg.TriggerCharacters)
	assert.NotEmpty(t, cfg.Languages)
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/jinjals.hcl", []byte(`
enable_snippets    = false
trigger_characters = ["<", "{"]
snippet_dir        = "/srv/snippets"

language "**/*.tpl" {
  id = "jinja-html"
}
`), 0o644))

	cfg, err := Load(fs, "/etc/jinjals.hcl")
	require.NoError(t, err)
	assert.False(t, cfg.EnableSnippets)
	assert.Equal(t, []string{"<", "{"}, cfg.TriggerCharacters)
	assert.Equal(t, "/srv/snippets", cfg.SnippetDir)
	require.Len(t, cfg.Languages, 1)
	assert.Equal(t, "jinja-html", cfg.Languages[0].ID)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/jinjals.hcl", []byte(`
snippet_dir = "/srv/snippets"
`), 0o644))

	cfg, err := Load(fs, "/etc/jinjals.hcl")
	require.NoError(t, err)
	assert.True(t, cfg.EnableSnippets, "unset toggle keeps its default")
	assert.Equal(t, Default().TriggerCharacters, cfg.TriggerCharacters)
	assert.Equal(t, "/srv/snippets", cfg.SnippetDir)
}

func TestLoadMissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg, err := Load(fs, "/nope.hcl")
	require.Error(t, err)
	assert.True(t, cfg.EnableSnippets, "defaults survive a load failure")
}

func TestLoadMalformed(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/jinjals.hcl", []byte("language {{{"), 0o644))
	_, err := Load(fs, "/etc/jinjals.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jinjals.hcl")
}

func TestLanguageFor(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "html", cfg.LanguageFor("site/index.html"))
	assert.Equal(t, "jinja-html", cfg.LanguageFor("templates/base.jinja2"))
	assert.Equal(t, "", cfg.LanguageFor("main.go"))
	assert.Equal(t, "html", cfg.LanguageFor(`site\index.html`), "windows separators are normalized")
}

func TestResolveIndentFallback(t *testing.T) {
	// no .editorconfig is present for this path
	assert.Equal(t, "    ", ResolveIndent("/nonexistent/dir/file.html"))
}
