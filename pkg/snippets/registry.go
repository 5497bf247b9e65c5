// Package snippets holds the trigger-to-body snippet table: built-in HTML
// boilerplate and template statement scaffolds, plus user snippets loaded
// from YAML files. Bodies use $N tab stop markers, with $0 as the final
// cursor position.
package snippets

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Kind separates snippets that are plain markup from snippets that emit
// template syntax and therefore only belong outside template delimiters.
type Kind string

const (
	KindHTML     Kind = "html"
	KindTemplate Kind = "template-aware"
)

// Entry is a single expandable snippet.
type Entry struct {
	Trigger     string `yaml:"trigger"`
	Body        string `yaml:"body"`
	Kind        Kind   `yaml:"kind"`
	Description string `yaml:"description"`
}

// Registry maps triggers to snippet entries. Later additions replace
// earlier entries with the same trigger.
type Registry struct {
	entries map[string]Entry
}

// NewRegistry returns a registry populated with the built-in snippets.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[string]Entry, len(builtins))}
	for _, e := range builtins {
		r.entries[e.Trigger] = e
	}
	return r
}

// Lookup returns the entry for a trigger.
func (r *Registry) Lookup(trigger string) (Entry, bool) {
	e, ok := r.entries[trigger]
	return e, ok
}

// Triggers returns all triggers in sorted order.
func (r *Registry) Triggers() []string {
	out := make([]string, 0, len(r.entries))
	for t := range r.entries {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Entries returns all entries ordered by trigger.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, t := range r.Triggers() {
		out = append(out, r.entries[t])
	}
	return out
}

// Add registers an entry, replacing any existing one with the same trigger.
func (r *Registry) Add(e Entry) {
	r.entries[e.Trigger] = e
}

type snippetFile struct {
	Snippets []Entry `yaml:"snippets"`
}

// LoadDir reads every .yaml and .yml file under dir and registers the
// snippets it declares. Files that fail to parse are reported together;
// entries from files that did parse are still registered.
func (r *Registry) LoadDir(fsys afero.Fs, dir string) error {
	infos, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return errors.Errorf("reading snippet directory %s: %w", dir, err)
	}

	var result *multierror.Error
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		ext := filepath.Ext(info.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, info.Name())
		data, err := afero.ReadFile(fsys, path)
		if err != nil {
			result = multierror.Append(result, errors.Errorf("reading %s: %w", path, err))
			continue
		}

		var file snippetFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			result = multierror.Append(result, errors.Errorf("parsing %s: %w", path, err))
			continue
		}
		for _, e := range file.Snippets {
			if e.Trigger == "" {
				result = multierror.Append(result, errors.Errorf("%s: snippet with empty trigger", path))
				continue
			}
			if e.Kind == "" {
				e.Kind = KindHTML
			}
			if e.Kind != KindHTML && e.Kind != KindTemplate {
				result = multierror.Append(result, errors.Errorf("%s: snippet %q has unknown kind %q", path, e.Trigger, e.Kind))
				continue
			}
			r.Add(e)
		}
	}
	return result.ErrorOrNil()
}

var html5Body = strings.Join([]string{
	"<!DOCTYPE html>",
	`<html lang="$1">`,
	"<head>",
	`    <meta charset="UTF-8">`,
	`    <meta name="viewport" content="width=device-width, initial-scale=1.0">`,
	"    <title>$2</title>",
	"</head>",
	"<body>",
	"    $0",
	"</body>",
	"</html>",
}, "\n")

var builtins = []Entry{
	{Trigger: "!", Body: html5Body, Kind: KindHTML, Description: "HTML5 document boilerplate"},
	{Trigger: "html:5", Body: html5Body, Kind: KindHTML, Description: "HTML5 document boilerplate"},
	{Trigger: "cc:ie", Body: "<!--[if IE]>$0<![endif]-->", Kind: KindHTML, Description: "IE conditional comment"},
	{Trigger: "cc:noie", Body: "<!--[if !IE]><!-->$0<!--<![endif]-->", Kind: KindHTML, Description: "non-IE conditional comment"},

	{Trigger: "for", Body: "{% for $1 in $2 %}\n    $0\n{% endfor %}", Kind: KindTemplate, Description: "for loop"},
	{Trigger: "if", Body: "{% if $1 %}\n    $0\n{% endif %}", Kind: KindTemplate, Description: "if statement"},
	{Trigger: "ifelse", Body: "{% if $1 %}\n    $2\n{% else %}\n    $0\n{% endif %}", Kind: KindTemplate, Description: "if/else statement"},
	{Trigger: "block", Body: "{% block $1 %}\n    $0\n{% endblock %}", Kind: KindTemplate, Description: "template block"},
	{Trigger: "extend", Body: `{% extends "$1" %}$0`, Kind: KindTemplate, Description: "extend a base template"},
	{Trigger: "include", Body: `{% include "$1" %}$0`, Kind: KindTemplate, Description: "include a template"},
	{Trigger: "set", Body: "{% set $1 = $2 %}$0", Kind: KindTemplate, Description: "assign a variable"},
	{Trigger: "macro", Body: "{% macro $1($2) %}\n    $0\n{% endmacro %}", Kind: KindTemplate, Description: "macro definition"},
	{Trigger: "call", Body: "{% call $1($2) %}\n    $0\n{% endcall %}", Kind: KindTemplate, Description: "call a macro"},
	{Trigger: "with", Body: "{% with $1 = $2 %}\n    $0\n{% endwith %}", Kind: KindTemplate, Description: "scoped assignment"},
	{Trigger: "comment", Body: "{# $0 #}", Kind: KindTemplate, Description: "template comment"},
	{Trigger: "var", Body: "{{ $0 }}", Kind: KindTemplate, Description: "expression output"},
	{Trigger: "filter", Body: "{% filter $1 %}\n    $0\n{% endfilter %}", Kind: KindTemplate, Description: "filter block"},
	{Trigger: "url", Body: "{{ url_for('$1') }}$0", Kind: KindTemplate, Description: "url_for expression"},
	{Trigger: "csrf", Body: `<input type="hidden" name="csrf_token" value="{{ csrf_token() }}">$0`, Kind: KindTemplate, Description: "CSRF token field"},
}
