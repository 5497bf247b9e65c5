package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinjals/jinjals/pkg/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(context.Background(), config.Default(), afero.NewMemMapFs())
	require.NoError(t, err)
	return s
}

func openDoc(t *testing.T, s *Server, uri, text string) {
	t.Helper()
	err := s.DidOpen(context.Background(), &DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{URI: DocumentURI(uri), LanguageID: "jinja-html", Version: 1, Text: text},
	})
	require.NoError(t, err)
}

func TestInitialize(t *testing.T) {
	s := newTestServer(t)
	res, err := s.Initialize(context.Background(), &InitializeParams{})
	require.NoError(t, err)

	assert.Equal(t, TextDocumentSyncKindIncremental, res.Capabilities.TextDocumentSync)
	assert.True(t, res.Capabilities.HoverProvider)
	require.NotNil(t, res.Capabilities.CompletionProvider)
	assert.NotEmpty(t, res.Capabilities.CompletionProvider.TriggerCharacters)
	require.NotNil(t, res.Capabilities.ExecuteCommandProvider)
	assert.Contains(t, res.Capabilities.ExecuteCommandProvider.Commands, CommandExpandAbbreviation)
}

func TestDocumentLifecycle(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	openDoc(t, s, "file:///tmp/a.html", "<p>one</p>")
	assert.Equal(t, 1, s.Documents().Len())

	doc, ok := s.Documents().Get("file:///tmp/a.html")
	require.True(t, ok)
	assert.Equal(t, "<p>one</p>", doc.Content)

	require.NoError(t, s.DidClose(ctx, &DidCloseTextDocumentParams{
		TextDocument: TextDocumentIdentifier{URI: "file:///tmp/a.html"},
	}))
	assert.Equal(t, 0, s.Documents().Len())
}

func TestDidChangeFullAndIncremental(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	openDoc(t, s, "file:///tmp/a.html", "hello world")

	// full replacement
	require.NoError(t, s.DidChange(ctx, &DidChangeTextDocumentParams{
		TextDocument:   VersionedTextDocumentIdentifier{TextDocumentIdentifier: TextDocumentIdentifier{URI: "file:///tmp/a.html"}, Version: 2},
		ContentChanges: []TextDocumentContentChangeEvent{{Text: "line one\nline two"}},
	}))
	doc, _ := s.Documents().Get("file:///tmp/a.html")
	assert.Equal(t, "line one\nline two", doc.Content)

	// ranged edit replacing "two" on the second line
	require.NoError(t, s.DidChange(ctx, &DidChangeTextDocumentParams{
		TextDocument: VersionedTextDocumentIdentifier{TextDocumentIdentifier: TextDocumentIdentifier{URI: "file:///tmp/a.html"}, Version: 3},
		ContentChanges: []TextDocumentContentChangeEvent{{
			Range: &Range{Start: Position{Line: 1, Character: 5}, End: Position{Line: 1, Character: 8}},
			Text:  "2",
		}},
	}))
	doc, _ = s.Documents().Get("file:///tmp/a.html")
	assert.Equal(t, "line one\nline 2", doc.Content)
	assert.Equal(t, int32(3), doc.Version)
}

func TestDidChangeUnknownDocument(t *testing.T) {
	s := newTestServer(t)
	err := s.DidChange(context.Background(), &DidChangeTextDocumentParams{
		TextDocument: VersionedTextDocumentIdentifier{TextDocumentIdentifier: TextDocumentIdentifier{URI: "file:///missing"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not open")
}

func TestCompletionEndpoint(t *testing.T) {
	s := newTestServer(t)
	openDoc(t, s, "file:///tmp/t.jinja2", "{% for item in items %}{{ ite")

	list, err := s.Completion(context.Background(), &CompletionParams{
		TextDocument: TextDocumentIdentifier{URI: "file:///tmp/t.jinja2"},
		Position:     Position{Line: 0, Character: 29},
	})
	require.NoError(t, err)
	require.NotEmpty(t, list.Items)
	assert.Equal(t, "item", list.Items[0].Label)
	assert.Equal(t, "00000", list.Items[0].SortText)
}

func TestCompletionSnippetFormat(t *testing.T) {
	s := newTestServer(t)
	openDoc(t, s, "file:///tmp/t.html", "<inp")

	list, err := s.Completion(context.Background(), &CompletionParams{
		TextDocument: TextDocumentIdentifier{URI: "file:///tmp/t.html"},
		Position:     Position{Line: 0, Character: 4},
	})
	require.NoError(t, err)
	require.NotEmpty(t, list.Items)
	assert.Equal(t, "input", list.Items[0].Label)
	assert.Equal(t, InsertTextFormatSnippet, list.Items[0].InsertTextFormat)
}

func TestHoverEndpoint(t *testing.T) {
	s := newTestServer(t)
	openDoc(t, s, "file:///tmp/t.jinja2", "{{ name | upper }}")

	h, err := s.Hover(context.Background(), &HoverParams{
		TextDocument: TextDocumentIdentifier{URI: "file:///tmp/t.jinja2"},
		Position:     Position{Line: 0, Character: 12},
	})
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, "markdown", h.Contents.Kind)
	assert.Contains(t, h.Contents.Value, "**upper**")
	require.NotNil(t, h.Range)
	assert.Equal(t, uint32(10), h.Range.Start.Character)

	h, err = s.Hover(context.Background(), &HoverParams{
		TextDocument: TextDocumentIdentifier{URI: "file:///tmp/t.jinja2"},
		Position:     Position{Line: 0, Character: 4},
	})
	require.NoError(t, err)
	assert.Nil(t, h, "undocumented variable has no hover")
}

func executeExpand(t *testing.T, s *Server, args ExpandAbbreviationArgs) *ExpandAbbreviationResult {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)

	res, err := s.ExecuteCommand(context.Background(), &ExecuteCommandParams{
		Command:   CommandExpandAbbreviation,
		Arguments: []json.RawMessage{raw},
	})
	require.NoError(t, err)
	out, ok := res.(*ExpandAbbreviationResult)
	require.True(t, ok)
	return out
}

func TestExecuteCommandExpand(t *testing.T) {
	s := newTestServer(t)
	openDoc(t, s, "file:///tmp/t.html", "before ul>li*2")

	out := executeExpand(t, s, ExpandAbbreviationArgs{URI: "file:///tmp/t.html", Offset: 14})
	assert.Empty(t, out.Error)
	assert.Equal(t, "<ul>\n    <li>$1</li>\n    <li>$2</li>\n</ul>", out.ReplacementText)
	assert.Equal(t, 7, out.ReplaceStart)
	assert.Equal(t, 14, out.ReplaceEnd)
	require.Len(t, out.PlaceholderOffsets, 2)
	assert.Equal(t, "$1", out.ReplacementText[out.PlaceholderOffsets[0]:out.PlaceholderOffsets[0]+2])
}

func TestExecuteCommandExpandSnippetTrigger(t *testing.T) {
	s := newTestServer(t)
	openDoc(t, s, "file:///tmp/t.html", "!")

	out := executeExpand(t, s, ExpandAbbreviationArgs{URI: "file:///tmp/t.html", Offset: 1})
	assert.Empty(t, out.Error)
	assert.Contains(t, out.ReplacementText, "<!DOCTYPE html>")
}

func TestExecuteCommandExpandFailure(t *testing.T) {
	s := newTestServer(t)
	openDoc(t, s, "file:///tmp/t.html", "div>")

	out := executeExpand(t, s, ExpandAbbreviationArgs{URI: "file:///tmp/t.html", Offset: 4})
	assert.Contains(t, out.Error, "could not expand")
	assert.Empty(t, out.ReplacementText)
}

func TestExecuteCommandExpandNothing(t *testing.T) {
	s := newTestServer(t)
	openDoc(t, s, "file:///tmp/t.html", "   ")

	out := executeExpand(t, s, ExpandAbbreviationArgs{URI: "file:///tmp/t.html", Offset: 3})
	assert.Contains(t, out.Error, "nothing to expand")
}

func TestExecuteCommandUnknown(t *testing.T) {
	s := newTestServer(t)
	_, err := s.ExecuteCommand(context.Background(), &ExecuteCommandParams{Command: "jinjals.bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestRunServesLSPFraming(t *testing.T) {
	s := newTestServer(t)

	reqR, reqW := io.Pipe()
	respR, respW := io.Pipe()

	done := make(chan error, 1)
	go func() {
		done <- s.Run(context.Background(), reqR, respW, nil)
	}()

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`
	_, err := fmt.Fprintf(reqW, "Content-Length: %d\r\n\r\n%s", len(body), body)
	require.NoError(t, err)

	reader := bufio.NewReader(respR)
	length := 0
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if v, ok := strings.CutPrefix(line, "Content-Length:"); ok {
			length, err = strconv.Atoi(strings.TrimSpace(v))
			require.NoError(t, err)
		}
	}
	require.Positive(t, length)
	payload := make([]byte, length)
	_, err = io.ReadFull(reader, payload)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"capabilities"`)

	require.NoError(t, reqW.Close())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after the client disconnected")
	}
}

func TestNormalizeURI(t *testing.T) {
	assert.Equal(t, "/tmp/a.html", normalizeURI("file:///tmp/a.html"))
	assert.Equal(t, "/tmp/a.html", normalizeURI("/tmp/a.html"))
}
