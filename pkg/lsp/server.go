// Package lsp exposes the abbreviation engine and template analysis over
// the language server protocol, framed with JSON-RPC 2.0 on stdio.
package lsp

import (
	"context"
	"encoding/json"
	"io"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/creachadair/jrpc2/handler"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/jinjals/jinjals/pkg/abbr"
	"github.com/jinjals/jinjals/pkg/completion"
	"github.com/jinjals/jinjals/pkg/config"
	"github.com/jinjals/jinjals/pkg/expand"
	"github.com/jinjals/jinjals/pkg/hover"
	"github.com/jinjals/jinjals/pkg/position"
	"github.com/jinjals/jinjals/pkg/snippets"
)

const serverName = "jinjals"

// Server is one language server instance.
type Server struct {
	documents *DocumentManager
	registry  *snippets.Registry
	assembler *completion.Assembler
	cfg       config.Config

	id       string
	shutdown bool
}

// NewServer builds a server from configuration. User snippets are loaded
// from cfg.SnippetDir when set; a load failure aborts startup so a broken
// snippet file is noticed rather than silently ignored.
func NewServer(ctx context.Context, cfg config.Config, fsys afero.Fs) (*Server, error) {
	registry := snippets.NewRegistry()
	if cfg.SnippetDir != "" {
		if err := registry.LoadDir(fsys, cfg.SnippetDir); err != nil {
			return nil, errors.Errorf("loading snippets: %w", err)
		}
		zerolog.Ctx(ctx).Info().Str("dir", cfg.SnippetDir).Msg("loaded user snippets")
	}

	return &Server{
		documents: NewDocumentManager(),
		registry:  registry,
		assembler: completion.NewAssembler(registry, cfg.EnableSnippets),
		cfg:       cfg,
		id:        uuid.New().String(),
	}, nil
}

// Documents exposes the open document set.
func (s *Server) Documents() *DocumentManager {
	return s.documents
}

func (s *Server) Initialize(ctx context.Context, params *InitializeParams) (*InitializeResult, error) {
	logger := zerolog.Ctx(ctx)
	if params.ClientInfo != nil {
		logger.Info().Str("client", params.ClientInfo.Name).Str("client_version", params.ClientInfo.Version).Msg("initializing")
	}

	return &InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync:   TextDocumentSyncKindIncremental,
			CompletionProvider: &CompletionOptions{TriggerCharacters: s.cfg.TriggerCharacters},
			HoverProvider:      true,
			ExecuteCommandProvider: &ExecuteCommandOptions{
				Commands: []string{CommandExpandAbbreviation},
			},
		},
		ServerInfo: &ServerInfo{Name: serverName},
	}, nil
}

func (s *Server) Initialized(ctx context.Context, params *InitializedParams) error {
	zerolog.Ctx(ctx).Debug().Str("server_id", s.id).Msg("client initialized")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdown = true
	zerolog.Ctx(ctx).Debug().Msg("shutdown requested")
	return nil
}

func (s *Server) Exit(ctx context.Context) error {
	return nil
}

func (s *Server) DidOpen(ctx context.Context, params *DidOpenTextDocumentParams) error {
	doc := &Document{
		URI:        string(params.TextDocument.URI),
		LanguageID: params.TextDocument.LanguageID,
		Version:    params.TextDocument.Version,
		Content:    params.TextDocument.Text,
	}
	if doc.LanguageID == "" {
		doc.LanguageID = s.cfg.LanguageFor(normalizeURI(doc.URI))
	}
	s.documents.Store(doc)
	zerolog.Ctx(ctx).Debug().Str("uri", doc.URI).Str("language", doc.LanguageID).Msg("document opened")
	return nil
}

func (s *Server) DidChange(ctx context.Context, params *DidChangeTextDocumentParams) error {
	doc, err := s.documents.MustGet(string(params.TextDocument.URI))
	if err != nil {
		return err
	}

	content := doc.Content
	for _, change := range params.ContentChanges {
		if change.Range == nil {
			content = change.Text
			continue
		}
		start := offsetForPosition(content, change.Range.Start)
		end := offsetForPosition(content, change.Range.End)
		if start > end || end > len(content) {
			return errors.Errorf("change range [%d,%d) out of bounds for document of length %d", start, end, len(content))
		}
		content = content[:start] + change.Text + content[end:]
	}

	s.documents.Store(&Document{
		URI:        doc.URI,
		LanguageID: doc.LanguageID,
		Version:    params.TextDocument.Version,
		Content:    content,
	})
	return nil
}

func (s *Server) DidClose(ctx context.Context, params *DidCloseTextDocumentParams) error {
	s.documents.Delete(string(params.TextDocument.URI))
	zerolog.Ctx(ctx).Debug().Str("uri", string(params.TextDocument.URI)).Msg("document closed")
	return nil
}

func (s *Server) DidSave(ctx context.Context, params *DidSaveTextDocumentParams) error {
	if params.Text != nil {
		if doc, ok := s.documents.Get(string(params.TextDocument.URI)); ok {
			doc.Content = *params.Text
			s.documents.Store(doc)
		}
	}
	return nil
}

func (s *Server) Completion(ctx context.Context, params *CompletionParams) (*CompletionList, error) {
	doc, err := s.documents.MustGet(string(params.TextDocument.URI))
	if err != nil {
		return nil, err
	}

	req := completion.Request{
		Text:   doc.Content,
		Offset: offsetForPosition(doc.Content, params.Position),
	}
	if params.Context != nil {
		req.TriggerChar = params.Context.TriggerCharacter
	}

	items := s.assembler.Complete(ctx, req)
	out := make([]CompletionItem, len(items))
	for i, item := range items {
		out[i] = toProtocolItem(item)
	}
	return &CompletionList{Items: out}, nil
}

func toProtocolItem(item completion.Item) CompletionItem {
	format := InsertTextFormatPlainText
	if containsPlaceholder(item.InsertText) {
		format = InsertTextFormatSnippet
	}
	return CompletionItem{
		Label:            item.Label,
		Kind:             int(item.Kind),
		Detail:           item.Detail,
		Documentation:    item.Documentation,
		InsertText:       item.InsertText,
		InsertTextFormat: format,
		SortText:         sortText(item.SortRank),
	}
}

func containsPlaceholder(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '$' && s[i+1] >= '0' && s[i+1] <= '9' {
			return true
		}
	}
	return false
}

func sortText(rank int) string {
	const digits = "0123456789"
	out := [5]byte{'0', '0', '0', '0', '0'}
	for i := len(out) - 1; i >= 0 && rank > 0; i-- {
		out[i] = digits[rank%10]
		rank /= 10
	}
	return string(out[:])
}

func (s *Server) Hover(ctx context.Context, params *HoverParams) (*Hover, error) {
	doc, err := s.documents.MustGet(string(params.TextDocument.URI))
	if err != nil {
		return nil, err
	}

	info := hover.Hover(ctx, doc.Content, offsetForPosition(doc.Content, params.Position))
	if info == nil {
		return nil, nil
	}

	r := rangeForRawPosition(info.Position, doc.Content)
	return &Hover{
		Contents: MarkupContent{Kind: "markdown", Value: info.Content},
		Range:    &r,
	}, nil
}

func (s *Server) ExecuteCommand(ctx context.Context, params *ExecuteCommandParams) (any, error) {
	switch params.Command {
	case CommandExpandAbbreviation:
		if len(params.Arguments) != 1 {
			return nil, errors.Errorf("%s expects one argument, got %d", params.Command, len(params.Arguments))
		}
		var args ExpandAbbreviationArgs
		if err := json.Unmarshal(params.Arguments[0], &args); err != nil {
			return nil, errors.Errorf("decoding %s arguments: %w", params.Command, err)
		}
		return s.expandAbbreviation(ctx, args)
	default:
		return nil, errors.Errorf("unknown command %q", params.Command)
	}
}

// expandAbbreviation is the explicit expansion path. Lex and parse failures
// come back as a could-not-expand result rather than an RPC error so the
// client can show them inline.
func (s *Server) expandAbbreviation(ctx context.Context, args ExpandAbbreviationArgs) (*ExpandAbbreviationResult, error) {
	doc, err := s.documents.MustGet(string(args.URI))
	if err != nil {
		return nil, err
	}

	offset := args.Offset
	if offset > len(doc.Content) {
		offset = len(doc.Content)
	}

	text, start := expand.AbbreviationAt(doc.Content, offset)
	if text == "" {
		return &ExpandAbbreviationResult{Error: "nothing to expand at cursor"}, nil
	}

	var registry *snippets.Registry
	if s.cfg.EnableSnippets {
		registry = s.registry
	}
	expander := expand.NewExpander(registry, expand.Options{
		Indent: config.ResolveIndent(normalizeURI(doc.URI)),
	})

	res, err := expander.Expand(ctx, text)
	if err != nil {
		var lexErr *abbr.LexError
		var parseErr *abbr.ParseError
		if errors.As(err, &lexErr) || errors.As(err, &parseErr) {
			zerolog.Ctx(ctx).Debug().Str("abbreviation", text).Err(err).Msg("could not expand")
			return &ExpandAbbreviationResult{Error: "could not expand: " + err.Error()}, nil
		}
		return nil, err
	}

	offsets := make([]int, len(res.Placeholders))
	for i, p := range res.Placeholders {
		offsets[i] = p.Offset
	}
	return &ExpandAbbreviationResult{
		ReplacementText:    res.Text,
		PlaceholderOffsets: offsets,
		ReplaceStart:       start,
		ReplaceEnd:         offset,
	}, nil
}

func offsetForPosition(text string, pos Position) int {
	raw := position.NewRawPositionFromLineAndColumn(int(pos.Line), int(pos.Character), "", text)
	if raw.Offset > len(text) {
		return len(text)
	}
	return raw.Offset
}

func rangeForRawPosition(raw position.RawPosition, text string) Range {
	r := raw.GetRange(text)
	return Range{
		Start: Position{Line: uint32(r.Start.Line), Character: uint32(r.Start.Character)},
		End:   Position{Line: uint32(r.End.Line), Character: uint32(r.End.Character)},
	}
}

func (s *Server) buildDispatchMap() handler.Map {
	return handler.Map{
		"initialize":               createHandler(s.Initialize),
		"initialized":              createEmptyResultHandler(s.Initialized),
		"shutdown":                 createEmptyHandler(s.Shutdown),
		"exit":                     createEmptyHandler(s.Exit),
		"textDocument/didOpen":     createEmptyResultHandler(s.DidOpen),
		"textDocument/didChange":   createEmptyResultHandler(s.DidChange),
		"textDocument/didClose":    createEmptyResultHandler(s.DidClose),
		"textDocument/didSave":     createEmptyResultHandler(s.DidSave),
		"textDocument/completion":  createHandler(s.Completion),
		"textDocument/hover":       createHandler(s.Hover),
		"workspace/executeCommand": createHandler(s.ExecuteCommand),
	}
}

// BuildInstance wraps the server in a jrpc2 instance without starting it.
func (s *Server) BuildInstance(ctx context.Context, opts *jrpc2.ServerOptions) *jrpc2.Server {
	if opts == nil {
		opts = &jrpc2.ServerOptions{}
	}
	if opts.NewContext == nil {
		opts.NewContext = func() context.Context { return ctx }
	}
	return jrpc2.NewServer(s.buildDispatchMap(), opts)
}

// Run serves LSP-framed JSON-RPC on the given streams until the client
// disconnects.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.WriteCloser, opts *jrpc2.ServerOptions) error {
	srv := s.BuildInstance(ctx, opts)
	srv.Start(channel.LSP(r, w))
	zerolog.Ctx(ctx).Info().Str("server_id", s.id).Msg("language server started")

	if err := srv.Wait(); err != nil {
		return errors.Errorf("serving: %w", err)
	}
	return nil
}
