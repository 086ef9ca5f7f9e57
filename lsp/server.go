// Package lsp serves the rewrite as a code action over the Language Server
// Protocol, so editors can offer it at matched call sites.
package lsp

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dhamidi/retap/rewrite"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"
)

const lsName = "retap"

const actionTitle = "Replace doAfterSuccessOrError with tap"

var log = commonlog.GetLogger("retap.lsp")

type Server struct {
	engine  *rewrite.Engine
	handler protocol.Handler
	server  *server.Server
	version string

	mu        sync.Mutex
	documents map[string][]byte // keyed by filesystem path
}

func NewServer(engine *rewrite.Engine, version string) *Server {
	s := &Server{
		engine:    engine,
		version:   version,
		documents: make(map[string][]byte),
	}

	s.handler = protocol.Handler{
		Initialize:             s.initialize,
		Initialized:            s.initialized,
		Shutdown:               s.shutdown,
		SetTrace:               s.setTrace,
		TextDocumentDidOpen:    s.textDocumentDidOpen,
		TextDocumentDidChange:  s.textDocumentDidChange,
		TextDocumentDidClose:   s.textDocumentDidClose,
		TextDocumentDidSave:    s.textDocumentDidSave,
		TextDocumentCodeAction: s.textDocumentCodeAction,
	}

	s.server = server.NewServer(&s.handler, lsName, false)

	return s
}

func (s *Server) RunStdio() error {
	return s.server.RunStdio()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := s.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}
	capabilities.CodeActionProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) updateDocument(path string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[path] = content
}

func (s *Server) document(path string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.documents[path]
}

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	s.updateDocument(path, []byte(params.TextDocument.Text))
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if len(params.ContentChanges) > 0 {
		change := params.ContentChanges[len(params.ContentChanges)-1]
		if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.updateDocument(path, []byte(textChange.Text))
		}
	}
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, path)
	return nil
}

func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if params.Text != nil {
		s.updateDocument(path, []byte(*params.Text))
	} else if data, err := os.ReadFile(path); err == nil {
		s.updateDocument(path, data)
	}
	return nil
}

// textDocumentCodeAction offers the rewrite when the requested range touches
// a line holding a supported call site. The edit replaces the whole document;
// the rewrite also regroups the import block, so a narrower edit would not
// capture it.
func (s *Server) textDocumentCodeAction(ctx *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}
	source := s.document(path)
	if source == nil {
		return nil, nil
	}

	result, err := rewrite.RewriteSource(source, path, s.engine.Pattern())
	if err != nil || !result.Changed {
		return nil, nil
	}
	if !touchesAppliedSite(result.Sites, params.Range) {
		return nil, nil
	}

	log.Debugf("%s: offering rewrite for %d sites", path, len(result.Sites))

	kind := protocol.CodeActionKindRefactorRewrite
	action := protocol.CodeAction{
		Title: actionTitle,
		Kind:  &kind,
		Edit: &protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentUri][]protocol.TextEdit{
				params.TextDocument.URI: {
					{
						Range:   fullDocumentRange(source),
						NewText: string(result.Output),
					},
				},
			},
		},
	}
	return []protocol.CodeAction{action}, nil
}

func touchesAppliedSite(sites []rewrite.SiteResult, r protocol.Range) bool {
	for _, site := range sites {
		if !site.Applied {
			continue
		}
		line := protocol.UInteger(site.Line - 1)
		if line >= r.Start.Line && line <= r.End.Line {
			return true
		}
	}
	return false
}

func fullDocumentRange(source []byte) protocol.Range {
	text := string(source)
	lines := strings.Count(text, "\n")
	lastLine := text
	if idx := strings.LastIndexByte(text, '\n'); idx >= 0 {
		lastLine = text[idx+1:]
	}
	return protocol.Range{
		Start: protocol.Position{Line: 0, Character: 0},
		End: protocol.Position{
			Line:      protocol.UInteger(lines),
			Character: protocol.UInteger(len(lastLine)),
		},
	}
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(kind protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &kind
}
