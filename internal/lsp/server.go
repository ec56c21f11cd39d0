// Package lsp implements a Language Server Protocol server for HAND. It
// publishes full-pipeline diagnostics (through capability enforcement at
// supervision level 2) on open/change/save and provides document formatting.
package lsp

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"
	"sync"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/hand-lang/handc/compiler/errors"
	"github.com/hand-lang/handc/internal/compiler/cache"
	"github.com/hand-lang/handc/internal/compiler/format"
	"github.com/hand-lang/handc/internal/compiler/pipeline"
)

// Server implements the LSP server for HAND
type Server struct {
	conn   jsonrpc2.Conn
	client protocol.Client
	logger *log.Logger

	mu        sync.Mutex
	documents map[string]string // uri -> content
	irCache   *cache.IRCache

	capabilities protocol.ServerCapabilities

	cancel context.CancelFunc
}

// NewServer creates a new LSP server instance
func NewServer() *Server {
	return &Server{
		logger:    log.New(os.Stderr, "[LSP] ", log.LstdFlags),
		documents: make(map[string]string),
		irCache:   cache.NewIRCache(),
		capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
				Save: &protocol.SaveOptions{
					IncludeText: false,
				},
			},
			DocumentFormattingProvider: &protocol.DocumentFormattingOptions{},
		},
	}
}

// Run starts the LSP server on stdin/stdout
func (s *Server) Run(ctx context.Context) error {
	s.logger.Println("Starting HAND Language Server")

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	stream := jsonrpc2.NewStream(stdrwc{})
	conn := jsonrpc2.NewConn(stream)
	s.conn = conn

	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		s.logger.Printf("Warning: failed to create zap logger: %v", err)
		zapLogger = zap.NewNop()
	}
	s.client = protocol.ClientDispatcher(conn, zapLogger)

	conn.Go(ctx, s.handler())

	<-ctx.Done()
	s.logger.Println("Shutting down HAND Language Server")
	return conn.Close()
}

func (s *Server) handler() jsonrpc2.Handler {
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		switch req.Method() {
		case protocol.MethodInitialize:
			return s.handleInitialize(ctx, reply, req)
		case protocol.MethodInitialized:
			return reply(ctx, nil, nil)
		case protocol.MethodShutdown:
			return reply(ctx, nil, nil)
		case protocol.MethodExit:
			if err := reply(ctx, nil, nil); err != nil {
				s.logger.Printf("Error replying to exit: %v", err)
			}
			if s.cancel != nil {
				s.cancel()
			}
			return nil
		case protocol.MethodTextDocumentDidOpen:
			return s.handleDidOpen(ctx, reply, req)
		case protocol.MethodTextDocumentDidChange:
			return s.handleDidChange(ctx, reply, req)
		case protocol.MethodTextDocumentDidClose:
			return s.handleDidClose(ctx, reply, req)
		case protocol.MethodTextDocumentDidSave:
			return s.handleDidSave(ctx, reply, req)
		case protocol.MethodTextDocumentFormatting:
			return s.handleFormatting(ctx, reply, req)
		default:
			return reply(ctx, nil, jsonrpc2.ErrMethodNotFound)
		}
	}
}

func (s *Server) handleInitialize(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.InitializeParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse initialize params")
	}

	result := protocol.InitializeResult{
		Capabilities: s.capabilities,
		ServerInfo: &protocol.ServerInfo{
			Name:    "handc-lsp",
			Version: "0.1.0",
		},
	}
	return reply(ctx, result, nil)
}

func (s *Server) handleDidOpen(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse didOpen params")
	}

	uri := string(params.TextDocument.URI)
	s.setDocument(uri, params.TextDocument.Text)
	s.publishDiagnostics(ctx, uri)
	return reply(ctx, nil, nil)
}

func (s *Server) handleDidChange(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse didChange params")
	}
	if len(params.ContentChanges) == 0 {
		return reply(ctx, nil, nil)
	}

	// Full document sync: take the last change.
	uri := string(params.TextDocument.URI)
	s.setDocument(uri, params.ContentChanges[len(params.ContentChanges)-1].Text)
	s.publishDiagnostics(ctx, uri)
	return reply(ctx, nil, nil)
}

func (s *Server) handleDidClose(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse didClose params")
	}

	uri := string(params.TextDocument.URI)
	s.mu.Lock()
	delete(s.documents, uri)
	s.mu.Unlock()
	s.irCache.Delete(uri)
	return reply(ctx, nil, nil)
}

func (s *Server) handleDidSave(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse didSave params")
	}

	s.publishDiagnostics(ctx, string(params.TextDocument.URI))
	return reply(ctx, nil, nil)
}

func (s *Server) handleFormatting(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DocumentFormattingParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse formatting params")
	}

	uri := string(params.TextDocument.URI)
	content, ok := s.getDocument(uri)
	if !ok {
		return reply(ctx, nil, nil)
	}

	res := pipeline.Compile(content, uri, pipeline.Options{Level: 0})
	if res.Failed() {
		// Never reformat a broken document.
		return reply(ctx, nil, nil)
	}

	formatted := format.Program(res.Program)
	if formatted == content {
		return reply(ctx, []protocol.TextEdit{}, nil)
	}

	lines := uint32(strings.Count(content, "\n") + 1)
	edit := protocol.TextEdit{
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   protocol.Position{Line: lines, Character: 0},
		},
		NewText: formatted,
	}
	return reply(ctx, []protocol.TextEdit{edit}, nil)
}

func (s *Server) setDocument(uri, content string) {
	s.mu.Lock()
	s.documents[uri] = content
	s.mu.Unlock()
}

func (s *Server) getDocument(uri string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.documents[uri]
	return content, ok
}

// publishDiagnostics compiles a document and pushes the resulting
// diagnostics to the client. Unchanged content (didSave after didChange, or
// a re-opened document) is served from the content-hash cache without
// recompiling.
func (s *Server) publishDiagnostics(ctx context.Context, uri string) {
	content, ok := s.getDocument(uri)
	if !ok {
		return
	}

	var diags []errors.Diagnostic
	if entry, hit := s.irCache.Get(uri, content); hit {
		diags = entry.Diagnostics
	} else {
		res := pipeline.Compile(content, uri, pipeline.Options{Level: 2})
		diags = res.Diagnostics
		s.irCache.Set(uri, content, res.Doc, res.Diagnostics)
	}

	lspDiagnostics := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		lspDiagnostics = append(lspDiagnostics, protocol.Diagnostic{
			Range:    diagnosticRange(d),
			Severity: convertSeverity(d.Severity),
			Code:     d.Code,
			Source:   "handc",
			Message:  d.Message,
		})
	}

	params := protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(uri),
		Diagnostics: lspDiagnostics,
	}
	if err := s.client.PublishDiagnostics(ctx, &params); err != nil {
		s.logger.Printf("Error publishing diagnostics: %v", err)
	}
}

// diagnosticRange converts a 1-based HAND span to a 0-based LSP range.
func diagnosticRange(d errors.Diagnostic) protocol.Range {
	line := d.Location.Line
	if line > 0 {
		line--
	}
	col := d.Location.Column
	if col > 0 {
		col--
	}
	endCol := d.Location.EndColumn
	if endCol > 0 {
		endCol--
	} else {
		endCol = col + 1
	}
	return protocol.Range{
		Start: protocol.Position{Line: uint32(line), Character: uint32(col)},
		End:   protocol.Position{Line: uint32(line), Character: uint32(endCol)},
	}
}

func convertSeverity(severity errors.Severity) protocol.DiagnosticSeverity {
	switch severity {
	case errors.Warning:
		return protocol.DiagnosticSeverityWarning
	default:
		return protocol.DiagnosticSeverityError
	}
}

func (s *Server) replyWithError(ctx context.Context, reply jsonrpc2.Replier, code jsonrpc2.Code, message string) error {
	return reply(ctx, nil, &jsonrpc2.Error{
		Code:    code,
		Message: message,
	})
}

// stdrwc implements io.ReadWriteCloser for stdin/stdout
type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdrwc) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}
