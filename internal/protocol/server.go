package protocol

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"

	kberrors "github.com/Aman-CERP/kbsearch/internal/errors"
	"github.com/Aman-CERP/kbsearch/internal/search"
)

// maxMessageSize bounds one incoming line.
const maxMessageSize = 4 * 1024 * 1024

// Server answers protocol messages.
type Server struct {
	searcher Searcher
	opener   Opener
	repos    Repositories
}

// NewServer creates a server. A nil opener makes openResult report an
// error; openResult only opens files under a root that repos lists.
func NewServer(searcher Searcher, opener Opener, repos Repositories) *Server {
	return &Server{searcher: searcher, opener: opener, repos: repos}
}

// Serve reads messages from r and writes responses to w until r is
// exhausted or ctx is done. Requests run concurrently; writes are
// serialized. Serve waits for in-flight requests before returning.
//
// When ctx ends first, a read blocked on r is abandoned; close r to
// release it.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := &messageWriter{enc: json.NewEncoder(w)}
	var inflight sync.WaitGroup
	defer inflight.Wait()

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxMessageSize)
		for sc.Scan() {
			line := bytes.TrimSpace(sc.Bytes())
			if len(line) == 0 {
				continue
			}
			select {
			case lines <- append([]byte(nil), line...):
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return ctx.Err()
				}
			}
			s.dispatch(ctx, line, out, &inflight)
		}
	}
}

func (s *Server) dispatch(ctx context.Context, line []byte, out *messageWriter, inflight *sync.WaitGroup) {
	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		out.sendError(kberrors.ValidationError("invalid message", err))
		return
	}

	switch msg.Type {
	case TypeSearch:
		var q search.Query
		if err := decodePayload(msg.Payload, &q); err != nil {
			out.sendError(kberrors.ValidationError("invalid search payload", err))
			return
		}
		inflight.Add(1)
		go func() {
			defer inflight.Done()
			resp, err := s.searcher.Search(ctx, q)
			if err != nil {
				out.sendError(err)
				return
			}
			out.send(TypeSearchResults, resp)
		}()

	case TypeOpenResult:
		var result search.MatchResult
		if err := decodePayload(msg.Payload, &result); err != nil {
			out.sendError(kberrors.ValidationError("invalid openResult payload", err))
			return
		}
		if s.opener == nil {
			out.sendError(kberrors.New(kberrors.ErrCodeToolUnavailable, "opening results is not supported here", nil))
			return
		}
		if err := s.checkOpenable(result); err != nil {
			out.sendError(err)
			return
		}
		inflight.Add(1)
		go func() {
			defer inflight.Done()
			if err := s.opener.Open(ctx, result); err != nil {
				out.sendError(err)
			}
		}()

	default:
		out.sendError(kberrors.ValidationError(fmt.Sprintf("unknown message type %q", msg.Type), nil))
	}
}

// checkOpenable rejects results outside every configured repository.
func (s *Server) checkOpenable(result search.MatchResult) error {
	if s.repos != nil {
		if _, ok := s.repos.Snapshot().Owner(result.FilePath); ok {
			return nil
		}
	}
	return kberrors.New(kberrors.ErrCodeInvalidPath, "file is not inside a configured repository", nil).
		WithDetail("path", result.FilePath)
}

// ServeListener accepts connections on ln and serves each one until ctx
// is done. It closes ln and waits for open connections before returning.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	var conns sync.WaitGroup
	defer conns.Wait()

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	slog.Info("protocol server listening", slog.String("addr", ln.Addr().String()))
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("accept: %w", err)
		}

		conns.Add(1)
		go func() {
			defer conns.Done()
			defer func() { _ = conn.Close() }()
			release := context.AfterFunc(ctx, func() { _ = conn.Close() })
			defer release()

			if err := s.Serve(ctx, conn, conn); err != nil && ctx.Err() == nil {
				slog.Debug("connection closed", slog.String("error", err.Error()))
			}
		}()
	}
}

// ListenUnix listens on a Unix socket at path, replacing a stale socket.
func ListenUnix(path string) (net.Listener, error) {
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("failed to restrict socket permissions: %w", err)
	}
	return ln, nil
}

// messageWriter serializes concurrent writes to one stream.
type messageWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func (m *messageWriter) send(typ string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to encode payload", slog.String("type", typ), slog.String("error", err.Error()))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enc.Encode(Message{Type: typ, Payload: raw}); err != nil {
		slog.Warn("failed to write message", slog.String("type", typ), slog.String("error", err.Error()))
	}
}

func (m *messageWriter) sendError(err error) {
	slog.Debug("protocol error", kberrors.LogAttrs(err)...)
	payload := ErrorPayload{Message: err.Error(), Code: kberrors.GetCode(err)}
	var ke *kberrors.KBError
	if errors.As(err, &ke) {
		payload.Message = ke.Message
	}
	m.send(TypeError, payload)
}
