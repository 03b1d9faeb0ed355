package rpcjson

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/filsalgado/simpleRGN/internal/application"
	"github.com/filsalgado/simpleRGN/internal/domain"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInvalidInput   = 40000
	codeNotFound       = 40400
	codeInternal       = 50000
)

type Server struct {
	service  *application.RecordService
	log      logrus.FieldLogger
	listener net.Listener
	path     string
	ctx      context.Context
	cancel   context.CancelFunc
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      any             `json:"id"`
}

type response struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// actorParams carries the acting user resolved by the caller.
type actorParams struct {
	ActorID       uint  `json:"actor_id"`
	ActorParishID *uint `json:"actor_parish_id"`
}

func (p actorParams) actor() domain.Actor {
	return domain.Actor{UserID: p.ActorID, ParishID: p.ActorParishID}
}

type writeParams struct {
	actorParams
	ID     uint                    `json:"id"`
	Record application.RecordInput `json:"record"`
}

type idParams struct {
	ID uint `json:"id"`
}

type listParams struct {
	Type      string `json:"type"`
	ParishID  *uint  `json:"parish_id"`
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
	SortBy    string `json:"sort_by"`
	SortOrder string `json:"sort_order"`
}

func Start(path string, service *application.RecordService, log logrus.FieldLogger) (*Server, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("rpc socket path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		_ = os.Remove(path)
		return nil, err
	}

	s := newServer(service, log)
	s.listener = ln
	s.path = path
	go s.serve()
	return s, nil
}

func newServer(service *application.RecordService, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{service: service, log: log.WithField("component", "rpc"), ctx: ctx, cancel: cancel}
}

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *Server) Close() error {
	s.cancel()
	err := s.listener.Close()
	_ = os.Remove(s.path)
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)

	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			_ = enc.Encode(response{JSONRPC: "2.0", Error: &rpcError{Code: codeParseError, Message: "parse error"}, ID: nil})
			return
		}

		resp := s.dispatch(s.ctx, req)
		if err := enc.Encode(resp); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req request) response {
	if req.JSONRPC != "2.0" || strings.TrimSpace(req.Method) == "" {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: codeInvalidRequest, Message: "invalid request"}, ID: req.ID}
	}

	switch req.Method {
	case "records.create":
		var p writeParams
		if !decodeParams(req.Params, &p) || p.ActorID == 0 {
			return invalidParams(req.ID)
		}
		id, err := s.service.CreateRecord(ctx, p.actor(), p.Record)
		if err != nil {
			return s.failure(req, err)
		}
		return response{JSONRPC: "2.0", Result: map[string]any{"success": true, "id": id}, ID: req.ID}
	case "records.update":
		var p writeParams
		if !decodeParams(req.Params, &p) || p.ActorID == 0 || p.ID == 0 {
			return invalidParams(req.ID)
		}
		if err := s.service.UpdateRecord(ctx, p.actor(), p.ID, p.Record); err != nil {
			return s.failure(req, err)
		}
		return response{JSONRPC: "2.0", Result: map[string]any{"success": true, "id": p.ID}, ID: req.ID}
	case "records.get":
		var p idParams
		if !decodeParams(req.Params, &p) || p.ID == 0 {
			return invalidParams(req.ID)
		}
		record, err := s.service.GetRecord(ctx, p.ID)
		if err != nil {
			return s.failure(req, err)
		}
		return response{JSONRPC: "2.0", Result: record, ID: req.ID}
	case "records.list":
		var p listParams
		if len(req.Params) > 0 && !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		page, err := s.service.ListRecords(ctx, application.RecordFilter{
			Type:      p.Type,
			ParishID:  p.ParishID,
			Page:      p.Page,
			Limit:     p.Limit,
			SortBy:    p.SortBy,
			SortOrder: p.SortOrder,
		})
		if err != nil {
			return s.failure(req, err)
		}
		return response{JSONRPC: "2.0", Result: page, ID: req.ID}
	case "records.delete":
		var p idParams
		if !decodeParams(req.Params, &p) || p.ID == 0 {
			return invalidParams(req.ID)
		}
		if err := s.service.DeleteRecord(ctx, p.ID); err != nil {
			return s.failure(req, err)
		}
		return response{JSONRPC: "2.0", Result: map[string]any{"success": true}, ID: req.ID}
	default:
		return response{JSONRPC: "2.0", Error: &rpcError{Code: codeMethodNotFound, Message: "method not found"}, ID: req.ID}
	}
}

func (s *Server) failure(req request, err error) response {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return appError(req.ID, codeInvalidInput, err)
	case errors.Is(err, domain.ErrNotFound):
		return appError(req.ID, codeNotFound, err)
	default:
		s.log.WithError(err).WithField("method", req.Method).Error("rpc call failed")
		return internalError(req.ID, err)
	}
}

func decodeParams(raw json.RawMessage, out any) bool {
	if len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func invalidParams(id any) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: codeInvalidParams, Message: "invalid params"}, ID: id}
}

func appError(id any, code int, err error) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: code, Message: err.Error()}, ID: id}
}

func internalError(id any, err error) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: codeInternal, Message: "internal error: " + err.Error()}, ID: id}
}
