package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

const rpcDialTimeout = 5 * time.Second

// Server-side error codes of the records JSON-RPC service.
const (
	rpcCodeInvalidInput = 40000
	rpcCodeNotFound     = 40400
)

// rpcClient talks line-delimited JSON-RPC 2.0 to the server's unix socket,
// one connection per call.
type rpcClient struct {
	socket string
	nextID atomic.Int64
}

type rpcEnvelope struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      int64  `json:"id"`
}

type rpcReply struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcFailure     `json:"error"`
	ID     int64           `json:"id"`
}

// rpcFailure is an error object returned by the server.
type rpcFailure struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (f *rpcFailure) Error() string {
	switch f.Code {
	case rpcCodeInvalidInput:
		return "invalid record: " + f.Message
	case rpcCodeNotFound:
		return "record not found: " + f.Message
	}
	return fmt.Sprintf("server error %d: %s", f.Code, f.Message)
}

func newRPCClient(socket string) *rpcClient {
	return &rpcClient{socket: socket}
}

func (c *rpcClient) call(ctx context.Context, method string, params any, out any) error {
	dialer := net.Dialer{Timeout: rpcDialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socket)
	if err != nil {
		return errors.Wrapf(err, "connect %s", c.socket)
	}
	defer func() { _ = conn.Close() }()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	id := c.nextID.Add(1)
	if err := json.NewEncoder(conn).Encode(rpcEnvelope{JSONRPC: "2.0", Method: method, Params: params, ID: id}); err != nil {
		return errors.Wrapf(err, "send %s", method)
	}

	var reply rpcReply
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return errors.Wrapf(err, "read %s reply", method)
	}
	if reply.Error != nil {
		return reply.Error
	}
	if reply.ID != id {
		return errors.Errorf("%s: reply id %d does not match request %d", method, reply.ID, id)
	}
	if out == nil || len(reply.Result) == 0 {
		return nil
	}
	return errors.Wrapf(json.Unmarshal(reply.Result, out), "decode %s result", method)
}
