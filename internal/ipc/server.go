package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
)

// maxRequestLine bounds one request read. A say request carries a single
// spoken transcript, so a very long line means a misbehaving client.
const maxRequestLine = 64 * 1024

// Handler processes one session command request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Serve accepts clients on the session socket until the context is cancelled
// or the listener is closed. Each connection carries exactly one request.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	var wg sync.WaitGroup

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				wg.Wait()
				return nil
			}
			return fmt.Errorf("accept session connection: %w", err)
		}

		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			defer c.Close()
			serveConn(ctx, c, handler)
		}(conn)
	}
}

func serveConn(ctx context.Context, conn net.Conn, handler Handler) {
	reply := func(resp Response) {
		_ = json.NewEncoder(conn).Encode(resp)
	}

	line, err := bufio.NewReaderSize(conn, maxRequestLine).ReadBytes('\n')
	if err != nil {
		reply(Response{OK: false, Error: fmt.Sprintf("read request: %v", err)})
		return
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		reply(Response{OK: false, Error: fmt.Sprintf("decode request: %v", err)})
		return
	}
	if strings.TrimSpace(req.Command) == "" {
		reply(Response{OK: false, Error: "empty command"})
		return
	}

	reply(handler.Handle(ctx, req))
}
