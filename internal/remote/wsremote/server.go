package wsremote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/xolan/outreach/internal/auth"
	"github.com/xolan/outreach/internal/entry"
	"github.com/xolan/outreach/internal/logging"
	"github.com/xolan/outreach/internal/remote"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	opTimeout  = 30 * time.Second
)

// Server serves one Collection to authenticated clients. The subject of
// the bearer token is the owner on whose behalf every request runs.
type Server struct {
	coll     remote.Collection
	secret   []byte
	log      logging.Logger
	upgrader websocket.Upgrader

	wg    sync.WaitGroup
	mu    sync.Mutex
	conns map[*serverConn]struct{}
}

// NewServer returns a server for coll that verifies HS256 tokens with secret.
func NewServer(coll remote.Collection, secret []byte, log logging.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	return &Server{
		coll:   coll,
		secret: secret,
		log:    log.With("component", "wsremote"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		conns: make(map[*serverConn]struct{}),
	}
}

// Router returns the HTTP routes of the server.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet)
	r.HandleFunc(Path, s.serveCollection).Methods(http.MethodGet)
	return r
}

// Wait blocks until every connection handler has returned.
func (s *Server) Wait() { s.wg.Wait() }

// Close disconnects every client and waits for the handlers to return.
// http.Server.Shutdown does not reach hijacked connections.
func (s *Server) Close() {
	s.mu.Lock()
	for c := range s.conns {
		_ = c.ws.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(tok)
	}
	return ""
}

func (s *Server) serveCollection(w http.ResponseWriter, r *http.Request) {
	owner, err := auth.UserIDFromToken(bearerToken(r), s.secret)
	if err != nil {
		s.log.Warn(r.Context(), "rejected connection", "remote", r.RemoteAddr, "error", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn(r.Context(), "upgrade failed", "error", err)
		return
	}

	s.wg.Add(1)
	defer s.wg.Done()

	c := &serverConn{
		srv:   s,
		ws:    ws,
		owner: owner,
		log:   s.log.With("owner", owner, "remote", r.RemoteAddr),
		subs:  make(map[string]func()),
	}
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
	}()
	c.serve()
}

type serverConn struct {
	srv   *Server
	ws    *websocket.Conn
	owner string
	log   logging.Logger

	writeMu sync.Mutex

	mu     sync.Mutex
	subs   map[string]func()
	closed bool
	ops    sync.WaitGroup
}

func (c *serverConn) serve() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.log.Info(ctx, "client connected")
	defer c.log.Info(ctx, "client disconnected")

	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	pingDone := make(chan struct{})
	go c.ping(ctx, pingDone)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug(ctx, "read failed", "error", err)
			}
			break
		}
		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.write(Frame{Op: OpResult, Error: &ErrorBody{Code: CodeBadRequest, Message: err.Error()}})
			continue
		}
		c.dispatch(ctx, f)
	}

	cancel()
	<-pingDone
	c.shutdown()
	c.ops.Wait()
	_ = c.ws.Close()
}

func (c *serverConn) ping(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (c *serverConn) shutdown() {
	c.mu.Lock()
	c.closed = true
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()
	for _, stop := range subs {
		stop()
	}
}

func (c *serverConn) write(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		c.log.Error(context.Background(), "encode frame", "error", err)
		return
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		c.log.Debug(context.Background(), "write failed", "error", err)
	}
}

func (c *serverConn) reply(req Frame, res Frame, err error) {
	res.ID = req.ID
	res.Op = OpResult
	if err != nil {
		res.Error = encodeError(err)
	}
	c.write(res)
}

func (c *serverConn) dispatch(ctx context.Context, f Frame) {
	switch f.Op {
	case OpSubscribe:
		c.subscribe(f)
	case OpUnsubscribe:
		c.unsubscribe(f)
	case OpCreate, OpGet, OpUpdate, OpDelete:
		c.ops.Add(1)
		go func() {
			defer c.ops.Done()
			opCtx, cancel := context.WithTimeout(ctx, opTimeout)
			defer cancel()
			res, err := c.handle(opCtx, f)
			if err != nil {
				c.log.Debug(ctx, "request failed", "op", f.Op, "error", err)
			}
			c.reply(f, res, err)
		}()
	default:
		c.write(Frame{ID: f.ID, Op: OpResult, Error: &ErrorBody{Code: CodeBadRequest, Message: "unknown op " + f.Op}})
	}
}

func (c *serverConn) subscribe(f Frame) {
	if f.ID == "" {
		c.reply(f, Frame{}, entry.Invalid("id", "is required"))
		return
	}
	if f.Owner != "" && f.Owner != c.owner {
		c.log.Warn(context.Background(), "subscribe for foreign owner", "requested", f.Owner)
		c.reply(f, Frame{}, entry.Invalid("owner", "does not match token"))
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if _, dup := c.subs[f.ID]; dup {
		c.mu.Unlock()
		c.reply(f, Frame{}, entry.Invalid("id", "already subscribed"))
		return
	}
	c.subs[f.ID] = func() {}
	c.mu.Unlock()

	stop := c.srv.coll.Subscribe(c.owner,
		func(entries []entry.Entry) {
			c.write(Frame{ID: f.ID, Op: OpSnapshot, Entries: entries})
		},
		func(err error) {
			c.write(Frame{ID: f.ID, Op: OpError, Error: encodeError(err)})
		})

	c.mu.Lock()
	_, live := c.subs[f.ID]
	if c.closed || !live {
		c.mu.Unlock()
		stop()
		return
	}
	c.subs[f.ID] = stop
	c.mu.Unlock()
}

func (c *serverConn) unsubscribe(f Frame) {
	c.mu.Lock()
	stop, ok := c.subs[f.ID]
	delete(c.subs, f.ID)
	c.mu.Unlock()
	if ok {
		stop()
	}
}

// handle runs one request on behalf of the connection owner.
func (c *serverConn) handle(ctx context.Context, f Frame) (Frame, error) {
	switch f.Op {
	case OpCreate:
		if f.Entry == nil {
			return Frame{}, entry.Invalid("entry", "is required")
		}
		e := *f.Entry
		e.ID = ""
		e.OwnerID = c.owner
		created, err := c.srv.coll.Create(ctx, e)
		if err != nil {
			return Frame{}, err
		}
		return Frame{Entry: &created}, nil

	case OpGet:
		e, err := c.owned(ctx, f.EntryID)
		if err != nil {
			return Frame{}, err
		}
		return Frame{Entry: &e}, nil

	case OpUpdate:
		if f.Patch == nil {
			return Frame{}, entry.Invalid("patch", "is required")
		}
		if _, err := c.owned(ctx, f.EntryID); err != nil {
			return Frame{}, err
		}
		return Frame{}, c.srv.coll.Update(ctx, f.EntryID, *f.Patch)

	case OpDelete:
		if _, err := c.owned(ctx, f.EntryID); err != nil {
			return Frame{}, err
		}
		return Frame{}, c.srv.coll.Delete(ctx, f.EntryID)
	}
	return Frame{}, errors.New("unreachable")
}

// owned fetches id and hides entries held by other owners.
func (c *serverConn) owned(ctx context.Context, id string) (entry.Entry, error) {
	if id == "" {
		return entry.Entry{}, entry.Invalid("id", "is required")
	}
	e, err := c.srv.coll.Get(ctx, id)
	if err != nil {
		return entry.Entry{}, err
	}
	if e.OwnerID != c.owner {
		return entry.Entry{}, entry.NotFound(id)
	}
	return e, nil
}
