package wsremote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/xolan/outreach/internal/entry"
	"github.com/xolan/outreach/internal/logging"
	"github.com/xolan/outreach/internal/remote"
)

// ErrDisconnected is wrapped in network errors of requests made while the
// client has no connection.
var ErrDisconnected = errors.New("not connected")

const (
	minRedial = 200 * time.Millisecond
	maxRedial = 10 * time.Second
)

// ClientOptions configures Dial.
type ClientOptions struct {
	Logger logging.Logger
	Dialer *websocket.Dialer
}

// Client is a remote.Collection served by a Server. It keeps one
// connection, redialing with backoff after it drops, and re-establishes
// every subscription on the new connection.
type Client struct {
	url    string
	token  string
	dialer *websocket.Dialer
	log    logging.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	ws      *websocket.Conn
	pending map[string]chan Frame
	subs    map[string]*clientSub
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

type clientSub struct {
	owner string
	box   *remote.Mailbox
}

var _ remote.Collection = (*Client)(nil)

// Dial connects to the collection endpoint at url (ws:// or wss://) and
// authenticates with token.
func Dial(ctx context.Context, url, token string, opts ClientOptions) (*Client, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	c := &Client{
		url:     url,
		token:   token,
		dialer:  opts.Dialer,
		log:     opts.Logger.With("component", "wsremote", "url", url),
		pending: make(map[string]chan Frame),
		subs:    make(map[string]*clientSub),
		done:    make(chan struct{}),
	}
	ws, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.ws = ws
	go c.run(ws)
	return c, nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.token)
	ws, resp, err := c.dialer.DialContext(ctx, c.url, h)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, &RemoteError{Code: "unauthorized", Message: "server rejected token"}
		}
		return nil, entry.Network("dial", err)
	}
	return ws, nil
}

// run owns the read side of the current connection and redials after it
// fails.
func (c *Client) run(ws *websocket.Conn) {
	defer close(c.done)
	backoff := minRedial
	for {
		err := c.readLoop(ws)
		if c.ctx.Err() != nil {
			return
		}
		c.disconnected(ws, err)

		for {
			select {
			case <-c.ctx.Done():
				return
			case <-time.After(backoff):
			}
			next, err := c.dial(c.ctx)
			if err == nil {
				ws = next
				break
			}
			c.log.Warn(c.ctx, "redial failed", "error", err, "retry_in", backoff)
			backoff = min(backoff*2, maxRedial)
		}
		backoff = minRedial
		if !c.reconnected(ws) {
			_ = ws.Close()
			return
		}
	}
}

func (c *Client) readLoop(ws *websocket.Conn) error {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return err
		}
		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.log.Warn(c.ctx, "bad frame", "error", err)
			continue
		}
		c.route(f)
	}
}

func (c *Client) route(f Frame) {
	c.mu.Lock()
	if f.Op == OpResult {
		if ch, ok := c.pending[f.ID]; ok {
			delete(c.pending, f.ID)
			c.mu.Unlock()
			ch <- f
			return
		}
	}
	sub := c.subs[f.ID]
	c.mu.Unlock()

	if sub == nil {
		return
	}
	switch f.Op {
	case OpSnapshot:
		sub.box.PushSnapshot(f.Entries)
	case OpError, OpResult:
		if f.Error != nil {
			sub.box.PushError(decodeError(OpSubscribe, "", f.Error))
		}
	}
}

// disconnected fails every in-flight request and tells subscribers.
func (c *Client) disconnected(ws *websocket.Conn, cause error) {
	c.log.Warn(c.ctx, "connection lost", "error", cause)
	_ = ws.Close()

	c.mu.Lock()
	c.ws = nil
	pending := c.pending
	c.pending = make(map[string]chan Frame)
	subs := make([]*clientSub, 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()

	lost := &ErrorBody{Code: CodeNetwork, Message: "connection lost: " + cause.Error()}
	for id, ch := range pending {
		ch <- Frame{ID: id, Op: OpResult, Error: lost}
	}
	for _, s := range subs {
		s.box.PushError(entry.Network("subscribe", cause))
	}
}

// reconnected installs ws and replays subscriptions. It reports false when
// the client was closed meanwhile.
func (c *Client) reconnected(ws *websocket.Conn) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.ws = ws
	replay := make([]Frame, 0, len(c.subs))
	for id, s := range c.subs {
		replay = append(replay, Frame{ID: id, Op: OpSubscribe, Owner: s.owner})
	}
	c.mu.Unlock()

	c.log.Info(c.ctx, "reconnected", "subscriptions", len(replay))
	for _, f := range replay {
		if err := c.send(f); err != nil {
			c.log.Warn(c.ctx, "resubscribe failed", "error", err)
		}
	}
	return true
}

func (c *Client) send(f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return entry.Network(f.Op, ErrDisconnected)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return entry.Network(f.Op, err)
	}
	return nil
}

// request sends f and waits for its result.
func (c *Client) request(ctx context.Context, f Frame) (Frame, error) {
	f.ID = uuid.NewString()
	ch := make(chan Frame, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Frame{}, entry.Network(f.Op, remote.ErrClosed)
	}
	c.pending[f.ID] = ch
	c.mu.Unlock()

	forget := func() {
		c.mu.Lock()
		delete(c.pending, f.ID)
		c.mu.Unlock()
	}

	if err := c.send(f); err != nil {
		forget()
		return Frame{}, err
	}
	select {
	case res := <-ch:
		return res, decodeError(f.Op, f.EntryID, res.Error)
	case <-ctx.Done():
		forget()
		return Frame{}, ctx.Err()
	}
}

func (c *Client) Subscribe(ownerID string, onSnapshot remote.SnapshotFunc, onError remote.ErrorFunc) func() {
	id := uuid.NewString()
	sub := &clientSub{owner: ownerID, box: remote.NewMailbox(onSnapshot, onError)}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		sub.box.PushError(entry.Network(OpSubscribe, remote.ErrClosed))
		return sub.box.Close
	}
	c.subs[id] = sub
	c.mu.Unlock()

	if err := c.send(Frame{ID: id, Op: OpSubscribe, Owner: ownerID}); err != nil {
		// Replayed after the next reconnect.
		sub.box.PushError(err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			_, ok := c.subs[id]
			delete(c.subs, id)
			c.mu.Unlock()
			sub.box.Close()
			if ok {
				_ = c.send(Frame{ID: id, Op: OpUnsubscribe})
			}
		})
	}
}

func (c *Client) Create(ctx context.Context, e entry.Entry) (entry.Entry, error) {
	res, err := c.request(ctx, Frame{Op: OpCreate, Entry: &e})
	if err != nil {
		return entry.Entry{}, err
	}
	if res.Entry == nil {
		return entry.Entry{}, &RemoteError{Code: CodeInternal, Message: "create returned no entry"}
	}
	return *res.Entry, nil
}

func (c *Client) Get(ctx context.Context, id string) (entry.Entry, error) {
	res, err := c.request(ctx, Frame{Op: OpGet, EntryID: id})
	if err != nil {
		return entry.Entry{}, err
	}
	if res.Entry == nil {
		return entry.Entry{}, entry.NotFound(id)
	}
	return *res.Entry, nil
}

func (c *Client) Update(ctx context.Context, id string, p entry.Patch) error {
	_, err := c.request(ctx, Frame{Op: OpUpdate, EntryID: id, Patch: &p})
	return err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.request(ctx, Frame{Op: OpDelete, EntryID: id})
	return err
}

// Close closes the connection, stops redialing and ends every
// subscription.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	ws := c.ws
	subs := c.subs
	c.subs = make(map[string]*clientSub)
	pending := c.pending
	c.pending = make(map[string]chan Frame)
	c.mu.Unlock()

	c.cancel()
	if ws != nil {
		c.writeMu.Lock()
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.writeMu.Unlock()
		_ = ws.Close()
	}
	<-c.done

	closed := &ErrorBody{Code: CodeNetwork, Message: remote.ErrClosed.Error()}
	for id, ch := range pending {
		ch <- Frame{ID: id, Op: OpResult, Error: closed}
	}
	for _, s := range subs {
		s.box.Close()
	}
	return nil
}
