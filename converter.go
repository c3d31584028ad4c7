// Sizeconv Converter Sessions
//
// Every converter page lives at $prefix/c/:sessionid and talks to the server
// over a websocket. The session holds the typed value, the selected units and
// the last good result, so several tabs (or a phone that scanned the QR code)
// can share one converter and see each other's changes live.
//
// Features:
// - WebSockets per session ID: /c/:sessionid and /c/:sessionid/ws
// - "convert" messages set the value and units, then convert
// - "adjust" messages step the value by a signed amount and convert again
//   (mouse wheel, arrow keys and the up/down buttons all send these)
// - Successful conversions are broadcast to every client of the session
// - Invalid input is reported only to the client that sent it, and the
//   shared result is kept
// - Sessions auto-reaped after configurable idle timeout
// - Random 8-char session IDs via crypto/rand, with server-side collision check
// - In-browser QR button to share the current session, backed by go-qrcode

package main

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/karlseguin/ccache/v3"
	"github.com/samber/lo"
	"github.com/skip2/go-qrcode"

	"github.com/Seednode/sizeconv/units"
)

const (
	invalidValueMessage = "Please enter a valid number"
	invalidUnitMessage  = "Please choose a unit from the list"
)

// Messages coming from clients
type ClientMessage struct {
	Type  string  `json:"type"`            // "convert", "adjust"
	Value *string `json:"value,omitempty"` // convert / adjust
	From  string  `json:"from,omitempty"`  // convert / adjust
	To    string  `json:"to,omitempty"`    // convert / adjust
	Step  int     `json:"step,omitempty"`  // adjust
}

// SessionInfoMessage is sent immediately on connect.
type SessionInfoMessage struct {
	Type      string   `json:"type"` // "session_info"
	SessionID string   `json:"session_id"`
	Units     []string `json:"units"`
}

// StateMessage carries the shared converter state.
type StateMessage struct {
	Type      string  `json:"type"` // "state"
	Value     string  `json:"value"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Result    string  `json:"result,omitempty"`
	Bytes     float64 `json:"bytes,omitempty"`
	HasResult bool    `json:"has_result"`
}

// SimpleMessage is for notifications sent to one client ("error").
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Client struct {
	conn *websocket.Conn
	send chan any
}

type clientRequest struct {
	client *Client
	msg    ClientMessage
	err    error
}

type Hub struct {
	id      string
	clients map[*Client]bool
	session *Session

	register chan *Client
	unreg    chan *Client
	requests chan clientRequest
	done     chan struct{}
	once     sync.Once

	mu sync.RWMutex

	createdAt  time.Time
	lastActive time.Time
	precision  int
}

func newHub(cfg *Config, sessionID string) *Hub {
	now := time.Now()
	return &Hub{
		id:         sessionID,
		clients:    make(map[*Client]bool),
		session:    newSession(cfg.value, cfg.fromUnit, cfg.toUnit),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		requests:   make(chan clientRequest),
		done:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
		precision:  cfg.precision,
	}
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case <-h.done:
			return

		case c := <-h.register:
			if h.join(c) {
				logf(cfg, "CONVERTER: Client joined session %s", h.id)
			}

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case req := <-h.requests:
			h.handleRequest(cfg, req)
		}
	}
}

// join adds c to the hub and sends it the current state. A hub that has
// already been stopped closes c.send instead, which ends the client's
// write pump and with it the connection.
func (h *Hub) join(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.done:
		close(c.send)
		return false
	default:
	}

	h.lastActive = time.Now()
	h.clients[c] = true

	c.send <- SessionInfoMessage{
		Type:      "session_info",
		SessionID: h.id,
		Units:     unitNames(),
	}
	h.sendLocked(c, h.stateMessage())

	return true
}

func (h *Hub) handleRequest(cfg *Config, req clientRequest) {
	msg := req.msg

	err := req.err
	if err == nil {
		switch msg.Type {
		case "convert":
			err = h.convert(msg)
		case "adjust":
			if msg.Step == 0 {
				return
			}
			err = h.adjust(msg)
		default:
			return
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	if err != nil {
		logf(cfg, "CONVERTER: Rejected %s in session %s: %v", msg.Type, h.id, err)

		text := invalidValueMessage
		if errors.Is(err, units.ErrUnknownUnit) {
			text = invalidUnitMessage
		}
		h.sendLocked(req.client, SimpleMessage{Type: "error", Message: text})

		return
	}

	h.broadcastStateLocked()
}

// convert copies the value and units a client sent into the session and
// converts. Units are checked before anything is changed.
func (h *Hub) convert(msg ClientMessage) error {
	from, to, err := h.resolveUnits(msg)
	if err != nil {
		return err
	}

	h.session.SetUnits(from, to)
	if msg.Value != nil {
		h.session.SetInput(*msg.Value)
	}

	_, err = h.session.Convert()

	return err
}

// adjust steps the value the client sent, or the stored one if it sent
// none. Invalid text leaves the session untouched.
func (h *Hub) adjust(msg ClientMessage) error {
	from, to, err := h.resolveUnits(msg)
	if err != nil {
		return err
	}

	input := h.session.Snapshot().Input
	if msg.Value != nil {
		input = *msg.Value
	}

	_, err = h.session.AdjustFrom(input, from, to, msg.Step)

	return err
}

// resolveUnits resolves the units named in msg, falling back to the session's.
func (h *Hub) resolveUnits(msg ClientMessage) (units.Unit, units.Unit, error) {
	state := h.session.Snapshot()
	from, to := state.From, state.To

	var err error
	if msg.From != "" {
		if from, err = units.ParseUnit(msg.From); err != nil {
			return from, to, err
		}
	}
	if msg.To != "" {
		if to, err = units.ParseUnit(msg.To); err != nil {
			return from, to, err
		}
	}

	return from, to, nil
}

func (h *Hub) stateMessage() StateMessage {
	state := h.session.Snapshot()

	msg := StateMessage{
		Type:      "state",
		Value:     state.Input,
		From:      state.From.String(),
		To:        state.To.String(),
		HasResult: state.HasResult,
	}
	if state.HasResult {
		msg.Result = state.Result.Format(h.precision)
		msg.Bytes = state.Result.Request.Value * state.Result.From.Multiplier()
	}

	return msg
}

func (h *Hub) broadcastStateLocked() {
	msg := h.stateMessage()

	for client := range h.clients {
		h.sendLocked(client, msg)
	}
}

func (h *Hub) sendLocked(client *Client, msg any) {
	if _, ok := h.clients[client]; !ok {
		return
	}

	select {
	case client.send <- msg:
	default:
		delete(h.clients, client)
		close(client.send)
	}
}

// closeAll disconnects all clients of this hub and stops it (used by reaper).
func (h *Hub) closeAll() {
	h.once.Do(func() {
		close(h.done)
	})

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

func unitNames() []string {
	return lo.Map(units.All(), func(u units.Unit, _ int) string {
		return u.String()
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// SessionManager holds a set of hubs keyed by session ID, so each
// $prefix/c/$sessionid is its own isolated converter.
type SessionManager struct {
	mu          sync.Mutex
	hubs        map[string]*Hub
	idleTimeout time.Duration
	qrCodes     *ccache.Cache[[]byte]
}

func newSessionManager(idleTimeout time.Duration) *SessionManager {
	sm := &SessionManager{
		hubs:        make(map[string]*Hub),
		idleTimeout: idleTimeout,
		qrCodes: ccache.New(
			ccache.Configure[[]byte]().
				MaxSize(256).
				GetsPerPromote(3).
				ItemsToPrune(1),
		),
	}
	if idleTimeout > 0 {
		go sm.reaperLoop()
	}
	return sm
}

func (sm *SessionManager) getHub(cfg *Config, sessionID string) *Hub {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if hub, ok := sm.hubs[sessionID]; ok {
		return hub
	}

	hub := newHub(cfg, sessionID)
	sm.hubs[sessionID] = hub
	go hub.run(cfg)
	return hub
}

// newSessionID generates a crypto-random session ID and ensures it doesn't
// collide with existing sessions.
func (sm *SessionManager) newSessionID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		sm.mu.Lock()
		_, exists := sm.hubs[id]
		sm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reaperLoop periodically removes hubs with no clients that have been idle
// longer than idleTimeout.
func (sm *SessionManager) reaperLoop() {
	ticker := time.NewTicker(sm.idleTimeout / 2)
	for range ticker.C {
		sm.reap(time.Now().Add(-sm.idleTimeout))
	}
}

func (sm *SessionManager) reap(cutoff time.Time) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	reaped := 0
	for id, hub := range sm.hubs {
		hub.mu.RLock()
		last := hub.lastActive
		connected := len(hub.clients)
		hub.mu.RUnlock()

		if connected == 0 && last.Before(cutoff) {
			delete(sm.hubs, id)
			go hub.closeAll()
			reaped++
		}
	}

	return reaped
}

// qrCode returns the PNG QR code for url, generating it at most once per hour.
func (sm *SessionManager) qrCode(url string) ([]byte, error) {
	const qrSize = 320 // mobile-friendly size

	item, err := sm.qrCodes.Fetch(url, time.Hour, func() ([]byte, error) {
		return qrcode.Encode(url, qrcode.Medium, qrSize)
	})
	if err != nil {
		return nil, err
	}

	return item.Value(), nil
}

// WebSocket handler that picks the hub based on :sessionid
func serveWSForManager(cfg *Config, sm *SessionManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		sessionID := ps.ByName("sessionid")
		if sessionID == "" {
			http.Error(w, "missing session id", http.StatusBadRequest)
			return
		}

		hub := sm.getHub(cfg, sessionID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan any, 8),
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		req := clientRequest{client: c}
		if err := json.Unmarshal(data, &req.msg); err != nil {
			// malformed frames get an error reply, the connection stays up
			req.err = fmt.Errorf("%w: %v", units.ErrInvalidInput, err)
		} else if req.msg.Type != "convert" && req.msg.Type != "adjust" {
			continue
		}

		select {
		case h.requests <- req:
		case <-h.done:
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current session URL.
func qrHandler(sm *SessionManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		sessionID := ps.ByName("sessionid")
		if sessionID == "" {
			http.Error(w, "missing session id", http.StatusBadRequest)
			return
		}

		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		// We are at /.../:sessionid/qr; strip trailing "/qr" to get the session URL.
		path := strings.TrimSuffix(r.URL.Path, "/qr")

		png, err := sm.qrCode(scheme + "://" + r.Host + path)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

func getIndexHandler(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		data, err := assets.ReadFile("assets/converter/index.html")
		if err != nil {
			errs <- err

			http.Error(w, "page unavailable", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, err = w.Write(data)
		if err != nil {
			errs <- err
		}
	}
}

// redirectNewSession handles GET / by generating a new random session ID
// (with server-side collision detection) and redirecting to /c/:sessionid.
func redirectNewSession(cfg *Config, path string, sm *SessionManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		sessionID := sm.newSessionID()
		logf(cfg, "CONVERTER: Created session %s/%s", path, sessionID)
		http.Redirect(w, r, path+"/"+sessionID, http.StatusTemporaryRedirect)
	}
}

// registerConverter sets up routes so that:
//   - $prefix/                 → redirects to new random session (8-char ID)
//   - $path/:sessionid         → HTML client
//   - $path/:sessionid/ws      → WebSocket for that session
//   - $path/:sessionid/qr      → PNG QR code for that session URL
func registerConverter(cfg *Config, path string, mux *httprouter.Router, errs chan<- error) *SessionManager {
	sm := newSessionManager(cfg.sessionTimeout)

	mux.GET(cfg.prefix+"/", redirectNewSession(cfg, cfg.prefix+path, sm))

	mux.GET(cfg.prefix+path+"/:sessionid", getIndexHandler(cfg, errs))

	mux.GET(cfg.prefix+path+"/:sessionid/ws", serveWSForManager(cfg, sm))

	mux.GET(cfg.prefix+path+"/:sessionid/qr", qrHandler(sm))

	return sm
}
