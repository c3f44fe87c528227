package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/text/language"

	"github.com/Seednode/wordwolf/games/wordwolf"
)

// Messages coming from clients
type ClientMessage struct {
	Type      string   `json:"type"`                 // see the command constants below
	Theme     string   `json:"theme,omitempty"`      // start_game
	TimeLimit int      `json:"time_limit,omitempty"` // start_game, minutes
	Nicknames []string `json:"nicknames,omitempty"`  // hello, start_game
	Index     *int     `json:"index,omitempty"`      // select_vote
}

const (
	cmdHello           = "hello"
	cmdStartGame       = "start_game"
	cmdConfirmIdentity = "confirm_identity"
	cmdNextPlayer      = "next_player"
	cmdToggleTimer     = "toggle_timer"
	cmdAddTime         = "add_time"
	cmdEndDiscussion   = "end_discussion"
	cmdSelectVote      = "select_vote"
	cmdSubmitVote      = "submit_vote"
	cmdReset           = "reset"
)

// ViewMessage carries the screen to render.
type ViewMessage struct {
	Type string        `json:"type"` // "view"
	View wordwolf.View `json:"view"`
}

// ErrorMessage is sent only to the client whose command failed.
type ErrorMessage struct {
	Type    string `json:"type"`    // "error"
	Message string `json:"message"` // user-facing text
}

// StoreNicknamesMessage asks the browser to persist the player list.
type StoreNicknamesMessage struct {
	Type      string   `json:"type"` // "store_nicknames"
	Key       string   `json:"key"`  // localStorage key
	Nicknames []string `json:"nicknames"`
}

type Client struct {
	conn *websocket.Conn
	send chan any
}

type clientCommand struct {
	client *Client
	msg    ClientMessage
}

type startResult struct {
	client *Client
	err    error
}

// sessionNicknames is the controller's nickname store. The browser's local
// storage is the real store: hello seeds it, and every save is pushed back to
// the browser by the session loop.
type sessionNicknames struct {
	mu    sync.Mutex
	names []string
	dirty bool
}

func (n *sessionNicknames) Load() ([]string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]string(nil), n.names...), nil
}

func (n *sessionNicknames) Save(nicknames []string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.names = append([]string(nil), nicknames...)
	n.dirty = true

	return nil
}

func (n *sessionNicknames) seed(nicknames []string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(nicknames) > 0 {
		n.names = append([]string(nil), nicknames...)
	}
}

// flush returns the names saved since the last flush.
func (n *sessionNicknames) flush() ([]string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.dirty {
		return nil, false
	}
	n.dirty = false

	return append([]string(nil), n.names...), true
}

// Session runs one device's game. Every command and countdown tick is
// handled on the run goroutine, which is the only one touching the
// controller, apart from the word fetch started by start_game.
type Session struct {
	id        string
	ctrl      *wordwolf.Controller
	nicknames *sessionNicknames

	clients map[*Client]bool

	register  chan *Client
	unreg     chan *Client
	commands  chan clientCommand
	startDone chan startResult
	quit      chan struct{}
	closeOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.RWMutex
	lastActive time.Time

	// Touched only by run.
	starting bool
	view     wordwolf.View
}

func newSession(cfg *Config, id string, source wordwolf.WordSource, lang language.Tag) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		id:        id,
		nicknames: &sessionNicknames{},
		clients:   make(map[*Client]bool),
		register:  make(chan *Client),
		unreg:     make(chan *Client),
		commands:  make(chan clientCommand),
		startDone: make(chan startResult, 1),
		quit:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}

	s.ctrl = wordwolf.New(source,
		wordwolf.WithNicknameStore(s.nicknames),
		wordwolf.WithLanguage(lang),
		wordwolf.WithLogger(func(format string, args ...any) {
			logf(cfg, format, args...)
		}),
	)
	s.view = s.ctrl.View()
	s.touch()

	return s
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastActive
}

func (s *Session) run(cfg *Config) {
	defer s.shutdown()

	for {
		select {
		case c := <-s.register:
			s.touch()
			s.clients[c] = true
			s.deliver(c, ViewMessage{Type: "view", View: s.view})

		case c := <-s.unreg:
			s.touch()
			if _, ok := s.clients[c]; ok {
				delete(s.clients, c)
				close(c.send)
			}

		case cmd := <-s.commands:
			s.touch()
			s.handle(cfg, cmd)

		case res := <-s.startDone:
			s.starting = false
			if res.err != nil {
				logf(cfg, "GAMES: Session %s failed to start: %v", s.id, res.err)
				s.deliver(res.client, ErrorMessage{Type: "error", Message: s.ctrl.Message(res.err)})
			} else {
				logf(cfg, "GAMES: Session %s started with %d players", s.id, len(s.ctrl.State().Players))
			}
			s.flushNicknames()
			s.broadcastView()

		case <-s.ctrl.TickC():
			if s.ctrl.Tick() {
				s.broadcastView()
			}

		case <-s.quit:
			return
		}
	}
}

func (s *Session) handle(cfg *Config, cmd clientCommand) {
	// Until the word fetch returns, the fetching goroutine owns the
	// controller. A repeated start is still answered by the controller's
	// own guard, which touches nothing else.
	if s.starting && cmd.msg.Type != cmdStartGame {
		return
	}

	var err error

	switch cmd.msg.Type {
	case cmdHello:
		s.nicknames.seed(cmd.msg.Nicknames)
		if s.ctrl.Phase() == wordwolf.PhaseSetup {
			s.ctrl.RestoreNicknames()
		}

	case cmdStartGame:
		s.startGame(cfg, cmd)
		return

	case cmdConfirmIdentity:
		err = s.ctrl.ConfirmIdentity()
	case cmdNextPlayer:
		err = s.ctrl.NextPlayer()
	case cmdToggleTimer:
		err = s.ctrl.ToggleTimer()
	case cmdAddTime:
		err = s.ctrl.AddTime()
	case cmdEndDiscussion:
		err = s.ctrl.EndDiscussion()

	case cmdSelectVote:
		if cmd.msg.Index == nil {
			err = wordwolf.ErrInvalidVote
			break
		}
		err = s.ctrl.SelectVote(*cmd.msg.Index)

	case cmdSubmitVote:
		var citizensWon bool
		citizensWon, err = s.ctrl.SubmitVote()
		if err == nil {
			logf(cfg, "GAMES: Session %s finished, citizens won: %t", s.id, citizensWon)
		}

	case cmdReset:
		s.ctrl.Reset()

	default:
		// ignore unknown types
		return
	}

	if err != nil {
		logf(cfg, "GAMES: Session %s rejected %s: %v", s.id, cmd.msg.Type, err)
		s.deliver(cmd.client, ErrorMessage{Type: "error", Message: s.ctrl.Message(err)})
		return
	}

	s.broadcastView()
}

func (s *Session) startGame(cfg *Config, cmd clientCommand) {
	setup := wordwolf.Setup{
		Theme:     cmd.msg.Theme,
		TimeLimit: cmd.msg.TimeLimit,
		Nicknames: cmd.msg.Nicknames,
	}

	if s.starting {
		err := s.ctrl.StartGame(s.ctx, setup)
		s.deliver(cmd.client, ErrorMessage{Type: "error", Message: s.ctrl.Message(err)})
		return
	}

	s.starting = true

	go func() {
		ctx, cancel := context.WithTimeout(s.ctx, cfg.generateTimeout)
		defer cancel()

		s.startDone <- startResult{
			client: cmd.client,
			err:    s.ctrl.StartGame(ctx, setup),
		}
	}()
}

func (s *Session) flushNicknames() {
	names, ok := s.nicknames.flush()
	if !ok {
		return
	}

	for c := range s.clients {
		s.deliver(c, StoreNicknamesMessage{
			Type:      "store_nicknames",
			Key:       wordwolf.NicknameStorageKey,
			Nicknames: names,
		})
	}
}

func (s *Session) broadcastView() {
	s.view = s.ctrl.View()

	for c := range s.clients {
		s.deliver(c, ViewMessage{Type: "view", View: s.view})
	}
}

// deliver drops the message rather than stall the session on a slow client.
func (s *Session) deliver(c *Client, msg any) {
	if _, ok := s.clients[c]; !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
}

func (s *Session) shutdown() {
	s.cancel()
	s.ctrl.Close()

	for c := range s.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(s.clients, c)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const sessionCookieName = "wordwolf_id"

func sessionCookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// sessionID returns the device's session id, and true if it had to be minted.
func sessionID(r *http.Request) (string, bool) {
	if c, err := r.Cookie(sessionCookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String(), false
		}
	}

	return uuid.NewString(), true
}

func getOrSetSessionID(w http.ResponseWriter, r *http.Request) string {
	id, minted := sessionID(r)
	if minted {
		http.SetCookie(w, sessionCookie(id))
	}

	return id
}

// SessionManager holds one Session per device cookie.
type SessionManager struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	source      wordwolf.WordSource
	idleTimeout time.Duration
}

func newSessionManager(source wordwolf.WordSource, idleTimeout time.Duration) *SessionManager {
	sm := &SessionManager{
		sessions:    make(map[string]*Session),
		source:      source,
		idleTimeout: idleTimeout,
	}
	if idleTimeout > 0 {
		go sm.reaperLoop()
	}
	return sm
}

func (sm *SessionManager) getSession(cfg *Config, id string, lang language.Tag) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if s, ok := sm.sessions[id]; ok {
		return s
	}

	s := newSession(cfg, id, sm.source, lang)
	sm.sessions[id] = s
	go s.run(cfg)

	logf(cfg, "GAMES: Created session %s", id)

	return s
}

func (sm *SessionManager) count() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return len(sm.sessions)
}

// reap ends every session idle since before cutoff.
func (sm *SessionManager) reap(cutoff time.Time) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	reaped := 0
	for id, s := range sm.sessions {
		if s.idleSince().Before(cutoff) {
			delete(sm.sessions, id)
			s.close()
			reaped++
		}
	}

	return reaped
}

// reaperLoop periodically removes sessions that have been idle longer than idleTimeout.
func (sm *SessionManager) reaperLoop() {
	ticker := time.NewTicker(sm.idleTimeout / 2)
	for range ticker.C {
		sm.reap(time.Now().Add(-sm.idleTimeout))
	}
}

func (sm *SessionManager) closeAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for id, s := range sm.sessions {
		delete(sm.sessions, id)
		s.close()
	}
}

func serveSession(cfg *Config, sm *SessionManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		id, minted := sessionID(r)

		var header http.Header
		if minted {
			header = http.Header{"Set-Cookie": {sessionCookie(id).String()}}
		}

		conn, err := upgrader.Upgrade(w, r, header)
		if err != nil {
			logf(cfg, "SERVE: Websocket upgrade for %s failed: %v", realIP(r), err)
			return
		}

		lang := wordwolf.MatchLanguage(r.Header.Get("Accept-Language"))
		s := sm.getSession(cfg, id, lang)

		client := &Client{
			conn: conn,
			send: make(chan any, 16),
		}

		select {
		case s.register <- client:
		case <-s.quit:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(s)
	}
}

func (c *Client) readPump(s *Session) {
	defer func() {
		select {
		case s.unreg <- c:
		case <-s.quit:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		select {
		case s.commands <- clientCommand{client: c, msg: msg}:
		case <-s.quit:
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
