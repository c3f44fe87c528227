package wordwolf

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Seednode/wordwolf/words"
)

var (
	ErrWrongPhase      = errors.New("action not allowed in the current phase")
	ErrStartInProgress = errors.New("a game is already being started")
	ErrInvalidVote     = errors.New("vote target out of range")
)

// WordSource supplies the word pair for a theme.
type WordSource interface {
	Supply(ctx context.Context, theme string) (words.Pair, error)
}

// Controller owns one game. Apart from StartGame's double-submit guard it is
// not safe for concurrent use: drive it from a single goroutine.
type Controller struct {
	state  State
	source WordSource

	nicknames NicknameStore
	prefill   []string

	rng       *rand.Rand
	newTicker func(time.Duration) Ticker
	ticker    Ticker

	lang    language.Tag
	printer *message.Printer
	logf    func(format string, args ...any)

	starting atomic.Bool
}

type Option func(*Controller)

// WithRand sets the random source used to pick the wolf.
func WithRand(r *rand.Rand) Option {
	return func(c *Controller) {
		c.rng = r
	}
}

// WithTicker replaces the countdown ticker factory.
func WithTicker(newTicker func(time.Duration) Ticker) Option {
	return func(c *Controller) {
		if newTicker != nil {
			c.newTicker = newTicker
		}
	}
}

func WithNicknameStore(s NicknameStore) Option {
	return func(c *Controller) {
		if s != nil {
			c.nicknames = s
		}
	}
}

func WithLanguage(tag language.Tag) Option {
	return func(c *Controller) {
		c.lang = tag
	}
}

func WithLogger(logf func(format string, args ...any)) Option {
	return func(c *Controller) {
		if logf != nil {
			c.logf = logf
		}
	}
}

// New returns a controller on the setup screen.
func New(source WordSource, opts ...Option) *Controller {
	c := &Controller{
		state:     emptyState(),
		source:    source,
		nicknames: &MemoryNicknames{},
		newTicker: NewClockTicker,
		lang:      language.Japanese,
		logf:      func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.printer = message.NewPrinter(c.lang)
	c.loadPrefill()

	return c
}

// State returns a copy of the current game state.
func (c *Controller) State() State {
	return c.state.clone()
}

func (c *Controller) Phase() Phase {
	return c.state.Phase
}

// Message renders err for the players in the controller's language.
func (c *Controller) Message(err error) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return c.printer.Sprintf(ue.Key)
	}
	return c.printer.Sprintf(MsgUnexpected)
}

// StartGame validates the setup form, fetches a word pair and assigns the
// wolf. Invalid input and fetch failures leave the game on the setup screen
// and return a *UserError.
func (c *Controller) StartGame(ctx context.Context, setup Setup) error {
	if !c.starting.CompareAndSwap(false, true) {
		return ErrStartInProgress
	}
	defer c.starting.Store(false)

	if err := c.expect(PhaseSetup); err != nil {
		return err
	}

	cfg, err := setup.normalize()
	if err != nil {
		return err
	}

	if err := c.nicknames.Save(cfg.Nicknames); err != nil {
		c.logf("GAMES: Saving nicknames failed: %v", err)
	}
	c.prefill = slices.Clone(cfg.Nicknames)

	pair, err := c.source.Supply(ctx, cfg.Theme)
	if err == nil {
		err = pair.Validate()
	}
	if err != nil {
		c.logf("GAMES: Word pair for %q unavailable: %v", cfg.Theme, err)
		return &UserError{Key: MsgWordFetchFailed, Err: err}
	}

	c.state = emptyState()
	c.state.Theme = cfg.Theme
	c.state.Players = cfg.Nicknames
	c.state.TimeLimit = cfg.TimeLimit
	c.state.WordPair = pair
	c.state.WolfIndex = c.intN(len(cfg.Nicknames))
	c.state.InitialTime = cfg.TimeLimit * 60
	c.state.Phase = PhaseMemorizeConfirm

	return nil
}

// ConfirmIdentity reveals the current player's word once they have
// confirmed they are the one holding the device.
func (c *Controller) ConfirmIdentity() error {
	if err := c.expect(PhaseMemorizeConfirm); err != nil {
		return err
	}
	c.state.Phase = PhaseMemorizeReveal
	return nil
}

// NextPlayer hides the word and moves on to the next player, or to the
// discussion after the last one.
func (c *Controller) NextPlayer() error {
	if err := c.expect(PhaseMemorizeReveal); err != nil {
		return err
	}

	c.state.CurrentMemorizeIndex++
	if c.state.CurrentMemorizeIndex >= len(c.state.Players) {
		c.startDiscussion()
		return nil
	}

	c.state.Phase = PhaseMemorizeConfirm
	return nil
}

// SelectVote marks players[i] as the suspected wolf, replacing any earlier pick.
func (c *Controller) SelectVote(i int) error {
	if err := c.expect(PhaseVoting); err != nil {
		return err
	}
	if i < 0 || i >= len(c.state.Players) {
		return fmt.Errorf("%w: %d", ErrInvalidVote, i)
	}
	c.state.SelectedVotePlayer = i
	return nil
}

// SubmitVote closes the vote and reports whether the citizens won.
func (c *Controller) SubmitVote() (bool, error) {
	if err := c.expect(PhaseVoting); err != nil {
		return false, err
	}
	if c.state.SelectedVotePlayer == NoSelection {
		return false, userError(MsgNoVoteSelected)
	}

	c.state.CitizensWon = c.state.SelectedVotePlayer == c.state.WolfIndex
	c.state.Phase = PhaseResult

	return c.state.CitizensWon, nil
}

// Reset discards the game and returns to setup.
func (c *Controller) Reset() {
	c.stopTicker()
	c.state = emptyState()
	c.loadPrefill()
}

// Close releases the countdown ticker.
func (c *Controller) Close() {
	c.stopTicker()
}

// RestoreNicknames re-reads the nickname store for the setup form.
func (c *Controller) RestoreNicknames() {
	c.loadPrefill()
}

func (c *Controller) loadPrefill() {
	names, err := c.nicknames.Load()
	if err != nil {
		c.logf("GAMES: Loading nicknames failed: %v", err)
		return
	}
	c.prefill = names
}

func (c *Controller) enterVoting() {
	c.stopTicker()
	c.state.TimerRunning = false
	c.state.SelectedVotePlayer = NoSelection
	c.state.Phase = PhaseVoting
}

func (c *Controller) expect(p Phase) error {
	if c.state.Phase != p {
		return fmt.Errorf("%w: in %s, need %s", ErrWrongPhase, c.state.Phase, p)
	}
	return nil
}

func (c *Controller) intN(n int) int {
	if c.rng != nil {
		return c.rng.IntN(n)
	}
	return rand.IntN(n)
}
