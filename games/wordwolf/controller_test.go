package wordwolf

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/Seednode/wordwolf/words"
)

var fruitPair = words.Pair{CitizenWord: "もも", WolfWord: "すもも"}

type fakeSource struct {
	mu     sync.Mutex
	pair   words.Pair
	err    error
	themes []string
	block  chan struct{}
}

func (f *fakeSource) Supply(ctx context.Context, theme string) (words.Pair, error) {
	f.mu.Lock()
	f.themes = append(f.themes, theme)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return words.Pair{}, ctx.Err()
		}
	}
	return f.pair, f.err
}

type fakeTicker struct {
	c       chan time.Time
	stopped bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }
func (f *fakeTicker) Stop()               { f.stopped = true }

type tickerFactory struct {
	made []*fakeTicker
}

func (tf *tickerFactory) New(time.Duration) Ticker {
	t := &fakeTicker{c: make(chan time.Time)}
	tf.made = append(tf.made, t)
	return t
}

func (tf *tickerFactory) active() int {
	n := 0
	for _, t := range tf.made {
		if !t.stopped {
			n++
		}
	}
	return n
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *fakeSource, *tickerFactory) {
	t.Helper()
	src := &fakeSource{pair: fruitPair}
	tf := &tickerFactory{}
	opts = append([]Option{
		WithTicker(tf.New),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	}, opts...)
	return New(src, opts...), src, tf
}

func validSetup() Setup {
	return Setup{
		Theme:     "果物",
		TimeLimit: 1,
		Nicknames: []string{"太郎", "花子", "次郎"},
	}
}

// memorizeAll walks every player through the confirm and reveal screens and
// returns the word each of them saw.
func memorizeAll(t *testing.T, c *Controller) []string {
	t.Helper()
	var seen []string
	for c.Phase() != PhaseDiscussion {
		require.Equal(t, PhaseMemorizeConfirm, c.Phase())
		assert.Empty(t, c.View().Word, "word must stay hidden until identity is confirmed")
		require.NoError(t, c.ConfirmIdentity())
		seen = append(seen, c.View().Word)
		require.NoError(t, c.NextPlayer())
	}
	return seen
}

func TestStartGame(t *testing.T) {
	t.Run("Valid setup enters memorize with a valid wolf", func(t *testing.T) {
		c, src, _ := newTestController(t)

		setup := Setup{
			Theme:     "  果物 ",
			TimeLimit: 3,
			Nicknames: []string{" 太郎 ", "", "花子", "   ", "次郎"},
		}
		require.NoError(t, c.StartGame(context.Background(), setup))

		s := c.State()
		assert.Equal(t, PhaseMemorizeConfirm, s.Phase)
		assert.Equal(t, "果物", s.Theme)
		assert.Equal(t, []string{"太郎", "花子", "次郎"}, s.Players)
		assert.Equal(t, 3, s.TimeLimit)
		assert.Equal(t, fruitPair, s.WordPair)
		assert.GreaterOrEqual(t, s.WolfIndex, 0)
		assert.Less(t, s.WolfIndex, len(s.Players))
		assert.Equal(t, 0, s.CurrentMemorizeIndex)
		assert.Equal(t, NoSelection, s.SelectedVotePlayer)
		assert.Equal(t, []string{"果物"}, src.themes, "theme is passed trimmed")
	})

	t.Run("Accepts twenty players", func(t *testing.T) {
		c, _, _ := newTestController(t)
		setup := validSetup()
		setup.Nicknames = nil
		for i := 1; i <= MaxPlayers; i++ {
			setup.Nicknames = append(setup.Nicknames, fmt.Sprintf("player%d", i))
		}
		require.NoError(t, c.StartGame(context.Background(), setup))
		assert.Len(t, c.State().Players, MaxPlayers)
	})

	t.Run("Persists nicknames for the next setup", func(t *testing.T) {
		store := &MemoryNicknames{}
		c, _, _ := newTestController(t, WithNicknameStore(store))

		require.NoError(t, c.StartGame(context.Background(), validSetup()))

		saved, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"太郎", "花子", "次郎"}, saved)

		c.Reset()
		assert.Equal(t, PhaseSetup, c.Phase())
		assert.Equal(t, saved, c.View().Nicknames)
	})

	t.Run("Fetch failure keeps the game in setup", func(t *testing.T) {
		c, src, _ := newTestController(t)
		src.err = errors.New("network down")

		before := c.State()
		err := c.StartGame(context.Background(), validSetup())
		require.Error(t, err)
		assert.True(t, IsUserError(err))
		assert.Equal(t, "単語の生成に失敗しました。もう一度お試しください", c.Message(err))
		assert.Equal(t, before, c.State())
	})

	t.Run("Unusable pair keeps the game in setup", func(t *testing.T) {
		c, src, _ := newTestController(t)
		src.pair = words.Pair{CitizenWord: "もも", WolfWord: "もも"}

		err := c.StartGame(context.Background(), validSetup())
		require.ErrorIs(t, err, words.ErrSameWords)
		assert.Equal(t, PhaseSetup, c.Phase())
	})

	t.Run("Rejects a second start while one is in flight", func(t *testing.T) {
		c, src, _ := newTestController(t)
		src.block = make(chan struct{})

		done := make(chan error, 1)
		go func() {
			done <- c.StartGame(context.Background(), validSetup())
		}()

		require.Eventually(t, func() bool {
			src.mu.Lock()
			defer src.mu.Unlock()
			return len(src.themes) == 1
		}, time.Second, 5*time.Millisecond)

		err := c.StartGame(context.Background(), validSetup())
		assert.ErrorIs(t, err, ErrStartInProgress)

		close(src.block)
		require.NoError(t, <-done)
		assert.Equal(t, PhaseMemorizeConfirm, c.Phase())

		err = c.StartGame(context.Background(), validSetup())
		assert.ErrorIs(t, err, ErrWrongPhase)
	})
}

func TestStartGameValidation(t *testing.T) {
	cases := []struct {
		name  string
		setup Setup
		key   string
		text  string
	}{
		{"Empty theme", Setup{Theme: "   ", TimeLimit: 1, Nicknames: []string{"a", "b", "c"}}, MsgThemeRequired, "お題を入力してください"},
		{"Theme too long", Setup{Theme: strings.Repeat("果", 21), TimeLimit: 1, Nicknames: []string{"a", "b", "c"}}, MsgThemeTooLong, "お題は20字以内です"},
		{"Too few players", Setup{Theme: "果物", TimeLimit: 1, Nicknames: []string{"a", " ", "b"}}, MsgTooFewPlayers, "プレイヤーは3人以上必要です"},
		{"Too many players", Setup{Theme: "果物", TimeLimit: 1, Nicknames: strings.Split("a b c d e f g h i j k l m n o p q r s t u", " ")}, MsgTooManyPlayers, "プレイヤーは20人以下です"},
		{"Duplicate nicknames", Setup{Theme: "果物", TimeLimit: 1, Nicknames: []string{"太郎", "花子", " 太郎"}}, MsgDuplicateNickname, "同じニックネームは使用できません"},
		{"Nickname too long", Setup{Theme: "果物", TimeLimit: 1, Nicknames: []string{"太郎", "花子", "じゅうういちもじのなまえ"}}, MsgNicknameTooLong, "ニックネームは10字以内です"},
		{"No time limit", Setup{Theme: "果物", TimeLimit: 0, Nicknames: []string{"a", "b", "c"}}, MsgTimeLimitRequired, "制限時間を選択してください"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &MemoryNicknames{}
			c, src, _ := newTestController(t, WithNicknameStore(store))
			before := c.State()

			err := c.StartGame(context.Background(), tc.setup)
			require.Error(t, err)

			var ue *UserError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, tc.key, ue.Key)
			assert.Equal(t, tc.text, c.Message(err))

			assert.Equal(t, before, c.State(), "state must not change")
			assert.Empty(t, src.themes, "no word fetch for invalid input")
			saved, _ := store.Load()
			assert.Empty(t, saved, "nicknames are only saved for valid setups")
		})
	}
}

func TestMemorizeSequence(t *testing.T) {
	c, _, tf := newTestController(t)
	require.NoError(t, c.StartGame(context.Background(), validSetup()))

	s := c.State()

	t.Run("Actions out of order are rejected", func(t *testing.T) {
		assert.ErrorIs(t, c.NextPlayer(), ErrWrongPhase)
		assert.ErrorIs(t, c.SelectVote(0), ErrWrongPhase)
		assert.ErrorIs(t, c.AddTime(), ErrWrongPhase)
		assert.False(t, c.Tick())
	})

	view := c.View()
	assert.Equal(t, "太郎", view.Player)
	assert.Equal(t, "太郎さんですか？", view.Prompt)
	assert.Equal(t, "プレイヤー 1 / 3", view.Counter)

	seen := memorizeAll(t, c)
	require.Len(t, seen, 3)

	for i, word := range seen {
		if i == s.WolfIndex {
			assert.Equal(t, fruitPair.WolfWord, word)
		} else {
			assert.Equal(t, fruitPair.CitizenWord, word)
		}
	}

	after := c.State()
	assert.Equal(t, s.WolfIndex, after.WolfIndex, "wolf is fixed for the game")
	assert.Equal(t, s.WordPair, after.WordPair)
	assert.Equal(t, 3, after.CurrentMemorizeIndex)

	assert.Equal(t, PhaseDiscussion, c.Phase())
	assert.Equal(t, 60, after.RemainingTime)
	assert.Equal(t, 60, after.InitialTime)
	assert.True(t, after.TimerRunning)
	assert.Equal(t, 1, tf.active())
	assert.NotNil(t, c.TickC())
}

func TestVoting(t *testing.T) {
	play := func(t *testing.T) *Controller {
		c, _, _ := newTestController(t)
		require.NoError(t, c.StartGame(context.Background(), validSetup()))
		memorizeAll(t, c)
		require.NoError(t, c.EndDiscussion())
		require.Equal(t, PhaseVoting, c.Phase())
		return c
	}

	t.Run("Submitting without a selection is rejected", func(t *testing.T) {
		c := play(t)
		_, err := c.SubmitVote()
		require.Error(t, err)
		assert.Equal(t, "誰かを選択してください", c.Message(err))
		assert.Equal(t, PhaseVoting, c.Phase())
	})

	t.Run("Selection is single and bounded", func(t *testing.T) {
		c := play(t)
		require.NoError(t, c.SelectVote(0))
		require.NoError(t, c.SelectVote(2))
		assert.Equal(t, 2, c.View().Selected)
		assert.ErrorIs(t, c.SelectVote(3), ErrInvalidVote)
		assert.ErrorIs(t, c.SelectVote(-1), ErrInvalidVote)
		assert.Equal(t, 2, c.State().SelectedVotePlayer)
	})

	t.Run("Voting for the wolf means the citizens win", func(t *testing.T) {
		c := play(t)
		wolf := c.State().WolfIndex
		require.NoError(t, c.SelectVote(wolf))

		won, err := c.SubmitVote()
		require.NoError(t, err)
		assert.True(t, won)

		r, err := c.Result()
		require.NoError(t, err)
		assert.True(t, r.CitizensWon)
		assert.Equal(t, "市民", r.WinnerRole)
		assert.Equal(t, fruitPair.CitizenWord, r.CitizenWord)
		assert.Equal(t, fruitPair.WolfWord, r.WolfWord)
		for i, p := range r.Players {
			assert.Equal(t, i == wolf, p.Wolf)
		}
		assert.Equal(t, c.State().Players[wolf]+"（ウルフ）", r.Players[wolf].Label)
	})

	t.Run("Voting for anyone else means the wolf wins", func(t *testing.T) {
		for target := 0; target < 3; target++ {
			c := play(t)
			if target == c.State().WolfIndex {
				continue
			}
			require.NoError(t, c.SelectVote(target))
			won, err := c.SubmitVote()
			require.NoError(t, err)
			assert.False(t, won)
			assert.Equal(t, "ウルフ", c.View().Result.WinnerRole)
		}
	})
}

func TestReset(t *testing.T) {
	c, _, tf := newTestController(t)
	require.NoError(t, c.StartGame(context.Background(), validSetup()))
	memorizeAll(t, c)
	require.Equal(t, 1, tf.active())

	c.Reset()

	assert.Equal(t, 0, tf.active(), "reset must stop the countdown")
	assert.Nil(t, c.TickC())
	assert.Equal(t, emptyState(), c.State())
	assert.False(t, c.Tick())

	require.NoError(t, c.StartGame(context.Background(), validSetup()))
	assert.Equal(t, PhaseMemorizeConfirm, c.Phase())
}

func TestWolfSelectionIsUniform(t *testing.T) {
	const (
		players = 5
		trials  = 5000
	)

	rng := rand.New(rand.NewPCG(42, 1337))
	setup := Setup{Theme: "果物", TimeLimit: 1, Nicknames: []string{"a", "b", "c", "d", "e"}}

	var counts [players]int
	for i := 0; i < trials; i++ {
		c := New(&fakeSource{pair: fruitPair}, WithRand(rng))
		require.NoError(t, c.StartGame(context.Background(), setup))
		counts[c.State().WolfIndex]++
	}

	expected := float64(trials) / players
	chi2 := 0.0
	for _, n := range counts {
		d := float64(n) - expected
		chi2 += d * d / expected
	}

	// Critical value for 4 degrees of freedom at p = 0.001.
	assert.Less(t, chi2, 18.467, "wolf counts %v are not uniform", counts)
}

func TestFruitScenario(t *testing.T) {
	c, _, tf := newTestController(t)
	require.NoError(t, c.StartGame(context.Background(), Setup{
		Theme:     "果物",
		TimeLimit: 1,
		Nicknames: []string{"太郎", "花子", "次郎"},
	}))
	memorizeAll(t, c)

	seconds := 0
	for c.Phase() == PhaseDiscussion && seconds <= 61 {
		c.Tick()
		seconds++
	}
	require.Equal(t, PhaseVoting, c.Phase())
	assert.LessOrEqual(t, seconds, 61)
	assert.Equal(t, 0, tf.active())

	require.NoError(t, c.SelectVote(c.State().WolfIndex))
	won, err := c.SubmitVote()
	require.NoError(t, err)
	assert.True(t, won)
	assert.Equal(t, "市民", c.View().Result.WinnerRole)
}

func TestEnglishMessages(t *testing.T) {
	c, _, _ := newTestController(t, WithLanguage(language.English))

	err := c.StartGame(context.Background(), Setup{TimeLimit: 1})
	assert.Equal(t, "Please enter a theme", c.Message(err))
	assert.Equal(t, "Something went wrong. Please try again", c.Message(errors.New("boom")))
}

func TestMatchLanguage(t *testing.T) {
	assert.Equal(t, language.English, MatchLanguage("en-US,en;q=0.9"))
	assert.Equal(t, language.Japanese, MatchLanguage("ja-JP"))
	assert.Equal(t, language.Japanese, MatchLanguage())
	assert.Equal(t, language.Japanese, MatchLanguage("not a tag!!"))
}
