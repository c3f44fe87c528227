// Word Wolf
//
// Every player but one receives the same secret word; the wolf receives a
// similar but different one. Players discuss against a countdown without
// saying their word outright, then vote for who they think the wolf is.
//
// The game runs on one shared device that is passed around the table:
// - Setup: theme, time limit and 3-20 unique nicknames
// - Memorize: each player confirms their identity, then sees only their word
// - Discussion: a pausable countdown that can be extended a minute at a time
// - Voting: a single pick; citizens win iff they picked the wolf
// - Result: roles and both words are revealed
//
// This package holds the state machine only. Rendering is left to whatever
// observes Controller.View.
package wordwolf

import (
	"slices"

	"github.com/Seednode/wordwolf/words"
)

// Phase identifies the screen the game is on.
type Phase string

const (
	PhaseSetup           Phase = "setup"
	PhaseMemorizeConfirm Phase = "memorize_confirm" // "are you <player>?"
	PhaseMemorizeReveal  Phase = "memorize_reveal"  // the player's word
	PhaseDiscussion      Phase = "discussion"
	PhaseVoting          Phase = "voting"
	PhaseResult          Phase = "result"
)

const (
	MinPlayers        = 3
	MaxPlayers        = 20
	MaxThemeLength    = words.MaxThemeLength
	MaxNicknameLength = 10

	// AddTimeSeconds is how much one AddTime extends the discussion.
	AddTimeSeconds = 60

	// NoSelection marks that no vote has been cast yet.
	NoSelection = -1
)

// State is the complete state of one game.
type State struct {
	Phase Phase

	Theme     string
	Players   []string
	TimeLimit int // minutes

	WordPair  words.Pair
	WolfIndex int

	CurrentMemorizeIndex int
	SelectedVotePlayer   int

	RemainingTime int // seconds
	InitialTime   int // seconds
	TimerRunning  bool

	CitizensWon bool
}

func emptyState() State {
	return State{
		Phase:              PhaseSetup,
		WolfIndex:          -1,
		SelectedVotePlayer: NoSelection,
	}
}

func (s State) clone() State {
	s.Players = slices.Clone(s.Players)
	return s
}

// IsWolf reports whether players[i] is the wolf.
func (s State) IsWolf(i int) bool {
	return i == s.WolfIndex
}

// WordFor returns the word shown to players[i].
func (s State) WordFor(i int) string {
	if s.IsWolf(i) {
		return s.WordPair.WolfWord
	}
	return s.WordPair.CitizenWord
}
