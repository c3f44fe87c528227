package wordwolf

import "slices"

// View is everything a renderer needs for the current screen. Words only
// ever appear on the reveal screen of the player they belong to, and on the
// result screen.
type View struct {
	Phase Phase `json:"phase"`

	// Setup: nicknames to pre-fill the form with.
	Nicknames []string `json:"nicknames,omitempty"`

	// Memorize
	Player   string `json:"player,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
	Position int    `json:"position,omitempty"`
	Total    int    `json:"total,omitempty"`
	Counter  string `json:"counter,omitempty"`
	Word     string `json:"word,omitempty"`

	// Discussion
	Theme     string  `json:"theme,omitempty"`
	WolfCount int     `json:"wolfCount,omitempty"`
	Clock     string  `json:"clock,omitempty"`
	Progress  float64 `json:"progress"`
	Running   bool    `json:"running"`

	// Voting
	Players  []string `json:"players,omitempty"`
	Selected int      `json:"selected"`

	Result *Result `json:"result,omitempty"`
}

// Result is the reveal at the end of a game.
type Result struct {
	CitizensWon bool         `json:"citizensWon"`
	Title       string       `json:"title"`
	WinnerRole  string       `json:"winnerRole"`
	Players     []PlayerRole `json:"players"`
	CitizenWord string       `json:"citizenWord"`
	WolfWord    string       `json:"wolfWord"`
}

type PlayerRole struct {
	Name  string `json:"name"`
	Wolf  bool   `json:"wolf"`
	Label string `json:"label"`
}

// View renders the current screen.
func (c *Controller) View() View {
	s := c.state
	v := View{
		Phase:    s.Phase,
		Selected: NoSelection,
	}

	switch s.Phase {
	case PhaseSetup:
		v.Nicknames = slices.Clone(c.prefill)

	case PhaseMemorizeConfirm, PhaseMemorizeReveal:
		i := s.CurrentMemorizeIndex
		v.Player = s.Players[i]
		v.Position = i + 1
		v.Total = len(s.Players)
		v.Counter = c.printer.Sprintf(MsgMemorizeProgress, v.Position, v.Total)
		if s.Phase == PhaseMemorizeConfirm {
			v.Prompt = c.printer.Sprintf(MsgMemorizeConfirmFor, v.Player)
		} else {
			v.Word = s.WordFor(i)
		}

	case PhaseDiscussion:
		v.Theme = s.Theme
		v.WolfCount = 1
		v.Clock = FormatClock(s.RemainingTime)
		v.Progress = Progress(s.RemainingTime, s.InitialTime)
		v.Running = s.TimerRunning

	case PhaseVoting:
		v.Theme = s.Theme
		v.Players = slices.Clone(s.Players)
		v.Selected = s.SelectedVotePlayer

	case PhaseResult:
		r := c.result()
		v.Theme = s.Theme
		v.Result = &r
	}

	return v
}

// Result returns the outcome once the vote has been submitted.
func (c *Controller) Result() (Result, error) {
	if err := c.expect(PhaseResult); err != nil {
		return Result{}, err
	}
	return c.result(), nil
}

func (c *Controller) result() Result {
	s := c.state

	citizen := c.printer.Sprintf(MsgRoleCitizen)
	wolf := c.printer.Sprintf(MsgRoleWolf)

	r := Result{
		CitizensWon: s.CitizensWon,
		Players:     make([]PlayerRole, len(s.Players)),
		CitizenWord: s.WordPair.CitizenWord,
		WolfWord:    s.WordPair.WolfWord,
	}

	if s.CitizensWon {
		r.Title = c.printer.Sprintf(MsgCitizensWin)
		r.WinnerRole = citizen
	} else {
		r.Title = c.printer.Sprintf(MsgWolfWins)
		r.WinnerRole = wolf
	}

	for i, name := range s.Players {
		role := citizen
		if s.IsWolf(i) {
			role = wolf
		}
		r.Players[i] = PlayerRole{
			Name:  name,
			Wolf:  s.IsWolf(i),
			Label: c.printer.Sprintf(MsgPlayerWithRole, name, role),
		}
	}

	return r
}
