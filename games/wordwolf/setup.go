package wordwolf

import (
	"strings"
	"unicode/utf8"
)

// Setup is the raw content of the setup form.
type Setup struct {
	Theme     string   `json:"theme"`
	TimeLimit int      `json:"time_limit"` // minutes
	Nicknames []string `json:"nicknames"`
}

// normalize trims every field, drops blank nicknames and validates the
// result. The returned error is always a *UserError.
func (s Setup) normalize() (Setup, error) {
	theme := strings.TrimSpace(s.Theme)

	nicknames := make([]string, 0, len(s.Nicknames))
	for _, n := range s.Nicknames {
		if n = strings.TrimSpace(n); n != "" {
			nicknames = append(nicknames, n)
		}
	}

	switch {
	case theme == "":
		return Setup{}, userError(MsgThemeRequired)
	case utf8.RuneCountInString(theme) > MaxThemeLength:
		return Setup{}, userError(MsgThemeTooLong)
	case len(nicknames) < MinPlayers:
		return Setup{}, userError(MsgTooFewPlayers)
	case len(nicknames) > MaxPlayers:
		return Setup{}, userError(MsgTooManyPlayers)
	}

	seen := make(map[string]struct{}, len(nicknames))
	for _, n := range nicknames {
		if _, dup := seen[n]; dup {
			return Setup{}, userError(MsgDuplicateNickname)
		}
		seen[n] = struct{}{}
	}

	for _, n := range nicknames {
		if utf8.RuneCountInString(n) > MaxNicknameLength {
			return Setup{}, userError(MsgNicknameTooLong)
		}
	}

	if s.TimeLimit <= 0 {
		return Setup{}, userError(MsgTimeLimitRequired)
	}

	return Setup{
		Theme:     theme,
		TimeLimit: s.TimeLimit,
		Nicknames: nicknames,
	}, nil
}
