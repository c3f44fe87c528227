package wordwolf

import (
	"errors"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Catalog keys for user-visible text.
const (
	MsgThemeRequired      = "setup.theme_required"
	MsgThemeTooLong       = "setup.theme_too_long"
	MsgTooFewPlayers      = "setup.too_few_players"
	MsgTooManyPlayers     = "setup.too_many_players"
	MsgDuplicateNickname  = "setup.duplicate_nickname"
	MsgNicknameTooLong    = "setup.nickname_too_long"
	MsgTimeLimitRequired  = "setup.time_limit_required"
	MsgWordFetchFailed    = "setup.word_fetch_failed"
	MsgNoVoteSelected     = "voting.no_selection"
	MsgUnexpected         = "error.unexpected"
	MsgRoleCitizen        = "role.citizen"
	MsgRoleWolf           = "role.wolf"
	MsgCitizensWin        = "result.citizens_win"
	MsgWolfWins           = "result.wolf_wins"
	MsgPlayerWithRole     = "result.player_with_role"
	MsgMemorizeProgress   = "memorize.progress"
	MsgMemorizeConfirmFor = "memorize.confirm_for"
)

var supportedLanguages = []language.Tag{
	language.Japanese,
	language.English,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

func init() {
	ja := language.Japanese
	message.SetString(ja, MsgThemeRequired, "お題を入力してください")
	message.SetString(ja, MsgThemeTooLong, "お題は20字以内です")
	message.SetString(ja, MsgTooFewPlayers, "プレイヤーは3人以上必要です")
	message.SetString(ja, MsgTooManyPlayers, "プレイヤーは20人以下です")
	message.SetString(ja, MsgDuplicateNickname, "同じニックネームは使用できません")
	message.SetString(ja, MsgNicknameTooLong, "ニックネームは10字以内です")
	message.SetString(ja, MsgTimeLimitRequired, "制限時間を選択してください")
	message.SetString(ja, MsgWordFetchFailed, "単語の生成に失敗しました。もう一度お試しください")
	message.SetString(ja, MsgNoVoteSelected, "誰かを選択してください")
	message.SetString(ja, MsgUnexpected, "エラーが発生しました。もう一度お試しください")
	message.SetString(ja, MsgRoleCitizen, "市民")
	message.SetString(ja, MsgRoleWolf, "ウルフ")
	message.SetString(ja, MsgCitizensWin, "🎉 市民の勝利！")
	message.SetString(ja, MsgWolfWins, "🐺 ウルフの勝利！")
	message.SetString(ja, MsgPlayerWithRole, "%s（%s）")
	message.SetString(ja, MsgMemorizeProgress, "プレイヤー %d / %d")
	message.SetString(ja, MsgMemorizeConfirmFor, "%sさんですか？")

	en := language.English
	message.SetString(en, MsgThemeRequired, "Please enter a theme")
	message.SetString(en, MsgThemeTooLong, "The theme must be 20 characters or fewer")
	message.SetString(en, MsgTooFewPlayers, "At least 3 players are required")
	message.SetString(en, MsgTooManyPlayers, "At most 20 players can play")
	message.SetString(en, MsgDuplicateNickname, "Nicknames must be unique")
	message.SetString(en, MsgNicknameTooLong, "Nicknames must be 10 characters or fewer")
	message.SetString(en, MsgTimeLimitRequired, "Please choose a time limit")
	message.SetString(en, MsgWordFetchFailed, "Could not get a word pair. Please try again")
	message.SetString(en, MsgNoVoteSelected, "Please choose someone")
	message.SetString(en, MsgUnexpected, "Something went wrong. Please try again")
	message.SetString(en, MsgRoleCitizen, "Citizen")
	message.SetString(en, MsgRoleWolf, "Wolf")
	message.SetString(en, MsgCitizensWin, "🎉 The citizens win!")
	message.SetString(en, MsgWolfWins, "🐺 The wolf wins!")
	message.SetString(en, MsgPlayerWithRole, "%s (%s)")
	message.SetString(en, MsgMemorizeProgress, "Player %d / %d")
	message.SetString(en, MsgMemorizeConfirmFor, "Are you %s?")
}

// MatchLanguage picks the closest supported language for the given
// Accept-Language style preferences. Japanese wins when nothing matches.
func MatchLanguage(prefs ...string) language.Tag {
	tags := make([]language.Tag, 0, len(prefs))
	for _, p := range prefs {
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}

	_, i, confidence := languageMatcher.Match(tags...)
	if confidence == language.No {
		return supportedLanguages[0]
	}
	return supportedLanguages[i]
}

// UserError is a failure meant to be shown to the players.
type UserError struct {
	Key string
	Err error
}

func (e *UserError) Error() string {
	msg := message.NewPrinter(language.Japanese).Sprintf(e.Key)
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *UserError) Unwrap() error {
	return e.Err
}

func userError(key string) error {
	return &UserError{Key: key}
}

// IsUserError reports whether err carries a message for the players.
func IsUserError(err error) bool {
	var ue *UserError
	return errors.As(err, &ue)
}
