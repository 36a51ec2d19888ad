package clip

import "strconv"

// Code classifies a parsed line. Values 1 to 19 are the numeric CLIP codes
// sent by FIBS; higher values identify free-text messages.
type Code int

// CLIP codes.
const (
	Welcome          Code = 1
	OwnInfo          Code = 2
	MOTDStart        Code = 3
	MOTDEnd          Code = 4
	WhoInfo          Code = 5
	WhoInfoEnd       Code = 6
	Login            Code = 7
	Logout           Code = 8
	Message          Code = 9
	MessageDelivered Code = 10
	MessageSaved     Code = 11
	Says             Code = 12
	Shouts           Code = 13
	Whispers         Code = 14
	Kibitzes         Code = 15
	YouSay           Code = 16
	YouShout         Code = 17
	YouWhisper       Code = 18
	YouKibitz        Code = 19
)

// Free-text message codes.
const (
	Board Code = 100 + iota
	BadBoard
	Rolls
	Moves
	CannotMove
	Turn
	PleaseMove
	StartGame
	Doubles
	AcceptsDouble
	Resigns
	RejectsResign
	AcceptsResign
	GivesUp
	WinGame
	StartMatch
	ResumeMatch
	WatchStartMatch
	WatchResumeMatch
	WinMatch
	ScoreUpdate
	LeftGame
	Invitation
	ResumeInvitation
	TypeJoin
	ShowToggle
	ShowSetting
	SettingChanged
	SettingsHeader
	TogglesHeader
	ShowSaved
	ShowSavedNone
	ShowAddress
	Watching
	StopWatching
	Error
	ErrorNoUser
	ErrorNoEmail
	UnknownCommand
	NotInvited
)

var codeNames = map[Code]string{
	Welcome:          "welcome",
	OwnInfo:          "own_info",
	MOTDStart:        "motd_start",
	MOTDEnd:          "motd_end",
	WhoInfo:          "who_info",
	WhoInfoEnd:       "who_info_end",
	Login:            "login",
	Logout:           "logout",
	Message:          "message",
	MessageDelivered: "message_delivered",
	MessageSaved:     "message_saved",
	Says:             "says",
	Shouts:           "shouts",
	Whispers:         "whispers",
	Kibitzes:         "kibitzes",
	YouSay:           "you_say",
	YouShout:         "you_shout",
	YouWhisper:       "you_whisper",
	YouKibitz:        "you_kibitz",

	Board:            "board",
	BadBoard:         "bad_board",
	Rolls:            "rolls",
	Moves:            "moves",
	CannotMove:       "cannot_move",
	Turn:             "turn",
	PleaseMove:       "please_move",
	StartGame:        "start_game",
	Doubles:          "doubles",
	AcceptsDouble:    "accepts_double",
	Resigns:          "resigns",
	RejectsResign:    "rejects_resign",
	AcceptsResign:    "accepts_resign",
	GivesUp:          "gives_up",
	WinGame:          "win_game",
	StartMatch:       "start_match",
	ResumeMatch:      "resume_match",
	WatchStartMatch:  "watch_start_match",
	WatchResumeMatch: "watch_resume_match",
	WinMatch:         "win_match",
	ScoreUpdate:      "score_update",
	LeftGame:         "left_game",
	Invitation:       "invitation",
	ResumeInvitation: "resume_invitation",
	TypeJoin:         "type_join",
	ShowToggle:       "show_toggle",
	ShowSetting:      "show_setting",
	SettingChanged:   "setting_changed",
	SettingsHeader:   "settings_header",
	TogglesHeader:    "toggles_header",
	ShowSaved:        "show_saved",
	ShowSavedNone:    "show_saved_none",
	ShowAddress:      "show_address",
	Watching:         "watching",
	StopWatching:     "stop_watching",
	Error:            "error",
	ErrorNoUser:      "error_no_user",
	ErrorNoEmail:     "error_no_email",
	UnknownCommand:   "unknown_command",
	NotInvited:       "not_invited",
}

// String returns the snake case name of the code.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "code(" + strconv.Itoa(int(c)) + ")"
}

// IsCLIP reports whether c is one of the numeric CLIP codes.
func (c Code) IsCLIP() bool {
	return c >= Welcome && c <= YouKibitz
}
