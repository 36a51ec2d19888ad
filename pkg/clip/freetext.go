package clip

import "strings"

// toggles lists the FIBS toggles printed by "toggle" as "KEY YES|NO".
var toggles = map[string]bool{
	"allowpip":   true,
	"autoboard":  true,
	"autodouble": true,
	"automove":   true,
	"away":       true,
	"bell":       true,
	"crawford":   true,
	"double":     true,
	"greedy":     true,
	"moreboards": true,
	"moves":      true,
	"notify":     true,
	"ratings":    true,
	"ready":      true,
	"report":     true,
	"silent":     true,
	"telnet":     true,
	"wrap":       true,
}

// variables lists the FIBS variables printed by "set" as "KEY: VALUE".
var variables = map[string]bool{
	"boardstyle": true,
	"linelength": true,
	"pagelength": true,
	"redoubles":  true,
	"sortwho":    true,
	"timezone":   true,
}

// you is the name FIBS uses for the receiving player.
const you = "You"

// parseFirstWord tries the message shapes that start with a keyword.
func parseFirstWord(line string, w []string) *Tokens {
	first := w[0]
	if c := first[0]; c >= 'a' && c <= 'z' && len(w) == 2 {
		if t := parseToggle(w); t != nil {
			return t
		}
		if t := parseVariable(w); t != nil {
			return t
		}
	}

	switch first[0] {
	case 'b':
		if strings.HasPrefix(first, "board:") {
			return parseBoard(line)
		}
	case 'Y':
		return parseYou(w)
	case 't':
		if len(w) == 2 && first == "turn:" {
			return nameMessage(Turn, w[1])
		}
	case 'P':
		if len(w) == 4 && literals(w, 0, "Please", "move") && (w[3] == "piece." || w[3] == "pieces.") {
			if n, ok := extractUint(w[2], 1, 4); ok {
				t := newTokens(PleaseMove, 1)
				t.add(uintToken(n))
				return t
			}
		}
	case 'S':
		if len(w) == 6 && literals(w, 0, "Starting", "a", "new", "game", "with") {
			return nameMessage(StartGame, w[5])
		}
		if len(w) == 3 && literals(w, 0, "Settings", "of", "variables:") {
			return newTokens(SettingsHeader, 0)
		}
	case 'T':
		if len(w) == 5 && w[1] == "'join" && literals(w, 3, "to", "accept.") && strings.HasSuffix(w[2], "'") {
			return nameMessage(TypeJoin, strings.TrimSuffix(w[2], "'"))
		}
		if len(w) == 4 && literals(w, 0, "The", "current", "settings", "are:") {
			return newTokens(TogglesHeader, 0)
		}
	case '*':
		if first == "**" {
			return parseSystem(line, w)
		}
	case 's':
		return parseScoreUpdate(w)
	case 'n':
		if len(w) == 3 && literals(w, 0, "no", "saved", "games.") {
			return newTokens(ShowSavedNone, 0)
		}
	case 'V':
		if len(w) == 6 && literals(w, 0, "Value", "of") && literals(w, 3, "set", "to") {
			key, ok := extractQuoted(w[2])
			if !ok {
				return nil
			}
			t := newTokens(SettingChanged, 2)
			t.add(stringToken(key), stringToken(strings.TrimSuffix(w[5], ".")))
			return t
		}
	}
	return nil
}

// parseSecondWord tries the message shapes of the form "NAME verb ...".
func parseSecondWord(w []string) *Tokens {
	name, ok := extractName(w[0])
	if !ok {
		return nil
	}

	switch w[1][0] {
	case 'r':
		if w[1] == "rolls" {
			return parseRolls(name, w)
		}
		if len(w) == 2 && w[1] == "rejects." {
			return nameMessage(RejectsResign, name)
		}
	case 'm':
		if w[1] == "moves" {
			return parseMoves(name, w)
		}
	case 'c':
		if len(w) == 3 && literals(w, 1, "can't", "move.") {
			return nameMessage(CannotMove, name)
		}
	case 'd':
		if w[1] == "doubles." && (len(w) == 2 || literals(w, 2, "Type")) {
			return nameMessage(Doubles, name)
		}
	case 'a':
		if w[1] == "accepts" {
			return parseAccepts(name, w)
		}
		if w[1] == "and" {
			return parseWatchMatch(name, w)
		}
	case 'w':
		if w[1] == "wants" {
			return parseWants(name, w)
		}
		if w[1] == "wins" {
			return parseWins(name, w)
		}
	case 'g':
		if len(w) == 7 && literals(w, 1, "gives", "up.") && (w[4] == "wins" || w[4] == "win") {
			return parseGivesUp(name, w)
		}
	case 'h':
		if len(w) == 5 && literals(w, 1, "has", "left", "the", "game.") {
			return nameMessage(LeftGame, name)
		}
		if len(w) == 8 && literals(w, 1, "has", "joined", "you.", "Your", "running", "match", "was", "loaded.") {
			return nameMessage(ResumeMatch, name)
		}
	}
	return nil
}

// nameMessage builds a message whose only payload is a player name.
func nameMessage(code Code, s string) *Tokens {
	name, ok := extractName(s)
	if !ok {
		return nil
	}
	t := newTokens(code, 1)
	t.add(nameToken(name))
	return t
}

// nameCount builds a message carrying a name and a number in [1, hi].
func nameCount(code Code, name, count string, hi int64) *Tokens {
	n, ok := extractUint(strings.TrimSuffix(count, "."), 1, hi)
	if !ok {
		return nil
	}
	t := newTokens(code, 2)
	t.add(nameToken(name), uintToken(n))
	return t
}

func parseToggle(w []string) *Tokens {
	if !toggles[w[0]] {
		return nil
	}
	on, ok := extractYesNo(w[1])
	if !ok {
		return nil
	}
	t := newTokens(ShowToggle, 2)
	t.add(stringToken(w[0]), boolToken(on))
	return t
}

func parseVariable(w []string) *Tokens {
	key := strings.TrimSuffix(w[0], ":")
	if key == w[0] || !variables[key] {
		return nil
	}
	t := newTokens(ShowSetting, 2)
	t.add(stringToken(key), stringToken(w[1]))
	return t
}

// parseYou handles the messages describing the receiving player's actions.
func parseYou(w []string) *Tokens {
	switch {
	case len(w) == 5 && literals(w, 0, you, "roll") && w[3] == "and":
		return parseRolls(you, w)
	case len(w) == 3 && literals(w, 0, you, "can't", "move."):
		return nameMessage(CannotMove, you)
	case len(w) == 2 && literals(w, 0, you, "double."):
		return nameMessage(Doubles, you)
	case len(w) == 8 && literals(w, 0, you, "accept", "the", "double.", "The", "cube", "shows"):
		return nameCount(AcceptsDouble, you, w[7], maxCounter)
	case len(w) == 6 && literals(w, 0, you, "accept", "and", "win") && pointsWord(w[5]):
		return nameCount(AcceptsResign, you, w[4], maxPoints)
	case len(w) == 9 && literals(w, 0, you, "want", "to", "resign.") && literals(w, 5, "will", "win") && pointsWord(w[8]):
		return nameCount(Resigns, you, w[7], maxPoints)
	case len(w) == 5 && literals(w, 0, you, "reject.", "The", "game", "continues."):
		return nameMessage(RejectsResign, you)
	case len(w) == 7 && literals(w, 0, you, "give", "up.") && (w[4] == "wins" || w[4] == "win"):
		return parseGivesUp(you, w)
	case len(w) == 9 && literals(w, 0, you, "win", "the", "game", "and", "get") && pointsWord(w[7]):
		if w[8] != "Congratulations!" {
			return nil
		}
		return nameCount(WinGame, you, w[6], maxPoints)
	case len(w) == 4 && literals(w, 0, "You're", "now", "watching"):
		return nameMessage(Watching, w[3])
	case len(w) == 4 && literals(w, 0, you, "stop", "watching"):
		return nameMessage(StopWatching, w[3])
	case len(w) == 5 && literals(w, 0, "Your", "email", "address", "is"):
		addr, ok := extractQuoted(w[4])
		if !ok {
			return nil
		}
		t := newTokens(ShowAddress, 1)
		t.add(stringToken(addr))
		return t
	}
	return nil
}

// X rolls A and B.
func parseRolls(name string, w []string) *Tokens {
	if len(w) != 5 || w[3] != "and" || !strings.HasSuffix(w[4], ".") {
		return nil
	}
	d1, ok := extractUint(w[2], 1, 6)
	if !ok {
		return nil
	}
	d2, ok := extractUint(strings.TrimSuffix(w[4], "."), 1, 6)
	if !ok {
		return nil
	}
	t := newTokens(Rolls, 3)
	t.add(nameToken(name), uintToken(d1), uintToken(d2))
	return t
}

// X moves 13-11 24-23 .
//
// Points are emitted in the numbering of the board line. The bar is always
// emitted as 25 and borne off checkers as 0.
func parseMoves(name string, w []string) *Tokens {
	moves := w[2:]
	if len(moves) > 0 && moves[len(moves)-1] == "." {
		moves = moves[:len(moves)-1]
	} else if len(moves) > 0 && strings.HasSuffix(moves[len(moves)-1], ".") {
		moves = append([]string{}, moves...)
		moves[len(moves)-1] = strings.TrimSuffix(moves[len(moves)-1], ".")
	} else {
		return nil
	}
	if len(moves) < 1 || len(moves) > 4 {
		return nil
	}

	t := newTokens(Moves, 2+2*len(moves))
	t.add(nameToken(name), uintToken(int64(len(moves))))
	for _, m := range moves {
		sep := strings.IndexAny(m, "-/")
		if sep < 0 {
			return nil
		}
		from, ok := movePoint(m[:sep], "bar", 25)
		if !ok {
			return nil
		}
		to, ok := movePoint(m[sep+1:], "off", 0)
		if !ok {
			return nil
		}
		t.add(uintToken(from), uintToken(to))
	}
	return t
}

func movePoint(s, special string, value int64) (int64, bool) {
	if s == special {
		return value, true
	}
	return extractUint(s, 1, 24)
}

func parseAccepts(name string, w []string) *Tokens {
	switch {
	case len(w) == 8 && literals(w, 1, "accepts", "the", "double.", "The", "cube", "shows"):
		return nameCount(AcceptsDouble, name, w[7], maxCounter)
	case len(w) == 6 && literals(w, 1, "accepts", "and", "wins") && pointsWord(w[5]):
		return nameCount(AcceptsResign, name, w[4], maxPoints)
	}
	return nil
}

// X and Y start a N point match.
// X and Y are resuming their N-point match.
func parseWatchMatch(name string, w []string) *Tokens {
	if len(w) != 8 {
		return nil
	}
	other, ok := extractName(w[2])
	if !ok {
		return nil
	}

	var code Code
	var length string
	switch {
	case literals(w, 3, "start", "a") && literals(w, 6, "point", "match."):
		code, length = WatchStartMatch, w[5]
	case literals(w, 3, "are", "resuming", "their") && w[7] == "match.":
		code, length = WatchResumeMatch, strings.TrimSuffix(w[6], "-point")
		if w[6] == "unlimited" {
			length = "0"
		}
	default:
		return nil
	}

	n, ok := extractUint(length, 0, maxPoints)
	if !ok {
		return nil
	}
	t := newTokens(code, 3)
	t.add(nameToken(name), nameToken(other), uintToken(n))
	return t
}

func parseWants(name string, w []string) *Tokens {
	switch {
	case len(w) == 9 && literals(w, 1, "wants", "to", "resign.", "You", "will", "win") && pointsWord(w[8]):
		return nameCount(Resigns, name, w[7], maxPoints)
	case len(w) == 10 && literals(w, 1, "wants", "to", "play", "a") && literals(w, 6, "point", "match", "with", "you."):
		return nameCount(Invitation, name, w[5], maxPoints)
	case len(w) == 9 && literals(w, 1, "wants", "to", "play", "an", "unlimited", "match", "with", "you."):
		t := newTokens(Invitation, 2)
		t.add(nameToken(name), uintToken(0))
		return t
	case len(w) == 9 && literals(w, 1, "wants", "to", "resume", "a", "saved", "match", "with", "you."):
		return nameMessage(ResumeInvitation, name)
	}
	return nil
}

// X wins the game and gets N points. Sorry.
// X wins a M point match against Y N-n .
func parseWins(name string, w []string) *Tokens {
	if len(w) == 9 && literals(w, 1, "wins", "the", "game", "and", "gets") && pointsWord(w[7]) {
		if w[8] != "Sorry." {
			return nil
		}
		return nameCount(WinGame, name, w[6], maxPoints)
	}

	if !literals(w, 1, "wins", "a") || !literals(w, 4, "point", "match", "against") {
		return nil
	}
	var score string
	switch {
	case len(w) == 10 && w[9] == ".":
		score = w[8]
	case len(w) == 9 && strings.HasSuffix(w[8], "."):
		score = strings.TrimSuffix(w[8], ".")
	default:
		return nil
	}
	length, ok := extractUint(w[3], 1, maxPoints)
	if !ok {
		return nil
	}
	loser, ok := extractName(w[7])
	if !ok {
		return nil
	}
	dash := strings.IndexByte(score, '-')
	if dash < 0 {
		return nil
	}
	s1, ok := extractUint(score[:dash], 0, maxPoints)
	if !ok {
		return nil
	}
	s2, ok := extractUint(score[dash+1:], 0, maxPoints)
	if !ok {
		return nil
	}
	t := newTokens(WinMatch, 5)
	t.add(nameToken(name), uintToken(length), nameToken(loser), uintToken(s1), uintToken(s2))
	return t
}

// X gives up. Y wins N points.
func parseGivesUp(name string, w []string) *Tokens {
	if !pointsWord(w[6]) {
		return nil
	}
	winner, ok := extractName(w[3])
	if !ok {
		return nil
	}
	n, ok := extractUint(w[5], 1, maxPoints)
	if !ok {
		return nil
	}
	t := newTokens(GivesUp, 3)
	t.add(nameToken(name), nameToken(winner), uintToken(n))
	return t
}

// parseSystem handles the lines starting with "**".
func parseSystem(line string, w []string) *Tokens {
	switch {
	case len(w) == 11 && literals(w, 1, you, "are", "now", "playing", "a") && literals(w, 7, "point", "match", "with"):
		return startMatch(w[10], w[6])
	case len(w) == 10 && literals(w, 1, you, "are", "now", "playing", "an", "unlimited", "match", "with"):
		return startMatch(w[9], "0")
	case len(w) == 11 && w[1] == "Player" && literals(w, 3, "has", "joined", "you", "for", "a") && literals(w, 9, "point", "match."):
		return startMatch(w[2], w[8])
	case len(w) == 12 && literals(w, 1, you, "are", "now", "playing", "with") && literals(w, 7, "Your", "running", "match", "was", "loaded."):
		return nameMessage(ResumeMatch, w[6])
	case len(w) == 7 && literals(w, 1, "There", "is", "no", "one", "called"):
		return nameMessage(ErrorNoUser, w[6])
	case len(w) == 7 && literals(w, 2, "didn't", "specify", "an", "email", "address."):
		return nameMessage(ErrorNoEmail, w[1])
	case len(w) == 5 && literals(w, 2, "didn't", "invite", "you."):
		return nameMessage(NotInvited, w[1])
	case len(w) == 4 && literals(w, 1, "Unknown", "command:"):
		cmd, ok := extractQuoted(w[3])
		if !ok {
			return nil
		}
		t := newTokens(UnknownCommand, 1)
		t.add(stringToken(cmd))
		return t
	}
	if len(w) < 2 {
		return nil
	}
	t := newTokens(Error, 1)
	t.add(stringToken(rest(line, 1)))
	return t
}

func startMatch(opponent, length string) *Tokens {
	name, ok := extractName(opponent)
	if !ok {
		return nil
	}
	n, ok := extractUint(strings.TrimSuffix(length, "."), 0, maxPoints)
	if !ok {
		return nil
	}
	t := newTokens(StartMatch, 2)
	t.add(nameToken(name), uintToken(n))
	return t
}

// score in N point match: X-a Y-b
// score in unlimited match: X-a Y-b
func parseScoreUpdate(w []string) *Tokens {
	var length int64
	var scores []string
	switch {
	case len(w) == 7 && literals(w, 0, "score", "in") && literals(w, 3, "point", "match:"):
		n, ok := extractUint(w[2], 1, maxPoints)
		if !ok {
			return nil
		}
		length, scores = n, w[5:]
	case len(w) == 6 && literals(w, 0, "score", "in", "unlimited", "match:"):
		scores = w[4:]
	default:
		return nil
	}

	t := newTokens(ScoreUpdate, 5)
	t.add(uintToken(length))
	for _, s := range scores {
		dash := strings.LastIndexByte(s, '-')
		if dash <= 0 {
			return nil
		}
		name, ok := extractName(s[:dash])
		if !ok {
			return nil
		}
		score, ok := extractUint(s[dash+1:], 0, maxPoints)
		if !ok {
			return nil
		}
		t.add(nameToken(name), uintToken(score))
	}
	return t
}

// NAME LENGTH A - B, as printed by "show saved". A leading "*" or "**"
// marks opponents that are logged in.
func parseSaved(w []string) *Tokens {
	if w[3] != "-" {
		return nil
	}
	name, ok := extractName(strings.TrimLeft(w[0], "*"))
	if !ok {
		return nil
	}
	length, ok := extractUint(w[1], 0, maxPoints)
	if !ok {
		return nil
	}
	s1, ok := extractUint(w[2], 0, maxPoints)
	if !ok {
		return nil
	}
	s2, ok := extractUint(w[4], 0, maxPoints)
	if !ok {
		return nil
	}
	t := newTokens(ShowSaved, 4)
	t.add(nameToken(name), uintToken(length), uintToken(s1), uintToken(s2))
	return t
}
