package clip

import "strings"

// Parse classifies a single line received from FIBS. It returns false when
// the line matches none of the known shapes; such lines should be passed
// through as plain text.
func Parse(line string) (*Tokens, bool) {
	line = strings.TrimSpace(line)
	words := strings.Fields(line)
	if len(words) == 0 {
		return nil, false
	}

	if code, ok := clipCode(words[0]); ok {
		if t := parseCLIP(code, line, words); t != nil {
			return t, true
		}
	}

	if t := parseFirstWord(line, words); t != nil {
		return t, true
	}
	if len(words) > 1 {
		if t := parseSecondWord(words); t != nil {
			return t, true
		}
	}
	if len(words) == 5 {
		if t := parseSaved(words); t != nil {
			return t, true
		}
	}
	return nil, false
}

// clipCode recognizes a leading token of one or two digits between 1 and 19.
func clipCode(word string) (Code, bool) {
	if len(word) > 2 {
		return 0, false
	}
	v, ok := extractUint(word, int64(Welcome), int64(YouKibitz))
	return Code(v), ok
}

// parseCLIP decodes the fixed layouts of the numeric CLIP messages.
func parseCLIP(code Code, line string, w []string) *Tokens {
	switch code {
	case Welcome:
		return parseWelcome(w)
	case OwnInfo:
		return parseOwnInfo(w)
	case WhoInfo:
		return parseWhoInfo(w)
	case MOTDStart, MOTDEnd, WhoInfoEnd:
		if len(w) != 1 {
			return nil
		}
		return newTokens(code, 0)
	case Login, Logout, Says, Shouts, Whispers, Kibitzes, YouSay:
		if len(w) < 3 {
			return nil
		}
		name, ok := extractName(w[1])
		if !ok {
			return nil
		}
		t := newTokens(code, 2)
		t.add(nameToken(name), stringToken(rest(line, 2)))
		return t
	case Message:
		if len(w) < 4 {
			return nil
		}
		name, ok := extractName(w[1])
		if !ok {
			return nil
		}
		ts, ok := extractUint(w[2], 0, maxTimestamp)
		if !ok {
			return nil
		}
		t := newTokens(code, 3)
		t.add(nameToken(name), timestampToken(ts), stringToken(rest(line, 3)))
		return t
	case MessageDelivered, MessageSaved:
		if len(w) != 2 {
			return nil
		}
		name, ok := extractName(w[1])
		if !ok {
			return nil
		}
		t := newTokens(code, 1)
		t.add(nameToken(name))
		return t
	case YouShout, YouWhisper, YouKibitz:
		if len(w) < 2 {
			return nil
		}
		t := newTokens(code, 1)
		t.add(stringToken(rest(line, 1)))
		return t
	}
	return nil
}

// 1 name login-time hostname
func parseWelcome(w []string) *Tokens {
	if len(w) != 4 {
		return nil
	}
	name, ok := extractName(w[1])
	if !ok {
		return nil
	}
	ts, ok := extractUint(w[2], 0, maxTimestamp)
	if !ok {
		return nil
	}
	t := newTokens(Welcome, 3)
	t.add(nameToken(name), timestampToken(ts), stringToken(w[3]))
	return t
}

// 2 name allowpip autoboard autodouble automove away bell crawford double
// experience greedy moreboards moves notify rating ratings ready redoubles
// report silent timezone
func parseOwnInfo(w []string) *Tokens {
	if len(w) != 22 {
		return nil
	}
	name, ok := extractName(w[1])
	if !ok {
		return nil
	}
	t := newTokens(OwnInfo, 21)
	t.add(nameToken(name))

	flag := func(i int) bool {
		b, ok := extractBool(w[i])
		if ok {
			t.add(boolToken(b))
		}
		return ok
	}
	for i := 2; i <= 9; i++ {
		if !flag(i) {
			return nil
		}
	}
	experience, ok := extractUint(w[10], 0, maxCounter)
	if !ok {
		return nil
	}
	t.add(uintToken(experience))
	for i := 11; i <= 14; i++ {
		if !flag(i) {
			return nil
		}
	}
	rating, ok := extractDouble(w[15], 0, 1e6)
	if !ok {
		return nil
	}
	t.add(doubleToken(rating))
	if !flag(16) || !flag(17) {
		return nil
	}
	redoubles := int64(-1)
	if w[18] != "unlimited" {
		if redoubles, ok = extractUint(w[18], 0, maxPoints); !ok {
			return nil
		}
	}
	t.add(intToken(redoubles))
	if !flag(19) || !flag(20) {
		return nil
	}
	t.add(stringToken(w[21]))
	return t
}

// 5 name opponent watching ready away rating experience idle login
// hostname client email
func parseWhoInfo(w []string) *Tokens {
	if len(w) != 13 {
		return nil
	}
	name, ok := extractName(w[1])
	if !ok {
		return nil
	}
	t := newTokens(WhoInfo, 12)
	t.add(nameToken(name), nameToken(dashNone(w[2])), nameToken(dashNone(w[3])))

	for i := 4; i <= 5; i++ {
		b, ok := extractBool(w[i])
		if !ok {
			return nil
		}
		t.add(boolToken(b))
	}
	rating, ok := extractDouble(w[6], 0, 1e6)
	if !ok {
		return nil
	}
	experience, ok := extractUint(w[7], 0, maxCounter)
	if !ok {
		return nil
	}
	idle, ok := extractUint(w[8], 0, maxTimestamp)
	if !ok {
		return nil
	}
	login, ok := extractUint(w[9], 0, maxTimestamp)
	if !ok {
		return nil
	}
	t.add(doubleToken(rating), uintToken(experience), uintToken(idle), timestampToken(login))
	t.add(stringToken(dashNone(w[10])), stringToken(dashNone(w[11])), stringToken(dashNone(w[12])))
	return t
}

// dashNone maps the "-" placeholder FIBS uses for missing values to "".
func dashNone(s string) string {
	if s == "-" {
		return ""
	}
	return s
}
