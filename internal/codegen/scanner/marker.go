package scanner

import (
	"fmt"
	"regexp"
	"strings"
)

// MarkerKind tags a classified source line.
type MarkerKind int

const (
	MarkerOther MarkerKind = iota
	MarkerBegin
	MarkerData
	MarkerEnd
)

func (k MarkerKind) String() string {
	switch k {
	case MarkerBegin:
		return "begin"
	case MarkerData:
		return "data"
	case MarkerEnd:
		return "end"
	default:
		return "other"
	}
}

// Marker is the result of classifying one line.
type Marker struct {
	Kind MarkerKind
	// Args holds the trimmed top-level arguments between the parentheses.
	Args []string
	// Closed reports whether the argument list ended with ')' on the same line.
	Closed bool
}

// Tokens names the three marker macros.
type Tokens struct {
	Begin string `help:"Begin-block marker token" default:"VX_RF_DATA_BEGIN" env:"VXREFL_TOKEN_BEGIN"`
	Data  string `help:"Data member marker token" default:"VX_RF_DATA" env:"VXREFL_TOKEN_DATA"`
	End   string `help:"End-block marker token" default:"VX_RF_DATA_END" env:"VXREFL_TOKEN_END"`
}

// DefaultTokens returns the vxLib marker vocabulary.
func DefaultTokens() Tokens {
	return Tokens{
		Begin: "VX_RF_DATA_BEGIN",
		Data:  "VX_RF_DATA",
		End:   "VX_RF_DATA_END",
	}
}

// Matcher classifies lines against a marker vocabulary.
type Matcher struct {
	kinds  map[string]MarkerKind
	invoke *regexp.Regexp
	define *regexp.Regexp
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NewMatcher compiles the invocation and definition patterns for tokens.
func NewMatcher(tokens Tokens) (*Matcher, error) {
	names := []string{tokens.Begin, tokens.Data, tokens.End}
	kinds := make(map[string]MarkerKind, len(names))
	for i, name := range names {
		if !identPattern.MatchString(name) {
			return nil, fmt.Errorf("invalid marker token %q", name)
		}
		if _, dup := kinds[name]; dup {
			return nil, fmt.Errorf("duplicate marker token %q", name)
		}
		kinds[name] = MarkerKind(i + 1)
	}

	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = regexp.QuoteMeta(name)
	}
	alt := strings.Join(quoted, "|")

	return &Matcher{
		kinds: kinds,
		// \b on both sides keeps a token from matching inside a longer identifier.
		invoke: regexp.MustCompile(`\b(` + alt + `)\b\s*\(`),
		define: regexp.MustCompile(`^\s*#\s*define\s+(` + alt + `)\b`),
	}, nil
}

// Classify returns the marker found on line. Definition lines of the marker
// macros themselves are reported as MarkerOther.
func (m *Matcher) Classify(line string) Marker {
	if m.define.MatchString(line) {
		return Marker{Kind: MarkerOther}
	}
	loc := m.invoke.FindStringSubmatchIndex(line)
	if loc == nil {
		return Marker{Kind: MarkerOther}
	}
	kind := m.kinds[line[loc[2]:loc[3]]]
	args, closed := splitArgs(line[loc[1]:])
	return Marker{Kind: kind, Args: args, Closed: closed}
}

// splitArgs splits s, the text after an opening parenthesis, on top-level
// commas up to the matching closing parenthesis.
func splitArgs(s string) ([]string, bool) {
	var (
		args   []string
		cur    strings.Builder
		paren  int
		angle  int
		square int
		brace  int
	)
	for _, r := range s {
		switch r {
		case '(':
			paren++
		case ')':
			if paren == 0 {
				args = append(args, strings.TrimSpace(cur.String()))
				return args, true
			}
			paren--
		case '<':
			angle++
		case '>':
			if angle > 0 {
				angle--
			}
		case '[':
			square++
		case ']':
			if square > 0 {
				square--
			}
		case '{':
			brace++
		case '}':
			if brace > 0 {
				brace--
			}
		case ',':
			if paren == 0 && angle == 0 && square == 0 && brace == 0 {
				args = append(args, strings.TrimSpace(cur.String()))
				cur.Reset()
				continue
			}
		}
		cur.WriteRune(r)
	}
	args = append(args, strings.TrimSpace(cur.String()))
	return args, false
}
