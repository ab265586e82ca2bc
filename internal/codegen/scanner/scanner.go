package scanner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vxlib/vxrefl/internal/log"
)

const maxLineSize = 1 << 20

type phase int

const (
	phaseIdle phase = iota
	phaseCollecting
)

// scanState is the pending block. In phaseIdle the other fields are zero.
type scanState struct {
	phase     phase
	parent    string
	beginLine int
	members   []MemberRecord
}

func (s *scanState) open(parent string, line int) {
	*s = scanState{phase: phaseCollecting, parent: parent, beginLine: line, members: []MemberRecord{}}
}

func (s *scanState) close() {
	*s = scanState{}
}

// Scanner extracts TypeRecords from marker-annotated source text.
type Scanner struct {
	matcher *Matcher
	raw     log.RawLogger
}

// New creates a Scanner for tokens. raw may be nil.
func New(tokens Tokens, raw log.RawLogger) (*Scanner, error) {
	m, err := NewMatcher(tokens)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		raw = log.NewRaw(nil)
	}
	return &Scanner{matcher: m, raw: raw}, nil
}

// ScanFile opens path and scans it.
func (s *Scanner) ScanFile(path string) ([]TypeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return s.Scan(path, f)
}

// Scan reads r line by line and returns the TypeRecords in end-marker order.
// Scanning continues past diagnostics; the returned error joins every
// *Error found, so records may be non-empty even when err is not nil.
func (s *Scanner) Scan(path string, r io.Reader) ([]TypeRecord, error) {
	var (
		records []TypeRecord
		diags   []error
		state   scanState
		lineNo  int
	)
	report := func(line int, kind error, format string, args ...any) {
		diags = append(diags, &Error{Path: path, Line: line, Kind: kind, Msg: fmt.Sprintf(format, args...)})
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		lineNo++
		text := strings.TrimRight(sc.Text(), "\r")
		m := s.matcher.Classify(text)
		if m.Kind == MarkerOther {
			continue
		}
		s.raw.Log(path, lineNo, m.Kind.String(), text)

		if !m.Closed {
			report(lineNo, ErrMalformedRecord, "%s marker without closing parenthesis", m.Kind)
			continue
		}

		switch m.Kind {
		case MarkerBegin:
			name, ok := singleArg(m.Args)
			if !ok {
				report(lineNo, ErrMalformedRecord, "begin marker expects one type name, got %d argument(s)", countArgs(m.Args))
				continue
			}
			if state.phase == phaseCollecting {
				report(state.beginLine, ErrUnterminatedBlock, "block %s dropped by begin marker for %s at line %d", state.parent, name, lineNo)
			}
			state.open(name, lineNo)

		case MarkerData:
			if len(m.Args) != 3 || m.Args[0] == "" || m.Args[1] == "" || m.Args[2] == "" {
				report(lineNo, ErrMalformedRecord, "data marker expects (parent, type, member), got %q", strings.Join(m.Args, ", "))
				continue
			}
			if state.phase != phaseCollecting {
				report(lineNo, ErrStrayMember, "member %s of %s", m.Args[2], m.Args[0])
				continue
			}
			if m.Args[0] != state.parent {
				report(lineNo, ErrParentMismatch, "member %s declared for %s inside block %s", m.Args[2], m.Args[0], state.parent)
				continue
			}
			state.members = append(state.members, MemberRecord{
				Parent:    m.Args[0],
				ValueType: m.Args[1],
				Name:      m.Args[2],
				Line:      lineNo,
			})

		case MarkerEnd:
			name, ok := singleArg(m.Args)
			if !ok {
				report(lineNo, ErrMalformedRecord, "end marker expects one type name, got %d argument(s)", countArgs(m.Args))
				continue
			}
			if state.phase != phaseCollecting {
				report(lineNo, ErrDanglingEnd, "end marker for %s without begin marker", name)
				continue
			}
			if name != state.parent {
				report(lineNo, ErrParentMismatch, "end marker for %s closes block %s opened at line %d", name, state.parent, state.beginLine)
				state.close()
				continue
			}
			records = append(records, TypeRecord{
				Name:    name,
				Line:    lineNo,
				Members: state.members,
			})
			state.close()
		}
	}
	if err := sc.Err(); err != nil {
		return records, fmt.Errorf("read %s: %w", path, err)
	}

	if state.phase == phaseCollecting {
		report(state.beginLine, ErrUnterminatedBlock, "block %s has no end marker before end of file", state.parent)
	}

	return records, errors.Join(diags...)
}

func singleArg(args []string) (string, bool) {
	if len(args) != 1 || args[0] == "" {
		return "", false
	}
	return args[0], true
}

func countArgs(args []string) int {
	if len(args) == 1 && args[0] == "" {
		return 0
	}
	return len(args)
}
