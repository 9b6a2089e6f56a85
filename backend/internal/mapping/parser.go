package mapping

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrFormat is matched by every FormatError.
var ErrFormat = errors.New("mapping format error")

// FormatError describes a malformed mapping record.
type FormatError struct {
	Record string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("mapping format error: %s: %q", e.Reason, abbreviate(e.Record))
}

// Is allows errors.Is(err, ErrFormat).
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func abbreviate(s string) string {
	const max = 64
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// Parse reads a single mapping record:
//
//	guid,name,target:source,target:source,...
//
// Sources are aN (axis N), bN (button N) or hH.P (hat H at position code P).
// Target names outside the known vocabulary give an Unmapped item and are not
// an error.
func Parse(record string) (*Configuration, error) {
	record = strings.TrimSpace(record)

	fields := strings.Split(record, ",")
	if len(fields) < 3 {
		return nil, &FormatError{Record: record, Reason: fmt.Sprintf("want at least 3 fields, got %d", len(fields))}
	}

	guid, err := ParseGUID(normalizeGUIDText(fields[0]))
	if err != nil {
		return nil, &FormatError{Record: record, Reason: err.Error()}
	}

	cfg := &Configuration{
		GUID: guid,
		Name: fields[1],
	}

	for _, tok := range fields[2:] {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}

		name, text, ok := strings.Cut(tok, ":")
		if !ok {
			return nil, &FormatError{Record: record, Reason: fmt.Sprintf("token %q has no ':'", tok)}
		}

		target := targetFromName(name)
		src, err := parseSource(text)
		if err != nil {
			if _, unmapped := target.(Unmapped); !unmapped {
				return nil, &FormatError{Record: record, Reason: fmt.Sprintf("%s: %v", name, err)}
			}
			src = NoSource{Text: text}
		}

		cfg.Items = append(cfg.Items, Item{Source: src, Target: target})
	}

	return cfg, nil
}

func parseSource(spec string) (Source, error) {
	if len(spec) < 2 {
		return nil, fmt.Errorf("source %q too short", spec)
	}

	switch spec[0] {
	case 'a':
		n, err := parseIndex(spec[1:])
		if err != nil {
			return nil, err
		}
		return AxisSource{Index: n}, nil

	case 'b':
		n, err := parseIndex(spec[1:])
		if err != nil {
			return nil, err
		}
		return ButtonSource{Index: n}, nil

	case 'h':
		hat, pos, ok := strings.Cut(spec[1:], ".")
		if !ok || len(hat) != 1 {
			return nil, fmt.Errorf("hat source %q is not h<digit>.<digits>", spec)
		}
		h, err := parseIndex(hat)
		if err != nil {
			return nil, err
		}
		code, err := parseIndex(pos)
		if err != nil {
			return nil, err
		}
		return HatSource{Hat: h, Code: code}, nil
	}

	return nil, fmt.Errorf("unknown source %q", spec)
}

// parseIndex accepts decimal digits only. strconv.Atoi on its own would also
// accept a sign.
func parseIndex(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("missing index")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("index %q is not a number", s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("index %q: %v", s, err)
	}
	return n, nil
}

// platformOf returns the value of the platform field of a record, if it has
// one.
func platformOf(record string) (string, bool) {
	fields := strings.Split(record, ",")
	if len(fields) < 3 {
		return "", false
	}
	for _, tok := range fields[2:] {
		name, v, ok := strings.Cut(strings.TrimSpace(tok), ":")
		if ok && name == "platform" {
			return v, true
		}
	}
	return "", false
}
