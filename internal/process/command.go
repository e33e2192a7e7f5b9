package process

import (
	"errors"
	"strings"
)

// ErrUnclosedQuote is returned by SplitArgs for unbalanced quotes.
var ErrUnclosedQuote = errors.New("unclosed quote in arguments")

// SplitArgs splits a command-line style string into arguments.
// Single and double quotes group words. A backslash escapes the next rune,
// except inside single quotes where it is literal ('C:\data' stays as is).
func SplitArgs(s string) ([]string, error) {
	var args []string
	var current strings.Builder
	inQuote := false
	inArg := false
	quoteChar := rune(0)

	runes := []rune(strings.TrimSpace(s))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"' || r == '\'':
			switch {
			case !inQuote:
				inQuote = true
				inArg = true
				quoteChar = r
			case r == quoteChar:
				inQuote = false
				quoteChar = 0
			default:
				current.WriteRune(r)
			}
		case (r == ' ' || r == '\t') && !inQuote:
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		case r == '\\' && quoteChar != '\'' && i+1 < len(runes):
			i++
			current.WriteRune(runes[i])
			inArg = true
		default:
			current.WriteRune(r)
			inArg = true
		}
	}

	if inQuote {
		return nil, ErrUnclosedQuote
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}
