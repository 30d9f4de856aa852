/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package statement

import (
	"unicode"

	"github.com/suparena/statstore/errors"
)

type token struct {
	text string
	pos  int
}

// tokenize splits descriptor text on whitespace. A quoted string is a single
// token even when it contains whitespace, and a comma is always a token of
// its own.
func tokenize(text string) ([]token, error) {
	var (
		tokens []token
		runes  = []rune(text)
	)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == ',':
			tokens = append(tokens, token{text: ",", pos: i})
			i++
		case r == '\'':
			end := i + 1
			for end < len(runes) && runes[end] != '\'' {
				end++
			}
			if end == len(runes) {
				return nil, errors.NewDescriptorParsingError(text, "unterminated string starting at %d", i)
			}
			tokens = append(tokens, token{text: string(runes[i : end+1]), pos: i})
			i = end + 1
		default:
			start := i
			for i < len(runes) && !unicode.IsSpace(runes[i]) && runes[i] != ',' {
				i++
			}
			tokens = append(tokens, token{text: string(runes[start:i]), pos: start})
		}
	}
	return tokens, nil
}
