// pkg/keyvalue/keyvalue.go - parser for the brace-delimited key-value text
// format used by Steam (ACF/VDF) and similar game launchers.
//
// The grammar is tiny: a document is a sequence of "key" "value" pairs and
// "key" { ... } nested blocks, with C++-style line comments. Manifests are
// local files but may still be malformed or truncated, so nesting depth is
// bounded and structural errors are reported rather than recovered.

package keyvalue

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// MaxDepth bounds block nesting so a malformed manifest cannot drive the
// recursive parser into the ground.
const MaxDepth = 32

type tokenKind int

const (
	tokenString tokenKind = iota
	tokenOpen
	tokenClose
	tokenEOF
)

type token struct {
	kind tokenKind
	text string
	line int
}

type tokenizer struct {
	r    *bufio.Reader
	line int
}

func newTokenizer(r io.Reader) *tokenizer {
	return &tokenizer{r: bufio.NewReader(r), line: 1}
}

func (t *tokenizer) next() (token, error) {
	for {
		c, _, err := t.r.ReadRune()
		if err == io.EOF {
			return token{kind: tokenEOF, line: t.line}, nil
		}
		if err != nil {
			return token{}, err
		}

		switch {
		case c == '\n':
			t.line++
		case c == ' ' || c == '\t' || c == '\r':
			// skip
		case c == '/':
			if next, _, err := t.r.ReadRune(); err == nil && next == '/' {
				t.skipLine()
			} else {
				if err == nil {
					t.r.UnreadRune()
				}
				return token{}, fmt.Errorf("line %d: unexpected '/'", t.line)
			}
		case c == '{':
			return token{kind: tokenOpen, line: t.line}, nil
		case c == '}':
			return token{kind: tokenClose, line: t.line}, nil
		case c == '"':
			return t.readQuoted()
		case c == '[':
			// Platform conditional like [$WIN32]; irrelevant to extraction.
			t.skipUntil(']')
		default:
			t.r.UnreadRune()
			return t.readBare()
		}
	}
}

func (t *tokenizer) skipLine() {
	for {
		c, _, err := t.r.ReadRune()
		if err != nil {
			return
		}
		if c == '\n' {
			t.line++
			return
		}
	}
}

func (t *tokenizer) skipUntil(stop rune) {
	for {
		c, _, err := t.r.ReadRune()
		if err != nil || c == stop {
			return
		}
		if c == '\n' {
			t.line++
		}
	}
}

func (t *tokenizer) readQuoted() (token, error) {
	start := t.line
	var b strings.Builder
	for {
		c, _, err := t.r.ReadRune()
		if err != nil {
			return token{}, fmt.Errorf("line %d: unterminated quoted string", start)
		}
		switch c {
		case '"':
			return token{kind: tokenString, text: b.String(), line: start}, nil
		case '\\':
			esc, _, err := t.r.ReadRune()
			if err != nil {
				return token{}, fmt.Errorf("line %d: unterminated escape", start)
			}
			switch esc {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case '\\', '"':
				b.WriteRune(esc)
			default:
				b.WriteRune('\\')
				b.WriteRune(esc)
			}
		case '\n':
			return token{}, fmt.Errorf("line %d: newline in quoted string", start)
		default:
			b.WriteRune(c)
		}
	}
}

func (t *tokenizer) readBare() (token, error) {
	start := t.line
	var b strings.Builder
	for {
		c, _, err := t.r.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return token{}, err
		}
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '{' || c == '}' || c == '"' {
			t.r.UnreadRune()
			break
		}
		b.WriteRune(c)
	}
	return token{kind: tokenString, text: b.String(), line: start}, nil
}

// Parse reads a complete key-value document into a nested map. Nested
// blocks become map[string]any values; duplicate keys keep the last
// occurrence.
func Parse(r io.Reader) (map[string]any, error) {
	tok := newTokenizer(r)
	doc, last, err := parseBlock(tok, 0)
	if err != nil {
		return nil, err
	}
	if last.kind == tokenClose {
		return nil, fmt.Errorf("line %d: unbalanced '}'", last.line)
	}
	return doc, nil
}

// parseBlock consumes key/value pairs until a closing brace or EOF and
// returns the terminating token.
func parseBlock(t *tokenizer, depth int) (map[string]any, token, error) {
	if depth > MaxDepth {
		return nil, token{}, fmt.Errorf("nesting exceeds maximum depth %d", MaxDepth)
	}

	block := make(map[string]any)
	for {
		keyTok, err := t.next()
		if err != nil {
			return nil, token{}, err
		}
		if keyTok.kind == tokenEOF || keyTok.kind == tokenClose {
			return block, keyTok, nil
		}
		if keyTok.kind != tokenString {
			return nil, token{}, fmt.Errorf("line %d: expected key", keyTok.line)
		}

		valTok, err := t.next()
		if err != nil {
			return nil, token{}, err
		}
		switch valTok.kind {
		case tokenString:
			block[keyTok.text] = valTok.text
		case tokenOpen:
			nested, last, err := parseBlock(t, depth+1)
			if err != nil {
				return nil, token{}, err
			}
			if last.kind != tokenClose {
				return nil, token{}, fmt.Errorf("line %d: unterminated block %q", keyTok.line, keyTok.text)
			}
			block[keyTok.text] = nested
		default:
			return nil, token{}, fmt.Errorf("line %d: key %q has no value", keyTok.line, keyTok.text)
		}
	}
}
