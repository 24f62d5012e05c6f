package render

import (
	"strings"
)

type tokenKind int

const (
	tokText tokenKind = iota
	tokVar
	tokHelper
	tokOpen
	tokClose
)

type blockKind string

const (
	blockIf      blockKind = "if"
	blockUnless  blockKind = "unless"
	blockEach    blockKind = "each"
	blockSection blockKind = "section"
)

type token struct {
	kind   tokenKind
	text   string    // raw text for tokText
	name   string    // variable, condition, loop source, or helper argument
	helper string    // tokHelper only
	block  blockKind // tokOpen/tokClose
	offset int
}

// tokenize splits a template into text and tag tokens. Tags that do not fit
// the grammar (including unknown two-word tags) stay literal text.
func tokenize(tpl string) []token {
	var toks []token
	pos := 0

	for pos < len(tpl) {
		start := strings.Index(tpl[pos:], "{{")
		if start < 0 {
			toks = append(toks, token{kind: tokText, text: tpl[pos:], offset: pos})
			break
		}
		start += pos
		end := strings.Index(tpl[start+2:], "}}")
		if end < 0 {
			toks = append(toks, token{kind: tokText, text: tpl[pos:], offset: pos})
			break
		}
		end += start + 2

		if start > pos {
			toks = append(toks, token{kind: tokText, text: tpl[pos:start], offset: pos})
		}

		raw := tpl[start : end+2]
		tok, ok := classify(strings.TrimSpace(tpl[start+2 : end]))
		if ok {
			tok.offset = start
			toks = append(toks, tok)
		} else {
			toks = append(toks, token{kind: tokText, text: raw, offset: start})
		}
		pos = end + 2
	}
	return toks
}

func classify(content string) (token, bool) {
	if content == "" {
		return token{}, false
	}

	switch content[0] {
	case '#':
		fields := strings.Fields(content[1:])
		switch {
		case len(fields) == 2 && isKeyword(fields[0]):
			return token{kind: tokOpen, block: blockKind(fields[0]), name: fields[1]}, true
		case len(fields) == 1 && !isKeyword(fields[0]):
			return token{kind: tokOpen, block: blockSection, name: fields[0]}, true
		}
		return token{}, false

	case '/':
		fields := strings.Fields(content[1:])
		if len(fields) != 1 {
			return token{}, false
		}
		if isKeyword(fields[0]) {
			return token{kind: tokClose, block: blockKind(fields[0])}, true
		}
		return token{kind: tokClose, block: blockSection, name: fields[0]}, true
	}

	fields := strings.Fields(content)
	switch {
	case len(fields) == 1:
		return token{kind: tokVar, name: fields[0]}, true
	case len(fields) == 2 && IsHelper(fields[0]):
		return token{kind: tokHelper, helper: fields[0], name: fields[1]}, true
	}
	return token{}, false
}

func isKeyword(s string) bool {
	switch blockKind(s) {
	case blockIf, blockUnless, blockEach:
		return true
	}
	return false
}

type node struct {
	tok      token
	children []*node
}

// parse builds the block tree. A close tag closes the nearest open block of
// the same kind; any block still open above it, or at end of input, is
// unterminated. Close tags with no matching open block stay literal.
func parse(tpl string) ([]*node, error) {
	root := &node{}
	stack := []*node{root}

	for _, tok := range tokenize(tpl) {
		top := stack[len(stack)-1]
		switch tok.kind {
		case tokOpen:
			n := &node{tok: tok}
			top.children = append(top.children, n)
			stack = append(stack, n)

		case tokClose:
			idx := -1
			for i := len(stack) - 1; i > 0; i-- {
				open := stack[i].tok
				if open.block == tok.block && (tok.block != blockSection || open.name == tok.name) {
					idx = i
					break
				}
			}
			if idx < 0 {
				top.children = append(top.children, &node{tok: token{kind: tokText, text: closeText(tok), offset: tok.offset}})
				continue
			}
			if idx != len(stack)-1 {
				return nil, unterminated(stack[idx+1].tok)
			}
			stack = stack[:idx]

		default:
			top.children = append(top.children, &node{tok: tok})
		}
	}

	if len(stack) > 1 {
		return nil, unterminated(stack[1].tok)
	}
	return root.children, nil
}

func closeText(tok token) string {
	if tok.block == blockSection {
		return "{{/" + tok.name + "}}"
	}
	return "{{/" + string(tok.block) + "}}"
}

func unterminated(open token) error {
	err := &SyntaxError{Block: string(open.block), Name: open.name, Offset: open.offset}
	switch open.block {
	case blockIf:
		err.Err = ErrUnterminatedIf
	case blockUnless:
		err.Err = ErrUnterminatedUnless
	case blockEach:
		err.Err = ErrUnterminatedEach
	default:
		err.Block = open.name
		err.Name = ""
		err.Err = ErrUnterminatedSection
	}
	return err
}
