package render

import (
	"strings"
)

// Template is a parsed template that can be executed many times.
type Template struct {
	source string
	nodes  []*node
}

// Compile parses tpl, returning a *SyntaxError for unterminated blocks.
func Compile(tpl string) (*Template, error) {
	nodes, err := parse(tpl)
	if err != nil {
		return nil, err
	}
	return &Template{source: tpl, nodes: nodes}, nil
}

// MustCompile is like Compile but panics on error. Intended for embedded templates.
func MustCompile(tpl string) *Template {
	t, err := Compile(tpl)
	if err != nil {
		panic(err)
	}
	return t
}

// Source returns the template text.
func (t *Template) Source() string { return t.source }

// Execute expands the template against ctx. A nil ctx behaves like an empty one.
func (t *Template) Execute(ctx Map) string {
	var b strings.Builder
	s := &scope{vars: ctx}
	for _, n := range t.nodes {
		s.write(&b, n)
	}
	return b.String()
}

// Render compiles and executes tpl in one step.
func Render(tpl string, ctx Map) (string, error) {
	t, err := Compile(tpl)
	if err != nil {
		return "", err
	}
	return t.Execute(ctx), nil
}

// ValidateSyntax reports the first unterminated block in tpl, or nil.
func ValidateSyntax(tpl string) error {
	_, err := parse(tpl)
	return err
}

// scope is one link of the lookup chain. Inner scopes shadow outer ones.
type scope struct {
	vars    Map
	this    Value
	hasThis bool
	parent  *scope
}

func (s *scope) lookup(name string) Value {
	for cur := s; cur != nil; cur = cur.parent {
		if name == "this" && cur.hasThis {
			return cur.this
		}
		if v, ok := cur.vars[name]; ok {
			return v
		}
	}
	return nil
}

func (s *scope) write(b *strings.Builder, n *node) {
	switch n.tok.kind {
	case tokText:
		b.WriteString(n.tok.text)

	case tokVar:
		b.WriteString(Stringify(s.lookup(n.tok.name)))

	case tokHelper:
		str, ok := s.lookup(n.tok.name).(String)
		if !ok {
			return
		}
		b.WriteString(helpers[n.tok.helper](string(str)))

	case tokOpen:
		v := s.lookup(n.tok.name)
		switch n.tok.block {
		case blockIf, blockSection:
			if Truthy(v) {
				s.writeAll(b, n.children)
			}
		case blockUnless:
			if !Truthy(v) {
				s.writeAll(b, n.children)
			}
		case blockEach:
			items, ok := v.(List)
			if !ok {
				return
			}
			for _, item := range items {
				inner := &scope{this: item, hasThis: true, parent: s}
				if m, ok := item.(Map); ok {
					inner.vars = m
				}
				inner.writeAll(b, n.children)
			}
		}
	}
}

func (s *scope) writeAll(b *strings.Builder, nodes []*node) {
	for _, n := range nodes {
		s.write(b, n)
	}
}
