// Package diff reports line changes between a previously generated test file
// and its regeneration.
package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Op is the kind of a diff line.
type Op int

const (
	OpEqual Op = iota
	OpAdd
	OpRemove
)

// Line is one line of a hunk.
type Line struct {
	Op      Op
	Content string
}

// Hunk is a run of changes with surrounding context. Starts are 1-based.
type Hunk struct {
	OldStart, OldCount int
	NewStart, NewCount int
	Lines              []Line
}

// Change summarizes the difference between two versions of a file.
type Change struct {
	Path    string
	Created bool // no previous version
	Added   int
	Removed int
	Hunks   []Hunk
}

// Empty reports whether the versions are identical.
func (c *Change) Empty() bool {
	return !c.Created && c.Added == 0 && c.Removed == 0
}

// Summary renders "+A -R" or "new file".
func (c *Change) Summary() string {
	switch {
	case c.Created:
		return fmt.Sprintf("new file (+%d)", c.Added)
	case c.Empty():
		return "unchanged"
	default:
		return fmt.Sprintf("+%d -%d", c.Added, c.Removed)
	}
}

// Engine computes line diffs.
type Engine struct {
	dmp     *diffmatchpatch.DiffMatchPatch
	context int
}

// NewEngine creates an Engine keeping context lines around each change.
func NewEngine(contextLines int) *Engine {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0 // generated files are small; prefer a minimal diff
	if contextLines < 0 {
		contextLines = 0
	}
	return &Engine{dmp: dmp, context: contextLines}
}

// Compare diffs prev against next at line granularity. An empty prev marks
// the file as created.
func (e *Engine) Compare(path, prev, next string) *Change {
	ops := e.lineOps(prev, next)
	ch := &Change{Path: path, Created: prev == ""}
	for _, op := range ops {
		switch op.Op {
		case OpAdd:
			ch.Added++
		case OpRemove:
			ch.Removed++
		}
	}
	ch.Hunks = group(ops, e.context)
	return ch
}

func (e *Engine) lineOps(prev, next string) []Line {
	a, b, lines := e.dmp.DiffLinesToChars(prev, next)
	diffs := e.dmp.DiffMain(a, b, false)
	diffs = e.dmp.DiffCharsToLines(diffs, lines)

	var ops []Line
	for _, d := range diffs {
		op := OpEqual
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = OpAdd
		case diffmatchpatch.DiffDelete:
			op = OpRemove
		}
		for _, l := range splitLines(d.Text) {
			ops = append(ops, Line{Op: op, Content: l})
		}
	}
	return ops
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// group merges changes closer than 2*context lines into one hunk.
func group(ops []Line, context int) []Hunk {
	var hunks []Hunk
	oldLine, newLine := make([]int, len(ops)), make([]int, len(ops))
	o, n := 1, 1
	for i, op := range ops {
		oldLine[i], newLine[i] = o, n
		if op.Op != OpAdd {
			o++
		}
		if op.Op != OpRemove {
			n++
		}
	}

	i := 0
	for i < len(ops) {
		if ops[i].Op == OpEqual {
			i++
			continue
		}
		start := max(0, i-context)
		end := i
		for j := i; j < len(ops); j++ {
			if ops[j].Op != OpEqual {
				end = j
				continue
			}
			if j-end > 2*context {
				break
			}
		}
		stop := min(len(ops), end+context+1)

		h := Hunk{OldStart: oldLine[start], NewStart: newLine[start], Lines: ops[start:stop]}
		for _, l := range h.Lines {
			if l.Op != OpAdd {
				h.OldCount++
			}
			if l.Op != OpRemove {
				h.NewCount++
			}
		}
		hunks = append(hunks, h)
		i = stop
	}
	return hunks
}

// Unified renders c in unified diff format.
func (c *Change) Unified() string {
	if c.Empty() {
		return ""
	}
	var b strings.Builder
	old := "a/" + c.Path
	if c.Created {
		old = "/dev/null"
	}
	fmt.Fprintf(&b, "--- %s\n+++ b/%s\n", old, c.Path)
	for _, h := range c.Hunks {
		fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
		for _, l := range h.Lines {
			switch l.Op {
			case OpAdd:
				b.WriteByte('+')
			case OpRemove:
				b.WriteByte('-')
			default:
				b.WriteByte(' ')
			}
			b.WriteString(l.Content)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
