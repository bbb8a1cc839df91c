// Package shell turns input lines into commands the shell can run.
//
// The grammar is a small subset of
// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html
// a simple command, optionally piped into a second simple command, with < > >>
// redirections and a trailing & to run in the background. Quoting follows
// POSIX rules; parameter expansion, command substitution and globbing are not
// performed.
package shell

import (
	"errors"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ErrEmptyInput is returned for blank lines and comment-only lines.
var ErrEmptyInput = errors.New("no input")

// ParseError describes a line that couldn't be turned into a Command.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parser parses input lines.
type Parser interface {
	Parse(line string) (*Command, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(line string) (*Command, error)

func (f ParserFunc) Parse(line string) (*Command, error) {
	return f(line)
}

var _ Parser = (ParserFunc)(nil)

// DefaultParser uses Parse.
var DefaultParser Parser = ParserFunc(Parse)

// Parse converts a line into a Command. It returns ErrEmptyInput if the line
// has nothing to run and a *ParseError if the line is malformed or uses
// unsupported syntax.
func Parse(line string) (*Command, error) {
	file, err := syntax.NewParser(syntax.Variant(syntax.LangPOSIX)).Parse(strings.NewReader(line), "")
	if err != nil {
		return nil, &ParseError{Line: line, Err: err}
	}

	p := &lineParser{line: line}
	cmd, err := p.file(file)
	if err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, p.fail("%v", err)
	}
	return cmd, nil
}

type lineParser struct {
	line string
}

func (p *lineParser) fail(format string, a ...interface{}) error {
	return &ParseError{Line: p.line, Err: fmt.Errorf(format, a...)}
}

func (p *lineParser) file(file *syntax.File) (*Command, error) {
	switch len(file.Stmts) {
	case 0:
		return nil, ErrEmptyInput
	case 1:
	default:
		return nil, p.fail("only one command per line is supported")
	}

	stmt := file.Stmts[0]
	if stmt.Negated || stmt.Coprocess {
		return nil, p.fail("unsupported statement")
	}

	cmd := &Command{Background: stmt.Background}

	switch node := stmt.Cmd.(type) {
	case *syntax.CallExpr:
		argv, err := p.call(node)
		if err != nil {
			return nil, err
		}
		cmd.Argv1 = argv
		if err := p.redirects(cmd, stmt.Redirs, true, true); err != nil {
			return nil, err
		}

	case *syntax.BinaryCmd:
		if node.Op != syntax.Pipe {
			return nil, p.fail("unsupported operator %q", node.Op.String())
		}
		if len(stmt.Redirs) > 0 {
			return nil, p.fail("redirection must follow a command")
		}

		var err error
		if cmd.Argv1, err = p.stage(node.X); err != nil {
			return nil, err
		}
		if cmd.Argv2, err = p.stage(node.Y); err != nil {
			return nil, err
		}
		cmd.Pipelining = true

		if err := p.redirects(cmd, node.X.Redirs, true, false); err != nil {
			return nil, err
		}
		if err := p.redirects(cmd, node.Y.Redirs, false, true); err != nil {
			return nil, err
		}

	case nil:
		return nil, p.fail("missing command")

	default:
		return nil, p.fail("unsupported syntax")
	}

	return cmd, nil
}

// stage extracts the argument vector of one side of a pipe.
func (p *lineParser) stage(stmt *syntax.Stmt) ([]string, error) {
	if stmt == nil {
		return nil, p.fail("missing command")
	}
	if stmt.Negated || stmt.Background || stmt.Coprocess {
		return nil, p.fail("unsupported statement in pipe")
	}

	switch node := stmt.Cmd.(type) {
	case *syntax.CallExpr:
		return p.call(node)
	case *syntax.BinaryCmd:
		return nil, p.fail("only two commands may be piped together")
	default:
		return nil, p.fail("unsupported syntax")
	}
}

func (p *lineParser) call(call *syntax.CallExpr) ([]string, error) {
	if len(call.Assigns) > 0 {
		return nil, p.fail("variable assignment is not supported")
	}

	var argv []string
	for _, word := range call.Args {
		arg, err := p.word(word)
		if err != nil {
			return nil, err
		}
		argv = append(argv, arg)
	}

	if len(argv) == 0 {
		return nil, p.fail("missing command")
	}
	return argv, nil
}

func (p *lineParser) redirects(cmd *Command, redirs []*syntax.Redirect, allowIn, allowOut bool) error {
	for _, redirect := range redirs {
		if redirect.N != nil {
			return p.fail("descriptor redirection is not supported")
		}

		target, err := p.word(redirect.Word)
		if err != nil {
			return err
		}
		if target == "" {
			return p.fail("redirection to an empty file name")
		}

		switch redirect.Op {
		case syntax.RdrIn:
			if !allowIn {
				return p.fail("input redirection is only allowed on the first command")
			}
			cmd.RedirectIn = true
			cmd.Infile = target

		case syntax.RdrOut, syntax.AppOut:
			if !allowOut {
				return p.fail("output redirection is only allowed on the last command")
			}
			cmd.RedirectOut = true
			cmd.RedirectAppend = redirect.Op == syntax.AppOut
			cmd.Outfile = target

		default:
			return p.fail("unsupported redirection %q", redirect.Op.String())
		}
	}
	return nil
}

func (p *lineParser) word(word *syntax.Word) (string, error) {
	if word == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range word.Parts {
		switch part := part.(type) {
		case *syntax.Lit:
			sb.WriteString(unescapeBare(part.Value))

		case *syntax.SglQuoted:
			if part.Dollar {
				return "", p.fail("$'...' quoting is not supported")
			}
			sb.WriteString(part.Value)

		case *syntax.DblQuoted:
			if part.Dollar {
				return "", p.fail(`$"..." quoting is not supported`)
			}
			for _, inner := range part.Parts {
				lit, ok := inner.(*syntax.Lit)
				if !ok {
					return "", p.fail("expansion is not supported")
				}
				sb.WriteString(unescapeDouble(lit.Value))
			}

		default:
			return "", p.fail("expansion is not supported")
		}
	}
	return sb.String(), nil
}

// unescapeBare removes backslash escapes from unquoted text.
func unescapeBare(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			if s[i] == '\n' {
				continue // line continuation
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// unescapeDouble removes the backslash escapes that are special inside double
// quotes, other backslashes are kept.
func unescapeDouble(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '$', '`', '"', '\\':
				i++
			case '\n':
				i++
				continue
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
