// Package shell turns an input line into a pipeline.
//
// The accepted language is a small subset of the POSIX Shell Command
// Language (https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html):
// simple commands joined by "|", each with optional "<file" and ">file"
// redirections. Words may be quoted or backslash-escaped but are never
// expanded.
package shell

import (
	"errors"
	"fmt"
	"strings"

	"github.com/josephlewis42/mush/core/pipeline"
	"mvdan.cc/sh/v3/syntax"
)

var (
	// ErrUnsupported is wrapped by errors for valid shell syntax this shell
	// does not implement.
	ErrUnsupported = errors.New("unsupported")
	// ErrAmbiguousRedirect is returned when a stage redirects the same
	// stream twice.
	ErrAmbiguousRedirect = errors.New("ambiguous redirect")
	// ErrNullCommand is returned for a stage with redirections but no
	// command.
	ErrNullCommand = errors.New("invalid null command")
)

// Parse parses line into a pipeline. A line with nothing to run returns a nil
// pipeline and no error.
func Parse(line string) (pipeline.Pipeline, error) {
	file, err := syntax.NewParser().Parse(strings.NewReader(line), "")
	if err != nil {
		return nil, err
	}

	switch len(file.Stmts) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, unsupported(file.Stmts[1], "command lists")
	}

	var out pipeline.Pipeline
	if err := appendStages(&out, file.Stmts[0]); err != nil {
		return nil, err
	}
	return out, nil
}

// appendStages flattens a nested chain of pipes into stages, in order.
func appendStages(out *pipeline.Pipeline, stmt *syntax.Stmt) error {
	switch {
	case stmt.Background:
		return unsupported(stmt, "background jobs")
	case stmt.Coprocess:
		return unsupported(stmt, "coprocesses")
	case stmt.Negated:
		return unsupported(stmt, "negation")
	}

	switch cmd := stmt.Cmd.(type) {
	case *syntax.BinaryCmd:
		if cmd.Op != syntax.Pipe {
			return unsupported(cmd, fmt.Sprintf("%q", cmd.Op.String()))
		}
		if len(stmt.Redirs) > 0 {
			return unsupported(stmt.Redirs[0], "redirecting a whole pipeline")
		}
		if err := appendStages(out, cmd.X); err != nil {
			return err
		}
		return appendStages(out, cmd.Y)

	case *syntax.CallExpr:
		stage, err := parseStage(stmt, cmd)
		if err != nil {
			return err
		}
		*out = append(*out, stage)
		return nil

	case nil:
		return fmt.Errorf("%s: %w", position(stmt), ErrNullCommand)

	default:
		return unsupported(cmd, "compound commands")
	}
}

func parseStage(stmt *syntax.Stmt, call *syntax.CallExpr) (pipeline.Stage, error) {
	var stage pipeline.Stage

	if len(call.Assigns) > 0 {
		return stage, unsupported(call.Assigns[0], "variable assignment")
	}
	if len(call.Args) == 0 {
		return stage, fmt.Errorf("%s: %w", position(stmt), ErrNullCommand)
	}

	for _, word := range call.Args {
		arg, err := literal(word)
		if err != nil {
			return stage, err
		}
		stage.Args = append(stage.Args, arg)
	}

	for _, redir := range stmt.Redirs {
		var target *string
		switch {
		case redir.Op == syntax.RdrIn && fdIs(redir, "0"):
			target = &stage.InFile
		case redir.Op == syntax.RdrOut && fdIs(redir, "1"):
			target = &stage.OutFile
		default:
			return stage, unsupported(redir, fmt.Sprintf("redirection %q", redirString(redir)))
		}

		if *target != "" {
			return stage, fmt.Errorf("%s: %w", position(redir), ErrAmbiguousRedirect)
		}
		path, err := literal(redir.Word)
		if err != nil {
			return stage, err
		}
		if path == "" {
			return stage, fmt.Errorf("%s: %w", position(redir), ErrAmbiguousRedirect)
		}
		*target = path
	}

	return stage, nil
}

// fdIs reports whether redir applies to the default descriptor def.
func fdIs(redir *syntax.Redirect, def string) bool {
	return redir.N == nil || redir.N.Value == def
}

func redirString(redir *syntax.Redirect) string {
	if redir.N != nil {
		return redir.N.Value + redir.Op.String()
	}
	return redir.Op.String()
}

// literal evaluates a word that must not need expansion.
func literal(word *syntax.Word) (string, error) {
	if word == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range word.Parts {
		switch part := part.(type) {
		case *syntax.Lit:
			sb.WriteString(unescape(part.Value, isAnyChar))
		case *syntax.SglQuoted:
			if part.Dollar {
				return "", unsupported(part, "$'...' strings")
			}
			sb.WriteString(part.Value)
		case *syntax.DblQuoted:
			if part.Dollar {
				return "", unsupported(part, "$\"...\" strings")
			}
			for _, inner := range part.Parts {
				lit, ok := inner.(*syntax.Lit)
				if !ok {
					return "", unsupported(inner, "expansion")
				}
				sb.WriteString(unescape(lit.Value, isDblQuoteEscapable))
			}
		default:
			return "", unsupported(part, "expansion")
		}
	}
	return sb.String(), nil
}

func isAnyChar(byte) bool { return true }

func isDblQuoteEscapable(c byte) bool {
	return strings.IndexByte("$`\"\\\n", c) >= 0
}

// unescape removes the backslashes in front of characters matching escapable.
// An escaped newline is a line continuation and disappears entirely.
func unescape(s string, escapable func(byte) bool) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && escapable(s[i+1]) {
			i++
			if s[i] != '\n' {
				sb.WriteByte(s[i])
			}
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func unsupported(node syntax.Node, what string) error {
	return fmt.Errorf("%s: %s: %w", position(node), what, ErrUnsupported)
}

func position(node syntax.Node) string {
	return fmt.Sprintf("col %d", node.Pos().Col())
}
