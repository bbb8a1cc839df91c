package core

import (
	"errors"

	"github.com/josephlewis42/minishell/core/logger"
	"github.com/josephlewis42/minishell/core/proc"
	"github.com/josephlewis42/minishell/core/shell"
)

// Dispatch parses and runs one line of input. Builtins run in the shell,
// everything else is handed to the orchestrator. Failures are reported to the
// user and never end the session.
func (s *Session) Dispatch(line string) []proc.Reaped {
	cmd, err := s.parser.Parse(line)
	switch {
	case errors.Is(err, shell.ErrEmptyInput):
		return nil

	case err != nil:
		s.reportErr(err)
		s.record(logger.EventError, logger.Fields{"kind": "parse", "error": err})
		return nil
	}

	if builtin, ok := AllBuiltins[cmd.Name()]; ok {
		status := builtin.Main(s, cmd.Argv1)
		s.record(logger.EventBuiltin, logger.Fields{
			"argv":   cmd.Argv1,
			"status": status,
		})
		return nil
	}

	s.record(logger.EventCommand, logger.Fields{
		"argv":       cmd.Argv1,
		"argv2":      cmd.Argv2,
		"line":       cmd.String(),
		"pipelining": cmd.Pipelining,
		"background": cmd.Background,
	})

	var pipe *proc.Pipe
	if cmd.Pipelining {
		if pipe, err = proc.NewPipe(); err != nil {
			s.reportErr(err)
			s.record(logger.EventError, logger.Fields{"kind": "pipe", "error": err})
			return nil
		}
	}

	return s.orchestrator.Run(cmd, pipe)
}
