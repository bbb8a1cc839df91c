package core

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/josephlewis42/minishell/core/editor"
	"github.com/josephlewis42/minishell/core/logger"
)

// handleSignals keeps the shell alive on Ctrl-C and restores the terminal
// before a SIGTERM or SIGHUP ends it. The returned function stops handling.
func (s *Session) handleSignals() (stop func()) {
	sigs := make(chan os.Signal, 1)
	done := make(chan struct{})

	s.log.Println("- Starting interrupt handler")
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		for {
			select {
			case sig := <-sigs:
				s.handleSignal(sig)
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// handleSignal reacts to a single signal. Children in the foreground get
// SIGINT from the terminal themselves, the shell only drops the line being
// typed, if any.
func (s *Session) handleSignal(sig os.Signal) {
	if sig == syscall.SIGINT {
		if interrupter, ok := s.reader.(editor.Interrupter); ok {
			interrupter.Interrupt()
		}
		return
	}

	s.log.Printf("Got signal %q, terminating...", sig)
	s.record(logger.EventSessionEnd, logger.Fields{"signal": sig.String()})

	if err := s.terminal.Restore(); err != nil {
		s.log.Printf("Couldn't restore terminal: %v", err)
	}

	code := 1
	if signo, ok := sig.(syscall.Signal); ok {
		code = 128 + int(signo)
	}
	s.exit(code)
}
