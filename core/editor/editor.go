// Package editor reads lines from a terminal in non-canonical mode, handling
// echo, erase and tab completion itself.
package editor

import (
	"errors"
	"io"
	"sync"

	"github.com/josephlewis42/minishell/core/complete"
)

const (
	keyBackspace = 0x08
	keyDelete    = 0x7f
	keyEOT       = 0x04 // Ctrl-D
	keyTab       = '\t'
	keyNewline   = '\n'
	keyReturn    = '\r'
	bell         = '\a'

	// DefaultCapacity is the number of command bytes a line may hold when the
	// configuration doesn't say otherwise.
	DefaultCapacity = 4096
)

// ErrLineOverflow is returned when an insertion doesn't fit in the line buffer.
var ErrLineOverflow = errors.New("line too long")

// LineReader reads a line of input after showing a prompt.
type LineReader interface {
	Readline(prompt string) (string, error)
	Close() error
}

// Interrupter is implemented by line readers that can abandon the line being
// edited when the user presses Ctrl-C.
type Interrupter interface {
	Interrupt()
}

// Completer returns the text that completes token, or the empty string.
type Completer interface {
	Complete(token string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(token string) (string, error)

func (f CompleterFunc) Complete(token string) (string, error) {
	return f(token)
}

// Config holds the editor settings.
type Config struct {
	// Capacity is the maximum number of command bytes on a line, not counting
	// the prompt. Zero means DefaultCapacity.
	Capacity int
	// Echo writes typed characters back to the output. It should be set when
	// the input is a terminal with local echo turned off.
	Echo bool
	// Bell rings the terminal bell when input is rejected.
	Bell bool
	// Completer is consulted when tab is pressed.
	Completer Completer
	// OnError receives non-fatal errors, like failed completions.
	OnError func(error)
}

// Editor is a LineReader that processes one byte at a time.
type Editor struct {
	in  io.Reader
	out io.Writer
	cfg Config

	buf    []byte // prompt followed by the command text
	limit  int    // maximum length of buf for the current line
	start  int    // index where the command text begins
	cursor int

	mu      sync.Mutex // guards the line against Interrupt
	reading bool
}

var _ LineReader = (*Editor)(nil)
var _ Interrupter = (*Editor)(nil)

// New creates an editor reading from in and echoing to out.
func New(in io.Reader, out io.Writer, cfg Config) *Editor {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}

	return &Editor{
		in:  in,
		out: out,
		cfg: cfg,
	}
}

// Readline prints prompt and returns the command typed after it, without the
// trailing newline. It returns io.EOF when the input ends or Ctrl-D is pressed
// on an empty line.
func (e *Editor) Readline(prompt string) (string, error) {
	e.mu.Lock()
	e.reset(prompt)
	e.write(e.buf)
	e.reading = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.reading = false
		e.mu.Unlock()
	}()

	for {
		c, err := e.readByte()

		e.mu.Lock()
		line, done, err := e.handle(c, err)
		e.mu.Unlock()

		if done {
			return line, err
		}
	}
}

// Interrupt throws away the line being edited and shows the prompt again on
// a new line. It's safe to call from another goroutine and does nothing when
// no Readline is in progress.
func (e *Editor) Interrupt() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.reading {
		return
	}

	e.buf = e.buf[:e.start]
	e.cursor = e.start
	e.echo([]byte("^C"))
	e.write([]byte{keyNewline})
	e.write(e.buf)
}

// handle applies one byte of input, done is set once Readline should return.
func (e *Editor) handle(c byte, err error) (line string, done bool, _ error) {
	switch {
	case err == io.EOF && e.cursor > e.start:
		// Input ended without a newline, hand over what we have.
		return e.line(), true, nil
	case err != nil:
		return "", true, err
	}

	switch c {
	case keyDelete, keyBackspace:
		e.erase()

	case keyNewline, keyReturn:
		e.echo([]byte{keyNewline})
		return e.line(), true, nil

	case keyTab:
		e.complete()

	case keyEOT:
		if e.cursor == e.start {
			e.echo([]byte{keyNewline})
			return "", true, io.EOF
		}

	default:
		if err := e.insert([]byte{c}); err != nil {
			e.ring()
		}
	}
	return "", false, nil
}

// Close implements LineReader.
func (e *Editor) Close() error {
	return nil
}

func (e *Editor) reset(prompt string) {
	e.limit = len(prompt) + e.cfg.Capacity
	if cap(e.buf) < e.limit {
		e.buf = make([]byte, 0, e.limit)
	}
	e.buf = append(e.buf[:0], prompt...)
	e.start = len(prompt)
	e.cursor = e.start
}

func (e *Editor) readByte() (byte, error) {
	var b [1]byte
	for {
		n, err := e.in.Read(b[:])
		if n == 1 {
			return b[0], nil
		}
		if err != nil {
			return 0, err
		}
	}
}

func (e *Editor) line() string {
	return string(e.buf[e.start:])
}

// insert splices p into the buffer at the cursor and echoes it.
func (e *Editor) insert(p []byte) error {
	if len(e.buf)+len(p) > e.limit {
		return ErrLineOverflow
	}

	tail := len(e.buf) - e.cursor
	e.buf = append(e.buf, p...)
	copy(e.buf[e.cursor+len(p):], e.buf[e.cursor:e.cursor+tail])
	copy(e.buf[e.cursor:], p)
	e.cursor += len(p)

	e.echo(p)
	return nil
}

// erase removes the character before the cursor. The prompt can't be erased.
func (e *Editor) erase() {
	if e.cursor <= e.start {
		return
	}

	copy(e.buf[e.cursor-1:], e.buf[e.cursor:])
	e.buf = e.buf[:len(e.buf)-1]
	e.cursor--

	e.echo([]byte("\b \b"))
}

func (e *Editor) complete() {
	token := complete.CurrentToken(string(e.buf[e.start:e.cursor]))
	if token == "" || e.cfg.Completer == nil {
		return
	}

	suffix, err := e.cfg.Completer.Complete(token)
	if err != nil {
		e.report(err)
		return
	}

	if suffix == "" {
		return
	}

	if err := e.insert([]byte(suffix)); err != nil {
		e.ring()
	}
}

// report hands err to the error callback on a fresh line, then redraws the
// prompt and the text typed so far.
func (e *Editor) report(err error) {
	e.echo([]byte{keyNewline})
	if e.cfg.OnError != nil {
		e.cfg.OnError(err)
	}
	e.echo(e.buf)
}

func (e *Editor) ring() {
	if e.cfg.Bell {
		e.write([]byte{bell})
	}
}

func (e *Editor) echo(p []byte) {
	if e.cfg.Echo {
		e.write(p)
	}
}

func (e *Editor) write(p []byte) {
	// Nothing useful can be done if the terminal stops accepting output, the
	// next read will fail too.
	_, _ = e.out.Write(p)
}
