package editor

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

const testPrompt = "/work $ "

type mapCompleter map[string]string

func (m mapCompleter) Complete(token string) (string, error) {
	return m[token], nil
}

func newGolden(t *testing.T) *goldie.Goldie {
	t.Helper()

	return goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
	)
}

func TestEditor_transcripts(t *testing.T) {
	cases := map[string]struct {
		input    string
		cfg      Config
		expected string
	}{
		"basic": {
			input:    "ls -la\n",
			cfg:      Config{Echo: true},
			expected: "ls -la",
		},
		"backspace": {
			input:    "\x7f\x7fab\x7fc\n",
			cfg:      Config{Echo: true},
			expected: "ac",
		},
		"completion": {
			input:    "cat Rea\t\n",
			cfg:      Config{Echo: true, Completer: mapCompleter{"Rea": "dme.md"}},
			expected: "cat Readme.md",
		},
		"overflow": {
			input:    "abcdef\n",
			cfg:      Config{Echo: true, Bell: true, Capacity: 4},
			expected: "abcd",
		},
	}

	g := newGolden(t)
	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			out := &bytes.Buffer{}
			ed := New(strings.NewReader(tc.input), out, tc.cfg)

			line, err := ed.Readline(testPrompt)

			assert.Nil(t, err)
			assert.Equal(t, tc.expected, line)
			g.Assert(t, tn, out.Bytes())
		})
	}
}

func TestEditor_promptNotErasable(t *testing.T) {
	out := &bytes.Buffer{}
	ed := New(strings.NewReader("\x7f\x08\x7fx\n"), out, Config{Echo: true})

	line, err := ed.Readline(testPrompt)

	assert.Nil(t, err)
	assert.Equal(t, "x", line)
	assert.Equal(t, testPrompt+"x\n", out.String())
}

func TestEditor_completion(t *testing.T) {
	completer := mapCompleter{"Rea": "dme.md", "F": ""}

	cases := map[string]struct {
		input    string
		expected string
	}{
		"unique":      {"cat Rea\t\n", "cat Readme.md"},
		"ambiguous":   {"cat F\t\n", "cat F"},
		"empty-token": {"cat \t\n", "cat "},
		"empty-line":  {"\t\n", ""},
		"first-word":  {"Rea\t\n", "Readme.md"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			ed := New(strings.NewReader(tc.input), io.Discard, Config{Completer: completer})

			line, err := ed.Readline(testPrompt)

			assert.Nil(t, err)
			assert.Equal(t, tc.expected, line)
		})
	}
}

func TestEditor_completionOverflow(t *testing.T) {
	out := &bytes.Buffer{}
	ed := New(strings.NewReader("Rea\t\n"), out, Config{
		Echo:      true,
		Bell:      true,
		Capacity:  6,
		Completer: mapCompleter{"Rea": "dme.md"},
	})

	line, err := ed.Readline(testPrompt)

	assert.Nil(t, err)
	assert.Equal(t, "Rea", line, "a suffix that doesn't fit is rejected whole")
	assert.Equal(t, testPrompt+"Rea\a\n", out.String())
}

func TestEditor_completionError(t *testing.T) {
	var reported []error
	failing := CompleterFunc(func(token string) (string, error) {
		return "", errors.New("directory vanished")
	})

	out := &bytes.Buffer{}
	ed := New(strings.NewReader("ls x\t\n"), out, Config{
		Echo:      true,
		Completer: failing,
		OnError: func(err error) {
			reported = append(reported, err)
		},
	})

	line, err := ed.Readline(testPrompt)

	assert.Nil(t, err)
	assert.Equal(t, "ls x", line)
	assert.Len(t, reported, 1)
	assert.Equal(t, testPrompt+"ls x\n"+testPrompt+"ls x\n", out.String())
}

func TestEditor_multipleLines(t *testing.T) {
	ed := New(strings.NewReader("one\ntwo\r"), io.Discard, Config{})

	first, err := ed.Readline("1> ")
	assert.Nil(t, err)
	assert.Equal(t, "one", first)

	second, err := ed.Readline("2> ")
	assert.Nil(t, err)
	assert.Equal(t, "two", second)

	_, err = ed.Readline("3> ")
	assert.Equal(t, io.EOF, err)
}

func TestEditor_eof(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		ed := New(strings.NewReader(""), io.Discard, Config{})
		_, err := ed.Readline(testPrompt)
		assert.Equal(t, io.EOF, err)
	})

	t.Run("ctrl-d on empty line", func(t *testing.T) {
		ed := New(strings.NewReader("\x04ignored\n"), io.Discard, Config{})
		_, err := ed.Readline(testPrompt)
		assert.Equal(t, io.EOF, err)
	})

	t.Run("ctrl-d mid line is ignored", func(t *testing.T) {
		ed := New(strings.NewReader("ab\x04c\n"), io.Discard, Config{})
		line, err := ed.Readline(testPrompt)
		assert.Nil(t, err)
		assert.Equal(t, "abc", line)
	})

	t.Run("unterminated line", func(t *testing.T) {
		ed := New(strings.NewReader("exit"), io.Discard, Config{})
		line, err := ed.Readline(testPrompt)
		assert.Nil(t, err)
		assert.Equal(t, "exit", line)
	})
}

func TestEditor_noEcho(t *testing.T) {
	out := &bytes.Buffer{}
	ed := New(strings.NewReader("ls\n"), out, Config{})

	_, err := ed.Readline(testPrompt)

	assert.Nil(t, err)
	assert.Equal(t, testPrompt, out.String())
}

func TestEditor_insert(t *testing.T) {
	ed := New(strings.NewReader(""), io.Discard, Config{Capacity: 8})
	ed.reset("$ ")

	assert.Nil(t, ed.insert([]byte("ad")))
	ed.cursor = ed.start + 1
	assert.Nil(t, ed.insert([]byte("bc")))
	assert.Equal(t, "abcd", ed.line())
	assert.Equal(t, ed.start+3, ed.cursor)

	assert.Nil(t, ed.insert([]byte("efgh")))
	assert.True(t, errors.Is(ed.insert([]byte("x")), ErrLineOverflow))
	assert.Equal(t, 8, len(ed.line()))
}

// interruptingReader serves input one byte at a time and calls interrupt
// once the first part has been read.
type interruptingReader struct {
	before, after string
	interrupt     func()
	interrupted   bool
}

func (r *interruptingReader) Read(p []byte) (int, error) {
	if r.before == "" && !r.interrupted {
		r.interrupted = true
		r.interrupt()
	}

	src := &r.before
	if r.interrupted {
		src = &r.after
	}
	if *src == "" {
		return 0, io.EOF
	}

	n := copy(p[:1], *src)
	*src = (*src)[n:]
	return n, nil
}

func TestEditor_Interrupt(t *testing.T) {
	out := &bytes.Buffer{}
	in := &interruptingReader{before: "rm -rf x", after: "ls\n"}
	ed := New(in, out, Config{Echo: true})
	in.interrupt = ed.Interrupt

	line, err := ed.Readline(testPrompt)

	assert.Nil(t, err)
	assert.Equal(t, "ls", line)
	assert.Equal(t, testPrompt+"rm -rf x^C\n"+testPrompt+"ls\n", out.String())
}

func TestEditor_InterruptIdle(t *testing.T) {
	out := &bytes.Buffer{}
	ed := New(strings.NewReader("ls\n"), out, Config{Echo: true})

	ed.Interrupt()
	assert.Empty(t, out.String())

	line, err := ed.Readline(testPrompt)
	assert.Nil(t, err)
	assert.Equal(t, "ls", line)

	ed.Interrupt()
	assert.Equal(t, testPrompt+"ls\n", out.String())
}
