package shell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := map[string]struct {
		line     string
		expected *Command
	}{
		"simple": {
			line:     "ls -la /tmp",
			expected: &Command{Argv1: []string{"ls", "-la", "/tmp"}},
		},
		"pipe": {
			line: "echo hi | cat",
			expected: &Command{
				Argv1:      []string{"echo", "hi"},
				Argv2:      []string{"cat"},
				Pipelining: true,
			},
		},
		"pipe-no-spaces": {
			line: "echo hi|cat",
			expected: &Command{
				Argv1:      []string{"echo", "hi"},
				Argv2:      []string{"cat"},
				Pipelining: true,
			},
		},
		"background": {
			line:     "sleep 2 &",
			expected: &Command{Argv1: []string{"sleep", "2"}, Background: true},
		},
		"truncate": {
			line: "echo a > f",
			expected: &Command{
				Argv1:       []string{"echo", "a"},
				RedirectOut: true,
				Outfile:     "f",
			},
		},
		"append": {
			line: "echo b >> f",
			expected: &Command{
				Argv1:          []string{"echo", "b"},
				RedirectOut:    true,
				RedirectAppend: true,
				Outfile:        "f",
			},
		},
		"everything": {
			line: "sort < in.txt | uniq -c >> out.txt &",
			expected: &Command{
				Argv1:          []string{"sort"},
				Argv2:          []string{"uniq", "-c"},
				Pipelining:     true,
				Background:     true,
				RedirectIn:     true,
				RedirectOut:    true,
				RedirectAppend: true,
				Infile:         "in.txt",
				Outfile:        "out.txt",
			},
		},
		"quotes": {
			line:     `echo 'a  b' "c \"d\"" e\ f`,
			expected: &Command{Argv1: []string{"echo", "a  b", `c "d"`, "e f"}},
		},
		"quoted-pipe": {
			line:     `echo "a|b"`,
			expected: &Command{Argv1: []string{"echo", "a|b"}},
		},
		"no-glob": {
			line:     "ls *.go",
			expected: &Command{Argv1: []string{"ls", "*.go"}},
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			actual, err := Parse(tc.line)

			assert.Nil(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestParse_empty(t *testing.T) {
	for _, line := range []string{"", "   ", "\t", "# just a comment"} {
		_, err := Parse(line)
		assert.True(t, errors.Is(err, ErrEmptyInput), "line %q: %v", line, err)
	}
}

func TestParse_errors(t *testing.T) {
	cases := []string{
		"echo 'unterminated",
		"a | b | c",
		"a && b",
		"a; b",
		"echo $HOME",
		"echo $(pwd)",
		"A=B env",
		"cat | sort < in",
		"echo hi > out | cat",
		"echo 2>&1",
		"( ls )",
		"|",
		"> f",
	}

	for _, line := range cases {
		t.Run(line, func(t *testing.T) {
			_, err := Parse(line)

			var parseErr *ParseError
			assert.True(t, errors.As(err, &parseErr), "expected parse error, got %v", err)
		})
	}
}

func TestCommand_Stages(t *testing.T) {
	t.Run("sole", func(t *testing.T) {
		cmd := &Command{
			Argv1:       []string{"cat"},
			RedirectIn:  true,
			Infile:      "in",
			RedirectOut: true,
			Outfile:     "out",
		}

		assert.Equal(t, []Stage{
			{Argv: []string{"cat"}, Role: RoleSole, Infile: "in", Outfile: "out"},
		}, cmd.Stages())
	})

	t.Run("pipe", func(t *testing.T) {
		cmd := &Command{
			Argv1:          []string{"cat"},
			Argv2:          []string{"sort"},
			Pipelining:     true,
			RedirectIn:     true,
			Infile:         "in",
			RedirectOut:    true,
			RedirectAppend: true,
			Outfile:        "out",
		}

		assert.Equal(t, []Stage{
			{Argv: []string{"cat"}, Role: RoleWriter, Infile: "in"},
			{Argv: []string{"sort"}, Role: RoleReader, Outfile: "out", Append: true},
		}, cmd.Stages())
	})
}

func TestCommand_Validate(t *testing.T) {
	assert.NotNil(t, (&Command{}).Validate())
	assert.NotNil(t, (&Command{Argv1: []string{"a"}, Pipelining: true}).Validate())
	assert.NotNil(t, (&Command{Argv1: []string{"a"}, RedirectIn: true}).Validate())
	assert.NotNil(t, (&Command{Argv1: []string{"a"}, RedirectOut: true}).Validate())
	assert.Nil(t, (&Command{Argv1: []string{"a"}}).Validate())
}

func TestCommand_String(t *testing.T) {
	cmd, err := Parse("sort < in | uniq >> out &")
	assert.Nil(t, err)
	assert.Equal(t, "sort < in | uniq >> out &", cmd.String())
}

func TestRole(t *testing.T) {
	for _, r := range []Role{RoleSole, RoleWriter, RoleReader} {
		parsed, err := ParseRole(r.String())
		assert.Nil(t, err)
		assert.Equal(t, r, parsed)
	}

	_, err := ParseRole("bogus")
	assert.NotNil(t, err)
}
