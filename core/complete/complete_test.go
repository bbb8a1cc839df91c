package complete

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
)

func newTestFs(t *testing.T, files ...string) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	for _, f := range files {
		if err := afero.WriteFile(fs, f, []byte("test"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func TestEngine_Complete(t *testing.T) {
	fs := newTestFs(t,
		"/work/Readme.md",
		"/work/Foo",
		"/work/Foobar",
		"/work/src/main.go",
		"/work/src/main_test.go",
		"/work/src/parser.go",
		"/etc/hostname",
	)
	engine := New(fs)

	cases := map[string]struct {
		token    string
		expected string
	}{
		"unique":           {"Rea", "dme.md"},
		"ambiguous":        {"F", ""},
		"exact-ambiguous":  {"Foo", ""},
		"unique-longer":    {"Foob", "ar"},
		"no-match":         {"zzz", ""},
		"complete-name":    {"Readme.md", ""},
		"token-too-long":   {"Readme.md.bak", ""},
		"empty":            {"", ""},
		"subdir":           {"src/p", "arser.go"},
		"subdir-ambiguous": {"src/main", ""},
		"dir-name":         {"sr", "c"},
		"absolute":         {"/etc/host", "name"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			actual, err := engine.Complete(tc.token, "/work")

			assert.Nil(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestEngine_Complete_missingDir(t *testing.T) {
	engine := New(afero.NewMemMapFs())

	suffix, err := engine.Complete("abc", "/does/not/exist")

	assert.NotNil(t, err)
	assert.Equal(t, "", suffix)
}

func TestEngine_Complete_readOnly(t *testing.T) {
	fs := newTestFs(t, "/work/Readme.md")
	engine := New(afero.NewReadOnlyFs(fs))

	suffix, err := engine.Complete("R", "/work")

	assert.Nil(t, err)
	assert.Equal(t, "eadme.md", suffix)
}

func TestCurrentToken(t *testing.T) {
	cases := map[string]string{
		"":             "",
		"cat":          "cat",
		"cat Rea":      "Rea",
		"cat ":         "",
		"a b  c/d.txt": "c/d.txt",
	}

	for line, expected := range cases {
		assert.Equal(t, expected, CurrentToken(line), "line %q", line)
	}
}
