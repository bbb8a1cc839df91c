// Package complete implements filename completion for the line editor.
package complete

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Engine completes partial file names against a directory.
type Engine struct {
	fs afero.Fs
}

// New creates an Engine that reads directories from fs.
func New(fs afero.Fs) *Engine {
	return &Engine{fs: fs}
}

// NewOsEngine creates an Engine backed by the host filesystem.
func NewOsEngine() *Engine {
	return New(afero.NewOsFs())
}

// CurrentToken returns the text after the last space in line, which is the
// token completion operates on.
func CurrentToken(line string) string {
	return line[strings.LastIndex(line, " ")+1:]
}

// Complete returns the text that should be appended to token so it names the
// single entry in dir that starts with it. If no entry or more than one entry
// matches, the empty string is returned.
//
// Tokens containing a slash are completed inside the directory they name,
// relative to dir unless they're absolute.
func (e *Engine) Complete(token, dir string) (string, error) {
	if token == "" {
		return "", nil
	}

	searchDir, base := dir, token
	if i := strings.LastIndex(token, "/"); i >= 0 {
		base = token[i+1:]
		if path.IsAbs(token) {
			searchDir = token[:i+1]
		} else {
			searchDir = filepath.Join(dir, token[:i+1])
		}
	}

	fd, err := e.fs.Open(searchDir)
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	defer fd.Close()

	names, err := fd.Readdirnames(-1)
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}

	var match string
	matches := 0
	for _, name := range names {
		if !strings.HasPrefix(name, base) {
			continue
		}
		matches++
		if matches > 1 {
			return "", nil
		}
		match = name
	}

	if matches != 1 {
		return "", nil
	}

	return match[len(base):], nil
}
