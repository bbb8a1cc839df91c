package core

import (
	"os"
	"os/user"
	"regexp"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

const (
	EnvHome = "HOME"
	EnvUser = "USER"

	DefaultPrompt = `\w $ `
)

var (
	promptEscape = regexp.MustCompile(`\\(0[0-7]{1,3}|x[0-9a-fA-F]{1,2}|.)`)

	promptEscapes = map[byte]string{
		'n':  "\n",   // newline
		'r':  "\r",   // carriage return
		't':  "\t",   // horizontal tab
		'a':  "\a",   // alert
		'e':  "\033", // escape
		'\\': `\`,    // backslash literal
	}

	promptUserColor = color.New(color.FgGreen, color.Bold)
	promptDirColor  = color.New(color.FgBlue, color.Bold)
)

// PromptInfo holds the values substituted into a prompt.
type PromptInfo struct {
	Dir   string
	User  string
	Host  string
	Root  bool
	Color bool
}

// CurrentPromptInfo describes the running process.
func CurrentPromptInfo(dir string, colorPrompt bool) PromptInfo {
	info := PromptInfo{
		Dir:   dir,
		User:  os.Getenv(EnvUser),
		Root:  os.Geteuid() == 0,
		Color: colorPrompt,
	}

	if u, err := user.Current(); err == nil {
		info.User = u.Username
	}
	if host, err := os.Hostname(); err == nil {
		info.Host = host
	}

	return info
}

// FormatPrompt expands a prompt format. \w is the working directory, \u the
// user, \h the host name up to the first '.' and \$ is '#' for root or '$'.
// The usual character escapes like \n, \e and \033 are also understood.
func FormatPrompt(format string, info PromptInfo) string {
	if format == "" {
		format = DefaultPrompt
	}

	username, dir := info.User, info.Dir
	if info.Color {
		username = promptUserColor.Sprint(username)
		dir = promptDirColor.Sprint(dir)
	}

	host := info.Host
	if i := strings.IndexByte(host, '.'); i >= 0 {
		host = host[:i]
	}

	return promptEscape.ReplaceAllStringFunc(format, func(esc string) string {
		switch code := esc[1:]; {
		case code == "u":
			return username
		case code == "h":
			return host
		case code == "w":
			return dir
		case code == "$":
			if info.Root {
				return "#"
			}
			return "$"
		case len(code) > 1 && code[0] == '0':
			out, err := strconv.ParseUint(code[1:], 8, 8)
			if err != nil {
				return esc
			}
			return string([]byte{byte(out)})
		case len(code) > 1 && code[0] == 'x':
			out, err := strconv.ParseUint(code[1:], 16, 8)
			if err != nil {
				return esc
			}
			return string([]byte{byte(out)})
		}

		if out, ok := promptEscapes[esc[1]]; ok {
			return out
		}
		return esc
	})
}
