package core

import (
	"fmt"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/josephlewis42/minishell/core/config"
	"github.com/josephlewis42/minishell/core/logger"
	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
	"google.golang.org/protobuf/types/known/structpb"
)

// openTerminal returns the slave side of a fresh pseudo-terminal, skipping
// the test when the environment doesn't provide one.
func openTerminal(t *testing.T) *os.File {
	t.Helper()

	master, err := os.OpenFile("/dev/ptmx", os.O_RDWR, 0)
	if err != nil {
		t.Skipf("no pty available: %v", err)
	}
	t.Cleanup(func() { master.Close() })

	if err := unix.IoctlSetPointerInt(int(master.Fd()), unix.TIOCSPTLCK, 0); err != nil {
		t.Skipf("couldn't unlock pty: %v", err)
	}

	ptyno, err := unix.IoctlGetUint32(int(master.Fd()), unix.TIOCGPTN)
	if err != nil {
		t.Skipf("couldn't get pty number: %v", err)
	}

	slave, err := os.OpenFile(fmt.Sprintf("/dev/pts/%d", ptyno), os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		t.Skipf("couldn't open pty slave: %v", err)
	}
	t.Cleanup(func() { slave.Close() })

	return slave
}

func TestSession_fatalSignalRestoresTerminal(t *testing.T) {
	cases := map[string]struct {
		sig  syscall.Signal
		code int
	}{
		"SIGTERM": {sig: syscall.SIGTERM, code: 143},
		"SIGHUP":  {sig: syscall.SIGHUP, code: 129},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			slave := openTerminal(t)
			fd := int(slave.Fd())

			before, err := unix.IoctlGetTermios(fd, unix.TCGETS)
			assert.Nil(t, err)

			ts := newTestSessionWith(t, func(opts *Options) {
				opts.Config = config.Default()
				opts.Config.LineEditor = config.LineEditorRaw
				opts.Stdin = slave
				opts.Reader = nil
			})

			during, err := unix.IoctlGetTermios(fd, unix.TCGETS)
			assert.Nil(t, err)
			assert.Zero(t, during.Lflag&unix.ICANON, "shell should have left canonical mode")

			exitCode := -1
			ts.exit = func(code int) { exitCode = code }

			ts.handleSignal(tc.sig)

			assert.Equal(t, tc.code, exitCode)
			after, err := unix.IoctlGetTermios(fd, unix.TCGETS)
			assert.Nil(t, err)
			assert.Equal(t, before, after)

			report := logger.NewReport()
			assert.Nil(t, logger.ReadJSONLinesLog(ts.events, func(entry *structpb.Struct) {
				report.Update(entry)
			}))
			assert.Equal(t, 1, report.Events.Count(logger.EventSessionEnd))
		})
	}
}

func TestSession_interruptAtPrompt(t *testing.T) {
	ts := newTestSession(t, "echo alive")

	sent := false
	ts.reader.beforeRead = func() {
		if sent {
			return
		}
		sent = true

		assert.Nil(t, syscall.Kill(os.Getpid(), syscall.SIGINT))
		select {
		case <-ts.reader.interrupted:
		case <-time.After(5 * time.Second):
			t.Error("line was never interrupted")
		}
	}

	assert.Nil(t, ts.Run())
	assert.Equal(t, "alive\n", readFile(t, ts.stdout))
}

func TestSession_interruptDuringChild(t *testing.T) {
	ts := newTestSession(t,
		`sh -c 'kill -INT $PPID; sleep 0.2; echo child'`,
		"echo shell",
	)

	assert.Nil(t, ts.Run())
	assert.True(t, ts.Quit)
	assert.Equal(t, "child\nshell\n", readFile(t, ts.stdout))
}
