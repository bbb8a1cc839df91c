package proc

import "golang.org/x/sys/unix"

// dup2 makes newfd a copy of oldfd. Some linux ports lack dup2, dup3 is
// available everywhere.
func dup2(oldfd, newfd int) error {
	return unix.Dup3(oldfd, newfd, 0)
}
