package evque

import "golang.org/x/sys/unix"

// validateFD reports whether fd is presently open, by probing it with a
// harmless fcntl. The registration state machine uses this to reject a
// READ/WRITE/EXCEPT Add against a closed or never-opened descriptor up
// front, rather than discovering it on the first poller Control call.
func validateFD(fd int) error {
	if fd < 0 {
		return newError(BadIdent, nil)
	}
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0); err != nil {
		return newError(BadIdent, err)
	}
	return nil
}
