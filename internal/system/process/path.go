// Released under an MIT license. See LICENSE.

package process

import (
	"errors"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// ErrNotFound is returned by LookPath when name cannot be resolved.
var ErrNotFound = errors.New("command not found")

// IsExecError reports whether err from Start means the program could not be
// executed, as opposed to a failure to create the process.
func IsExecError(err error) bool {
	for _, errno := range []unix.Errno{
		unix.E2BIG, unix.EACCES, unix.EISDIR, unix.ELOOP,
		unix.ENAMETOOLONG, unix.ENOENT, unix.ENOEXEC, unix.ENOTDIR,
		unix.EPERM, unix.ETXTBSY,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}

	return errors.Is(err, ErrNotFound)
}

// LookPath finds the executable name in the colon-separated list of
// directories path. Names beginning with /, ./ or ../ bypass the search.
func LookPath(name, path string) (string, error) {
	if strings.HasPrefix(name, "/") ||
		strings.HasPrefix(name, "./") ||
		strings.HasPrefix(name, "../") {
		if executable(name) {
			return name, nil
		}

		return "", ErrNotFound
	}

	if name == "" || strings.Contains(name, "/") {
		return "", ErrNotFound
	}

	for _, dir := range strings.Split(path, ":") {
		if dir == "" {
			dir = "."
		}

		pathname := dir + "/" + name
		if executable(pathname) {
			return pathname, nil
		}
	}

	return "", ErrNotFound
}

func executable(file string) bool {
	d, err := os.Stat(file)
	if err != nil {
		return false
	}

	m := d.Mode()

	return !m.IsDir() && m&0o111 != 0
}
