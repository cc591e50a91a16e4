// Package cache remembers the executables in each directory on the search
// path. It is used for command completion.
package cache

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Complete returns the sorted, distinct names of the executables in the
// directories listed in path that begin with prefix.
func Complete(path, prefix string) []string {
	seen := map[string]struct{}{}
	names := []string{}

	for _, dirname := range split(path) {
		for _, name := range Executables(dirname) {
			if !strings.HasPrefix(name, prefix) {
				continue
			}

			if _, ok := seen[name]; ok {
				continue
			}

			seen[name] = struct{}{}
			names = append(names, name)
		}
	}

	sort.Strings(names)

	return names
}

// Executables returns the names of the executables in dirname. A directory
// seen before is answered from the cache and refreshed in the background.
func Executables(dirname string) []string {
	type result struct {
		names []string
		ok    bool
	}

	resultq := make(chan result)

	requestq <- func() {
		names, ok := executables[dirname]
		resultq <- result{names, ok}
		close(resultq)
	}

	r := <-resultq
	if !r.ok {
		return Refresh(dirname)
	}

	go Refresh(dirname)

	return r.names
}

// Populate scans every directory in path.
func Populate(path string) {
	for _, dirname := range split(path) {
		Refresh(dirname)
	}
}

// Refresh rescans dirname and returns the names of its executables.
func Refresh(dirname string) []string {
	names := scan(dirname)

	done := make(chan struct{})

	requestq <- func() {
		executables[dirname] = names
		close(done)
	}

	<-done

	return names
}

var (
	executables = map[string][]string{}
	requestq    chan func()
)

func init() {
	requestq = make(chan func(), 1)

	go service()
}

func scan(dirname string) []string {
	entries, err := os.ReadDir(dirname)
	if err != nil {
		return nil
	}

	names := []string{}

	for _, e := range entries {
		// Follows symbolic links.
		i, err := os.Stat(filepath.Join(dirname, e.Name()))
		if err != nil || i.IsDir() || i.Mode()&0o111 == 0 {
			continue
		}

		names = append(names, e.Name())
	}

	return names
}

func service() {
	for {
		(<-requestq)()
	}
}

func split(path string) []string {
	dirnames := []string{}

	for _, dirname := range filepath.SplitList(path) {
		if dirname == "" {
			dirname = "."
		} else {
			dirname = filepath.Clean(dirname)
		}

		dirnames = append(dirnames, dirname)
	}

	return dirnames
}
