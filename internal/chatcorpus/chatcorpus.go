// Package chatcorpus loads the optional chat-message source file (§6): one
// message per line, falling back to a small built-in default when no file
// is given.
package chatcorpus

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

var defaultLines = []string{
	"hello from the swarm",
	"anyone else lagging?",
	"nice build",
}

// Corpus is an immutable, process-wide set of candidate chat lines.
type Corpus struct {
	lines []string
}

var (
	once     sync.Once
	instance *Corpus
	loadErr  error
)

// Load reads path (one message per line, blank lines skipped) once per
// process; subsequent calls return the cached Corpus regardless of path.
// An empty path uses the built-in default lines.
func Load(path string) (*Corpus, error) {
	once.Do(func() {
		if path == "" {
			instance = &Corpus{lines: append([]string(nil), defaultLines...)}
			return
		}
		f, err := os.Open(path)
		if err != nil {
			loadErr = fmt.Errorf("chatcorpus: open %s: %w", path, err)
			return
		}
		defer f.Close()

		var lines []string
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimRight(scanner.Text(), "\r\n")
			if line == "" {
				continue
			}
			lines = append(lines, line)
		}
		if err := scanner.Err(); err != nil {
			loadErr = fmt.Errorf("chatcorpus: read %s: %w", path, err)
			return
		}
		if len(lines) == 0 {
			lines = append(lines, defaultLines...)
		}
		instance = &Corpus{lines: lines}
	})
	return instance, loadErr
}

// Pick returns the line at index i mod len(lines), so callers can drive
// selection with their own RNG without the corpus importing math/rand.
func (c *Corpus) Pick(i int) string {
	if len(c.lines) == 0 {
		return ""
	}
	return c.lines[((i%len(c.lines))+len(c.lines))%len(c.lines)]
}

// Len returns the number of loaded lines.
func (c *Corpus) Len() int { return len(c.lines) }
