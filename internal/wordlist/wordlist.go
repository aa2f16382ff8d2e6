// Package wordlist loads candidate-label wordlists and target-domain
// lists: newline-delimited text, trimmed, empty lines skipped. A small
// embedded wordlist backs runs that configure no file of their own.
package wordlist

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed subdomains.txt
var builtinFS embed.FS

// Levels of the bundled wordlist directory layout. A run picks a level
// by name; an explicit file path always wins over the level.
const (
	LevelSmall  = "small"
	LevelMedium = "medium"
	LevelLarge  = "large"
)

// ValidLevel reports whether name is a known wordlist level.
func ValidLevel(name string) bool {
	switch name {
	case LevelSmall, LevelMedium, LevelLarge:
		return true
	}
	return false
}

// LevelPath returns the conventional file path for a wordlist level.
func LevelPath(dir, level string) string {
	return fmt.Sprintf("%s/%s.txt", strings.TrimRight(dir, "/"), level)
}

// Load reads a newline-delimited list from path. Lines are trimmed and
// empty lines dropped; duplicates are preserved, each line is a
// candidate in its own right.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a newline-delimited list from r.
func Parse(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// Builtin returns the embedded default wordlist.
func Builtin() []string {
	data, err := builtinFS.ReadFile("subdomains.txt")
	if err != nil {
		return nil
	}
	words, _ := Parse(strings.NewReader(string(data)))
	return words
}
