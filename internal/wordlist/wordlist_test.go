package wordlist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := "www\n  mail  \n\nftp\nwww\n\t\n"
	words, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{"www", "mail", "ftp", "www"}
	if len(words) != len(want) {
		t.Fatalf("words = %v, want %v", words, want)
	}
	for i := range want {
		if words[i] != want[i] {
			t.Fatalf("words = %v, want %v", words, want)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.txt")
	if err := os.WriteFile(path, []byte("one\ntwo\n"), 0644); err != nil {
		t.Fatal(err)
	}
	words, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(words) != 2 || words[0] != "one" || words[1] != "two" {
		t.Fatalf("words = %v", words)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt")); !os.IsNotExist(err) {
		t.Fatalf("err = %v, want not-exist", err)
	}
}

func TestBuiltin(t *testing.T) {
	words := Builtin()
	if len(words) == 0 {
		t.Fatal("embedded wordlist is empty")
	}
	for _, w := range words {
		if strings.TrimSpace(w) != w || w == "" {
			t.Fatalf("untrimmed or empty entry %q", w)
		}
	}
}

func TestValidLevel(t *testing.T) {
	for _, level := range []string{LevelSmall, LevelMedium, LevelLarge} {
		if !ValidLevel(level) {
			t.Errorf("ValidLevel(%q) = false", level)
		}
	}
	if ValidLevel("huge") {
		t.Error(`ValidLevel("huge") = true`)
	}
}

func TestLevelPath(t *testing.T) {
	if got := LevelPath("resources/wordlists/", LevelSmall); got != "resources/wordlists/small.txt" {
		t.Fatalf("LevelPath = %q", got)
	}
}
