// Package wordlist supplies practice words from an embedded corpus or a
// user-provided file.
package wordlist

import (
	"bufio"
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed words.txt
var embeddedCorpus string

// Embedded returns the built-in word corpus, deduplicated, in file order.
func Embedded() []string {
	seen := map[string]struct{}{}
	var words []string
	for _, line := range strings.Split(embeddedCorpus, "\n") {
		word := strings.TrimSpace(line)
		if word == "" {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		words = append(words, word)
	}
	return words
}

// LoadWords reads one word per line from the provided file path.
func LoadWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}

// Corpus returns the user's word list when the file exists, falling back to
// the embedded corpus.
func Corpus(userPath string) []string {
	if userPath != "" {
		if words, err := LoadWords(userPath); err == nil {
			return words
		}
	}
	return Embedded()
}
