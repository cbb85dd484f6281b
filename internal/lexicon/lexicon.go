// Package lexicon provides the pronunciation store for FlowCanvas.
//
// The store maps words to one or more ARPABET phoneme sequences (vowels carry
// a trailing stress digit 0/1/2, as in the CMU pronouncing dictionary). A
// compact core table ships embedded in the binary; a larger dictionary can be
// layered on top from a file at startup.
//
// The store is immutable once constructed and therefore safe for concurrent
// use. Words absent from the store are handled by a deterministic
// grapheme-to-phoneme fallback (see Fallback) so that downstream phonetic
// comparison always has input — a lookup miss is never an error.
package lexicon

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

//go:embed data/cmudict-core.dict
var coreDict embed.FS

// Store maps words to their pronunciation variants. Read-only after
// construction.
type Store struct {
	entries map[string][][]string
	words   []string // sorted vocabulary, built once
}

// Option configures a Store during construction.
type Option func(*Store) error

// WithDictionaryFile layers an additional CMU-format dictionary file on top
// of the embedded core table. Entries for the same word are appended as
// pronunciation variants.
func WithDictionaryFile(path string) Option {
	return func(s *Store) error {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("lexicon: open %q: %w", path, err)
		}
		defer f.Close()
		if err := s.parse(f); err != nil {
			return fmt.Errorf("lexicon: parse %q: %w", path, err)
		}
		return nil
	}
}

// New constructs a Store from the embedded core table plus any options.
func New(opts ...Option) (*Store, error) {
	s := &Store{entries: make(map[string][][]string, 128)}

	f, err := coreDict.Open("data/cmudict-core.dict")
	if err != nil {
		return nil, fmt.Errorf("lexicon: open embedded table: %w", err)
	}
	defer f.Close()
	if err := s.parse(f); err != nil {
		return nil, fmt.Errorf("lexicon: parse embedded table: %w", err)
	}

	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	s.words = make([]string, 0, len(s.entries))
	for w := range s.entries {
		s.words = append(s.words, w)
	}
	sort.Strings(s.words)

	return s, nil
}

// parse reads CMU dictionary lines from r into the entry map. Lines starting
// with ";;;" are comments. A "(n)" suffix on the word marks an alternate
// pronunciation and is stripped.
func (s *Store) parse(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, ";;;") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		word := strings.ToLower(fields[0])
		if i := strings.IndexByte(word, '('); i > 0 {
			word = word[:i]
		}
		s.entries[word] = append(s.entries[word], fields[1:])
	}
	return sc.Err()
}

// Lookup returns all known pronunciation variants for word, case-insensitive.
// Returns nil when the word is unknown.
func (s *Store) Lookup(word string) [][]string {
	return s.entries[strings.ToLower(word)]
}

// Has reports whether word is in the store.
func (s *Store) Has(word string) bool {
	_, ok := s.entries[strings.ToLower(word)]
	return ok
}

// Pronunciations returns the known variants for word, or — when the word is
// unknown — a single sequence produced by the Fallback generator. The result
// always contains at least one sequence.
func (s *Store) Pronunciations(word string) [][]string {
	if variants := s.Lookup(word); len(variants) > 0 {
		return variants
	}
	return [][]string{Fallback(word)}
}

// Words returns the sorted vocabulary of the store. The returned slice is
// shared and must not be modified.
func (s *Store) Words() []string {
	return s.words
}

// Len returns the number of distinct words in the store.
func (s *Store) Len() int {
	return len(s.entries)
}
