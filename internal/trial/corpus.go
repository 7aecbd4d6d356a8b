// Package trial owns the vowel corpus and the non-repeating drill selection policy.
package trial

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Vowel is one corpus entry: a phoneme id, its IPA code point, and example words.
type Vowel struct {
	ID    string   `json:"id" yaml:"id"`
	IPA   string   `json:"ipa" yaml:"ipa"`
	Words []string `json:"words" yaml:"words"`
}

// Corpus is an ordered, non-empty list of vowel entries.
type Corpus []Vowel

// DefaultCorpus returns the eleven drill vowels.
//
// IPA is either the bare symbol (when it matches the id) or the hex code point.
func DefaultCorpus() Corpus {
	return Corpus{
		{ID: "i", IPA: "i", Words: []string{"beat", "peak", "beak"}},
		{ID: "I", IPA: "026A", Words: []string{"bit", "kick", "kid"}},
		{ID: "e", IPA: "e", Words: []string{"bait", "bake", "cake"}},
		{ID: "E", IPA: "025B", Words: []string{"bet", "deck", "pet"}},
		{ID: "ae", IPA: "00E6", Words: []string{"bat", "pack", "pad"}},
		{ID: "u", IPA: "u", Words: []string{"boot", "dupe", "toot"}},
		{ID: "U", IPA: "028A", Words: []string{"put", "took", "cook"}},
		{ID: "o", IPA: "o", Words: []string{"boat", "toad", "goat"}},
		{ID: "a", IPA: "a", Words: []string{"bought", "talk", "caught"}},
		{ID: "^", IPA: "028C", Words: []string{"cut", "tuck", "cup"}},
		{ID: "r", IPA: "025D", Words: []string{"dirt", "curb", "bird"}},
	}
}

// Validate enforces the corpus invariants required by Selector.
func (c Corpus) Validate() error {
	if len(c) == 0 {
		return errors.New("corpus must not be empty")
	}
	seen := make(map[string]struct{}, len(c))
	for i, v := range c {
		if strings.TrimSpace(v.ID) == "" {
			return fmt.Errorf("corpus entry %d has an empty vowel id", i)
		}
		if strings.TrimSpace(v.IPA) == "" {
			return fmt.Errorf("vowel %q has an empty ipa symbol", v.ID)
		}
		if len(v.Words) == 0 {
			return fmt.Errorf("vowel %q has no example words", v.ID)
		}
		if _, dup := seen[v.ID]; dup {
			return fmt.Errorf("duplicate vowel id %q", v.ID)
		}
		seen[v.ID] = struct{}{}
	}
	return nil
}

// Lookup returns the entry for id.
func (c Corpus) Lookup(id string) (Vowel, bool) {
	for _, v := range c {
		if v.ID == id {
			return v, true
		}
	}
	return Vowel{}, false
}

// IDs lists vowel ids in corpus order.
func (c Corpus) IDs() []string {
	ids := make([]string, 0, len(c))
	for _, v := range c {
		ids = append(ids, v.ID)
	}
	return ids
}

// Trial is one drill: a vowel and a target word containing it.
type Trial struct {
	VowelID string `json:"vowel"`
	IPA     string `json:"ipa"`
	Word    string `json:"word"`
}

// IsZero reports whether no trial has been selected.
func (t Trial) IsZero() bool {
	return t.VowelID == "" && t.Word == ""
}

// IPADisplay returns the bare symbol for ASCII vowels and an HTML numeric
// character reference (`&#x026A;`) otherwise.
func IPADisplay(t Trial) string {
	if t.VowelID == t.IPA {
		return t.VowelID
	}
	return "&#x" + t.IPA + ";"
}

// Symbol decodes the IPA code point into its glyph for terminal output.
func (t Trial) Symbol() string {
	if t.VowelID == t.IPA {
		return t.IPA
	}
	cp, err := strconv.ParseUint(t.IPA, 16, 32)
	if err != nil {
		return t.IPA
	}
	return string(rune(cp))
}
