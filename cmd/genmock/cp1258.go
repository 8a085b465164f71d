package main

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// vowelModifiers are the marks windows-1258 only carries precomposed with their
// base letter (â ê ô ă ơ ư). Tone marks stay combining.
var vowelModifiers = map[rune]bool{
	'\u0302': true, // circumflex
	'\u0306': true, // breve
	'\u031b': true, // horn
}

// toCP1258Form rewrites NFC Vietnamese text into the mixed form windows-1258
// can represent: modified vowels precomposed, tone marks as combining marks.
func toCP1258Form(s string) string {
	var (
		b     strings.Builder
		base  rune = -1
		tones []rune
	)
	flush := func() {
		if base >= 0 {
			b.WriteRune(base)
		}
		for _, t := range tones {
			b.WriteRune(t)
		}
		base, tones = -1, tones[:0]
	}

	for _, r := range norm.NFD.String(s) {
		switch {
		case vowelModifiers[r] && base >= 0:
			if c := []rune(norm.NFC.String(string([]rune{base, r}))); len(c) == 1 {
				base = c[0]
			} else {
				tones = append(tones, r)
			}
		case unicode.Is(unicode.Mn, r):
			tones = append(tones, r)
		default:
			flush()
			base = r
		}
	}
	flush()
	return b.String()
}
