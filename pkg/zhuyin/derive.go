package zhuyin

import "unicode"

// Derivation is the result of converting one annotation into keystrokes.
type Derivation struct {
	Keys []Key
	// Skipped holds runes that are neither symbols nor whitespace, in the
	// order they were met. They do not abort derivation.
	Skipped []rune
	HasTone bool
}

// Derive converts a phonetic annotation such as "ㄒㄧㄠˇ" into the key
// sequence that types it. When the annotation yields at least one key and
// carries no tone mark, KeySpace is appended for the implicit first tone.
func Derive(annotation string) Derivation {
	var d Derivation
	for _, r := range annotation {
		k, ok := symbolToKey[r]
		if !ok {
			if !unicode.IsSpace(r) {
				d.Skipped = append(d.Skipped, r)
			}
			continue
		}
		if toneMarks[r] {
			d.HasTone = true
		}
		d.Keys = append(d.Keys, k)
	}
	if len(d.Keys) > 0 && !d.HasTone {
		d.Keys = append(d.Keys, KeySpace)
	}
	return d
}

// DeriveKeystrokes is Derive without the diagnostics.
func DeriveKeystrokes(annotation string) []Key {
	return Derive(annotation).Keys
}

// HasSound reports whether annotation contains at least one non-tone symbol.
func HasSound(annotation string) bool {
	for _, r := range annotation {
		if IsSymbol(r) && !toneMarks[r] {
			return true
		}
	}
	return false
}
