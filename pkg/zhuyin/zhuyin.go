// Package zhuyin maps Zhuyin (Bopomofo) symbols to the keys of the standard
// Zhuyin keyboard layout and derives the keystrokes needed to type an
// annotated syllable.
package zhuyin

// Version returns the current version of the package.
func Version() string { return "0.2.0" }

// Key is a single physical key code on a QWERTY keyboard (e.g. "1", "q", " ").
type Key string

// KeySpace is the space bar. In the Zhuyin input method it commits a
// first-tone syllable, which carries no visible tone mark.
const KeySpace Key = " "

// Tone marks. The first tone has no symbol.
const (
	ToneSecond  rune = 'ˊ'
	ToneThird   rune = 'ˇ'
	ToneFourth  rune = 'ˋ'
	ToneNeutral rune = '˙'
)

type entry struct {
	symbol rune
	key    Key
	tone   bool
}

// table follows the keyboard row by row so Symbols() has a stable,
// display-friendly order.
var table = []entry{
	{'ㄅ', "1", false}, {'ㄉ', "2", false}, {ToneThird, "3", true}, {ToneFourth, "4", true},
	{'ㄓ', "5", false}, {ToneSecond, "6", true}, {ToneNeutral, "7", true}, {'ㄚ', "8", false},
	{'ㄞ', "9", false}, {'ㄢ', "0", false}, {'ㄦ', "-", false},

	{'ㄆ', "q", false}, {'ㄊ', "w", false}, {'ㄍ', "e", false}, {'ㄐ', "r", false}, {'ㄔ', "t", false},
	{'ㄗ', "y", false}, {'ㄧ', "u", false}, {'ㄛ', "i", false}, {'ㄟ', "o", false}, {'ㄣ', "p", false},

	{'ㄇ', "a", false}, {'ㄋ', "s", false}, {'ㄎ', "d", false}, {'ㄑ', "f", false}, {'ㄕ', "g", false},
	{'ㄘ', "h", false}, {'ㄨ', "j", false}, {'ㄜ', "k", false}, {'ㄠ', "l", false}, {'ㄤ', ";", false},

	{'ㄈ', "z", false}, {'ㄌ', "x", false}, {'ㄏ', "c", false}, {'ㄒ', "v", false}, {'ㄖ', "b", false},
	{'ㄙ', "n", false}, {'ㄩ', "m", false}, {'ㄝ', ",", false}, {'ㄡ', ".", false}, {'ㄥ', "/", false},
}

var (
	symbolToKey = make(map[rune]Key, len(table))
	keyToSymbol = make(map[Key]rune, len(table))
	toneMarks   = make(map[rune]bool, 4)
)

func init() {
	for _, e := range table {
		symbolToKey[e.symbol] = e.key
		keyToSymbol[e.key] = e.symbol
		if e.tone {
			toneMarks[e.symbol] = true
		}
	}
}

// KeyFor returns the key that produces symbol. ok is false for runes that
// are not Zhuyin symbols or tone marks (punctuation, whitespace, Han
// characters).
func KeyFor(symbol rune) (k Key, ok bool) {
	k, ok = symbolToKey[symbol]
	return k, ok
}

// SymbolFor is the reverse lookup used by keyboard display code.
// KeySpace has no symbol.
func SymbolFor(k Key) (symbol rune, ok bool) {
	symbol, ok = keyToSymbol[k]
	return symbol, ok
}

// IsToneMark reports whether r is one of ˊ ˇ ˋ ˙.
func IsToneMark(r rune) bool {
	return toneMarks[r]
}

// IsSymbol reports whether r belongs to the annotation alphabet: the 37
// sound symbols plus the four tone marks.
func IsSymbol(r rune) bool {
	_, ok := symbolToKey[r]
	return ok
}

// Symbols returns every symbol in keyboard order.
func Symbols() []rune {
	out := make([]rune, len(table))
	for i, e := range table {
		out[i] = e.symbol
	}
	return out
}
