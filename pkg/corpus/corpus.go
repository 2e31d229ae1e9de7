// Package corpus parses the annotated lesson corpus into typing exercises,
// indexes them by publisher, grade and lesson, and serves filtered random
// samples to the game layer.
//
// Corpus text is line oriented:
//
//	【康軒 (Kangxuan)】                     publisher header
//	一年級 (Grade 1)                        grade header
//	•	第 1 課: 我(ㄨㄛˇ)愛、(上)ㄕㄤˋ學     item line, segments split on 、
//	_____                                  ignored
package corpus

import (
	_ "embed"
	"fmt"
	"os"
)

//go:embed data/corpus.txt
var staticCorpus string

// Static returns the built-in corpus text.
func Static() string { return staticCorpus }

// Load returns the corpus text at path, or the built-in corpus when path is empty.
func Load(path string) (string, error) {
	if path == "" {
		return staticCorpus, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read corpus %s: %w", path, err)
	}
	return string(b), nil
}
