package notation

import (
	"regexp"
	"strings"
)

var (
	ocrOne      = regexp.MustCompile(`[Il]`)
	ocrZero     = regexp.MustCompile(`[oO]`)
	ocrFive     = regexp.MustCompile(`[sS]`)
	ocrEight    = regexp.MustCompile(`[bB]`)
	ocrStrip    = regexp.MustCompile(`[^0-9Rr \t\n@=*.,/\-]`)
	blankRun    = regexp.MustCompile(`[ \t]+`)
	voiceNumber = regexp.MustCompile(`(\d{3})(\d+)`)
)

// CleanOCR corrige as confusões mais comuns de leitura ótica (I/l->1, o->0,
// s->5, b->8) e remove tudo o que não pode fazer parte de uma notação.
// Quebras de linha são preservadas.
func CleanOCR(text string) string {
	text = ocrOne.ReplaceAllString(text, "1")
	text = ocrZero.ReplaceAllString(text, "0")
	text = ocrFive.ReplaceAllString(text, "5")
	text = ocrEight.ReplaceAllString(text, "8")
	text = ocrStrip.ReplaceAllString(text, "")
	text = blankRun.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// ordem importa: "hundred"/"thousand" viram zeros depois dos dígitos
var spoken = []struct{ word, digits string }{
	{"zero", "0"}, {"one", "1"}, {"two", "2"}, {"three", "3"}, {"four", "4"},
	{"five", "5"}, {"six", "6"}, {"seven", "7"}, {"eight", "8"}, {"nine", "9"},
	{"hundred", "00"}, {"thousand", "000"},
}

// FromVoice transforma um ditado ("one two three five hundred") em notação de
// permutação ("123R500"). Apenas a primeira sequência de dígitos é convertida.
func FromVoice(text string) string {
	s := strings.ToLower(text)
	for _, w := range spoken {
		s = strings.ReplaceAll(s, w.word, w.digits)
	}
	s = strings.Join(strings.Fields(s), "")

	loc := voiceNumber.FindStringSubmatchIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + s[loc[2]:loc[3]] + "R" + s[loc[4]:loc[5]] + s[loc[1]:]
}
