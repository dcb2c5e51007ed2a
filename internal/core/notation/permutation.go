package notation

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNotThreeChars é o pânico de Permutations quando recebe algo que não tem 3 bytes.
var ErrNotThreeChars = errors.New("notation: permutation input must have exactly 3 characters")

// Permutations retorna as permutações distintas de um número de 3 dígitos
// (1, 3 ou 6 elementos). O resultado vem ordenado, mas quem chama não deve
// depender da ordem.
func Permutations(s string) []string {
	if len(s) != 3 {
		panic(fmt.Errorf("%w: %q", ErrNotThreeChars, s))
	}
	a, b, c := s[0], s[1], s[2]
	cands := [6][3]byte{
		{a, b, c}, {a, c, b},
		{b, a, c}, {b, c, a},
		{c, a, b}, {c, b, a},
	}

	seen := make(map[string]struct{}, 6)
	out := make([]string, 0, 6)
	for _, p := range cands {
		v := string(p[:])
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// otherPermutations é Permutations sem o próprio número
func otherPermutations(s string) []string {
	all := Permutations(s)
	out := all[:0]
	for _, p := range all {
		if p != s {
			out = append(out, p)
		}
	}
	return out
}
