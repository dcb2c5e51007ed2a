package notation

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Entry é uma aposta elementar extraída do texto do operador.
// Entradas que compartilham o mesmo Original vieram da mesma notação; a soma
// dos Amount delas é o valor total daquela notação.
type Entry struct {
	Number        string          `json:"number"`
	Amount        decimal.Decimal `json:"amount"`
	Original      string          `json:"original"`
	IsPermutation bool            `json:"isPermutation"`
}

// Padrões em ordem de prioridade. Espaços dentro de uma notação são só
// espaço/tab: uma notação nunca atravessa linhas.
var (
	// 123R1000-10000: direto recebe o valor depois do separador, demais permutações o valor do R
	reverseFirst = regexp.MustCompile(`(\d{3})[ \t]*[Rr][ \t]*(\d{2,7})[ \t]*[-=@*][ \t]*(\d{2,7})`)
	// 123-10000R1000: direto recebe o primeiro valor, demais permutações o valor do R
	directFirst = regexp.MustCompile(`(\d{3})[ \t]*[-=@*][ \t]*(\d{2,7})[ \t]*[Rr][ \t]*(\d{2,7})`)
	// 123-1000, 123 1000, 123R1000, 123@1000, 123/1000 ...
	standard = regexp.MustCompile(`(\d{3})[ \t]*(?:([Rr@])[ \t]*[-=*.,/ \t]?|[-=*.,/ \t])[ \t]*(\d{2,7})`)
)

type matcher struct {
	re       *regexp.Regexp
	compound bool // candidato com valor longo demais descarta o trecho inteiro
	expand   func(groups []string, original string) []Entry
}

var matchers = []matcher{
	{re: reverseFirst, compound: true, expand: func(g []string, orig string) []Entry {
		return compound(g[1], amount(g[3]), amount(g[2]), orig)
	}},
	{re: directFirst, compound: true, expand: func(g []string, orig string) []Entry {
		return compound(g[1], amount(g[2]), amount(g[3]), orig)
	}},
	{re: standard, expand: func(g []string, orig string) []Entry {
		amt := amount(g[3])
		if g[2] == "" {
			return []Entry{{Number: g[1], Amount: amt, Original: orig}}
		}
		perms := Permutations(g[1])
		out := make([]Entry, 0, len(perms))
		for _, p := range perms {
			out = append(out, Entry{Number: p, Amount: amt, Original: orig, IsPermutation: true})
		}
		return out
	}},
}

// compound gera a entrada do número direto e uma por permutação distinta restante
func compound(num string, direct, others decimal.Decimal, orig string) []Entry {
	rest := otherPermutations(num)
	out := make([]Entry, 0, 1+len(rest))
	out = append(out, Entry{Number: num, Amount: direct, Original: orig})
	for _, p := range rest {
		out = append(out, Entry{Number: p, Amount: others, Original: orig, IsPermutation: true})
	}
	return out
}

func amount(s string) decimal.Decimal {
	n, _ := strconv.ParseInt(s, 10, 64) // \d{2,7} sempre cabe em int64
	return decimal.NewFromInt(n)
}

type group struct {
	start   int
	entries []Entry
}

// Parse converte texto livre em apostas elementares. Nunca falha: trechos que
// não casam com nenhuma notação são ignorados e o resultado é o que foi
// reconhecido, na ordem em que aparece no texto.
func Parse(input string) []Entry {
	var (
		used   claimed
		groups []group
	)
	for _, m := range matchers {
		pos := 0
		for pos < len(input) {
			loc := m.re.FindStringSubmatchIndex(input[pos:])
			if loc == nil {
				break
			}
			start, end := pos+loc[0], pos+loc[1]
			if used.overlaps(start, end) || !leading(input, &used, start) {
				pos = start + 1
				continue
			}
			if !trailing(input, &used, end) {
				if m.compound {
					// 123R1000-12345678: o prefixo não pode virar aposta simples
					end = digitsEnd(input, &used, end)
					used.add(start, end)
					pos = end
					continue
				}
				pos = start + 1
				continue
			}

			g := make([]string, len(loc)/2)
			for i := range g {
				if loc[2*i] >= 0 {
					g[i] = input[pos+loc[2*i] : pos+loc[2*i+1]]
				}
			}
			original := strings.TrimSpace(g[0])
			groups = append(groups, group{start: start, entries: m.expand(g, original)})
			used.add(start, end)
			pos = end
		}
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].start < groups[j].start })
	var out []Entry
	for _, g := range groups {
		out = append(out, g.entries...)
	}
	return out
}

// leading exige fronteira antes do número: nada de letra/dígito colado.
// Trecho já consumido conta como fronteira.
func leading(s string, used *claimed, start int) bool {
	return start == 0 || used.covers(start-1) || !isWordByte(s[start-1])
}

// trailing exige que nenhum dígito venha colado depois do valor
func trailing(s string, used *claimed, end int) bool {
	return end == len(s) || used.covers(end) || !isDigit(s[end])
}

// digitsEnd avança end até o fim da sequência de dígitos livres
func digitsEnd(s string, used *claimed, end int) int {
	for end < len(s) && isDigit(s[end]) && !used.covers(end) {
		end++
	}
	return end
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isWordByte(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}

// Total soma o valor de todas as entradas
func Total(entries []Entry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Amount)
	}
	return sum
}
