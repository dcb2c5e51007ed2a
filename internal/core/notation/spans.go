package notation

import "sort"

// span é um intervalo [start, end) de bytes já consumido por um matcher
type span struct{ start, end int }

// claimed guarda os intervalos consumidos, ordenados e sem sobreposição
type claimed struct{ spans []span }

func (c *claimed) overlaps(start, end int) bool {
	i := sort.Search(len(c.spans), func(i int) bool { return c.spans[i].end > start })
	return i < len(c.spans) && c.spans[i].start < end
}

func (c *claimed) covers(pos int) bool { return c.overlaps(pos, pos+1) }

func (c *claimed) add(start, end int) {
	i := sort.Search(len(c.spans), func(i int) bool { return c.spans[i].start >= start })
	c.spans = append(c.spans, span{})
	copy(c.spans[i+1:], c.spans[i:])
	c.spans[i] = span{start, end}
}
