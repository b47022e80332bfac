package engine

import (
	"bytes"
	"math"
	"sort"

	"github.com/klauspost/compress/flate"
)

// filterGroups filters every row group with strategy and concatenates the
// result, each row prefixed by its filter byte.
func filterGroups(groups [][][]byte, bpp int, strategy RowFilter) []byte {
	size := 0
	for _, rows := range groups {
		for _, row := range rows {
			size += 1 + len(row)
		}
	}
	out := make([]byte, 0, size)

	for _, rows := range groups {
		if len(rows) == 0 {
			continue
		}
		prev := make([]byte, len(rows[0]))
		var brute *bruteScorer
		if strategy == FilterBrute {
			brute = newBruteScorer()
		}
		candidates := make([][]byte, 5)
		for i := range candidates {
			candidates[i] = make([]byte, len(rows[0]))
		}

		for _, row := range rows {
			var kind byte
			if !strategy.IsHeuristic() {
				kind = byte(strategy)
				applyFilter(kind, candidates[kind], row, prev, bpp)
			} else {
				for k := range candidates {
					applyFilter(byte(k), candidates[k], row, prev, bpp)
				}
				kind = pickFilter(strategy, candidates, brute)
			}
			out = append(out, kind)
			out = append(out, candidates[kind]...)
			if brute != nil {
				brute.commit(candidates[kind])
			}
			prev = row
		}
	}
	return out
}

// pickFilter returns the index of the candidate the heuristic prefers.
// Ties go to the lower filter type.
func pickFilter(strategy RowFilter, candidates [][]byte, brute *bruteScorer) byte {
	best, bestScore := 0, math.Inf(1)
	for k, c := range candidates {
		var score float64
		switch strategy {
		case FilterMinSum:
			score = float64(minSum(c))
		case FilterEntropy:
			score = entropy(c)
		case FilterBigrams:
			score = float64(bigrams(c))
		case FilterBigEnt:
			score = bigramEntropy(c)
		case FilterBrute:
			score = float64(brute.score(c))
		}
		if score < bestScore {
			best, bestScore = k, score
		}
	}
	return byte(best)
}

// minSum sums the bytes interpreted as signed magnitudes.
func minSum(b []byte) int {
	s := 0
	for _, v := range b {
		s += abs(int(int8(v)))
	}
	return s
}

func entropy(b []byte) float64 {
	var counts [256]int
	for _, v := range b {
		counts[v]++
	}
	return shannon(counts[:], len(b))
}

func bigrams(b []byte) int {
	seen := make(map[uint16]struct{}, len(b))
	for i := 1; i < len(b); i++ {
		seen[uint16(b[i-1])<<8|uint16(b[i])] = struct{}{}
	}
	return len(seen)
}

func bigramEntropy(b []byte) float64 {
	if len(b) < 2 {
		return 0
	}
	counts := make(map[uint16]int, len(b))
	for i := 1; i < len(b); i++ {
		counts[uint16(b[i-1])<<8|uint16(b[i])]++
	}
	vals := make([]int, 0, len(counts))
	for _, c := range counts {
		vals = append(vals, c)
	}
	// Fixed summation order keeps the score, and so the output, stable.
	sort.Ints(vals)
	return shannon(vals, len(b)-1)
}

func shannon(counts []int, total int) float64 {
	if total == 0 {
		return 0
	}
	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		h -= p * math.Log2(p)
	}
	return h * float64(total)
}

// bruteScorer scores a candidate row by how well it compresses after the
// previously chosen row.
type bruteScorer struct {
	last []byte
	buf  bytes.Buffer
	w    *flate.Writer
}

func newBruteScorer() *bruteScorer {
	s := &bruteScorer{}
	s.w, _ = flate.NewWriter(&s.buf, flate.BestSpeed)
	return s
}

func (s *bruteScorer) score(candidate []byte) int {
	s.buf.Reset()
	s.w.Reset(&s.buf)
	s.w.Write(s.last)
	s.w.Write(candidate)
	s.w.Close()
	return s.buf.Len()
}

func (s *bruteScorer) commit(row []byte) {
	s.last = append(s.last[:0], row...)
}
