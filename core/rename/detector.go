package rename

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"github.com/emenda-labs/semdiff/core/model"
)

const (
	// DefaultThreshold is the minimum composite score for a rename. It sits
	// above SignatureWeight, so identical signatures also need names that are
	// at least a third alike.
	DefaultThreshold = 0.8

	// SignatureWeight and NameWeight split the composite score.
	SignatureWeight = 0.7
	NameWeight      = 0.3
)

// Candidate is a symbol or member present on only one side of a comparison.
type Candidate struct {
	ID        string
	Name      string
	Kind      model.Kind
	Signature string

	Node *model.Node
}

// Pair is an accepted rename.
type Pair struct {
	Removed        Candidate
	Added          Candidate
	Score          float64
	SignatureMatch bool
}

// Result partitions the input pools into renames and leftovers. Leftovers keep
// their input order.
type Result struct {
	Pairs   []Pair
	Removed []Candidate
	Added   []Candidate
}

// Detector resolves removed+added pairs into renames.
type Detector struct {
	Threshold float64
}

// NewDetector returns a Detector. A non-positive threshold selects DefaultThreshold.
func NewDetector(threshold float64) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Detector{Threshold: threshold}
}

// scoredPair holds a candidate match with its composite score.
type scoredPair struct {
	removed  int
	added    int
	score    float64
	sigMatch bool
}

// Match pairs removed and added candidates of the same kind. Pairs are accepted
// greedily by descending score, only at or above the threshold, and only when no
// other pairing scores strictly higher against the same added candidate.
func (d *Detector) Match(removed, added []Candidate) Result {
	threshold := d.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	var pairs []scoredPair
	bestForAdded := make(map[int]float64, len(added))
	for i, r := range removed {
		for j, a := range added {
			if r.Kind != a.Kind {
				continue
			}
			score, sigMatch := Score(r, a)
			pairs = append(pairs, scoredPair{removed: i, added: j, score: score, sigMatch: sigMatch})
			if score > bestForAdded[j] {
				bestForAdded[j] = score
			}
		}
	}

	// Sort by descending score, tie-break by old then new identifier.
	slices.SortStableFunc(pairs, func(x, y scoredPair) int {
		if c := cmp.Compare(y.score, x.score); c != 0 {
			return c
		}
		if c := cmp.Compare(removed[x.removed].ID, removed[y.removed].ID); c != 0 {
			return c
		}
		return cmp.Compare(added[x.added].ID, added[y.added].ID)
	})

	matchedRemoved := make(map[int]bool)
	matchedAdded := make(map[int]bool)
	var res Result

	for _, p := range pairs {
		if p.score < threshold {
			break
		}
		if matchedRemoved[p.removed] || matchedAdded[p.added] {
			continue
		}
		if p.score < bestForAdded[p.added] {
			continue
		}
		matchedRemoved[p.removed] = true
		matchedAdded[p.added] = true
		res.Pairs = append(res.Pairs, Pair{
			Removed:        removed[p.removed],
			Added:          added[p.added],
			Score:          p.score,
			SignatureMatch: p.sigMatch,
		})
	}

	for i, r := range removed {
		if !matchedRemoved[i] {
			res.Removed = append(res.Removed, r)
		}
	}
	for j, a := range added {
		if !matchedAdded[j] {
			res.Added = append(res.Added, a)
		}
	}

	slices.SortFunc(res.Pairs, func(x, y Pair) int {
		return cmp.Compare(x.Removed.ID, y.Removed.ID)
	})
	return res
}

// Score returns the composite rename score for a pair and whether their
// signatures are identical.
func Score(removed, added Candidate) (float64, bool) {
	sig := signatureSimilarity(removed.Signature, added.Signature)
	return SignatureWeight*sig + NameWeight*nameSimilarity(removed.Name, added.Name), sig == 1.0
}

// signatureSimilarity is 1.0 for identical non-empty signatures, otherwise the
// Jaccard overlap of their token multisets. Empty signatures never match.
func signatureSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	return tokenOverlap(tokenize(a), tokenize(b))
}

// tokenize splits a signature into identifier and punctuation tokens.
func tokenize(s string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$':
			cur.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
		default:
			flush()
			tokens = append(tokens, string(r))
		}
	}
	flush()
	return tokens
}

// tokenOverlap computes the Jaccard similarity of two token multisets.
func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}

	aSet := make(map[string]int)
	for _, t := range a {
		aSet[t]++
	}
	bSet := make(map[string]int)
	for _, t := range b {
		bSet[t]++
	}

	// Jaccard on multisets: intersection = sum of min counts, union = sum of max counts.
	var intersection, union int
	for k, ac := range aSet {
		bc := bSet[k]
		intersection += min(ac, bc)
		union += max(ac, bc)
	}
	for k, bc := range bSet {
		if _, ok := aSet[k]; !ok {
			union += bc
		}
	}

	if union == 0 {
		return 1.0
	}
	return float64(intersection) / float64(union)
}

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	// Use two rows instead of full matrix.
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[lb]
}

// nameSimilarity returns the normalized Levenshtein similarity in [0.0, 1.0].
func nameSimilarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 && lb == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshteinDistance(a, b))/float64(max(la, lb))
}
