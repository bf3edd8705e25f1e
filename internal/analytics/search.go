package analytics

import (
	"sort"
	"strings"

	"github.com/tomtom215/rezolus-go/internal/tsdb"
)

// ExtractMetricNames returns every distinct metric name registered in db,
// across counters, gauges, and histograms, sorted and deduplicated.
func ExtractMetricNames(db *tsdb.DB) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(names []string) {
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	add(db.CounterNames())
	add(db.GaugeNames())
	add(db.HistogramNames())
	sort.Strings(out)
	return out
}

// scoredMatch pairs a candidate name with its similarity score against a
// query, higher is more similar.
type scoredMatch struct {
	name  string
	score float64
}

// SimilarMetrics ranks candidates by similarity to query, combining an
// exact/prefix/substring signal with a token-overlap and edit-distance
// signal so both "cpu_usage" -> "cpu_usage_seconds_total" (prefix) and a
// typo like "cpu_usge" -> "cpu_usage_seconds_total" (edit distance) surface
// useful results. Returns at most limit names, best match first.
func SimilarMetrics(query string, candidates []string, limit int) []string {
	q := strings.ToLower(query)
	qTokens := tokenize(q)

	matches := make([]scoredMatch, 0, len(candidates))
	for _, c := range candidates {
		cl := strings.ToLower(c)
		var score float64
		switch {
		case cl == q:
			score = 1000
		case strings.HasPrefix(cl, q):
			score = 500 + float64(len(q))/float64(len(cl))*100
		case strings.Contains(cl, q):
			score = 250 + float64(len(q))/float64(len(cl))*100
		}

		cTokens := tokenize(cl)
		overlap := tokenOverlap(qTokens, cTokens)
		score += overlap * 40

		dist := levenshtein(q, cl)
		maxLen := len(q)
		if len(cl) > maxLen {
			maxLen = len(cl)
		}
		if maxLen > 0 {
			score += (1 - float64(dist)/float64(maxLen)) * 60
		}

		if score > 0 {
			matches = append(matches, scoredMatch{name: c, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == ':' || r == '.' })
}

func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	bSet := make(map[string]bool, len(b))
	for _, t := range b {
		bSet[t] = true
	}
	var shared int
	for _, t := range a {
		if bSet[t] {
			shared++
		}
	}
	return float64(shared) / float64(len(a))
}

// levenshtein computes the edit distance between a and b with a standard
// two-row dynamic-programming table.
func levenshtein(a, b string) int {
	ar, br := []rune(a), []rune(b)
	if len(ar) == 0 {
		return len(br)
	}
	if len(br) == 0 {
		return len(ar)
	}

	prev := make([]int, len(br)+1)
	curr := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ar); i++ {
		curr[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[len(br)]
}
