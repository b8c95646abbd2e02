// Package search ranks short documents (persona profiles) against free-text
// queries.
//
// Documents are folded once at build time: lowercased, diacritics stripped
// ("Bengalūru" matches "bengaluru") and split into a word set. A query is
// scored against each document with Jaccard similarity, |Q ∩ D| / |Q ∪ D|.
// Ties go to the shorter document, then to the smaller ID. An Index is
// read-only after NewIndex and safe for concurrent use.
package search

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Doc is one searchable document.
type Doc struct {
	ID   string
	Text string
}

// Result is a ranked document. Snippet is the start of the document text.
type Result struct {
	ID      string
	Snippet string
	Score   float64
}

// Index answers ranked keyword queries.
type Index interface {
	TopK(query string, k int) []Result
	Len() int
}

// DefaultK is used when TopK is called with k <= 0.
const DefaultK = 3

// Option configures NewIndex.
type Option func(*options)

type options struct {
	stopwords    map[string]struct{}
	snippetRunes int
}

// WithStopwords drops the given words from documents and queries. Words are
// folded the same way document text is.
func WithStopwords(words []string) Option {
	return func(o *options) {
		for _, w := range words {
			if w = fold(strings.TrimSpace(w)); w == "" {
				continue
			}
			if o.stopwords == nil {
				o.stopwords = make(map[string]struct{}, len(words))
			}
			o.stopwords[w] = struct{}{}
		}
	}
}

// WithSnippetRunes caps Result.Snippet. Zero keeps the full text.
func WithSnippetRunes(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.snippetRunes = n
		}
	}
}

// DefaultStopwords is a short English list suited to persona descriptions.
var DefaultStopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "from", "has", "have",
	"he", "her", "his", "i", "in", "is", "it", "its", "of", "on", "or", "she",
	"that", "the", "their", "to", "was", "with",
}

type entry struct {
	id     string
	text   string
	runes  int
	tokens map[string]struct{}
}

type index struct {
	opt     options
	entries []entry
}

// NewIndex builds an Index. Documents with no indexable words are skipped.
func NewIndex(docs []Doc, opts ...Option) Index {
	o := options{snippetRunes: 160}
	for _, fn := range opts {
		fn(&o)
	}
	idx := &index{opt: o, entries: make([]entry, 0, len(docs))}
	for _, d := range docs {
		text := strings.Join(strings.Fields(d.Text), " ")
		toks := o.tokenize(text)
		if len(toks) == 0 {
			continue
		}
		idx.entries = append(idx.entries, entry{id: d.ID, text: text, runes: utf8.RuneCountInString(text), tokens: toks})
	}
	return idx
}

func (i *index) Len() int { return len(i.entries) }

// TopK returns up to k documents sharing at least one word with q.
func (i *index) TopK(q string, k int) []Result {
	qt := i.opt.tokenize(q)
	if len(qt) == 0 || len(i.entries) == 0 {
		return nil
	}
	if k <= 0 {
		k = DefaultK
	}

	type hit struct {
		e     *entry
		score float64
	}
	var hits []hit
	for n := range i.entries {
		e := &i.entries[n]
		inter := overlap(qt, e.tokens)
		if inter == 0 {
			continue
		}
		hits = append(hits, hit{e: e, score: float64(inter) / float64(len(qt)+len(e.tokens)-inter)})
	}
	slices.SortStableFunc(hits, func(a, b hit) int {
		return cmp.Or(
			cmp.Compare(b.score, a.score),
			cmp.Compare(a.e.runes, b.e.runes),
			cmp.Compare(a.e.id, b.e.id),
		)
	})

	hits = hits[:min(k, len(hits))]
	if len(hits) == 0 {
		return nil
	}
	out := make([]Result, len(hits))
	for n, h := range hits {
		out[n] = Result{ID: h.e.id, Snippet: snippet(h.e.text, i.opt.snippetRunes), Score: h.score}
	}
	return out
}

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

func (o options) tokenize(s string) map[string]struct{} {
	words := wordRE.FindAllString(fold(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, stop := o.stopwords[w]; !stop {
			out[w] = struct{}{}
		}
	}
	return out
}

// fold lowercases s and strips combining marks.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

func overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func snippet(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n])) + "…"
}
