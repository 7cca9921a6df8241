package retrieval

import (
	"context"
	"sort"
	"strings"

	"synapse/internal/domain"
	"synapse/internal/notestore"
)

const lexicalTopN = 40

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

// LexicalRank scores every candidate note as the sum, over query terms, of
// that term's frequency in the note's "title content" text, returning the
// top-40 note ids by descending score.
func LexicalRank(ctx context.Context, store notestore.Store, queries []string, excludeNoteID string) ([]string, error) {
	if len(queries) == 0 {
		return nil, nil
	}
	var queryTerms []string
	for _, q := range queries {
		queryTerms = append(queryTerms, tokenize(q)...)
	}
	if len(queryTerms) == 0 {
		return nil, nil
	}

	notes, err := store.GetNotes(ctx, 0)
	if err != nil {
		return nil, err
	}

	type scored struct {
		id    string
		score int
	}
	out := make([]scored, 0, len(notes))
	for _, n := range notes {
		if n.ID == excludeNoteID {
			continue
		}
		freq := termFrequency(n)
		score := 0
		for _, t := range queryTerms {
			score += freq[t]
		}
		if score > 0 {
			out = append(out, scored{id: n.ID, score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	if len(out) > lexicalTopN {
		out = out[:lexicalTopN]
	}
	ids := make([]string, len(out))
	for i, s := range out {
		ids[i] = s.id
	}
	return ids, nil
}

func termFrequency(n domain.Note) map[string]int {
	freq := make(map[string]int)
	for _, t := range tokenize(n.Title + " " + n.Content) {
		freq[t]++
	}
	return freq
}
