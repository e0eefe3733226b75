package analytics

import (
	"fmt"
	"sort"
	"strings"
)

const DefaultTopN = 5

type KeyCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type FrequencyRanking []KeyCount

// RankFrequencies counts exact occurrences of each item and returns the topN
// most frequent, highest count first. Equal counts keep the order in which the
// keys first appeared in items.
func RankFrequencies(items []string, topN int) (FrequencyRanking, error) {
	if topN < 0 {
		return nil, fmt.Errorf("%w: topN cannot be negative, got %d", ErrInvalidInput, topN)
	}

	index := make(map[string]int)
	ranking := FrequencyRanking{}
	for _, item := range items {
		if i, ok := index[item]; ok {
			ranking[i].Count++
			continue
		}
		index[item] = len(ranking)
		ranking = append(ranking, KeyCount{Key: item, Count: 1})
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Count > ranking[j].Count
	})

	if len(ranking) > topN {
		ranking = ranking[:topN]
	}
	return ranking, nil
}

// BlockerKeys yields one blocker text per record, skipping blank ones.
func BlockerKeys(records []LogRecord) []string {
	keys := make([]string, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.BlockerText) == "" {
			continue
		}
		keys = append(keys, r.BlockerText)
	}
	return keys
}

// TagKeys flattens every tag of every task across records.
func TagKeys(records []LogRecord) []string {
	var keys []string
	for _, r := range records {
		for _, t := range r.Tasks {
			keys = append(keys, t.Tags...)
		}
	}
	return keys
}
