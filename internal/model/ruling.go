// Package model defines the core domain models used throughout the application.
package model

import (
	"math"
	"sort"
)

// Ruling is a scraped CBP ruling. It is not modified after ingestion.
type Ruling struct {
	RulingNumber string `json:"ruling_number"`
	URL          string `json:"url"`
	Text         string `json:"text"`
}

// Metadata keys stored alongside each vector.
const (
	MetaRulingNumber = "ruling_number"
	MetaText         = "text"
	MetaURL          = "url"
)

// Match is a ruling returned by a similarity query.
type Match struct {
	RulingNumber string  `json:"ruling_number"`
	Text         string  `json:"text"`
	URL          string  `json:"url"`
	Score        float64 `json:"similarity"`
}

// RoundedScore returns the score rounded to three decimals for display.
func (m Match) RoundedScore() float64 {
	return math.Round(m.Score*1000) / 1000
}

// MatchFromMetadata builds a Match from stored vector metadata.
func MatchFromMetadata(meta map[string]string, score float64) Match {
	return Match{
		RulingNumber: meta[MetaRulingNumber],
		Text:         meta[MetaText],
		URL:          meta[MetaURL],
		Score:        score,
	}
}

// SortMatches orders matches by descending score and caps them at k.
// The sort is stable so provider order breaks ties.
func SortMatches(matches []Match, k int) []Match {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if k >= 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// RulingNumbers lists the ruling numbers of matches in order.
func RulingNumbers(matches []Match) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.RulingNumber)
	}
	return out
}
