// Package rerank fuses ranked candidate lists from several retrievers.
package rerank

import (
	"errors"
	"fmt"
	"sort"
)

// IDKey is the record member that identifies a candidate across lists.
const IDKey = "@id"

// DefaultK is the Reciprocal Rank Fusion constant used when none is given.
const DefaultK = 50

// ErrWeightsMismatch is returned when weights do not line up with the candidate lists.
var ErrWeightsMismatch = errors.New("weights length must equal the number of candidate lists")

// RRF merges candidate lists via weighted Reciprocal Rank Fusion.
// score(d) = sum of weight_i / (k + rank_i(d)), rank is 1-based.
type RRF struct {
	weights []float64
	k       int
	limit   int
}

// NewRRF creates a reranker. Nil weights means weight 1 for every list,
// k <= 0 selects DefaultK, limit <= 0 means no truncation.
func NewRRF(weights []float64, k, limit int) *RRF {
	if k <= 0 {
		k = DefaultK
	}
	return &RRF{weights: weights, k: k, limit: limit}
}

// Weights returns the configured weights (nil when uniform).
func (r *RRF) Weights() []float64 { return r.weights }

// K returns the fusion constant.
func (r *RRF) K() int { return r.k }

// Limit returns the truncation limit, 0 when unlimited.
func (r *RRF) Limit() int { return r.limit }

// Rerank fuses the lists. Every candidate must carry IDKey; when a candidate
// appears in several lists the first occurrence is kept. Ties keep first-seen order.
func (r *RRF) Rerank(lists [][]map[string]any) ([]map[string]any, error) {
	if r.weights != nil && len(r.weights) != len(lists) {
		return nil, fmt.Errorf("%w: %d weights, %d lists", ErrWeightsMismatch, len(r.weights), len(lists))
	}

	type scored struct {
		candidate map[string]any
		score     float64
	}

	var order []*scored
	merged := make(map[string]*scored)

	for i, list := range lists {
		weight := 1.0
		if r.weights != nil {
			weight = r.weights[i]
		}
		for rank, c := range list {
			id, ok := c[IDKey]
			if !ok {
				return nil, fmt.Errorf("candidate %d of list %d has no %s", rank, i, IDKey)
			}
			key := fmt.Sprintf("%T:%v", id, id)
			s := weight / float64(r.k+rank+1)
			if existing, found := merged[key]; found {
				existing.score += s
				continue
			}
			entry := &scored{candidate: c, score: s}
			merged[key] = entry
			order = append(order, entry)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].score > order[j].score
	})

	if r.limit > 0 && len(order) > r.limit {
		order = order[:r.limit]
	}

	out := make([]map[string]any, len(order))
	for i, s := range order {
		out[i] = s.candidate
	}
	return out, nil
}
