// Package search implements hybrid retrieval: vector and keyword
// sub-searches fused with Reciprocal Rank Fusion.
package search

import (
	apperr "github.com/passagekit/passage/internal/errors"
)

// RRFConstant is the smoothing offset in the reciprocal rank formula
// 1/(rank + RRFConstant). It keeps the top rank from dominating
// disproportionately. Fixed, not configurable: fusion output must be
// reproducible across deployments.
const RRFConstant = 60

// OverfetchFactor is how many times k each hybrid sub-search requests,
// so the fuser has enough material to re-rank before truncating to k.
const OverfetchFactor = 2

// Mode selects the retrieval strategy.
type Mode string

const (
	ModeVector  Mode = "vector"
	ModeKeyword Mode = "keyword"
	ModeHybrid  Mode = "hybrid"
)

// ParseMode validates a mode string. Unknown modes fail with a
// configuration error, never a silent fallback.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeVector, ModeKeyword, ModeHybrid:
		return Mode(s), nil
	default:
		return "", apperr.InvalidMode(s)
	}
}

// Options tunes a single retrieval.
type Options struct {
	// Mode is the retrieval strategy. Defaults to hybrid.
	Mode Mode
	// K is the number of results to return. Defaults to the
	// retriever's configured top-k.
	K int
	// Alpha is the hybrid blend weight in [0,1]: 1 is vector-only,
	// 0 is keyword-only. Defaults to the retriever's configured alpha.
	Alpha *float64
}

// alphaOrDefault resolves the effective alpha.
func (o Options) alphaOrDefault(def float64) float64 {
	if o.Alpha != nil {
		return *o.Alpha
	}
	return def
}
