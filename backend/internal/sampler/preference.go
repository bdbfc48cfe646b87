package sampler

import (
	"math"
	"sync"
)

// PreferenceRecord accumulates operator feedback for one strategy
type PreferenceRecord struct {
	Selections int     `json:"selections"`
	Weight     float64 `json:"weight"`
}

// PreferenceTuning bounds how strongly accumulated feedback may bend
// future parameter derivation
type PreferenceTuning struct {
	// ConfidenceFloor is the selection count below which bias is zero
	ConfidenceFloor int
	// Cap is the hard ceiling on the bias factor
	Cap float64
	// OverrideThreshold is the bias level that unlocks sampler override
	OverrideThreshold float64
	// OverrideMinSelections gates sampler override on evidence volume
	OverrideMinSelections int
}

// DefaultPreferenceTuning mirrors the node defaults
func DefaultPreferenceTuning() PreferenceTuning {
	return PreferenceTuning{
		ConfidenceFloor:       2,
		Cap:                   0.3,
		OverrideThreshold:     0.2,
		OverrideMinSelections: 3,
	}
}

// PreferenceStore holds per-strategy feedback for the lifetime of one
// orchestrator instance. The host may invoke operations from multiple
// goroutines, so every read-modify-write is mutex-guarded.
type PreferenceStore struct {
	mu      sync.Mutex
	records map[StrategyID]*PreferenceRecord
	tuning  PreferenceTuning
}

// NewPreferenceStore creates an empty store with the given tuning
func NewPreferenceStore(tuning PreferenceTuning) *PreferenceStore {
	if tuning.ConfidenceFloor < 1 {
		tuning.ConfidenceFloor = 1
	}
	return &PreferenceStore{
		records: make(map[StrategyID]*PreferenceRecord),
		tuning:  tuning,
	}
}

// RecordSelection increments the selection counter and accumulates weight
// for the given strategy. Unknown strategies are ignored; the write path
// is validated upstream.
func (s *PreferenceStore) RecordSelection(id StrategyID, weightIncrement float64) {
	if !KnownStrategy(id) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		rec = &PreferenceRecord{}
		s.records[id] = rec
	}
	rec.Selections++
	rec.Weight += weightIncrement
	if rec.Weight < 0 {
		rec.Weight = 0
	}
}

// Bias returns the bounded, confidence-weighted adjustment factor for a
// strategy. Zero until the selection count reaches the confidence floor;
// thereafter min(weight * confidence, cap) with confidence saturating at
// ten selections. The cap guarantees bounded drift no matter how much
// feedback accumulates.
func (s *PreferenceStore) Bias(id StrategyID) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok || rec.Selections < s.tuning.ConfidenceFloor {
		return 0
	}
	confidence := math.Min(float64(rec.Selections)/10.0, 1.0)
	return math.Min(rec.Weight*confidence, s.tuning.Cap)
}

// AllowOverride reports whether feedback is strong enough to override the
// resolved sampler/scheduler with the strategy's most-preferred option
func (s *PreferenceStore) AllowOverride(id StrategyID) bool {
	s.mu.Lock()
	rec, ok := s.records[id]
	selections := 0
	if ok {
		selections = rec.Selections
	}
	s.mu.Unlock()
	if selections < s.tuning.OverrideMinSelections {
		return false
	}
	return s.Bias(id) > s.tuning.OverrideThreshold
}

// Snapshot returns a copy of all records for diagnostics
func (s *PreferenceStore) Snapshot() map[StrategyID]PreferenceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[StrategyID]PreferenceRecord, len(s.records))
	for id, rec := range s.records {
		out[id] = *rec
	}
	return out
}

// TotalSelections returns the number of feedback events recorded so far
func (s *PreferenceStore) TotalSelections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, rec := range s.records {
		total += rec.Selections
	}
	return total
}
