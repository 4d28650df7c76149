package repository

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/okian/jamal/pkg/metrics"
)

// Treap-based, in-memory leaderboard of each camel's best overall score.
//
// Ordering: score DESC, then camel id ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the leaderboard
// from best to worst. Node priorities come from a hash of the camel id so
// the tree stays balanced regardless of the score distribution.

// scoreScale controls fixed-point scaling from float64. Overall scores carry
// two decimals; the extra digits keep unrounded input distinguishable.
const scoreScale = 1_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	scaled := math.Round(x * scoreScale)
	if scaled >= math.MaxInt64 {
		return scoreFP(math.MaxInt64)
	}
	if scaled <= math.MinInt64 {
		return scoreFP(math.MinInt64)
	}
	return scoreFP(scaled)
}

func toFloat(x scoreFP) float64 {
	return float64(x) / scoreScale
}

// Entry is a leaderboard row. Camels with equal scores share a rank and the
// next rank skips accordingly (1, 1, 3).
type Entry struct {
	Rank         int       `json:"rank"`
	CamelID      string    `json:"camel_id"`
	Score        float64   `json:"score"`
	EvaluationID string    `json:"evaluation_id,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// record stores the fixed-point best score plus the evaluation that set it.
type record struct {
	score        scoreFP
	evaluationID string
	updatedAt    time.Time
}

type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) should appear before (bScore, bID).
func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// idPriority mixes an FNV-1a hash of id through splitmix64.
func idPriority(id string) uint64 {
	h := uint64(14695981039346656037)
	for i := 0; i < len(id); i++ {
		h ^= uint64(id[i])
		h *= 1099511628211
	}
	h += 0x9e3779b97f4a7c15
	h = (h ^ (h >> 30)) * 0xbf58476d1ce4e5b9
	h = (h ^ (h >> 27)) * 0x94d049bb133111eb
	return h ^ (h >> 31)
}

func insert(n *node, id string, score scoreFP) *node {
	if n == nil {
		return &node{id: id, score: score, prio: idPriority(id), size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// countAbove returns how many nodes hold a strictly higher score than s.
func countAbove(n *node, s scoreFP) int {
	count := 0
	for n != nil {
		if n.score > s {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, records map[string]record, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, records, out)
	if len(*out) < limit {
		if rec, ok := records[n.id]; ok {
			*out = append(*out, Entry{
				CamelID:      n.id,
				Score:        toFloat(rec.score),
				EvaluationID: rec.evaluationID,
				UpdatedAt:    rec.updatedAt,
			})
		}
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, records, out)
	}
}

// assignRanks gives equal scores the same rank; the next distinct score
// takes its 1-based position.
func assignRanks(entries []Entry) {
	for i := range entries {
		if i > 0 && entries[i].Score == entries[i-1].Score {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}

// Leaderboard ranks camels by their best overall score. Safe for concurrent use.
type Leaderboard struct {
	mu   sync.RWMutex
	root *node
	byID map[string]record
	now  func() time.Time
}

// NewLeaderboard constructs an empty leaderboard.
func NewLeaderboard(opts ...LeaderboardOption) *Leaderboard {
	l := &Leaderboard{
		byID: make(map[string]record),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// UpdateBest records score for camelID when it beats the current best.
// Returns true when the leaderboard changed. O(log n) expected.
func (l *Leaderboard) UpdateBest(ctx context.Context, camelID string, score float64, evaluationID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("leaderboard_update", float64(time.Since(start).Milliseconds()))
	}()

	ns := toFixedPoint(score)
	l.mu.Lock()
	old, ok := l.byID[camelID]
	if ok {
		if ns <= old.score {
			l.mu.Unlock()
			return false, nil
		}
		l.root = deleteNode(l.root, camelID, old.score)
	}
	l.byID[camelID] = record{score: ns, evaluationID: evaluationID, updatedAt: l.now().UTC()}
	l.root = insert(l.root, camelID, ns)
	count := len(l.byID)
	l.mu.Unlock()

	metrics.RecordLeaderboardUpdate()
	if !ok {
		metrics.UpdateCamelsRanked(count)
	}
	return true, nil
}

// Rank returns the current rank and best score for a camel in O(log n).
func (l *Leaderboard) Rank(ctx context.Context, camelID string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("leaderboard_rank", float64(time.Since(start).Milliseconds()))
	}()

	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.byID[camelID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}
	return Entry{
		Rank:         countAbove(l.root, rec.score) + 1,
		CamelID:      camelID,
		Score:        toFloat(rec.score),
		EvaluationID: rec.evaluationID,
		UpdatedAt:    rec.updatedAt,
	}, nil
}

// TopN returns the best n entries, score desc then id asc.
func (l *Leaderboard) TopN(ctx context.Context, n int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("leaderboard_top", float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, 0, min(n, len(l.byID)))
	collectTopN(l.root, n, l.byID, &out)
	assignRanks(out)
	return out, nil
}

// Count returns the number of ranked camels.
func (l *Leaderboard) Count(context.Context) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byID)
}
