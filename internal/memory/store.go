package memory

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// typeMatchBonus is added to a node's score when its type matches
	// the query type.
	typeMatchBonus = 0.2
	// similarityWeight scales the anchor-context similarity contribution.
	similarityWeight = 0.3

	defaultMaxMemories      = 1000
	defaultCleanupThreshold = 0.1
)

// Store holds decaying memory nodes with type clustering and
// relevance-ranked retrieval. Safe for concurrent use.
type Store struct {
	maxMemories      int
	cleanupThreshold float64
	nodes            map[string]*Node
	clusters         map[Type][]string
	now              func() time.Time
	mu               sync.Mutex
	logger           *zap.Logger
}

// NewStore creates a memory store. maxMemories <= 0 and threshold <= 0
// fall back to the defaults (1000 nodes, 0.1 strength).
func NewStore(maxMemories int, cleanupThreshold float64, logger *zap.Logger) *Store {
	if maxMemories <= 0 {
		maxMemories = defaultMaxMemories
	}
	if cleanupThreshold <= 0 {
		cleanupThreshold = defaultCleanupThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		maxMemories:      maxMemories,
		cleanupThreshold: cleanupThreshold,
		nodes:            make(map[string]*Node),
		clusters:         make(map[Type][]string),
		now:              time.Now,
		logger:           logger,
	}
}

// SetClock overrides the store's time source. Used by tests to advance
// simulated time.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Store creates and indexes a new memory node, evicting weak entries if
// the store exceeds its capacity. Returns the new node's id.
func (s *Store) Store(content string, typ Type, importance float64, anchorCtx map[string]float64) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := newNode(content, typ, importance, anchorCtx, s.now())
	s.nodes[n.ID] = n
	s.clusters[typ] = append(s.clusters[typ], n.ID)

	if len(s.nodes) > s.maxMemories {
		removed := s.cleanupLocked()
		forced := s.evictWeakestLocked()
		s.logger.Debug("memory eviction",
			zap.Int("expired", removed),
			zap.Int("forced", forced),
			zap.Int("remaining", len(s.nodes)))
	}
	return n.ID
}

// Retrieved is a ranked retrieval result: a copy of the node after
// reinforcement plus the pre-reinforcement relevance score.
type Retrieved struct {
	Node
	RelevanceScore  float64 `json:"relevance_score"`
	CurrentStrength float64 `json:"current_strength"`
}

// Retrieve ranks nodes at or above the cleanup threshold by
// strength + type bonus + weighted context similarity, returns the top
// limit results, and reinforces each returned node. Scores are computed
// before reinforcement so a call never biases its own ranking.
func (s *Store) Retrieve(queryType Type, anchorCtx map[string]float64, limit int) []Retrieved {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	type candidate struct {
		node  *Node
		score float64
	}
	var candidates []candidate

	for _, n := range s.nodes {
		strength := n.CurrentStrength(now)
		if strength < s.cleanupThreshold {
			continue
		}

		score := strength
		if queryType != "" && n.Type == queryType {
			score += typeMatchBonus
		}
		if len(anchorCtx) > 0 && len(n.AnchorContext) > 0 {
			score += similarityWeight * contextSimilarity(anchorCtx, n.AnchorContext)
		}
		candidates = append(candidates, candidate{node: n, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]Retrieved, 0, len(candidates))
	for _, c := range candidates {
		c.node.access(now)
		results = append(results, Retrieved{
			Node:            *c.node,
			RelevanceScore:  c.score,
			CurrentStrength: c.node.CurrentStrength(now),
		})
	}
	return results
}

// Cleanup removes every node whose current strength has fallen below the
// cleanup threshold. Returns the number of nodes removed.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleanupLocked()
}

func (s *Store) cleanupLocked() int {
	now := s.now()
	var removed int
	for id, n := range s.nodes {
		if n.CurrentStrength(now) < s.cleanupThreshold {
			s.removeLocked(id, n.Type)
			removed++
		}
	}
	return removed
}

// evictWeakestLocked force-evicts the globally weakest nodes until the
// store is back at capacity. Covers the case where every node is still
// above the cleanup threshold but the store exceeds max_memories.
func (s *Store) evictWeakestLocked() int {
	over := len(s.nodes) - s.maxMemories
	if over <= 0 {
		return 0
	}

	now := s.now()
	type weighted struct {
		id       string
		typ      Type
		strength float64
	}
	all := make([]weighted, 0, len(s.nodes))
	for id, n := range s.nodes {
		all = append(all, weighted{id: id, typ: n.Type, strength: n.CurrentStrength(now)})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].strength < all[j].strength })

	for i := 0; i < over; i++ {
		s.removeLocked(all[i].id, all[i].typ)
	}
	return over
}

func (s *Store) removeLocked(id string, typ Type) {
	delete(s.nodes, id)
	ids := s.clusters[typ]
	for i, cid := range ids {
		if cid == id {
			s.clusters[typ] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(s.clusters[typ]) == 0 {
		delete(s.clusters, typ)
	}
}

// Get returns a copy of a node by id.
func (s *Store) Get(id string) (Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Len returns the number of stored nodes.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodes)
}

// Stats is a point-in-time summary of the store.
type Stats struct {
	TotalMemories   int          `json:"total_memories"`
	MemoryTypes     map[Type]int `json:"memory_types"`
	AverageStrength float64      `json:"average_strength"`
	ClusterInfo     map[Type]int `json:"cluster_info"`
}

// Stats reports totals, per-type counts, mean current strength, and
// cluster sizes. Pure read; no reinforcement.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	st := Stats{
		MemoryTypes: make(map[Type]int),
		ClusterInfo: make(map[Type]int),
	}
	var total float64
	for _, n := range s.nodes {
		st.MemoryTypes[n.Type]++
		total += n.CurrentStrength(now)
	}
	st.TotalMemories = len(s.nodes)
	if st.TotalMemories > 0 {
		st.AverageStrength = total / float64(st.TotalMemories)
	}
	for typ, ids := range s.clusters {
		st.ClusterInfo[typ] = len(ids)
	}
	return st
}
