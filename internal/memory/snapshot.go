package memory

// Snapshot is the serializable form of a store, used by the session
// persistence layer. It carries nodes and capacity config; clusters are
// rebuilt on restore.
type Snapshot struct {
	Nodes            []Node  `json:"memories"`
	MaxMemories      int     `json:"max_memories"`
	CleanupThreshold float64 `json:"cleanup_threshold"`
}

// Export captures the store's current contents.
func (s *Store) Export() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Nodes:            make([]Node, 0, len(s.nodes)),
		MaxMemories:      s.maxMemories,
		CleanupThreshold: s.cleanupThreshold,
	}
	for _, n := range s.nodes {
		snap.Nodes = append(snap.Nodes, *n)
	}
	return snap
}

// Restore replaces the store's contents with a snapshot, rebuilding the
// type index. Zero config values in the snapshot keep the current config.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.MaxMemories > 0 {
		s.maxMemories = snap.MaxMemories
	}
	if snap.CleanupThreshold > 0 {
		s.cleanupThreshold = snap.CleanupThreshold
	}

	s.nodes = make(map[string]*Node, len(snap.Nodes))
	s.clusters = make(map[Type][]string)
	for i := range snap.Nodes {
		n := snap.Nodes[i]
		s.nodes[n.ID] = &n
		s.clusters[n.Type] = append(s.clusters[n.Type], n.ID)
	}
}
