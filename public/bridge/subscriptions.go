package bridge

import (
	"sort"
	"sync"
)

// SubscriptionSet is the bridge-owned set of broker topic filters. It
// survives broker reconnects; the bridge replays it on every connect.
type SubscriptionSet struct {
	mu     sync.Mutex
	topics map[string]struct{}
}

func NewSubscriptionSet() *SubscriptionSet {
	return &SubscriptionSet{topics: map[string]struct{}{}}
}

// Add inserts a filter, reporting whether it was new.
func (s *SubscriptionSet) Add(topic string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.topics[topic]; ok {
		return false
	}
	s.topics[topic] = struct{}{}
	return true
}

// Remove deletes a filter, reporting whether it was present.
func (s *SubscriptionSet) Remove(topic string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.topics[topic]; !ok {
		return false
	}
	delete(s.topics, topic)
	return true
}

// List snapshots the set in sorted order.
func (s *SubscriptionSet) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.topics))
	for t := range s.topics {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (s *SubscriptionSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.topics)
}
