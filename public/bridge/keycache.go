package bridge

import "sync"

// KeyCache maps channel names to the PSK most recently used for them. It is
// seeded from configuration and grown by outbound publishes and explicit
// subscribe commands; the decryption trial engine reads snapshots of it.
type KeyCache struct {
	mu   sync.Mutex
	keys map[string]string
}

func NewKeyCache() *KeyCache {
	return &KeyCache{keys: map[string]string{}}
}

// Seed copies the configured channel keys in.
func (k *KeyCache) Seed(m map[string]string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for name, key := range m {
		k.keys[name] = key
	}
}

// Set records the key last used for a channel.
func (k *KeyCache) Set(channel, key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys[channel] = key
}

// Get returns the learned key for a channel.
func (k *KeyCache) Get(channel string) (string, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	key, ok := k.keys[channel]
	return key, ok
}

// Snapshot copies the mapping out, so callers never hold the lock during
// decryption work.
func (k *KeyCache) Snapshot() map[string]string {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make(map[string]string, len(k.keys))
	for name, key := range k.keys {
		out[name] = key
	}
	return out
}
