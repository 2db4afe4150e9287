package utils

import (
	"errors"
	"sync"
	"time"
)

// ErrNoKeys is returned when every key is cooling down or none were configured
var ErrNoKeys = errors.New("no available API keys")

// KeyPool hands out provider API keys, preferring the least used one and
// skipping keys that recently failed.
type KeyPool struct {
	keys     []string
	uses     map[string]int
	cooldown map[string]time.Time
	now      func() time.Time
	mu       sync.Mutex
}

// NewKeyPool creates a pool. A pool with no keys always returns ErrNoKeys.
func NewKeyPool(keys []string) *KeyPool {
	return &KeyPool{
		keys:     keys,
		uses:     make(map[string]int),
		cooldown: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Len returns the number of configured keys
func (p *KeyPool) Len() int {
	return len(p.keys)
}

// Next returns the least used key that is not cooling down
func (p *KeyPool) Next() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	selected := ""
	for _, key := range p.keys {
		if until, ok := p.cooldown[key]; ok {
			if now.Before(until) {
				continue
			}
			delete(p.cooldown, key)
		}
		if selected == "" || p.uses[key] < p.uses[selected] {
			selected = key
		}
	}

	if selected == "" {
		return "", ErrNoKeys
	}
	p.uses[selected]++
	return selected, nil
}

// MarkFailed puts a key on cooldown for retryAfter
func (p *KeyPool) MarkFailed(key string, retryAfter time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cooldown[key] = p.now().Add(retryAfter)
}

// Stats returns usage statistics
func (p *KeyPool) Stats() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	cooling := 0
	for _, until := range p.cooldown {
		if now.Before(until) {
			cooling++
		}
	}
	return map[string]int{
		"total_keys":     len(p.keys),
		"available_keys": len(p.keys) - cooling,
		"cooling_down":   cooling,
	}
}
