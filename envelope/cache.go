package envelope

import (
	"container/list"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"sync"
	"time"
)

// Cache defaults. A few hundred entries is plenty for a short-session
// optimization; this is not durable storage.
const (
	DefaultCacheCapacity = 256
	DefaultCacheTTL      = 10 * time.Minute

	// fingerprintPrefixLen bounds how much ciphertext feeds the
	// fingerprint hash.
	fingerprintPrefixLen = 64
)

// DecryptFunc performs the underlying decrypt on a cache miss.
type DecryptFunc func(*Envelope) ([]byte, error)

// Cache memoizes repeated decrypt operations keyed by a ciphertext
// fingerprint, avoiding redundant asymmetric unwraps when the same
// envelope is decrypted more than once. A hit is semantically identical to
// a fresh decrypt. The cache is safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[string]*list.Element
	order    *list.List // front = oldest

	timeNow func() time.Time
}

type cacheEntry struct {
	fingerprint string
	plaintext   []byte
	insertedAt  time.Time
}

// NewCache creates a bounded decryption cache. Non-positive capacity
// selects DefaultCacheCapacity.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		capacity: capacity,
		ttl:      DefaultCacheTTL,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		timeNow:  time.Now,
	}
}

// DecryptCached returns the cached plaintext for the envelope, or invokes
// fn, stores the result, and returns it. Failed decrypts are not cached.
//
// The lock is held across fn so identical envelopes decrypt at most once;
// the underlying operations are short and bounded, so serializing them
// here is acceptable.
func (c *Cache) DecryptCached(env *Envelope, selfUserID string, fn DecryptFunc) ([]byte, error) {
	fp := fingerprint(env, selfUserID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[fp]; ok {
		entry := el.Value.(*cacheEntry)
		if c.timeNow().Sub(entry.insertedAt) < c.ttl {
			out := make([]byte, len(entry.plaintext))
			copy(out, entry.plaintext)
			return out, nil
		}
		c.remove(el)
	}

	plaintext, err := fn(env)
	if err != nil {
		return nil, err
	}

	stored := make([]byte, len(plaintext))
	copy(stored, plaintext)
	el := c.order.PushBack(&cacheEntry{
		fingerprint: fp,
		plaintext:   stored,
		insertedAt:  c.timeNow(),
	})
	c.entries[fp] = el

	for c.order.Len() > c.capacity {
		c.remove(c.order.Front())
	}

	return plaintext, nil
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Purge drops all cached plaintexts.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

func (c *Cache) remove(el *list.Element) {
	entry := el.Value.(*cacheEntry)
	delete(c.entries, entry.fingerprint)
	c.order.Remove(el)
}

// fingerprint hashes the IV, a bounded ciphertext prefix, and the
// requesting identity into a cache key.
func fingerprint(env *Envelope, selfUserID string) string {
	ciphertext, err := base64.StdEncoding.DecodeString(env.EncryptedContent)
	if err != nil {
		ciphertext = []byte(env.EncryptedContent)
	}
	if len(ciphertext) > fingerprintPrefixLen {
		ciphertext = ciphertext[:fingerprintPrefixLen]
	}

	h := sha256.New()
	h.Write([]byte(env.IV))
	h.Write(ciphertext)
	h.Write([]byte{0})
	h.Write([]byte(selfUserID))
	return hex.EncodeToString(h.Sum(nil))
}
