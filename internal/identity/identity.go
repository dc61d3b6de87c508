// Package identity supplies randomized-but-plausible browser identities
// for engine invocations. Rotating the identity between attempts reduces
// the chance of the remote platform fingerprinting and blocking the
// service's requests.
package identity

import (
	"math/rand"
	"sync"
	"time"
)

// Identity is a coherent set of client headers. The fields of a single
// Identity always belong together (a Chrome user-agent is never paired
// with a Firefox-only language ordering, for example).
type Identity struct {
	UserAgent      string
	AcceptLanguage string
	Referer        string
	Origin         string
}

// pool contains the fixed set of identities the rotator draws from.
// Each entry mirrors a real, current desktop browser.
var pool = []Identity{
	{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		AcceptLanguage: "en-US,en;q=0.9",
		Referer:        "https://www.google.com/",
		Origin:         "https://www.google.com",
	},
	{
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
		AcceptLanguage: "en-US,en;q=0.8",
		Referer:        "https://duckduckgo.com/",
		Origin:         "https://duckduckgo.com",
	},
	{
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
		AcceptLanguage: "en-GB,en;q=0.7",
		Referer:        "https://www.bing.com/",
		Origin:         "https://www.bing.com",
	},
	{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36 Edg/123.0.2420.81",
		AcceptLanguage: "en-US,en;q=0.9,es;q=0.5",
		Referer:        "https://www.google.com/",
		Origin:         "https://www.google.com",
	},
	{
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		AcceptLanguage: "en-US,en;q=0.9",
		Referer:        "https://search.brave.com/",
		Origin:         "https://search.brave.com",
	},
}

// Rotator draws identities from the pool using its own random source.
// The zero value is not usable; construct with NewRotator.
type Rotator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRotator() *Rotator {
	return NewRotatorWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewRotatorWithSource constructs a rotator over the provided source,
// allowing deterministic selection in tests.
func NewRotatorWithSource(source rand.Source) *Rotator {
	return &Rotator{rng: rand.New(source)}
}

// Draw selects an identity from the pool uniformly at random. Repeated
// calls are not guaranteed to differ, only to be unpredictable.
func (rotator *Rotator) Draw() Identity {
	rotator.mu.Lock()
	defer rotator.mu.Unlock()

	return pool[rotator.rng.Intn(len(pool))]
}

// PoolSize reports how many identities the rotator can draw from.
func PoolSize() int {
	return len(pool)
}
