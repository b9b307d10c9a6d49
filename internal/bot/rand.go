package bot

import (
	"math/rand"
	"sync"
)

// botRng is the package-level random source used by all bot strategies.
// When nil, the functions below delegate to the global math/rand default.
// Use SeedBotRng to set a deterministic source for reproducible tests.
var (
	botRngMu sync.Mutex
	botRng   *rand.Rand
)

// SeedBotRng sets a deterministic random source for reproducible bot behavior.
func SeedBotRng(seed int64) {
	botRngMu.Lock()
	defer botRngMu.Unlock()
	botRng = rand.New(rand.NewSource(seed))
}

// ResetBotRng reverts to the default (non-deterministic) global random source.
func ResetBotRng() {
	botRngMu.Lock()
	defer botRngMu.Unlock()
	botRng = nil
}

func botIntn(n int) int {
	botRngMu.Lock()
	defer botRngMu.Unlock()
	if botRng != nil {
		return botRng.Intn(n)
	}
	return rand.Intn(n)
}

// pick returns a random element of ids, or "" when ids is empty.
func pick(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[botIntn(len(ids))]
}
