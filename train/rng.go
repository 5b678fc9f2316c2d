package train

import "math/rand"

// rngSource is the seeded generator backing the reservoir sampler's
// replacement draws and the EM restarts.
type rngSource struct {
	*rand.Rand
}

func newRNG(seed int64) *rngSource {
	return &rngSource{rand.New(rand.NewSource(seed))}
}
