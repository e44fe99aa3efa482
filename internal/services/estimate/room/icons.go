package room

import (
	"math/rand/v2"
	"sync"

	"github.com/louisbranch/estimate.space/internal/random"
)

// ObserverIcon is shown for every observer.
const ObserverIcon = "👀"

// EstimatorIcons is the palette estimators draw from. Collisions are allowed.
var EstimatorIcons = []string{
	"😀", "😃", "😄", "😁", "😆", "😅", "😂", "🤣", "😊", "😇",
	"🙂", "🙃", "😉", "😌", "😍", "🥰", "😘", "😗", "😙", "😚",
	"😋", "😛", "😜", "🤪", "😝", "🤑", "🤗", "🤭", "🤫", "🤔",
}

// lockedRand is a seeded PRNG shared by every room.
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newLockedRand(seed int64) *lockedRand {
	return &lockedRand{rng: random.NewRand(seed)}
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.IntN(n)
}

// IconPicker assigns join-time icons.
type IconPicker struct {
	rand *lockedRand
}

// NewIconPicker returns a picker seeded with seed.
func NewIconPicker(seed int64) *IconPicker {
	return &IconPicker{rand: newLockedRand(seed)}
}

// Pick returns the icon for a participant of role.
func (p *IconPicker) Pick(role Role) string {
	if role == RoleObserver {
		return ObserverIcon
	}
	return EstimatorIcons[p.rand.IntN(len(EstimatorIcons))]
}
