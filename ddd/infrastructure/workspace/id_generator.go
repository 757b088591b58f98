package workspace

import (
	"strconv"
	"sync"
	"time"
)

// IDGenerator issues time-derived job ids of the form <prefix><unixMillis>.
// Within one process ids strictly increase, so two submissions in the same
// millisecond get consecutive values.
type IDGenerator struct {
	mu     sync.Mutex
	prefix string
	last   int64
	now    func() time.Time
}

func NewIDGenerator(prefix string) *IDGenerator {
	return &IDGenerator{prefix: prefix, now: time.Now}
}

// Next returns the next id.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	millis := g.now().UnixMilli()
	if millis <= g.last {
		millis = g.last + 1
	}
	g.last = millis
	return g.prefix + strconv.FormatInt(millis, 10)
}
