package snapshot

import "sync"

var (
	subsMu sync.Mutex
	subs   = make(map[chan string]struct{})
)

// Subscribe registers a listener for published ETags. The channel holds one
// pending value; a slow listener misses intermediate versions but always
// sees that something changed. The returned func unsubscribes and closes
// the channel; calling it more than once is safe.
func Subscribe() (<-chan string, func()) {
	ch := make(chan string, 1)
	subsMu.Lock()
	subs[ch] = struct{}{}
	subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			subsMu.Lock()
			delete(subs, ch)
			close(ch)
			subsMu.Unlock()
		})
	}
}

// publishUpdate never blocks on a full listener.
func publishUpdate(etag string) {
	subsMu.Lock()
	defer subsMu.Unlock()
	for ch := range subs {
		select {
		case ch <- etag:
		default:
		}
	}
}
