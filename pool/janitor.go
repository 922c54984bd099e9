package pool

import (
	"context"
	"time"
)

// flushInterval is how often the janitor wakes to evict idle stores.
const flushInterval = 60 * time.Second

// StartJanitor launches the background eviction loop: a dedicated
// goroutine that periodically evicts stores idle past the configured
// threshold. It runs until ctx is cancelled, at which point it returns; the
// caller is expected to perform a final forced flush itself (see Close),
// splitting shutdown into "stop accepting new idle evictions" followed by
// "persist everything that's still resident".
func (p *StorePool) StartJanitor(ctx context.Context) {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ids, err := p.Flush(false)
			if err != nil {
				p.log.WithField("err", err).Error("flush failed")
				continue
			}
			if len(ids) > 0 {
				p.log.WithField("count", len(ids)).Debug("janitor flushed idle stores")
			}
		}
	}
}

// Close is the shutdown hook: it forces a full flush, persisting every
// resident store, except when the pool itself is read-only, in which case
// there is nothing to write back.
func (p *StorePool) Close() *Error {
	if p.readonly {
		return nil
	}
	_, err := p.Flush(true)
	return err
}
