package budget

import (
	"context"
	"sync"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/log"
)

// persister writes the latest encoded document to the local store on its own
// goroutine. Writes that arrive while one is in progress are coalesced so only
// the newest document is written next.
type persister struct {
	store  LocalStore
	key    string
	logger *log.Logger

	mu      sync.Mutex
	pending []byte
	seq     uint64
	written uint64
	changed chan struct{}

	wake     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newPersister(store LocalStore, key string, logger *log.Logger) *persister {
	p := &persister{
		store:   store,
		key:     key,
		logger:  logger,
		changed: make(chan struct{}),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *persister) schedule(data []byte) {
	p.mu.Lock()
	p.pending = data
	p.seq++
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *persister) run() {
	defer close(p.done)
	for {
		select {
		case <-p.wake:
			p.drain()
		case <-p.stop:
			p.drain()
			return
		}
	}
}

func (p *persister) drain() {
	for {
		p.mu.Lock()
		if p.pending == nil {
			p.mu.Unlock()
			return
		}
		data, seq := p.pending, p.seq
		p.pending = nil
		p.mu.Unlock()

		if err := p.store.Put(context.Background(), p.key, data); err != nil {
			p.logger.Warn("Local budget write failed",
				log.NewFields().WithOperation(log.OpPersist).WithError(err).ToSlice()...)
		}

		p.mu.Lock()
		p.written = seq
		close(p.changed)
		p.changed = make(chan struct{})
		p.mu.Unlock()
	}
}

// flush waits until every write scheduled before the call has been attempted.
func (p *persister) flush(ctx context.Context) error {
	p.mu.Lock()
	target := p.seq
	for p.written < target {
		ch := p.changed
		p.mu.Unlock()
		select {
		case <-ch:
		case <-p.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
		p.mu.Lock()
	}
	p.mu.Unlock()
	return nil
}

func (p *persister) close(ctx context.Context) error {
	p.stopOnce.Do(func() { close(p.stop) })
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
