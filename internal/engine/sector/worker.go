package sector

import (
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/terrastream/internal/engine/terrain"
)

const jobQueueSize = 256

type result struct {
	coord Coordinate
	data  *terrain.SectorRenderData
}

// workerPool builds render data off the ticking goroutine. Each worker
// owns a Builder. Results are held until the streamer drains them, and a
// coordinate stays in flight until then so it is never built twice.
type workerPool struct {
	jobs chan Coordinate
	wg   sync.WaitGroup
	log  *zap.Logger

	mu       sync.Mutex
	inFlight map[Coordinate]struct{}
	wanted   map[Coordinate]struct{}
	finished []result
	dropped  int
	closed   bool
}

func newWorkerPool(workers int, newBuilder func() *terrain.Builder, log *zap.Logger) *workerPool {
	p := &workerPool{
		jobs:     make(chan Coordinate, jobQueueSize),
		log:      log,
		inFlight: make(map[Coordinate]struct{}),
		wanted:   make(map[Coordinate]struct{}),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(newBuilder())
	}
	return p
}

func (p *workerPool) worker(b *terrain.Builder) {
	defer p.wg.Done()
	for coord := range p.jobs {
		p.mu.Lock()
		_, wanted := p.wanted[coord]
		if !wanted {
			// Left the visible set while queued.
			delete(p.inFlight, coord)
			p.dropped++
			p.mu.Unlock()
			p.log.Debug("dropped stale sector job", zap.Stringer("sector", coord))
			continue
		}
		p.mu.Unlock()

		data := b.Build(coord)

		p.mu.Lock()
		p.finished = append(p.finished, result{coord: coord, data: data})
		p.mu.Unlock()
	}
}

// submit queues coord unless it is already in flight. It returns false
// when the job was not queued.
func (p *workerPool) submit(coord Coordinate) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	if _, ok := p.inFlight[coord]; ok {
		p.mu.Unlock()
		return false
	}
	p.inFlight[coord] = struct{}{}
	p.mu.Unlock()

	select {
	case p.jobs <- coord:
		return true
	default:
		// Queue full, retry on a later tick.
		p.mu.Lock()
		delete(p.inFlight, coord)
		p.mu.Unlock()
		return false
	}
}

// setWanted replaces the set of coordinates still worth building.
func (p *workerPool) setWanted(coords []Coordinate) {
	wanted := make(map[Coordinate]struct{}, len(coords))
	for _, c := range coords {
		wanted[c] = struct{}{}
	}
	p.mu.Lock()
	p.wanted = wanted
	p.mu.Unlock()
}

// drain returns finished results and clears their in-flight markers.
func (p *workerPool) drain() []result {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.finished
	p.finished = nil
	for _, r := range out {
		delete(p.inFlight, r.coord)
	}
	return out
}

func (p *workerPool) isInFlight(coord Coordinate) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.inFlight[coord]
	return ok
}

func (p *workerPool) pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inFlight)
}

func (p *workerPool) droppedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

func (p *workerPool) close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.jobs)
	p.wg.Wait()
}
