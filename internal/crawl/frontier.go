package crawl

// Frontier is the FIFO queue of not-yet-visited canonical URLs plus the
// visited set. It is only mutated on the control goroutine between
// batches; workers never touch it.
type Frontier struct {
	queue    []string
	queued   map[string]struct{}
	visited  map[string]struct{}
	maxPages int
}

// NewFrontier creates a frontier bounded by a page-visit ceiling.
func NewFrontier(maxPages int) *Frontier {
	return &Frontier{
		queued:   make(map[string]struct{}),
		visited:  make(map[string]struct{}),
		maxPages: maxPages,
	}
}

// Push enqueues a canonical URL. A URL is enqueued at most once: pushes
// deduplicate against both the visited set and the current queue. Once
// visited+queued reaches 3x the page ceiling no further URLs are
// accepted, which stops runaway fan-out. Reports whether the URL was
// actually enqueued.
func (f *Frontier) Push(u string) bool {
	if _, ok := f.visited[u]; ok {
		return false
	}
	if _, ok := f.queued[u]; ok {
		return false
	}
	if len(f.visited)+len(f.queue) >= 3*f.maxPages {
		return false
	}
	f.queue = append(f.queue, u)
	f.queued[u] = struct{}{}
	return true
}

// NextBatch pops up to n URLs, marking each visited. It returns fewer
// than n when the queue drains or the visit ceiling is reached.
func (f *Frontier) NextBatch(n int) []string {
	var batch []string
	for len(batch) < n && len(f.queue) > 0 && len(f.visited) < f.maxPages {
		u := f.queue[0]
		f.queue = f.queue[1:]
		delete(f.queued, u)
		if _, ok := f.visited[u]; ok {
			continue
		}
		f.visited[u] = struct{}{}
		batch = append(batch, u)
	}
	return batch
}

// Done reports whether the crawl should terminate: empty frontier or
// visit ceiling reached.
func (f *Frontier) Done() bool {
	return len(f.queue) == 0 || len(f.visited) >= f.maxPages
}

// VisitedCount returns the number of URLs dispatched so far.
func (f *Frontier) VisitedCount() int { return len(f.visited) }
