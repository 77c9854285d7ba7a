package social

import (
	"sync"
	"sync/atomic"

	"github.com/lk2023060901/xdooria-social/pkg/logger"
	"github.com/lk2023060901/xdooria-social/pkg/util/conc"
)

// lane 单一请求类型的串行通道，状态为 Idle 或 Pending
type lane struct {
	kind RequestKind

	mu      sync.Mutex
	pending bool
	queue   []func()
}

// laneSet 每种请求类型一条 lane。
// 同类型请求在途时后续请求按 FIFO 排队，超出上限直接丢弃。
type laneSet struct {
	pool      *conc.Pool[struct{}]
	logger    logger.Logger
	metrics   *Metrics
	maxQueued int
	closed    atomic.Bool

	lanes [numRequestKinds]*lane
}

func newLaneSet(pool *conc.Pool[struct{}], l logger.Logger, m *Metrics, maxQueued int) *laneSet {
	if maxQueued < 0 {
		maxQueued = 0
	}
	ls := &laneSet{
		pool:      pool,
		logger:    l,
		metrics:   m,
		maxQueued: maxQueued,
	}
	for k := RequestKind(0); k < numRequestKinds; k++ {
		ls.lanes[k] = &lane{kind: k}
	}
	return ls
}

// submit 在 kind 对应的 lane 上执行 fn，lane 忙时排队
func (ls *laneSet) submit(kind RequestKind, fn func()) error {
	if ls.closed.Load() {
		return ErrClosed
	}

	l := ls.lanes[kind]
	l.mu.Lock()
	if l.pending {
		if len(l.queue) >= ls.maxQueued {
			l.mu.Unlock()
			ls.metrics.RequestDropped.WithLabelValues(kind.String()).Inc()
			ls.logger.Warn("request dropped, lane queue full",
				"request_kind", kind.String(),
				"max_queued", ls.maxQueued,
			)
			return ErrRequestDropped
		}
		l.queue = append(l.queue, fn)
		depth := len(l.queue)
		l.mu.Unlock()
		ls.metrics.LaneQueueDepth.WithLabelValues(kind.String()).Set(float64(depth))
		ls.logger.Debug("request queued", "request_kind", kind.String(), "depth", depth)
		return nil
	}
	l.pending = true
	l.mu.Unlock()

	ls.run(l, fn)
	return nil
}

// run 在协程池上依次执行 lane 中的任务，队列为空时回到 Idle
func (ls *laneSet) run(l *lane, first func()) {
	f := ls.pool.Submit(func() (struct{}, error) {
		for fn := first; fn != nil; fn = ls.next(l) {
			ls.safeCall(l.kind, fn)
		}
		return struct{}{}, nil
	})
	if f.Done() && f.Err() != nil {
		ls.logger.Error("lane task submit failed", "request_kind", l.kind.String(), "error", f.Err())
		ls.reset(l)
	}
}

func (ls *laneSet) next(l *lane) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) == 0 || ls.closed.Load() {
		l.pending = false
		l.queue = nil
		ls.metrics.LaneQueueDepth.WithLabelValues(l.kind.String()).Set(0)
		return nil
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	ls.metrics.LaneQueueDepth.WithLabelValues(l.kind.String()).Set(float64(len(l.queue)))
	return fn
}

func (ls *laneSet) safeCall(kind RequestKind, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			ls.logger.Error("lane task panic recovered", "request_kind", kind.String(), "panic", r)
		}
	}()
	fn()
}

func (ls *laneSet) reset(l *lane) {
	l.mu.Lock()
	l.pending = false
	l.queue = nil
	l.mu.Unlock()
	ls.metrics.LaneQueueDepth.WithLabelValues(l.kind.String()).Set(0)
}

// isPending lane 是否有在途请求
func (ls *laneSet) isPending(kind RequestKind) bool {
	l := ls.lanes[kind]
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending
}

// queued 返回 lane 中排队的请求数
func (ls *laneSet) queued(kind RequestKind) int {
	l := ls.lanes[kind]
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// close 丢弃排队任务，在途任务结束后 lane 不再接收请求
func (ls *laneSet) close() {
	ls.closed.Store(true)
}
