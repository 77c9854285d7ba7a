package social

import (
	"sync"

	"github.com/lk2023060901/xdooria-social/pkg/logger"
	"github.com/lk2023060901/xdooria-social/pkg/util/conc"
)

// dispatcher 按入队顺序把通知交给监听者。
// 队列不设上限，入队不会阻塞，单个 goroutine 负责出队与回调。
type dispatcher struct {
	logger  logger.Logger
	metrics *Metrics

	mu       sync.Mutex
	queue    []notification
	listener Listener
	closed   bool

	wake chan struct{}
	done *conc.Future[struct{}]
}

func newDispatcher(l logger.Logger, m *Metrics, capacity int) *dispatcher {
	d := &dispatcher{
		logger:  l,
		metrics: m,
		queue:   make([]notification, 0, capacity),
		wake:    make(chan struct{}, 1),
	}
	d.done = conc.Go(func() (struct{}, error) {
		d.loop()
		return struct{}{}, nil
	})
	return d
}

// setListener 替换监听者，nil 表示取消注册
func (d *dispatcher) setListener(l Listener) {
	d.mu.Lock()
	d.listener = l
	d.mu.Unlock()
}

// enqueue 追加一条通知，关闭后的通知直接丢弃
func (d *dispatcher) enqueue(n notification) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Debug("dispatcher closed, notification discarded", "kind", n.kind.String())
		return
	}
	d.queue = append(d.queue, n)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// pending 返回尚未分发的通知数
func (d *dispatcher) pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

func (d *dispatcher) loop() {
	for {
		d.mu.Lock()
		for len(d.queue) == 0 {
			if d.closed {
				d.mu.Unlock()
				return
			}
			d.mu.Unlock()
			<-d.wake
			d.mu.Lock()
		}
		n := d.queue[0]
		d.queue[0] = notification{}
		d.queue = d.queue[1:]
		l := d.listener
		d.mu.Unlock()

		d.deliver(l, n)
	}
}

func (d *dispatcher) deliver(l Listener, n notification) {
	if l == nil {
		d.logger.Debug("no listener registered, notification discarded", "kind", n.kind.String())
		return
	}

	defer func() {
		if r := recover(); r != nil {
			d.metrics.ListenerPanics.Inc()
			d.logger.Error("listener panic recovered", "kind", n.kind.String(), "panic", r)
		}
	}()

	d.metrics.NotificationsTotal.WithLabelValues(n.kind.String()).Inc()
	n.deliver(l)
}

// close 停止接收新通知，已入队的通知分发完后返回
func (d *dispatcher) close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	_ = d.done.Err()
}
