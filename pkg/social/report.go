package social

import (
	"sync"

	"github.com/lk2023060901/xdooria-social/pkg/util/conc"
)

// reportSlot 单个成就的在途上报
type reportSlot struct {
	next    float64
	hasNext bool
}

// achievementReports 按成就 ID 合并上报。
// 同一 ID 同时最多一次平台调用，在途期间的新进度只保留最后一次，
// 调用结束后立即补发。不同 ID 互不等待，上报不会被丢弃。
type achievementReports struct {
	mu       sync.Mutex
	closed   bool
	inflight map[string]*reportSlot
	wg       sync.WaitGroup
}

func newAchievementReports() *achievementReports {
	return &achievementReports{inflight: make(map[string]*reportSlot)}
}

// push 提交一次上报，send 在后台 goroutine 上按顺序调用。
// 已关闭时返回 false。
func (r *achievementReports) push(id string, percent float64, send func(percent float64)) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false
	}
	if slot, ok := r.inflight[id]; ok {
		slot.next = percent
		slot.hasNext = true
		r.mu.Unlock()
		return true
	}
	r.inflight[id] = &reportSlot{}
	r.wg.Add(1)
	r.mu.Unlock()

	conc.Go(func() (struct{}, error) {
		defer r.wg.Done()
		finished := false
		defer func() {
			// send panic 时槽位仍在，需要清理
			if !finished {
				r.release(id)
			}
		}()
		for p, ok := percent, true; ok; p, ok = r.take(id) {
			send(p)
		}
		finished = true
		return struct{}{}, nil
	})
	return true
}

// take 取出在途期间记录的最新进度，没有时结束该 ID 的发送循环
func (r *achievementReports) take(id string) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot := r.inflight[id]
	if slot == nil || !slot.hasNext {
		delete(r.inflight, id)
		return 0, false
	}
	slot.hasNext = false
	return slot.next, true
}

func (r *achievementReports) release(id string) {
	r.mu.Lock()
	delete(r.inflight, id)
	r.mu.Unlock()
}

// pending 返回有在途上报的成就数
func (r *achievementReports) pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inflight)
}

// close 拒绝新的上报并等待在途上报结束
func (r *achievementReports) close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.wg.Wait()
}
