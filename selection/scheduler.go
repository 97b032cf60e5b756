package selection

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Timer 是一个可取消的延迟回调。Stop 返回 true 表示回调尚未执行且已被取消。
type Timer interface {
	Stop() bool
}

// Scheduler 提供时间源与延迟回调。控制器只通过它安排防抖，测试可以替换为 ManualScheduler。
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// LoopScheduler 把到期的回调投递到事件循环，由 Run 所在的 goroutine 串行执行，
// 因此控制器状态只会被单一控制流修改。宿主的输入事件也应通过 Dispatch 投递。
type LoopScheduler struct {
	queue chan func()
	// done 在 Run 返回后关闭，此后投递的回调直接丢弃。
	done chan struct{}
	stop sync.Once
}

// NewLoopScheduler 创建带缓冲队列的调度器。
func NewLoopScheduler(buffer int) *LoopScheduler {
	if buffer <= 0 {
		buffer = 64
	}
	return &LoopScheduler{queue: make(chan func(), buffer), done: make(chan struct{})}
}

func (s *LoopScheduler) Now() time.Time { return time.Now() }

func (s *LoopScheduler) AfterFunc(d time.Duration, f func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		s.Dispatch(func() {
			// 在到期与出队之间被 Stop 的回调不再执行
			if t.stopped.Load() {
				return
			}
			f()
		})
	})
	return t
}

// Dispatch 将 f 排入事件循环。Run 已返回时 f 被丢弃。
func (s *LoopScheduler) Dispatch(f func()) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.queue <- f:
	case <-s.done:
	}
}

// Run 串行执行队列中的回调，直到 ctx 结束。调度器只能运行一次。
func (s *LoopScheduler) Run(ctx context.Context) error {
	defer s.stop.Do(func() { close(s.done) })
	for {
		select {
		case f := <-s.queue:
			f()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

type loopTimer struct {
	timer   *time.Timer
	stopped atomic.Bool
}

func (t *loopTimer) Stop() bool {
	if t.stopped.Swap(true) {
		return false
	}
	return t.timer.Stop()
}

// ManualScheduler 是手动推进的调度器，用于在没有真实等待的情况下驱动状态机。
type ManualScheduler struct {
	now    time.Time
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	at      time.Time
	seq     int
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// NewManualScheduler 以 start 为当前时间创建调度器。
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{now: start}
}

func (s *ManualScheduler) Now() time.Time { return s.now }

func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.seq++
	t := &manualTimer{at: s.now.Add(d), seq: s.seq, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Advance 推进时间，按到期顺序执行期间到期的回调（回调内新安排的定时器同样会被执行）。
func (s *ManualScheduler) Advance(d time.Duration) {
	target := s.now.Add(d)
	for {
		s.compact()
		if len(s.timers) == 0 || s.timers[0].at.After(target) {
			break
		}
		t := s.timers[0]
		s.timers = s.timers[1:]
		s.now = t.at
		t.stopped = true
		t.f()
	}
	s.now = target
}

// Pending 返回尚未执行也未取消的定时器数量。
func (s *ManualScheduler) Pending() int {
	s.compact()
	return len(s.timers)
}

func (s *ManualScheduler) compact() {
	live := s.timers[:0]
	for _, t := range s.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	s.timers = live
	sort.SliceStable(s.timers, func(i, j int) bool {
		if !s.timers[i].at.Equal(s.timers[j].at) {
			return s.timers[i].at.Before(s.timers[j].at)
		}
		return s.timers[i].seq < s.timers[j].seq
	})
}
