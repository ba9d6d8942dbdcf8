package timer

import (
	"container/heap"
	"sync"
	"time"
)

// Task is one scheduled callback. Interval > 0 makes it periodic.
type Task struct {
	ID       int64
	At       time.Time
	Interval time.Duration
	Callback func()
	index    int
}

type taskQueue []*Task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	return q[i].At.Before(q[j].At)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x interface{}) {
	task := x.(*Task)
	task.index = len(*q)
	*q = append(*q, task)
}

func (q *taskQueue) Pop() interface{} {
	old := *q
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	task.index = -1
	*q = old[:n-1]
	return task
}

// Scheduler 定时任务调度器, checked every resolution. Callbacks run on
// their own goroutine.
type Scheduler struct {
	queue    taskQueue
	byID     map[int64]*Task
	mutex    sync.Mutex
	nextID   int64
	stop     chan struct{}
	stopOnce sync.Once
}

func NewScheduler(resolution time.Duration) *Scheduler {
	s := &Scheduler{
		byID:   make(map[int64]*Task),
		nextID: 1,
		stop:   make(chan struct{}),
	}
	heap.Init(&s.queue)
	go s.run(resolution)
	return s
}

// After runs fn once after delay.
func (s *Scheduler) After(delay time.Duration, fn func()) int64 {
	return s.add(delay, 0, fn)
}

// Every runs fn every interval until cancelled.
func (s *Scheduler) Every(interval time.Duration, fn func()) int64 {
	return s.add(interval, interval, fn)
}

func (s *Scheduler) add(delay, interval time.Duration, fn func()) int64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	task := &Task{
		ID:       s.nextID,
		At:       time.Now().Add(delay),
		Interval: interval,
		Callback: fn,
	}
	s.nextID++
	heap.Push(&s.queue, task)
	s.byID[task.ID] = task
	return task.ID
}

// Cancel removes a pending task. It reports whether the task was pending.
func (s *Scheduler) Cancel(id int64) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	task, exists := s.byID[id]
	if !exists {
		return false
	}
	heap.Remove(&s.queue, task.index)
	delete(s.byID, id)
	return true
}

// Len is the number of pending tasks.
func (s *Scheduler) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.queue.Len()
}

// Stop ends the scheduler; pending tasks never run.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Scheduler) run(resolution time.Duration) {
	ticker := time.NewTicker(resolution)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			for _, fn := range s.due(now) {
				go fn()
			}
		case <-s.stop:
			return
		}
	}
}

// due pops every task whose time has come and requeues periodic ones.
func (s *Scheduler) due(now time.Time) []func() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var fns []func()
	for s.queue.Len() > 0 {
		task := s.queue[0]
		if task.At.After(now) {
			break
		}
		heap.Pop(&s.queue)
		fns = append(fns, task.Callback)

		if task.Interval > 0 {
			task.At = now.Add(task.Interval)
			heap.Push(&s.queue, task)
		} else {
			delete(s.byID, task.ID)
		}
	}
	return fns
}
