package detector

import (
	"sync"

	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity"
)

var (
	_ entity.IPublisher = (*LogPublisher)(nil)
	_ entity.IPublisher = (*ChanPublisher)(nil)
	_ entity.IPublisher = (*Recorder)(nil)
	_ entity.IPublisher = Multi(nil)
)

// LogPublisher 日志发布
// 说明：发布值变化时以Info级别输出，不变时以Debug级别输出
type LogPublisher struct {
	mtx  sync.Mutex
	last *int32
}

func (p *LogPublisher) Publish(cycle uint64, waypoint int32) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if p.last == nil || *p.last != waypoint {
		log.Infof("cycle %d: stop waypoint -> %d", cycle, waypoint)
	} else {
		log.Debugf("cycle %d: stop waypoint %d", cycle, waypoint)
	}
	p.last = &waypoint
}

// Publication 一次发布
type Publication struct {
	Cycle    uint64
	Waypoint int32
}

// ChanPublisher 通道发布
// 功能：将发布值写入容量为1的通道，消费方来不及读取时旧值被新值覆盖
// 说明：Publish从不阻塞
type ChanPublisher struct {
	mtx sync.Mutex
	ch  chan Publication
}

// NewChanPublisher 创建通道发布
func NewChanPublisher() *ChanPublisher {
	return &ChanPublisher{ch: make(chan Publication, 1)}
}

func (p *ChanPublisher) Publish(cycle uint64, waypoint int32) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	select {
	case <-p.ch:
	default:
	}
	p.ch <- Publication{Cycle: cycle, Waypoint: waypoint}
}

// C 读取通道
func (p *ChanPublisher) C() <-chan Publication {
	return p.ch
}

// Recorder 记录全部发布历史，用于回放报告
type Recorder struct {
	mtx     sync.Mutex
	history []Publication
}

func (r *Recorder) Publish(cycle uint64, waypoint int32) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.history = append(r.history, Publication{Cycle: cycle, Waypoint: waypoint})
}

// History 发布历史的副本
func (r *Recorder) History() []Publication {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return append([]Publication(nil), r.history...)
}

// Waypoints 按周期顺序的发布值
func (r *Recorder) Waypoints() []int32 {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	res := make([]int32, len(r.history))
	for i, p := range r.history {
		res[i] = p.Waypoint
	}
	return res
}

// Last 最近一次发布，没有发布过时返回false
func (r *Recorder) Last() (Publication, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if len(r.history) == 0 {
		return Publication{}, false
	}
	return r.history[len(r.history)-1], true
}

// Multi 同时发布到多个发布接口
type Multi []entity.IPublisher

func (m Multi) Publish(cycle uint64, waypoint int32) {
	for _, p := range m {
		p.Publish(cycle, waypoint)
	}
}
