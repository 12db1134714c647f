package docstore

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/shanghai-romance-0210/dark-matter-world/internal/metrics"
)

// broker 管理按集合路径分组的订阅者，路径首次被订阅时才建立分组。
type broker struct {
	mu      sync.RWMutex
	subs    map[string]map[*Subscription]struct{}
	backlog int
}

func newBroker(backlog int) *broker {
	return &broker{subs: make(map[string]map[*Subscription]struct{}), backlog: backlog}
}

// Subscription 是一条活动订阅。C 上送达完整快照；慢消费者只会丢弃
// 中间快照（最新覆盖最旧），不会阻塞写路径。
type Subscription struct {
	C    chan Snapshot
	path string
	b    *broker
	once sync.Once
}

// Cancel 注销订阅并关闭通道，停止后续快照投递。这是必须执行的清理，
// 否则 broker 会一直持有该订阅。
func (sub *Subscription) Cancel() {
	sub.once.Do(func() {
		sub.b.unsubscribe(sub)
		close(sub.C)
	})
}

// push 非阻塞投递：通道满时丢弃最旧的一份再放入最新快照。
func (sub *Subscription) push(snap Snapshot) {
	select {
	case sub.C <- snap:
		return
	default:
	}
	select {
	case <-sub.C:
	default:
	}
	select {
	case sub.C <- snap:
	default:
	}
}

func (b *broker) subscribe(path string) *Subscription {
	sub := &Subscription{C: make(chan Snapshot, b.backlog), path: path, b: b}
	b.mu.Lock()
	group := b.subs[path]
	if group == nil {
		group = make(map[*Subscription]struct{})
		b.subs[path] = group
	}
	group[sub] = struct{}{}
	b.mu.Unlock()
	metrics.Subscriptions.Inc()
	return sub
}

func (b *broker) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	if group, ok := b.subs[sub.path]; ok {
		if _, ok := group[sub]; ok {
			delete(group, sub)
			metrics.Subscriptions.Dec()
		}
		if len(group) == 0 {
			delete(b.subs, sub.path)
		}
	}
	b.mu.Unlock()
}

func (b *broker) hasSubscribers(path string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[path]) > 0
}

func (b *broker) publish(snap Snapshot) {
	b.mu.RLock()
	for sub := range b.subs[snap.Path] {
		sub.push(snap)
	}
	b.mu.RUnlock()
	metrics.SnapshotsTotal.Inc()
}

func (b *broker) logSnapshotError(path string, err error) {
	log.Error().Err(err).Str("path", path).Msg("rebuild snapshot")
}
