// internal/service/billing/infrastructure/spot_locker.go
package infrastructure

import (
	"time"

	"cochera/internal/zookeeper"
)

// ZkSpotLocker 用 ZooKeeper 临时顺序节点实现跨实例的车位互斥。
// 数据库事务已经能挡住单库内的竞争，这把锁把竞争挡在事务之前，
// 避免多实例同时抢同一个车位时白白回滚。
type ZkSpotLocker struct {
	conn *zookeeper.Conn
	wait time.Duration
}

func NewZkSpotLocker(conn *zookeeper.Conn) *ZkSpotLocker {
	return &ZkSpotLocker{conn: conn, wait: 10 * time.Second}
}

func (l *ZkSpotLocker) WithSpotLock(facilityID int64, spot string, fn func() error) error {
	lock := zookeeper.NewSpotLock(l.conn, facilityID, spot)
	if err := lock.Lock(l.wait); err != nil {
		return err
	}
	defer lock.Unlock()
	return fn()
}
