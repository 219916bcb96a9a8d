// internal/zookeeper/lock.go
package zookeeper

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
)

// 车位互斥锁的根节点。停车场编号 + 车位号构成锁资源。
const lockRoot = "/cochera/spot_locks"

// Conn 封装 ZooKeeper 会话。
type Conn struct {
	*zk.Conn
}

// Connect 建立 ZooKeeper 会话并确保锁根节点存在。
func Connect(servers []string) (*Conn, error) {
	conn, _, err := zk.Connect(servers, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to zookeeper: %w", err)
	}
	if err := ensurePath(conn, lockRoot); err != nil {
		conn.Close()
		return nil, err
	}
	return &Conn{Conn: conn}, nil
}

// ensurePath 逐级创建持久节点，已存在视为成功。
func ensurePath(conn *zk.Conn, path string) error {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	current := ""
	for _, seg := range segments {
		current += "/" + seg
		_, err := conn.Create(current, nil, 0, zk.WorldACL(zk.PermAll))
		if err != nil && err != zk.ErrNodeExists {
			return fmt.Errorf("failed to create zk path %s: %w", current, err)
		}
	}
	return nil
}

// SpotLock 是针对单个车位的跨实例互斥锁。
// 同一停车场内开abono、续abono和入场登记都要先拿到对应车位的锁，
// 再在数据库事务里做重叠校验，防止多实例并发下的双重占用。
type SpotLock struct {
	conn     *Conn
	path     string
	lockNode string
}

// NewSpotLock 为 (facility, spot) 创建一个锁实例。
func NewSpotLock(conn *Conn, facilityID int64, spot string) *SpotLock {
	resource := fmt.Sprintf("facility-%d-spot-%s", facilityID, spot)
	lockPath := lockRoot + "/" + resource
	if err := ensurePath(conn.Conn, lockPath); err != nil {
		// 根节点在 Connect 时已建好，这里失败说明会话已不可用
		panic(fmt.Sprintf("failed to create lock path %s: %v", lockPath, err))
	}
	return &SpotLock{conn: conn, path: lockPath}
}

// Lock 以临时顺序节点的方式排队获取锁，最长等待 wait。
func (l *SpotLock) Lock(wait time.Duration) error {
	nodePath, err := l.conn.CreateProtectedEphemeralSequential(l.path+"/lock-", nil, zk.WorldACL(zk.PermAll))
	if err != nil {
		return fmt.Errorf("failed to create lock node: %w", err)
	}
	l.lockNode = nodePath
	deadline := time.Now().Add(wait)

	for {
		children, _, err := l.conn.Children(l.path)
		if err != nil {
			return fmt.Errorf("failed to list lock nodes: %w", err)
		}
		sort.Strings(children)

		myName := strings.TrimPrefix(l.lockNode, l.path+"/")
		if myName == children[0] {
			return nil
		}

		// 只监听排在自己前面的那个节点，避免惊群
		prev := -1
		for i, child := range children {
			if child == myName {
				prev = i - 1
				break
			}
		}
		if prev < 0 {
			return errors.New("own lock node missing from children")
		}

		_, _, eventChan, err := l.conn.ExistsW(l.path + "/" + children[prev])
		if err != nil {
			if err == zk.ErrNoNode {
				continue
			}
			return fmt.Errorf("failed to watch predecessor: %w", err)
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			_ = l.Unlock()
			return errors.New("timeout waiting for spot lock")
		}
		select {
		case event := <-eventChan:
			if event.Type == zk.EventNodeDeleted {
				continue
			}
		case <-time.After(remaining):
			_ = l.Unlock()
			return errors.New("timeout waiting for spot lock")
		}
	}
}

// Unlock 删除自己的锁节点。
func (l *SpotLock) Unlock() error {
	if l.lockNode == "" {
		return errors.New("no lock held")
	}
	err := l.conn.Delete(l.lockNode, -1)
	if err != nil && err != zk.ErrNoNode {
		return fmt.Errorf("failed to delete lock node: %w", err)
	}
	l.lockNode = ""
	return nil
}
