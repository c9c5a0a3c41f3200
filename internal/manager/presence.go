package manager

import "sync"

// Conn 是在线表持有的连接抽象。
// 只暴露投递与关闭两个能力，便于上层服务与测试替换实现。
type Conn interface {
	// Enqueue 将消息投递到连接的写队列，连接不可用时返回 false
	Enqueue(msg []byte) bool
	// Close 幂等关闭连接
	Close()
}

// PresenceManager 管理用户在线状态与连接绑定。
// 维护两套索引：
// - byUID(uid -> conn) 用于按用户定位投递目标；
// - byConn(conn -> uid) 用于连接断开时反查用户做清理。
// 绑定规则为后到者胜：同一用户重复上线时新连接顶掉旧连接。
type PresenceManager struct {
	mu       sync.RWMutex
	byUID    map[string]Conn
	byConn   map[Conn]string
	shutdown bool
}

// NewPresenceManager 创建在线表实例。
func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		byUID:  make(map[string]Conn),
		byConn: make(map[Conn]string),
	}
}

// Join 绑定用户与连接。
// 返回值 replaced 表示被新连接顶掉的旧连接（如果存在），
// 调用方通常应主动关闭 replaced，确保每个用户最多一条活跃绑定。
// 同一条连接改绑新用户时，旧用户的绑定一并清除。
func (m *PresenceManager) Join(uid string, conn Conn) (replaced Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shutdown {
		return nil
	}

	// 该连接此前绑定过别的用户，先解除旧绑定
	if oldUID, ok := m.byConn[conn]; ok && oldUID != uid {
		if current, ok := m.byUID[oldUID]; ok && current == conn {
			delete(m.byUID, oldUID)
		}
	}

	if old, ok := m.byUID[uid]; ok && old != conn {
		replaced = old
		delete(m.byConn, old)
	}

	m.byUID[uid] = conn
	m.byConn[conn] = uid
	return replaced
}

// Leave 按连接注销绑定，返回该连接绑定的用户。
// 只有当 map 中当前连接与入参完全一致时才删除，防止并发替换时误删新连接。
// ok 为 false 表示该连接从未完成 Join 或已被新连接顶掉。
func (m *PresenceManager) Leave(conn Conn) (uid string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	uid, ok = m.byConn[conn]
	if !ok {
		return "", false
	}
	delete(m.byConn, conn)

	if current, exists := m.byUID[uid]; exists && current == conn {
		delete(m.byUID, uid)
		return uid, true
	}

	// 绑定已被新连接接管，不视为该用户下线
	return "", false
}

// Lookup 返回指定用户当前绑定的连接，不在线返回 nil。
func (m *PresenceManager) Lookup(uid string) Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byUID[uid]
}

// Online 返回当前在线用户 uid 快照。
func (m *PresenceManager) Online() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	uids := make([]string, 0, len(m.byUID))
	for uid := range m.byUID {
		uids = append(uids, uid)
	}
	return uids
}

// Connections 返回当前全部连接的快照，用于全量广播。
func (m *PresenceManager) Connections() []Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conns := make([]Conn, 0, len(m.byUID))
	for _, conn := range m.byUID {
		conns = append(conns, conn)
	}
	return conns
}

// Count 返回当前在线用户数。
func (m *PresenceManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byUID)
}

// Shutdown 关闭全部连接并阻止后续注册。
// 用于进程优雅退出阶段，确保不再接收新连接并尽快释放资源。
func (m *PresenceManager) Shutdown() {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return
	}
	m.shutdown = true

	conns := make([]Conn, 0, len(m.byConn))
	for conn := range m.byConn {
		conns = append(conns, conn)
	}
	m.byUID = make(map[string]Conn)
	m.byConn = make(map[Conn]string)
	m.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}
