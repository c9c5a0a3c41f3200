package util

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	snowflakeNode *snowflake.Node
	snowflakeOnce sync.Once
)

// InitSnowflake 初始化雪花算法节点（进程启动时调用一次）。
// nodeID 取值范围 0~1023，多实例部署时必须互不相同。
func InitSnowflake(nodeID int64) error {
	var err error
	snowflakeOnce.Do(func() {
		snowflakeNode, err = snowflake.NewNode(nodeID)
	})
	if err != nil {
		return fmt.Errorf("init snowflake node: %w", err)
	}
	return nil
}

// NextID 生成下一个雪花 ID。
// 未初始化时 panic 暴露启动顺序错误，而不是静默生成 0。
func NextID() int64 {
	if snowflakeNode == nil {
		panic("snowflake node not initialized")
	}
	return snowflakeNode.Generate().Int64()
}
