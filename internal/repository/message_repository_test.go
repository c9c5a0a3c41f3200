package repository

import (
	"testing"
	"time"

	"ChatFlowServer/model"

	"github.com/stretchr/testify/assert"
)

func TestReverseMessages(t *testing.T) {
	base := time.Now()

	t.Run("倒序取出的窗口翻转后恢复升序", func(t *testing.T) {
		// 模拟 created_at DESC, id DESC 取出的最新窗口
		messages := []*model.Message{
			{Id: 3, CreatedAt: base.Add(3 * time.Second)},
			{Id: 2, CreatedAt: base.Add(2 * time.Second)},
			{Id: 1, CreatedAt: base.Add(1 * time.Second)},
		}

		reverseMessages(messages)

		for i := range messages {
			assert.Equal(t, int64(i+1), messages[i].Id)
		}
		assert.True(t, messages[0].CreatedAt.Before(messages[2].CreatedAt))
	})

	t.Run("空切片与单元素不变", func(t *testing.T) {
		reverseMessages(nil)

		single := []*model.Message{{Id: 7}}
		reverseMessages(single)
		assert.Equal(t, int64(7), single[0].Id)
	})
}
