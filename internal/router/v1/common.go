package v1

import (
	"context"

	"ChatFlowServer/consts"
	"ChatFlowServer/internal/service"
	"ChatFlowServer/pkg/logger"
	"ChatFlowServer/pkg/result"

	"github.com/gin-gonic/gin"
)

// failWithError 统一的服务层错误出口
// 业务错误（客户端输入导致）直接返回错误码不记日志；其余按内部错误记录。
func failWithError(c *gin.Context, ctx context.Context, err error, logMsg string) {
	code := service.AsBizError(err)
	if consts.IsNonServerError(code) {
		result.Fail(c, nil, code)
		return
	}

	logger.Error(ctx, logMsg, logger.ErrorField("error", err))
	result.Fail(c, nil, consts.CodeInternalError)
}
