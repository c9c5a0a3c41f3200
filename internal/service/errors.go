package service

import (
	"errors"

	"ChatFlowServer/consts"
	"ChatFlowServer/internal/repository"
)

// BizError 业务错误，携带对外错误码。
// Handler 层通过 errors.As 取出 Code 填入响应，非 BizError 一律按内部错误处理。
type BizError struct {
	Code int32
	Msg  string
}

func (e *BizError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return consts.GetMessage(e.Code)
}

// NewBizError 按错误码构造业务错误
func NewBizError(code int32) *BizError {
	return &BizError{Code: code}
}

// AsBizError 提取业务错误码，非业务错误返回 CodeInternalError
func AsBizError(err error) int32 {
	var bizErr *BizError
	if errors.As(err, &bizErr) {
		return bizErr.Code
	}
	return consts.CodeInternalError
}

// wrapRepoError 把仓储层错误映射为业务错误
// notFoundCode/duplicateCode 指定两类可预期错误的业务码，0 表示透传为内部错误。
func wrapRepoError(err error, notFoundCode, duplicateCode int32) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrRecordNotFound) && notFoundCode != 0:
		return NewBizError(notFoundCode)
	case errors.Is(err, repository.ErrDuplicateKey) && duplicateCode != 0:
		return NewBizError(duplicateCode)
	default:
		return err
	}
}
