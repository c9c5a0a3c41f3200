package consts

// 通用错误码
const (
	CodeSuccess = 0 // 成功
)

// 客户端错误 (1xxxx)
const (
	CodeParamError       = 10001 // 参数验证失败
	CodeBodyError        = 10002 // 请求体格式错误
	CodeResourceNotFound = 10003 // 资源不存在
	CodeTooManyRequests  = 10005 // 请求过于频繁
	CodeBodyTooLarge     = 10006 // 请求体过大
)

// 认证错误 (2xxxx)
const (
	CodeUnauthorized   = 20001 // 未认证
	CodeInvalidToken   = 20002 // Token 无效
	CodeTokenExpired   = 20003 // Token 已过期
	CodePermissionDeny = 20004 // 权限不足
)

// 用户模块错误 (11xxx)
const (
	CodeUserNotFound     = 11001 // 用户不存在
	CodeUserAlreadyExist = 11002 // 用户已存在
	CodeVerifyCodeError  = 11006 // 验证码错误
	CodeVerifyCodeExpire = 11007 // 验证码已过期
)

// 好友模块错误 (12xxx)
const (
	CodeAlreadyFriend     = 12001 // 已经是好友
	CodeFriendRequestSent = 12002 // 好友申请已发送
	CodeNotFriend         = 12003 // 不存在该好友关系
	CodeRequestSelf       = 12005 // 不能添加自己为好友
)

// 消息模块错误 (13xxx)
const (
	CodeMessageNotFound  = 13001 // 消息不存在
	CodeMessageSendFail  = 13002 // 消息发送失败
	CodeMessageEmptyBody = 13003 // 消息内容为空
	CodeImageTooLarge    = 13005 // 图片过大
	CodeImageTypeInvalid = 13006 // 图片类型不支持
)

// 服务端错误 (3xxxx)
const (
	CodeInternalError      = 30001 // 服务器内部错误
	CodeServiceUnavailable = 30002 // 服务暂不可用
)

// 错误消息映射
var CodeMessage = map[int32]string{
	CodeSuccess: "success",

	// 客户端错误
	CodeParamError:       "参数验证失败",
	CodeBodyError:        "请求体格式错误",
	CodeResourceNotFound: "资源不存在",
	CodeTooManyRequests:  "请求过于频繁",
	CodeBodyTooLarge:     "请求体过大",

	// 认证错误
	CodeUnauthorized:   "未认证",
	CodeInvalidToken:   "Token 无效",
	CodeTokenExpired:   "Token 已过期",
	CodePermissionDeny: "权限不足",

	// 用户模块
	CodeUserNotFound:     "用户不存在",
	CodeUserAlreadyExist: "用户已存在",
	CodeVerifyCodeError:  "验证码错误",
	CodeVerifyCodeExpire: "验证码已过期",

	// 好友模块
	CodeAlreadyFriend:     "已经是好友",
	CodeFriendRequestSent: "好友申请已发送",
	CodeNotFriend:         "不存在该好友关系",
	CodeRequestSelf:       "不能添加自己为好友",

	// 消息模块
	CodeMessageNotFound:  "消息不存在",
	CodeMessageSendFail:  "消息发送失败",
	CodeMessageEmptyBody: "消息内容为空",
	CodeImageTooLarge:    "图片过大",
	CodeImageTypeInvalid: "图片类型不支持",

	// 服务端错误
	CodeInternalError:      "服务器内部错误",
	CodeServiceUnavailable: "服务暂不可用",
}

// GetMessage 根据错误码获取错误消息
func GetMessage(code int32) string {
	if msg, ok := CodeMessage[code]; ok {
		return msg
	}
	return "未知错误"
}

// IsNonServerError 判断是否客户端/业务错误（非 3xxxx 服务端错误）。
// 这类错误由调用方输入导致，Handler 层不记录 error 日志。
func IsNonServerError(code int32) bool {
	return code < CodeInternalError && code != CodeSuccess
}
