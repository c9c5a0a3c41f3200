package dto

// PostMessageRequest 发送消息请求，text 与 image 至少一个非空
type PostMessageRequest struct {
	ReceiverUid string `json:"receiverUid" binding:"required"`
	Text        string `json:"text"`
	Image       string `json:"image"`
}

// MessageView 消息视图
// Id 为雪花 id 的十进制字符串，避免前端 JSON 丢失 int64 精度。
type MessageView struct {
	Id          string `json:"id"`
	SenderUid   string `json:"senderUid"`
	ReceiverUid string `json:"receiverUid"`
	Text        string `json:"text,omitempty"`
	Image       string `json:"image,omitempty"`
	CreatedAt   int64  `json:"createdAt"`
}

// UploadImageView 图片上传结果视图
type UploadImageView struct {
	Url string `json:"url"`
}
