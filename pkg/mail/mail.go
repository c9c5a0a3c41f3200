package mail

import (
	"fmt"

	"ChatFlowServer/config"

	"gopkg.in/gomail.v2"
)

// Sender SMTP 发信器，用于发送邮箱验证码。
type Sender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSender 根据配置创建发信器。
func NewSender(cfg config.MailConfig) *Sender {
	return &Sender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// SendVerifyCode 发送验证码邮件。
func (s *Sender) SendVerifyCode(to, code string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "ChatFlow 邮箱验证码")
	m.SetBody("text/html", fmt.Sprintf(
		"<p>你的验证码是：<b>%s</b></p><p>验证码 10 分钟内有效，请勿泄露给他人。</p>", code))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
