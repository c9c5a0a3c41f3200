package config

// MailConfig SMTP 发信配置，用于邮箱验证码。
type MailConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	From     string `json:"from" yaml:"from"`
}

// DefaultMailConfig 返回默认发信配置。
func DefaultMailConfig() MailConfig {
	return MailConfig{
		Host:     getEnv("MAIL_HOST", "127.0.0.1"),
		Port:     getEnvInt("MAIL_PORT", 587),
		Username: getEnv("MAIL_USERNAME", ""),
		Password: getEnv("MAIL_PASSWORD", ""),
		From:     getEnv("MAIL_FROM", "noreply@chatflow.local"),
	}
}
