package config

const (
	DefaultGraphAPIBase  = "https://graph.facebook.com/v19.0"
	DefaultGeminiAPIBase = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel   = "gemini-2.0-flash-lite"
)

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3000,
		},
		WhatsApp: WhatsAppConfig{
			APIBase: DefaultGraphAPIBase,
		},
		Gemini: GeminiConfig{
			APIBase: DefaultGeminiAPIBase,
			Model:   DefaultGeminiModel,
		},
	}
}
