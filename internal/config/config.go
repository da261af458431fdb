package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type DemoConfig struct {
	RequestLimit  int `yaml:"request_limit"`
	TalkTimeLimit int `yaml:"talk_time_limit"` // seconds
	CookieDays    int `yaml:"cookie_days"`
}

type AdminConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type OutboxConfig struct {
	PollSeconds int `yaml:"poll_seconds"`
	MaxAttempts int `yaml:"max_attempts"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	JWT struct {
		Secret string `yaml:"secret"`
	} `yaml:"jwt"`
	Files struct {
		RootDir string `yaml:"root_dir"`
	} `yaml:"files"`
	Demo     DemoConfig     `yaml:"demo"`
	Admin    AdminConfig    `yaml:"admin"`
	Outbox   OutboxConfig   `yaml:"outbox"`
	Telegram TelegramConfig `yaml:"telegram"`
}

func LoadConfig() *Config {
	return LoadConfigFile("config/config.yaml")
}

func LoadConfigFile(path string) *Config {
	f, err := os.Open(path)
	if err != nil {
		panic("Failed to open " + path + ": " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse " + path + ": " + err.Error())
	}
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5001
	}
	if c.Files.RootDir == "" {
		c.Files.RootDir = "./files"
	}
	if c.Demo.RequestLimit == 0 {
		c.Demo.RequestLimit = 5
	}
	if c.Demo.TalkTimeLimit == 0 {
		c.Demo.TalkTimeLimit = 120
	}
	if c.Demo.CookieDays == 0 {
		c.Demo.CookieDays = 30
	}
	if c.Outbox.PollSeconds == 0 {
		c.Outbox.PollSeconds = 30
	}
	if c.Outbox.MaxAttempts == 0 {
		c.Outbox.MaxAttempts = 5
	}
}
