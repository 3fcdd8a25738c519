package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// BuildBaseURL 构建时注入的助手服务地址：
// go build -ldflags "-X github.com/zhouzirui/lease-desk/internal/config.BuildBaseURL=https://assistant.example.com"
var BuildBaseURL string

// DefaultBaseURL 所有覆盖项都为空时使用的助手服务地址。
const DefaultBaseURL = "http://localhost:8000"

// DefaultPlayerCommand 默认的音频播放命令，音频数据通过 stdin 传入。
var DefaultPlayerCommand = []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", "-"}

// Config 聚合整个客户端的配置项，启动时解析一次后只读。
type Config struct {
	Server       ServerConfig
	Assistant    AssistantConfig
	Session      SessionConfig
	Speech       SpeechConfig
	Attachments  AttachmentConfig
	LogLevel     string
	SettingsPath string
}

// Overrides 命令行传入的进程级覆盖项。
type Overrides struct {
	BaseURL      string
	SettingsPath string
	Addr         string
}

// ServerConfig 描述本地控制台 API 的监听配置。
type ServerConfig struct {
	Addr string
}

// AssistantConfig 描述远端助手服务配置。
type AssistantConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// SessionConfig 由登录与租约模块提供的会话信息，本客户端只负责转发。
type SessionConfig struct {
	BearerToken string
	TenantEmail string
	LeaseID     int
}

// SpeechConfig 描述 TTS 与本地播放配置
type SpeechConfig struct {
	Voice         string
	VoiceName     string
	VoiceID       string
	Model         string
	Format        string
	PlayerCommand []string
	Enabled       bool
}

// AttachmentConfig 附件限制，MaxBytes 为 0 表示不限制。
type AttachmentConfig struct {
	MaxBytes int64
}

// Load 从环境变量与本地设置文件加载配置。
func Load(overrides Overrides) (*Config, error) {
	settingsPath := strings.TrimSpace(overrides.SettingsPath)
	if settingsPath == "" {
		settingsPath = getEnvOrDefault("DESK_SETTINGS_FILE", DefaultSettingsPath())
	}

	settings, err := LoadSettings(settingsPath)
	if err != nil {
		return nil, err
	}

	server, err := loadServerConfig(overrides.Addr)
	if err != nil {
		return nil, err
	}

	assistant, err := loadAssistantConfig(overrides, settings)
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig(settings)
	if err != nil {
		return nil, err
	}

	speech, err := loadSpeechConfig()
	if err != nil {
		return nil, err
	}

	attachments, err := loadAttachmentConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:       server,
		Assistant:    assistant,
		Session:      session,
		Speech:       speech,
		Attachments:  attachments,
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
		SettingsPath: settingsPath,
	}, nil
}

// ResolveBaseURL 按顺序取第一个非空值：构建时配置、进程级覆盖、本地持久化覆盖、默认值。
func ResolveBaseURL(build, process, persisted string) string {
	for _, candidate := range []string{build, process, persisted, DefaultBaseURL} {
		if value := strings.TrimSpace(candidate); value != "" {
			return strings.TrimRight(value, "/")
		}
	}
	return DefaultBaseURL
}

// loadServerConfig 解析本地控制台监听地址。
func loadServerConfig(override string) (ServerConfig, error) {
	port := strings.TrimSpace(override)
	if port == "" {
		port = strings.TrimSpace(os.Getenv("DESK_PORT"))
	}
	if port == "" {
		return ServerConfig{Addr: "127.0.0.1:8787"}, nil
	}

	if strings.Contains(port, ":") {
		// 允许直接传入 ":8787" 或 "127.0.0.1:8787"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid DESK_PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

func loadAssistantConfig(overrides Overrides, settings Settings) (AssistantConfig, error) {
	timeout, err := parseOptionalIntEnv("ASSISTANT_TIMEOUT")
	if err != nil {
		return AssistantConfig{}, err
	}
	timeoutSeconds := 60
	if timeout != nil && *timeout > 0 {
		timeoutSeconds = *timeout
	}

	process := strings.TrimSpace(overrides.BaseURL)
	if process == "" {
		process = os.Getenv("MASTER_SERVER_BASE")
	}

	return AssistantConfig{
		BaseURL:        ResolveBaseURL(BuildBaseURL, process, settings.BaseURL),
		RequestTimeout: time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

func loadSessionConfig(settings Settings) (SessionConfig, error) {
	leaseID := 1
	if settings.LeaseID > 0 {
		leaseID = settings.LeaseID
	}
	if override, err := parseOptionalIntEnv("LEASE_ID"); err != nil {
		return SessionConfig{}, err
	} else if override != nil {
		leaseID = *override
	}

	return SessionConfig{
		BearerToken: strings.TrimSpace(os.Getenv("AUTH_TOKEN")),
		TenantEmail: getEnvOrDefault("TENANT_EMAIL", settings.TenantEmail),
		LeaseID:     leaseID,
	}, nil
}

func loadSpeechConfig() (SpeechConfig, error) {
	enabled, err := parseBoolEnv("TTS_ENABLED", true)
	if err != nil {
		return SpeechConfig{}, err
	}

	player := append([]string(nil), DefaultPlayerCommand...)
	if raw := strings.TrimSpace(os.Getenv("DESK_PLAYER_CMD")); raw != "" {
		if strings.EqualFold(raw, "none") {
			player = nil
		} else {
			player = strings.Fields(raw)
		}
	}

	return SpeechConfig{
		Voice:         getEnvOrDefault("TTS_VOICE", ""),
		VoiceName:     getEnvOrDefault("TTS_VOICE_NAME", ""),
		VoiceID:       getEnvOrDefault("TTS_VOICE_ID", ""),
		Model:         getEnvOrDefault("TTS_MODEL", ""),
		Format:        getEnvOrDefault("TTS_FORMAT", "mp3"),
		PlayerCommand: player,
		Enabled:       enabled,
	}, nil
}

func loadAttachmentConfig() (AttachmentConfig, error) {
	limit, err := parseOptionalIntEnv("ATTACHMENT_MAX_BYTES")
	if err != nil {
		return AttachmentConfig{}, err
	}
	if limit == nil || *limit < 0 {
		return AttachmentConfig{}, nil
	}
	return AttachmentConfig{MaxBytes: int64(*limit)}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
