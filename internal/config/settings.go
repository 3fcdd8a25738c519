package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings 本地持久化的覆盖项，保存在用户目录下的 YAML 文件中。
type Settings struct {
	BaseURL     string `yaml:"base_url,omitempty"`
	TenantEmail string `yaml:"tenant_email,omitempty"`
	LeaseID     int    `yaml:"lease_id,omitempty"`
}

// DefaultSettingsPath 返回 ~/.lease-desk/settings.yaml，无法获取用户目录时退回当前目录。
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".lease-desk", "settings.yaml")
	}
	return filepath.Join(home, ".lease-desk", "settings.yaml")
}

// LoadSettings 读取设置文件，文件不存在时返回零值。
func LoadSettings(path string) (Settings, error) {
	if strings.TrimSpace(path) == "" {
		return Settings{}, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings %s: %w", path, err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s, nil
}

// SaveSettings 写入设置文件，必要时创建目录。
func SaveSettings(path string, s Settings) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("settings path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	s.BaseURL = strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
	data, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write settings %s: %w", path, err)
	}
	return nil
}
