package writer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var (
	ErrPresetNotFound = errors.New("preset 不存在")
	ErrPresetExists   = errors.New("preset 已存在")
)

// PresetYAML presets.yaml 的结构
type PresetYAML struct {
	Presets map[string]Preset `yaml:"presets"`
}

// Preset 一张保存下来的图表：展示哪些序列、哪种指标、什么区间。
type Preset struct {
	Title       string   `yaml:"title,omitempty" json:"title,omitempty"`
	Series      []string `yaml:"series" json:"series" validate:"required,min=1,dive,required"`
	Metric      string   `yaml:"metric,omitempty" json:"metric,omitempty" validate:"omitempty,oneof=asset return"`
	Symbol      string   `yaml:"symbol,omitempty" json:"symbol,omitempty"`
	Start       string   `yaml:"start,omitempty" json:"start,omitempty" validate:"omitempty,datetime=2006-01-02"`
	End         string   `yaml:"end,omitempty" json:"end,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ColorByName *bool    `yaml:"color_by_name,omitempty" json:"color_by_name,omitempty"`
}

// PresetWriter 负责读写 presets.yaml
type PresetWriter struct {
	path     string
	mu       sync.RWMutex
	validate *validator.Validate
}

func NewPresetWriter(path string) *PresetWriter {
	return &PresetWriter{path: path, validate: validator.New()}
}

// Read 读取当前文件，文件不存在时返回空集合。
func (w *PresetWriter) Read() (*PresetYAML, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.read()
}

func (w *PresetWriter) read() (*PresetYAML, error) {
	cfg := &PresetYAML{}
	data, err := os.ReadFile(w.path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("读取 presets.yaml 失败: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析 presets.yaml 失败: %w", err)
		}
	}
	if cfg.Presets == nil {
		cfg.Presets = make(map[string]Preset)
	}
	return cfg, nil
}

// Write 备份后原子替换
func (w *PresetWriter) Write(cfg *PresetYAML) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.write(cfg)
}

func (w *PresetWriter) write(cfg *PresetYAML) error {
	if err := w.backup(); err != nil {
		return fmt.Errorf("备份失败: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("序列化 presets 失败: %w", err)
	}
	if dir := filepath.Dir(w.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmpPath := w.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("替换 presets 文件失败: %w", err)
	}
	return nil
}

func (w *PresetWriter) backup() error {
	src, err := os.Open(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer src.Close()

	backupDir := filepath.Join(filepath.Dir(w.path), "backups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return err
	}
	stamp := time.Now().Format("20060102_150405.000")
	dst, err := os.Create(filepath.Join(backupDir, fmt.Sprintf("presets_%s.yaml", stamp)))
	if err != nil {
		return err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	cleanOldBackups(backupDir, 10)
	return nil
}

func cleanOldBackups(dir string, keep int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	var backups []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "presets_") && strings.HasSuffix(e.Name(), ".yaml") {
			backups = append(backups, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(backups)
	for i := 0; i < len(backups)-keep; i++ {
		os.Remove(backups[i])
	}
}

// List 按名称排序返回全部 preset 名称。
func (w *PresetWriter) List() ([]string, map[string]Preset, error) {
	cfg, err := w.Read()
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, 0, len(cfg.Presets))
	for name := range cfg.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, cfg.Presets, nil
}

func (w *PresetWriter) Get(name string) (Preset, error) {
	cfg, err := w.Read()
	if err != nil {
		return Preset{}, err
	}
	p, ok := cfg.Presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %s", ErrPresetNotFound, name)
	}
	return p, nil
}

// Create 新建 preset，同名已存在时返回 ErrPresetExists。
func (w *PresetWriter) Create(name string, p Preset) error {
	return w.mutate(name, p, func(exists bool) error {
		if exists {
			return fmt.Errorf("%w: %s", ErrPresetExists, name)
		}
		return nil
	})
}

// Update 覆盖已有 preset，不存在时返回 ErrPresetNotFound。
func (w *PresetWriter) Update(name string, p Preset) error {
	return w.mutate(name, p, func(exists bool) error {
		if !exists {
			return fmt.Errorf("%w: %s", ErrPresetNotFound, name)
		}
		return nil
	})
}

func (w *PresetWriter) Delete(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	cfg, err := w.read()
	if err != nil {
		return err
	}
	if _, ok := cfg.Presets[name]; !ok {
		return fmt.Errorf("%w: %s", ErrPresetNotFound, name)
	}
	delete(cfg.Presets, name)
	return w.write(cfg)
}

// Validate 校验名称与字段。
func (w *PresetWriter) Validate(name string, p Preset) error {
	if err := ValidName(name); err != nil {
		return err
	}
	if err := w.validate.Struct(p); err != nil {
		return fmt.Errorf("preset 字段非法: %w", err)
	}
	if p.Start != "" && p.End != "" && p.Start > p.End {
		return fmt.Errorf("preset 区间非法: start %s 晚于 end %s", p.Start, p.End)
	}
	return nil
}

func (w *PresetWriter) mutate(name string, p Preset, check func(exists bool) error) error {
	name = strings.TrimSpace(name)
	if err := w.Validate(name, p); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	cfg, err := w.read()
	if err != nil {
		return err
	}
	_, exists := cfg.Presets[name]
	if err := check(exists); err != nil {
		return err
	}
	cfg.Presets[name] = p
	return w.write(cfg)
}

// ValidName 名称只能包含字母、数字、下划线和短横线。
func ValidName(name string) error {
	if name == "" {
		return errors.New("preset 名称不能为空")
	}
	for _, ch := range name {
		if !((ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_' || ch == '-') {
			return errors.New("preset 名称只能包含字母、数字、下划线和短横线")
		}
	}
	return nil
}

func (w *PresetWriter) Path() string { return w.path }
