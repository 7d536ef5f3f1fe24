package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 配置格式
type Format string

const (
	// FormatYAML YAML 格式
	FormatYAML Format = "yaml"
	// FormatJSON JSON 格式
	FormatJSON Format = "json"
)

// Loader 配置加载器，持有最近一次成功加载的参数。
type Loader struct {
	path   string
	format Format

	reloadMu sync.Mutex
	current  atomic.Pointer[Settings]
}

// Load 从文件加载配置，按扩展名识别格式。
func Load(path string) (*Loader, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}
	l := &Loader{path: path, format: format}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// LoadBytes 从字节数据加载配置，需显式指定格式。空数据得到默认参数。
func LoadBytes(data []byte, format Format) (*Loader, error) {
	if !isValidFormat(format) {
		return nil, ErrUnsupportedFormat
	}
	s, err := parse(data, format)
	if err != nil {
		return nil, err
	}
	l := &Loader{format: format}
	l.current.Store(&s)
	return l, nil
}

// Settings 返回当前参数的副本
func (l *Loader) Settings() Settings {
	return *l.current.Load()
}

// Path 返回配置文件路径，字节数据加载时为空。
func (l *Loader) Path() string { return l.path }

// Format 返回配置格式
func (l *Loader) Format() Format { return l.format }

// Reload 重新读取配置文件。解析或校验失败时保留旧参数。
func (l *Loader) Reload() error {
	if l.path == "" {
		return ErrNotReloadable
	}
	l.reloadMu.Lock()
	defer l.reloadMu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	s, err := parse(data, l.format)
	if err != nil {
		return err
	}
	l.current.Store(&s)
	return nil
}

// parse 在默认参数之上覆盖 data 中出现的字段并校验。
func parse(data []byte, format Format) (Settings, error) {
	s := Defaults()
	if len(data) == 0 {
		return s, nil
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), parserFor(format)); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	if err := k.UnmarshalWithConf("", &s, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}

func isValidFormat(format Format) bool {
	return format == FormatYAML || format == FormatJSON
}

func parserFor(format Format) koanf.Parser {
	if format == FormatJSON {
		return json.Parser()
	}
	return yaml.Parser()
}
