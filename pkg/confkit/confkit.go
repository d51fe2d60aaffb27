// Package confkit holds the small pieces shared by every config loader:
// locating the main config file, .env loading and sections stored in files
// of their own.
package confkit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeromicro/go-zero/core/conf"
)

// ResolvePath expands ${VAR} placeholders and a leading "~/" in file. A
// relative result is anchored at base.
func ResolvePath(base, file string) string {
	file = strings.TrimSpace(os.ExpandEnv(file))
	if rest, ok := strings.CutPrefix(file, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			file = filepath.Join(home, rest)
		}
	}
	if file == "" || filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(base, file)
}

// LoadFile loads .env once, then decodes the go-zero config file at path
// (yaml, json or toml) into T with environment placeholders expanded. It
// returns the absolute path it read so that sections can be resolved next to it.
func LoadFile[T any](path string) (*T, string, error) {
	LoadDotenvOnce()
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("resolve config path %s: %w", path, err)
	}
	var cfg T
	if err := conf.Load(abs, &cfg, conf.UseEnv()); err != nil {
		return nil, abs, fmt.Errorf("load config %s: %w", abs, err)
	}
	return &cfg, abs, nil
}

// Section is a part of the main config kept in its own file. File is read
// from the main config; Value is filled by Hydrate.
type Section[T any] struct {
	File  string `json:",optional"`
	Value *T     `json:"-"`
}

// Hydrate resolves File against base and decodes it with loader. Sections
// without a File are left alone. On success File holds the resolved path.
func (s *Section[T]) Hydrate(base string, loader func(string) (*T, error)) error {
	if strings.TrimSpace(s.File) == "" {
		return nil
	}
	p := ResolvePath(base, s.File)
	v, err := loader(p)
	if err != nil {
		return fmt.Errorf("section %s: %w", p, err)
	}
	s.File, s.Value = p, v
	return nil
}

// Loaded reports whether the section holds a value.
func (s *Section[T]) Loaded() bool {
	return s != nil && s.Value != nil
}

// EnvOr returns the trimmed value of key, or fallback when it is unset or blank.
func EnvOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
