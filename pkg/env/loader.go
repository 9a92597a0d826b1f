// Package env resolves oracle settings from the process environment
// and optional .env files. Process variables take precedence over
// values loaded from a file.
package env

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// DefaultPrefix namespaces the oracle's environment variables.
const DefaultPrefix = "ORACLE_"

// Loader defines the interface for environment variable lookup.
type Loader interface {
	// Load reads variables from a .env file.
	Load(path string) error
	// Get returns the value of the prefixed variable for key.
	Get(key string) string
	// Lookup is Get that also reports whether the variable is set.
	Lookup(key string) (string, bool)
	// GetWithDefault returns Get or the fallback when unset.
	GetWithDefault(key, fallback string) string
	// GetBool parses the variable as a boolean.
	GetBool(key string) (value bool, set bool, err error)
	// All returns all loaded file variables.
	All() map[string]string
}

// DefaultLoader implements Loader with .env file support.
type DefaultLoader struct {
	mu     sync.RWMutex
	vars   map[string]string
	prefix string
	loaded bool
}

// NewLoader creates a loader for ORACLE_* variables.
func NewLoader() *DefaultLoader {
	return NewLoaderWithPrefix(DefaultPrefix)
}

// NewLoaderWithPrefix creates a loader for a custom prefix.
func NewLoaderWithPrefix(prefix string) *DefaultLoader {
	return &DefaultLoader{
		vars:   make(map[string]string),
		prefix: prefix,
	}
}

func (l *DefaultLoader) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open env file %s: %w", path, err)
	}
	defer file.Close()

	l.mu.Lock()
	defer l.mu.Unlock()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		l.vars[strings.TrimSpace(key)] = value
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read env file %s: %w", path, err)
	}

	l.loaded = true
	return nil
}

func (l *DefaultLoader) name(key string) string {
	return l.prefix + strings.ToUpper(key)
}

func (l *DefaultLoader) Lookup(key string) (string, bool) {
	name := l.name(key)
	if v, ok := os.LookupEnv(name); ok {
		return v, true
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.vars[name]
	return v, ok
}

func (l *DefaultLoader) Get(key string) string {
	v, _ := l.Lookup(key)
	return v
}

func (l *DefaultLoader) GetWithDefault(key, fallback string) string {
	if v := l.Get(key); v != "" {
		return v
	}
	return fallback
}

func (l *DefaultLoader) GetBool(key string) (bool, bool, error) {
	v, ok := l.Lookup(key)
	if !ok || v == "" {
		return false, false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, true, fmt.Errorf(
			"%s: invalid boolean %q", l.name(key), v,
		)
	}
	return b, true, nil
}

func (l *DefaultLoader) All() map[string]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	result := make(map[string]string, len(l.vars))
	for k, v := range l.vars {
		result[k] = v
	}
	return result
}
