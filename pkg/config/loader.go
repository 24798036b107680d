package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvVars replaces ${VAR} and ${VAR:-default} with environment values.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}
		if val := os.Getenv(submatch[1]); val != "" {
			return val
		}
		if len(submatch) >= 3 {
			return submatch[2]
		}
		return ""
	})
}

// Parse parses fixture YAML after environment variable expansion and
// validates its rules. Include patterns are kept but not expanded.
func Parse(data []byte) (*File, error) {
	expanded := ExpandEnvVars(string(data))

	var f File
	if err := yaml.Unmarshal([]byte(expanded), &f); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads the fixture at path and appends the rules of every included
// file, in sorted path order, after its own. A file is loaded at most once.
func Load(path string) (*File, error) {
	return load(path, map[string]bool{})
}

func load(path string, seen map[string]bool) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	if seen[abs] {
		return &File{Path: path}, nil
	}
	seen[abs] = true

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("reading file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("file is empty: %s", path)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Path = path

	baseDir := filepath.Dir(path)
	for _, pattern := range f.Include {
		matches, err := expandGlob(ResolvePath(baseDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("%s: include %q: %w", path, pattern, err)
		}
		for _, match := range matches {
			included, err := load(match, seen)
			if err != nil {
				return nil, err
			}
			f.Rules = append(f.Rules, included.Rules...)
			if f.Log == nil {
				f.Log = included.Log
			}
		}
	}
	return f, nil
}

// expandGlob returns the files matching pattern in sorted order.
func expandGlob(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// ResolvePath resolves targetPath against basePath unless it is absolute.
// A leading "~/" refers to the home directory.
func ResolvePath(basePath, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	if strings.HasPrefix(targetPath, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, targetPath[2:])
		}
	}
	return filepath.Join(basePath, targetPath)
}
