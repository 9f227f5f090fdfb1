// Package dictionary 提供地名词典：大小写不敏感的静态地名集合。
package dictionary

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed places.txt
var defaultPlaces string

// Set 地名集合，构建后只读，可并发访问
type Set struct {
	places map[string]struct{}
}

// New 由地名列表构建词典
func New(places []string) *Set {
	s := &Set{places: make(map[string]struct{}, len(places))}
	for _, p := range places {
		if p = Normalize(p); p != "" {
			s.places[p] = struct{}{}
		}
	}
	return s
}

// Default 返回内置词典
func Default() *Set {
	s, _ := parseLines(strings.NewReader(defaultPlaces))
	return s
}

// Load 从文件加载词典：.yaml/.yml 为字符串列表，其余按行读取（# 开头为注释）
func Load(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开词典失败: %w", err)
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var places []string
		if err := yaml.NewDecoder(f).Decode(&places); err != nil {
			return nil, fmt.Errorf("解析词典失败: %w", err)
		}
		return New(places), nil
	default:
		return parseLines(f)
	}
}

func parseLines(r io.Reader) (*Set, error) {
	var places []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		places = append(places, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取词典失败: %w", err)
	}
	return New(places), nil
}

// Contains 判断地名是否存在（大小写不敏感）
func (s *Set) Contains(place string) bool {
	_, ok := s.places[Normalize(place)]
	return ok
}

// Len 返回地名数量
func (s *Set) Len() int {
	return len(s.places)
}

// StartingWith 返回以 letter 开头的全部地名（已排序）
func (s *Set) StartingWith(letter string) []string {
	letter = Normalize(letter)
	var out []string
	for p := range s.places {
		if strings.HasPrefix(p, letter) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// Normalize 统一地名格式：去除首尾空白并转小写
func Normalize(place string) string {
	return strings.ToLower(strings.TrimSpace(place))
}
