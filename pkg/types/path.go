package types

import (
	"fmt"
	"strings"
)

// Path 是仓库内资源的层级地址，形如 "collection/item/ds1"。
// 这是一个值对象：空 Path 代表仓库根。
type Path string

// 保留段前缀：fcr:content / fcr:versions / fcr:tombstone 等子资源
// 命名空间不允许出现在用户路径里。
const reservedPrefix = "fcr:"

// ParsePath 规范化并校验调用方提供的路径。
// 允许空字符串（代表根，通常配合服务端铸造标识符使用）。
func ParsePath(raw string) (Path, error) {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "", nil
	}
	segments := strings.Split(trimmed, "/")
	for _, seg := range segments {
		if err := ValidateSegment(seg); err != nil {
			return "", fmt.Errorf("invalid path %q: %w", raw, err)
		}
	}
	return Path(strings.Join(segments, "/")), nil
}

// ValidateSegment 校验单个路径段。
func ValidateSegment(seg string) error {
	if seg == "" {
		return fmt.Errorf("empty segment")
	}
	if seg == "." || seg == ".." {
		return fmt.Errorf("relative segment %q not allowed", seg)
	}
	if strings.HasPrefix(seg, reservedPrefix) {
		return fmt.Errorf("segment %q uses reserved prefix %q", seg, reservedPrefix)
	}
	for _, r := range seg {
		if r <= 0x20 || r == 0x7f || r == '\\' || r == '#' || r == '?' || r == '%' {
			return fmt.Errorf("segment %q contains illegal character %q", seg, r)
		}
	}
	return nil
}

func (p Path) String() string { return string(p) }

// IsRoot 报告该路径是否指向仓库根。
func (p Path) IsRoot() bool { return p == "" }

// Parent 返回父路径；根的父仍是根。
func (p Path) Parent() Path {
	idx := strings.LastIndexByte(string(p), '/')
	if idx < 0 {
		return ""
	}
	return p[:idx]
}

// Base 返回最后一个路径段。
func (p Path) Base() string {
	idx := strings.LastIndexByte(string(p), '/')
	return string(p[idx+1:])
}

// Child 在路径下追加一个段。段必须事先校验过。
func (p Path) Child(segment string) Path {
	if p.IsRoot() {
		return Path(segment)
	}
	return Path(string(p) + "/" + segment)
}

// Segments 按顺序返回全部路径段；根返回 nil。
func (p Path) Segments() []string {
	if p.IsRoot() {
		return nil
	}
	return strings.Split(string(p), "/")
}

// IsAncestorOf 报告 p 是否是 other 的真前缀（父级链上的某一级）。
func (p Path) IsAncestorOf(other Path) bool {
	if p.IsRoot() {
		return !other.IsRoot()
	}
	return strings.HasPrefix(string(other), string(p)+"/")
}

// Rebase 把 p 从 oldBase 子树迁移到 newBase 子树下，用于 move/copy
// 的子树路径改写。p 必须等于 oldBase 或位于其下。
func (p Path) Rebase(oldBase, newBase Path) (Path, error) {
	if p == oldBase {
		return newBase, nil
	}
	if !oldBase.IsAncestorOf(p) {
		return "", fmt.Errorf("path %q is not under %q", p, oldBase)
	}
	rest := string(p)
	if !oldBase.IsRoot() {
		rest = strings.TrimPrefix(rest, string(oldBase)+"/")
	}
	if newBase.IsRoot() {
		return Path(rest), nil
	}
	return Path(string(newBase) + "/" + rest), nil
}
