package core

import (
	"errors"
	"fmt"

	"archivault/pkg/rdf"
	"archivault/pkg/types"
)

// 错误分类是协议契约的一部分：调用方必须能用 errors.As 区分
// NotFound / Gone / Conflict / Parse / Transport，而不是匹配错误文本。

// NotFoundError 表示路径从未存在，或 tombstone 已被强制清除。
type NotFoundError struct {
	Path types.Path
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource %q: 404 Not Found", e.Path)
}

// GoneError 表示路径曾经存在，现在只剩 tombstone。
// 消息里保留 "410 Gone" 字样作为人类可读的诊断信息。
type GoneError struct {
	Path types.Path
}

func (e *GoneError) Error() string {
	return fmt.Sprintf("resource %q: 410 Gone (deleted, tombstone present)", e.Path)
}

// ConflictError 表示请求与现有状态冲突：路径已被占用、
// 版本名重复、或删除最后一个版本。
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("409 Conflict: %s", e.Msg)
}

// TransportError 包装网络层失败（连接、超时、协议错误）。
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Error 兜底：服务端返回了分类之外的失败。
type Error struct {
	Op  string
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("repository error during %s: %s", e.Op, e.Msg)
}

// IsRepositoryError 报告 err 是否属于仓库错误分类
// （含 rdf 补丁解析错误）。
func IsRepositoryError(err error) bool {
	var (
		notFound  *NotFoundError
		gone      *GoneError
		conflict  *ConflictError
		transport *TransportError
		parse     *rdf.ParseError
		generic   *Error
	)
	return errors.As(err, &notFound) ||
		errors.As(err, &gone) ||
		errors.As(err, &conflict) ||
		errors.As(err, &transport) ||
		errors.As(err, &parse) ||
		errors.As(err, &generic)
}

// IsNotFound 等谓词是 errors.As 的便捷包装。
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsGone(err error) bool {
	var target *GoneError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}
