package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"archivault/pkg/core"
	"archivault/pkg/rdf"
	"archivault/pkg/types"
)

// Resource 是某个仓库资源在客户端侧的句柄，携带拉取时的属性快照。
// 属性是读取那一刻的视图；写操作直接打到服务端，不回写本地快照，
// 需要新视图时重新 Get。
type Resource struct {
	repo *Repository
	path types.Path
	kind types.ResourceKind

	triples  []rdf.Triple
	children []types.Path

	// version 非空表示这是一个冻结的版本视图，写操作被拒绝
	version string
}

func (r *Resource) Path() types.Path { return r.path }

// Properties 以惰性序列的形式暴露属性三元组，可反复迭代。
func (r *Resource) Properties() iter.Seq[rdf.Triple] {
	return func(yield func(rdf.Triple) bool) {
		for _, t := range r.triples {
			if !yield(t) {
				return
			}
		}
	}
}

// frozen 拒绝对版本视图的写操作。
func (r *Resource) frozen(op string) error {
	if r.version == "" {
		return nil
	}
	return &core.ConflictError{Msg: fmt.Sprintf("cannot %s version %q of %q: versions are immutable", op, r.version, r.path)}
}

// UpdateProperties 对资源打一个 SPARQL-Update 补丁。
// 补丁原子生效：解析失败时服务端不做任何修改。
func (r *Resource) UpdateProperties(ctx context.Context, patch string) error {
	if err := r.frozen("patch"); err != nil {
		return err
	}
	resp, err := r.repo.request(ctx, http.MethodPatch, r.repo.uri(r.path), strings.NewReader(patch),
		"Content-Type", "application/sparql-update")
	if err != nil {
		return err
	}
	discard(resp)
	return nil
}

// Delete 把资源（连同子树）置为墓碑态。
func (r *Resource) Delete(ctx context.Context) error {
	resp, err := r.repo.request(ctx, http.MethodDelete, r.repo.uri(r.path), nil)
	if err != nil {
		return err
	}
	discard(resp)
	return nil
}

// ForceDelete 删除并顺手清掉墓碑，路径立即可复用。
func (r *Resource) ForceDelete(ctx context.Context) error {
	if err := r.Delete(ctx); err != nil {
		return err
	}
	return r.repo.RemoveTombstone(ctx, r.path)
}

// RemoveTombstone 清除路径上的墓碑。
func (r *Repository) RemoveTombstone(ctx context.Context, path types.Path) error {
	resp, err := r.request(ctx, http.MethodDelete, r.uri(path, "fcr:tombstone"), nil)
	if err != nil {
		return err
	}
	discard(resp)
	return nil
}

// Move 把子树搬到 dest，原路径留墓碑。
func (r *Resource) Move(ctx context.Context, dest types.Path) error {
	return r.transplant(ctx, "MOVE", dest)
}

// ForceMove 搬走后立即清掉原路径的墓碑。
func (r *Resource) ForceMove(ctx context.Context, dest types.Path) error {
	if err := r.Move(ctx, dest); err != nil {
		return err
	}
	return r.repo.RemoveTombstone(ctx, r.path)
}

// Copy 深拷贝子树（含版本历史）到 dest，源不受影响。
func (r *Resource) Copy(ctx context.Context, dest types.Path) error {
	return r.transplant(ctx, "COPY", dest)
}

func (r *Resource) transplant(ctx context.Context, method string, dest types.Path) error {
	if err := r.frozen(strings.ToLower(method)); err != nil {
		return err
	}
	resp, err := r.repo.request(ctx, method, r.repo.uri(r.path), nil,
		"Destination", r.repo.uri(dest))
	if err != nil {
		return err
	}
	discard(resp)
	return nil
}

// -----------------------------------------------------------------------------
// 版本
// -----------------------------------------------------------------------------

// CreateVersionSnapshot 以给定名字冻结资源当前状态。
func (r *Resource) CreateVersionSnapshot(ctx context.Context, name string) error {
	if err := r.frozen("snapshot"); err != nil {
		return err
	}
	resp, err := r.repo.request(ctx, http.MethodPost, r.repo.uri(r.path, "fcr:versions"), nil,
		"Slug", name)
	if err != nil {
		return err
	}
	discard(resp)
	return nil
}

// VersionNames 按创建顺序列出全部版本。
func (r *Resource) VersionNames(ctx context.Context) ([]string, error) {
	resp, err := r.repo.request(ctx, http.MethodGet, r.repo.uri(r.path, "fcr:versions"), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var infos []struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&infos); err != nil {
		return nil, &core.TransportError{Op: "list versions", Err: err}
	}
	names := make([]string, len(infos))
	for i, v := range infos {
		names[i] = v.Name
	}
	return names, nil
}

// RevertToVersion 把 live 状态回滚到命名快照。版本列表不变。
func (r *Resource) RevertToVersion(ctx context.Context, name string) error {
	resp, err := r.repo.request(ctx, http.MethodPatch, r.repo.uri(r.path, "fcr:versions", name), nil)
	if err != nil {
		return err
	}
	discard(resp)
	return nil
}

// DeleteVersion 删除一个命名快照。最后一个版本不可删除。
func (r *Resource) DeleteVersion(ctx context.Context, name string) error {
	resp, err := r.repo.request(ctx, http.MethodDelete, r.repo.uri(r.path, "fcr:versions", name), nil)
	if err != nil {
		return err
	}
	discard(resp)
	return nil
}

// -----------------------------------------------------------------------------
// Object / Datastream
// -----------------------------------------------------------------------------

// Object 是对象资源的句柄，可以容纳子资源。
type Object struct {
	Resource
}

// Children 返回拉取时对象的直接子资源路径。
func (o *Object) Children() []types.Path { return o.children }

// CreateObject 在该对象下创建一个服务端铸造标识符的子对象。
func (o *Object) CreateObject(ctx context.Context) (*Object, error) {
	if err := o.frozen("create child under"); err != nil {
		return nil, err
	}
	return o.repo.mint(ctx, o.path)
}

// Datastream 是数据流资源的句柄。
type Datastream struct {
	Resource
}

// Content 打开数据流内容。redirect 数据流由服务端实时解引用。
// live 视图拿当前字节，版本视图拿冻结字节。
func (d *Datastream) Content(ctx context.Context) (io.ReadCloser, error) {
	var rawURL string
	if d.version != "" {
		rawURL = d.repo.uri(d.path, "fcr:versions", d.version, "fcr:content")
	} else {
		rawURL = d.repo.uri(d.path, "fcr:content")
	}
	resp, err := d.repo.request(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// UpdateContent 替换数据流内容。
func (d *Datastream) UpdateContent(ctx context.Context, contentType string, content io.Reader) error {
	if err := d.frozen("update content of"); err != nil {
		return err
	}
	resp, err := d.repo.request(ctx, http.MethodPut, d.repo.uri(d.path, "fcr:content"), content,
		"Content-Type", contentType)
	if err != nil {
		return err
	}
	discard(resp)
	return nil
}
