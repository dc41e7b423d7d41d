package service

import (
	"context"
	"fmt"

	"archivault/pkg/core"
	"archivault/pkg/meta"
	"archivault/pkg/rdf"
	"archivault/pkg/types"

	"github.com/google/uuid"
)

// CreateObject 在精确路径上创建容器对象。
// 路径已被 live 资源占用 → Conflict；被 tombstone 占用 → Gone。
func (s *Service) CreateObject(ctx context.Context, path types.Path) (*Resource, error) {
	if path.IsRoot() {
		return nil, &core.ConflictError{Msg: "cannot create an object at the repository root"}
	}
	if err := checkDestination(ctx, s.meta, path); err != nil {
		return nil, err
	}

	props, err := propsToJSON(rdf.NewPropertySet())
	if err != nil {
		return nil, err
	}
	row := &meta.ResourceModel{
		Path:       path.String(),
		Kind:       string(types.KindObject),
		State:      string(meta.StateLive),
		Properties: props,
	}
	if err := s.meta.CreateResource(ctx, row); err != nil {
		if err == meta.ErrDuplicateKey {
			// checkDestination 与 Create 之间有并发写入者抢先
			return nil, &core.ConflictError{Msg: fmt.Sprintf("path %q already exists", path)}
		}
		return nil, err
	}
	return viewOf(row)
}

// MintObject 在 parent 下创建服务端铸造标识符的对象。
// parent 为空代表仓库根。
func (s *Service) MintObject(ctx context.Context, parent types.Path) (*Resource, error) {
	if !parent.IsRoot() {
		if _, err := getLive(ctx, s.meta, parent); err != nil {
			return nil, err
		}
	}
	return s.CreateObject(ctx, parent.Child(uuid.NewString()))
}

// GetResource 返回 live 资源的当前视图，含直接子资源列表。
func (s *Service) GetResource(ctx context.Context, path types.Path) (*Resource, error) {
	row, err := getLive(ctx, s.meta, path)
	if err != nil {
		return nil, err
	}
	view, err := viewOf(row)
	if err != nil {
		return nil, err
	}

	if row.Kind == string(types.KindObject) {
		children, err := s.meta.ListChildren(ctx, path)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if child.State == string(meta.StateLive) {
				view.Children = append(view.Children, types.Path(child.Path))
			}
		}
	}
	return view, nil
}

// Exists 报告路径当前是否指向 live 资源。
func (s *Service) Exists(ctx context.Context, path types.Path) (bool, error) {
	_, err := getLive(ctx, s.meta, path)
	if core.IsNotFound(err) || core.IsGone(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdateProperties 解析补丁并原子应用到资源属性。
// 解析失败不触碰任何状态。
func (s *Service) UpdateProperties(ctx context.Context, path types.Path, patchText string) error {
	patch, err := rdf.ParsePatch(patchText)
	if err != nil {
		return err
	}
	return s.meta.Transaction(ctx, func(tx *meta.Repository) error {
		row, err := getLive(ctx, tx, path)
		if err != nil {
			return err
		}
		props, err := propsFromJSON(row.Properties)
		if err != nil {
			return err
		}
		props.Apply(patch)
		row.Properties, err = propsToJSON(props)
		if err != nil {
			return err
		}
		return tx.SaveResource(ctx, row)
	})
}

// Delete 软删除：子树整体移除，根路径留下 tombstone 占位。
// 资源的版本记录随资源一起销毁。
func (s *Service) Delete(ctx context.Context, path types.Path) error {
	return s.meta.Transaction(ctx, func(tx *meta.Repository) error {
		row, err := getLive(ctx, tx, path)
		if err != nil {
			return err
		}
		kind := row.Kind
		if err := tx.DeleteSubtree(ctx, path); err != nil {
			return err
		}
		return tx.CreateResource(ctx, &meta.ResourceModel{
			Path:  path.String(),
			Kind:  kind,
			State: string(meta.StateTombstoned),
		})
	})
}

// RemoveTombstone 清除 tombstone，使路径回到 Absent、可复用。
// 对 live 资源或不存在的路径调用都会失败。
func (s *Service) RemoveTombstone(ctx context.Context, path types.Path) error {
	row, err := s.meta.GetResource(ctx, path)
	if err == meta.ErrResourceNotFound {
		return &core.NotFoundError{Path: path}
	}
	if err != nil {
		return err
	}
	if row.State != string(meta.StateTombstoned) {
		return &core.ConflictError{Msg: fmt.Sprintf("path %q is not tombstoned", path)}
	}
	return s.meta.DeleteResourceRow(ctx, path)
}

// Move 把 src 子树（属性、内容指针、子资源、版本记录）整体迁移到
// dst，src 根留下 tombstone。blob 内容寻址，字节不动。
func (s *Service) Move(ctx context.Context, src, dst types.Path) error {
	return s.transplant(ctx, src, dst, true)
}

// Copy 深拷贝 src 子树到 dst，src 不受影响。之后两棵子树各自独立演化。
func (s *Service) Copy(ctx context.Context, src, dst types.Path) error {
	return s.transplant(ctx, src, dst, false)
}

func (s *Service) transplant(ctx context.Context, src, dst types.Path, move bool) error {
	if src == dst || src.IsAncestorOf(dst) {
		return &core.ConflictError{Msg: fmt.Sprintf("destination %q overlaps source %q", dst, src)}
	}
	return s.meta.Transaction(ctx, func(tx *meta.Repository) error {
		if _, err := getLive(ctx, tx, src); err != nil {
			return err
		}
		if err := checkDestination(ctx, tx, dst); err != nil {
			return err
		}

		rows, err := tx.ListSubtree(ctx, src, true)
		if err != nil {
			return err
		}

		var srcKind string
		for _, row := range rows {
			if row.Path == src.String() {
				srcKind = row.Kind
			}

			// copy 不带墓碑：目标树里不该出现从未在那里删除过的
			// Gone 路径。move 保留占位，墓碑跟着子树一起搬。
			if !move && row.State == string(meta.StateTombstoned) {
				continue
			}

			newPath, err := types.Path(row.Path).Rebase(src, dst)
			if err != nil {
				return err
			}

			versions, err := tx.ListVersions(ctx, types.Path(row.Path))
			if err != nil {
				return err
			}

			copied := row
			copied.Path = newPath.String()
			if err := tx.CreateResource(ctx, &copied); err != nil {
				return err
			}
			for _, v := range versions {
				duplicated := meta.VersionModel{
					Path:         newPath.String(),
					Name:         v.Name,
					Seq:          v.Seq,
					SnapshotHash: v.SnapshotHash,
					CreatedAt:    v.CreatedAt,
				}
				if err := tx.InsertVersion(ctx, &duplicated); err != nil {
					return err
				}
			}
		}

		if !move {
			return nil
		}
		if err := tx.DeleteSubtree(ctx, src); err != nil {
			return err
		}
		return tx.CreateResource(ctx, &meta.ResourceModel{
			Path:  src.String(),
			Kind:  srcKind,
			State: string(meta.StateTombstoned),
		})
	})
}
