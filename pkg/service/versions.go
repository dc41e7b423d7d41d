package service

import (
	"context"
	"fmt"
	"io"

	"archivault/pkg/core"
	"archivault/pkg/meta"
	"archivault/pkg/storage"
	"archivault/pkg/types"
)

// CreateVersion 以 name 捕获资源当前状态（属性 + 内容指针）。
// 快照文档是内容寻址的 CBOR blob，版本行只引用它的 Hash。
func (s *Service) CreateVersion(ctx context.Context, path types.Path, name string) error {
	if err := types.ValidateSegment(name); err != nil {
		return &core.ConflictError{Msg: fmt.Sprintf("invalid version name %q: %v", name, err)}
	}

	row, err := getLive(ctx, s.meta, path)
	if err != nil {
		return err
	}
	props, err := propsFromJSON(row.Properties)
	if err != nil {
		return err
	}
	snap, err := core.NewSnapshot(
		types.ResourceKind(row.Kind),
		props,
		types.Hash(row.ContentHash),
		row.ContentType,
		row.ContentSize,
		row.RedirectURL,
	)
	if err != nil {
		return fmt.Errorf("failed to build snapshot: %w", err)
	}
	if err := s.blobs.Put(ctx, snap); err != nil {
		return fmt.Errorf("failed to store snapshot blob: %w", err)
	}

	return s.meta.Transaction(ctx, func(tx *meta.Repository) error {
		seq, err := tx.NextVersionSeq(ctx, path)
		if err != nil {
			return err
		}
		err = tx.InsertVersion(ctx, &meta.VersionModel{
			Path:         path.String(),
			Name:         name,
			Seq:          seq,
			SnapshotHash: snap.ID().String(),
		})
		if err == meta.ErrDuplicateKey {
			return &core.ConflictError{Msg: fmt.Sprintf("version %q already exists for %q", name, path)}
		}
		return err
	})
}

// VersionNames 按创建顺序返回资源的版本列表。
func (s *Service) VersionNames(ctx context.Context, path types.Path) ([]VersionInfo, error) {
	if _, err := getLive(ctx, s.meta, path); err != nil {
		return nil, err
	}
	rows, err := s.meta.ListVersions(ctx, path)
	if err != nil {
		return nil, err
	}
	infos := make([]VersionInfo, 0, len(rows))
	for _, row := range rows {
		infos = append(infos, VersionInfo{Name: row.Name, Created: row.CreatedAt})
	}
	return infos, nil
}

// GetVersion 返回冻结在快照时刻的只读视图。
func (s *Service) GetVersion(ctx context.Context, path types.Path, name string) (*Resource, error) {
	snap, err := s.loadSnapshot(ctx, path, name)
	if err != nil {
		return nil, err
	}
	return &Resource{
		Path:        path,
		Kind:        snap.Kind,
		Properties:  snap.Properties,
		ContentType: snap.ContentType,
		ContentSize: snap.ContentSize,
		RedirectURL: snap.RedirectURL,
	}, nil
}

// GetVersionContent 返回快照捕获的内容。redirect 快照存的是目标
// URL，读取时依然实时解引用。
func (s *Service) GetVersionContent(ctx context.Context, path types.Path, name string) (io.ReadCloser, string, error) {
	snap, err := s.loadSnapshot(ctx, path, name)
	if err != nil {
		return nil, "", err
	}
	if snap.Kind != types.KindDatastream {
		return nil, "", &core.ConflictError{Msg: fmt.Sprintf("version %q of %q is an object snapshot and carries no content", name, path)}
	}
	return s.openContent(ctx, snap.ContentHash, snap.ContentType, snap.RedirectURL)
}

// RevertToVersion 用快照覆盖 live 状态。不删除、不重排任何版本，
// 也不会隐式为覆盖前的状态建快照——调用方需要就先自己 snapshot。
func (s *Service) RevertToVersion(ctx context.Context, path types.Path, name string) error {
	snap, err := s.loadSnapshot(ctx, path, name)
	if err != nil {
		return err
	}
	props, err := propsToJSON(snap.Properties)
	if err != nil {
		return err
	}
	return s.meta.Transaction(ctx, func(tx *meta.Repository) error {
		row, err := getLive(ctx, tx, path)
		if err != nil {
			return err
		}
		row.Properties = props
		row.ContentHash = snap.ContentHash.String()
		row.ContentType = snap.ContentType
		row.ContentSize = snap.ContentSize
		row.RedirectURL = snap.RedirectURL
		return tx.SaveResource(ctx, row)
	})
}

// DeleteVersion 删除命名快照。资源只剩最后一个版本时拒绝删除
// （minimum-one-version 不变量），且不产生任何部分修改。
func (s *Service) DeleteVersion(ctx context.Context, path types.Path, name string) error {
	if _, err := getLive(ctx, s.meta, path); err != nil {
		return err
	}
	return s.meta.Transaction(ctx, func(tx *meta.Repository) error {
		if _, err := tx.GetVersion(ctx, path, name); err != nil {
			if err == meta.ErrVersionNotFound {
				return &core.NotFoundError{Path: path.Child("fcr:versions").Child(name)}
			}
			return err
		}
		count, err := tx.CountVersions(ctx, path)
		if err != nil {
			return err
		}
		if count <= 1 {
			return &core.ConflictError{Msg: fmt.Sprintf("version %q is the only remaining version of %q", name, path)}
		}
		return tx.DeleteVersion(ctx, path, name)
	})
}

func (s *Service) loadSnapshot(ctx context.Context, path types.Path, name string) (*core.Snapshot, error) {
	if _, err := getLive(ctx, s.meta, path); err != nil {
		return nil, err
	}
	row, err := s.meta.GetVersion(ctx, path, name)
	if err == meta.ErrVersionNotFound {
		return nil, &core.NotFoundError{Path: path.Child("fcr:versions").Child(name)}
	}
	if err != nil {
		return nil, err
	}
	data, err := storage.GetBytes(ctx, s.blobs, types.Hash(row.SnapshotHash))
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot blob %s: %w", row.SnapshotHash, err)
	}
	return core.DecodeSnapshot(data)
}
