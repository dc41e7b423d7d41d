package meta

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"archivault/pkg/types"

	"gorm.io/gorm"
)

var (
	ErrResourceNotFound = errors.New("resource not found in metadata")
	ErrVersionNotFound  = errors.New("version not found in metadata")
	ErrDuplicateKey     = errors.New("duplicate key")
)

// Repository 封装所有对 SQL 数据库的操作。生命周期语义
// （Gone vs NotFound、Conflict）由上层 service 解释，这一层
// 只做行级 CRUD 与事务。
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Transaction 在单个数据库事务里执行 fn。move/copy/delete 这类
// 多行修改必须走这里，保证要么全部生效要么全部回滚。
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.GetConn().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(NewWithConn(tx)))
	})
}

// isDuplicate 兼容不同数据库（PG 与 SQLite）的唯一约束错误。
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key value")
}

// -----------------------------------------------------------------------------
// 资源行
// -----------------------------------------------------------------------------

func (r *Repository) GetResource(ctx context.Context, path types.Path) (*ResourceModel, error) {
	var res ResourceModel
	err := r.db.GetConn().WithContext(ctx).
		Where("path = ?", path.String()).
		First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrResourceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *Repository) CreateResource(ctx context.Context, res *ResourceModel) error {
	err := r.db.GetConn().WithContext(ctx).Create(res).Error
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to create resource row: %w", err)
	}
	return nil
}

// SaveResource 整行覆盖写。
func (r *Repository) SaveResource(ctx context.Context, res *ResourceModel) error {
	return r.db.GetConn().WithContext(ctx).Save(res).Error
}

func (r *Repository) DeleteResourceRow(ctx context.Context, path types.Path) error {
	return r.db.GetConn().WithContext(ctx).
		Where("path = ?", path.String()).
		Delete(&ResourceModel{}).Error
}

// likePrefix 为 LIKE 查询转义前缀里的通配符。路径段禁用 '%'，
// 但 '_' 是合法字符，不转义会过度匹配。
func likePrefix(p types.Path) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(p.String())
	if escaped == "" {
		return "%"
	}
	return escaped + "/%"
}

// ListChildren 返回 path 的直接子资源（不含更深层级），按路径排序。
func (r *Repository) ListChildren(ctx context.Context, path types.Path) ([]ResourceModel, error) {
	rows, err := r.ListSubtree(ctx, path, false)
	if err != nil {
		return nil, err
	}
	// 子树查询后在内存里筛直接子级；子树规模由调用方控制
	out := rows[:0]
	for _, row := range rows {
		if types.Path(row.Path).Parent() == path {
			out = append(out, row)
		}
	}
	return out, nil
}

// ListSubtree 返回 path 子树的全部行（includeSelf 控制是否含根），
// 按路径排序保证父行先于子行。
func (r *Repository) ListSubtree(ctx context.Context, path types.Path, includeSelf bool) ([]ResourceModel, error) {
	conn := r.db.GetConn().WithContext(ctx)
	query := conn.Where(`path LIKE ? ESCAPE '\'`, likePrefix(path))
	if includeSelf && !path.IsRoot() {
		query = conn.Where(`path = ? OR path LIKE ? ESCAPE '\'`, path.String(), likePrefix(path))
	}

	var rows []ResourceModel
	if err := query.Order("path ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteSubtree 删除 path 子树的资源行与版本行（含根）。
func (r *Repository) DeleteSubtree(ctx context.Context, path types.Path) error {
	conn := r.db.GetConn().WithContext(ctx)
	if err := conn.
		Where(`path = ? OR path LIKE ? ESCAPE '\'`, path.String(), likePrefix(path)).
		Delete(&ResourceModel{}).Error; err != nil {
		return err
	}
	return conn.
		Where(`path = ? OR path LIKE ? ESCAPE '\'`, path.String(), likePrefix(path)).
		Delete(&VersionModel{}).Error
}

// -----------------------------------------------------------------------------
// 版本行
// -----------------------------------------------------------------------------

func (r *Repository) InsertVersion(ctx context.Context, v *VersionModel) error {
	err := r.db.GetConn().WithContext(ctx).Create(v).Error
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to insert version row: %w", err)
	}
	return nil
}

// NextVersionSeq 返回资源下一个版本序号（从 1 开始）。
func (r *Repository) NextVersionSeq(ctx context.Context, path types.Path) (int64, error) {
	var maxSeq int64
	err := r.db.GetConn().WithContext(ctx).
		Model(&VersionModel{}).
		Where("path = ?", path.String()).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&maxSeq).Error
	if err != nil {
		return 0, err
	}
	return maxSeq + 1, nil
}

// ListVersions 按创建顺序返回资源的全部版本。
func (r *Repository) ListVersions(ctx context.Context, path types.Path) ([]VersionModel, error) {
	var rows []VersionModel
	err := r.db.GetConn().WithContext(ctx).
		Where("path = ?", path.String()).
		Order("seq ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) GetVersion(ctx context.Context, path types.Path, name string) (*VersionModel, error) {
	var v VersionModel
	err := r.db.GetConn().WithContext(ctx).
		Where("path = ? AND name = ?", path.String(), name).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVersionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *Repository) CountVersions(ctx context.Context, path types.Path) (int64, error) {
	var count int64
	err := r.db.GetConn().WithContext(ctx).
		Model(&VersionModel{}).
		Where("path = ?", path.String()).
		Count(&count).Error
	return count, err
}

func (r *Repository) DeleteVersion(ctx context.Context, path types.Path, name string) error {
	result := r.db.GetConn().WithContext(ctx).
		Where("path = ? AND name = ?", path.String(), name).
		Delete(&VersionModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionNotFound
	}
	return nil
}
