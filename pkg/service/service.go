package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"archivault/pkg/core"
	"archivault/pkg/meta"
	"archivault/pkg/rdf"
	"archivault/pkg/storage"
	"archivault/pkg/types"

	"gorm.io/datatypes"
)

// Service 把元数据层和 blob 层组合成仓库的领域操作。
// 生命周期状态机、版本不变量、错误分类都在这一层裁决；
// HTTP handler 只做编解码。
type Service struct {
	meta  *meta.Repository
	blobs storage.Store

	// fetch 用于实时解引用 redirect 数据流
	fetch *http.Client
}

type Option func(*Service)

// WithHTTPClient 覆盖 redirect 解引用用的 HTTP 客户端。
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) { s.fetch = c }
}

func New(metaRepo *meta.Repository, blobs storage.Store, opts ...Option) *Service {
	s := &Service{
		meta:  metaRepo,
		blobs: blobs,
		fetch: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resource 是一份资源状态的只读视图，live 与版本冻结态共用。
type Resource struct {
	Path       types.Path
	Kind       types.ResourceKind
	Properties rdf.PropertySet

	// 数据流专属
	ContentType string
	ContentSize int64
	RedirectURL string

	// 对象专属；版本冻结视图不含子资源
	Children []types.Path

	CreatedAt time.Time
}

func (r *Resource) IsDatastream() bool { return r.Kind == types.KindDatastream }

// VersionInfo 是版本列表里的一项。
type VersionInfo struct {
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
}

// -----------------------------------------------------------------------------
// 内部辅助
// -----------------------------------------------------------------------------

// getLive 取 live 行，并把元数据层错误翻译成协议错误：
// 无行 → NotFound，tombstone → Gone。
func getLive(ctx context.Context, repo *meta.Repository, path types.Path) (*meta.ResourceModel, error) {
	row, err := repo.GetResource(ctx, path)
	if err == meta.ErrResourceNotFound {
		return nil, &core.NotFoundError{Path: path}
	}
	if err != nil {
		return nil, err
	}
	if row.State == string(meta.StateTombstoned) {
		return nil, &core.GoneError{Path: path}
	}
	return row, nil
}

// checkDestination 校验 create/move/copy 的目标路径可用，
// 并确认父级是 live 的对象。
func checkDestination(ctx context.Context, repo *meta.Repository, path types.Path) error {
	if path.IsRoot() {
		return &core.ConflictError{Msg: "destination path must not be the repository root"}
	}
	if existing, err := repo.GetResource(ctx, path); err == nil {
		if existing.State == string(meta.StateTombstoned) {
			return &core.GoneError{Path: path}
		}
		return &core.ConflictError{Msg: fmt.Sprintf("path %q already exists", path)}
	} else if err != meta.ErrResourceNotFound {
		return err
	}
	return checkParent(ctx, repo, path)
}

func checkParent(ctx context.Context, repo *meta.Repository, path types.Path) error {
	parent := path.Parent()
	if parent.IsRoot() {
		return nil
	}
	row, err := getLive(ctx, repo, parent)
	if err != nil {
		return err
	}
	if row.Kind != string(types.KindObject) {
		return &core.ConflictError{Msg: fmt.Sprintf("parent %q is a datastream and cannot contain children", parent)}
	}
	return nil
}

func propsToJSON(ps rdf.PropertySet) (datatypes.JSON, error) {
	data, err := json.Marshal(ps)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal properties: %w", err)
	}
	return datatypes.JSON(data), nil
}

func propsFromJSON(data datatypes.JSON) (rdf.PropertySet, error) {
	if len(data) == 0 {
		return rdf.NewPropertySet(), nil
	}
	ps := rdf.NewPropertySet()
	if err := json.Unmarshal(data, &ps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal properties: %w", err)
	}
	return ps, nil
}

// viewOf 把数据库行转换成只读视图（不含子资源）。
func viewOf(row *meta.ResourceModel) (*Resource, error) {
	props, err := propsFromJSON(row.Properties)
	if err != nil {
		return nil, err
	}
	return &Resource{
		Path:        types.Path(row.Path),
		Kind:        types.ResourceKind(row.Kind),
		Properties:  props,
		ContentType: row.ContentType,
		ContentSize: row.ContentSize,
		RedirectURL: row.RedirectURL,
		CreatedAt:   row.CreatedAt,
	}, nil
}
