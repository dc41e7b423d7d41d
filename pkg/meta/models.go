package meta

import (
	"time"

	"gorm.io/datatypes"
)

// LifecycleState 是路径生命周期状态机的枚举列。
// Absent 不占行：没有记录就是 Absent。
type LifecycleState string

const (
	StateLive       LifecycleState = "live"
	StateTombstoned LifecycleState = "tombstoned"
)

// ResourceModel 是资源在关系型数据库中的一行。
// Path 即主键——协议保证同一时刻一个路径只对应一个资源，
// tombstone 继续占用这一行直到被强制清除。
type ResourceModel struct {
	Path string `gorm:"primaryKey;type:varchar(1024)"`

	// Kind: object | datastream
	Kind string `gorm:"type:varchar(16);not null"`

	// State: live | tombstoned
	State string `gorm:"type:varchar(16);not null;index"`

	// Properties 是 rdf.PropertySet 的 JSON 投影
	Properties datatypes.JSON

	// 数据流内容指针；字节在 blob 层，这里只存 Hash
	ContentHash string `gorm:"type:char(64)"`
	ContentType string `gorm:"type:varchar(255)"`
	ContentSize int64
	RedirectURL string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ResourceModel) TableName() string {
	return "resources"
}

// VersionModel 是一条命名快照记录。快照正文（属性 + 内容指针）
// 是 blob 层里的一个 CBOR 文档，这里只存它的 Hash 与排序信息。
type VersionModel struct {
	ID uint `gorm:"primaryKey"`

	// (Path, Name) 在资源内唯一
	Path string `gorm:"type:varchar(1024);not null;uniqueIndex:idx_version_path_name;index"`
	Name string `gorm:"type:varchar(255);not null;uniqueIndex:idx_version_path_name"`

	// Seq 按资源单调递增，决定 getVersionsName 的顺序
	Seq int64 `gorm:"not null"`

	SnapshotHash string `gorm:"type:char(64);not null"`

	CreatedAt time.Time
}

func (VersionModel) TableName() string {
	return "versions"
}
