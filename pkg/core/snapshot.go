package core

import (
	"time"

	"archivault/pkg/rdf"
	"archivault/pkg/types"
)

// Snapshot 是资源某一时刻状态的完整拷贝：属性 + 内容指针。
// 每个快照独立可寻址，读任意历史版本都是 O(1)，代价是
// O(versions × size) 的存储——版本化是显式开启的，可以接受。
//
// Redirect 数据流的快照捕获目标 URL 而非目标字节，读历史
// 版本时依然实时解引用。
type Snapshot struct {
	hash     types.Hash `cbor:"-"`
	rawBytes []byte     `cbor:"-"`

	Kind       types.ResourceKind `cbor:"k"`
	Properties rdf.PropertySet    `cbor:"p"`

	// 数据流专属；对象快照这些字段为零值
	ContentHash types.Hash `cbor:"ch,omitempty"`
	ContentType string     `cbor:"ct,omitempty"`
	ContentSize int64      `cbor:"cs,omitempty"`
	RedirectURL string     `cbor:"r,omitempty"`

	CreatedAt int64 `cbor:"ts"`
}

// NewSnapshot 封装当前状态并密封（计算 Hash 与编码字节）。
func NewSnapshot(kind types.ResourceKind, props rdf.PropertySet, contentHash types.Hash, contentType string, contentSize int64, redirectURL string) (*Snapshot, error) {
	s := &Snapshot{
		Kind:        kind,
		Properties:  props.Clone(),
		ContentHash: contentHash,
		ContentType: contentType,
		ContentSize: contentSize,
		RedirectURL: redirectURL,
		CreatedAt:   time.Now().Unix(),
	}
	h, b, err := CalculateHash(s)
	if err != nil {
		return nil, err
	}
	s.hash = h
	s.rawBytes = b
	return s, nil
}

func (s *Snapshot) ID() types.Hash { return s.hash }
func (s *Snapshot) Bytes() []byte  { return s.rawBytes }

// DecodeSnapshot 从存储字节还原快照并重新密封。
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := decode(data, &s); err != nil {
		return nil, err
	}
	if s.Properties == nil {
		s.Properties = rdf.NewPropertySet()
	}
	h, b, err := CalculateHash(&s)
	if err != nil {
		return nil, err
	}
	s.hash = h
	s.rawBytes = b
	return &s, nil
}
