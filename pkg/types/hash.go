package types

// Hash 是内容寻址对象的标识 (SHA256 Hex String)。
// 值对象，不可变。
type Hash string

func (h Hash) String() string { return string(h) }

func (h Hash) IsZero() bool  { return h == "" }
func (h Hash) IsValid() bool { return len(h) == 64 }

// ResourceKind 区分容器对象与数据流。
type ResourceKind string

const (
	KindObject     ResourceKind = "object"
	KindDatastream ResourceKind = "datastream"
)
