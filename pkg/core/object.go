package core

import "archivault/pkg/types"

// Object 是可存入 blob 层的内容寻址单元。
type Object interface {
	// ID 返回对象的内容 Hash
	ID() types.Hash

	// Bytes 返回序列化后的存储字节
	Bytes() []byte
}

// Blob 包装一段不透明的数据流内容。
type Blob struct {
	hash types.Hash
	data []byte
}

func NewBlob(data []byte) *Blob {
	return &Blob{hash: CalculateBlobHash(data), data: data}
}

func (b *Blob) ID() types.Hash { return b.hash }
func (b *Blob) Bytes() []byte  { return b.data }
func (b *Blob) Size() int64    { return int64(len(b.data)) }
