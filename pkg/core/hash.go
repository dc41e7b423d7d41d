package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"archivault/pkg/types"

	"github.com/fxamacker/cbor/v2"
)

// 快照文档用规范化 CBOR 编码：相同状态必须得到相同 Hash，
// 这样版本存储可以直接复用内容寻址的 blob 层做去重。
var encOptions = cbor.EncOptions{
	// Map Key 强制排序，保证编码确定性
	Sort: cbor.SortCanonical,

	ShortestFloat: cbor.ShortestFloatNone,

	// 时间一律 Unix 整数，不生成 Tag 0/1
	Time:    cbor.TimeUnix,
	TimeTag: cbor.EncTagNone,

	// 禁止不定长编码
	IndefLength: cbor.IndefLengthForbidden,

	BigIntConvert: cbor.BigIntConvertShortest,
}

var em, _ = encOptions.EncMode()

var decOptions = cbor.DecOptions{
	// 防御恶意构造的超大头部
	MaxArrayElements: 65536,
	MaxMapPairs:      65536,
	MaxNestedLevels:  64,

	IndefLength: cbor.IndefLengthForbidden,
	DupMapKey:   cbor.DupMapKeyEnforcedAPF,
	BignumTag:   cbor.BignumTagForbidden,
	TimeTag:     cbor.DecTagIgnored,
}

var dm, _ = decOptions.DecMode()

// CalculateHash 序列化 v 并返回其 SHA-256 标识与编码字节。
func CalculateHash(v any) (types.Hash, []byte, error) {
	data, err := em.Marshal(v)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal object: %w", err)
	}
	sum := sha256.Sum256(data)
	return types.Hash(hex.EncodeToString(sum[:])), data, nil
}

// CalculateBlobHash 计算原始内容字节的 Hash。
func CalculateBlobHash(data []byte) types.Hash {
	sum := sha256.Sum256(data)
	return types.Hash(hex.EncodeToString(sum[:]))
}

func decode(data []byte, v any) error {
	return dm.Unmarshal(data, v)
}
