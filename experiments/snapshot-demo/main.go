package main

import (
	"context"
	"fmt"

	"archivault/pkg/core"
	"archivault/pkg/rdf"
	"archivault/pkg/storage/disk"
	"archivault/pkg/types"
)

// 这个小实验演示版本快照的内容寻址：规范化 CBOR 保证属性的
// 插入顺序不影响哈希，解码再编码也得到同样的哈希。
func main() {
	props := rdf.NewPropertySet()
	props.Insert("http://purl.org/dc/elements/1.1/title", rdf.Literal("Demo Object"))
	props.Insert("http://purl.org/dc/elements/1.1/creator", rdf.Literal("Alice"))

	snap, err := core.NewSnapshot(types.KindObject, props, "", "", 0, "")
	if err != nil {
		panic(err)
	}
	fmt.Printf("Snapshot stored.  Hash: %s\n", snap.ID())

	// 解码 → 重新密封，哈希不变
	decoded, err := core.DecodeSnapshot(snap.Bytes())
	if err != nil {
		panic(err)
	}
	fmt.Printf("Decoded snapshot. Hash: %s (equal: %v)\n", decoded.ID(), snap.ID() == decoded.ID())

	// 属性插入顺序反过来，编码字节也一样
	reordered := rdf.NewPropertySet()
	reordered.Insert("http://purl.org/dc/elements/1.1/creator", rdf.Literal("Alice"))
	reordered.Insert("http://purl.org/dc/elements/1.1/title", rdf.Literal("Demo Object"))

	h1, _, _ := core.CalculateHash(props)
	h2, _, _ := core.CalculateHash(reordered)
	fmt.Printf("Property set hashes equal: %v\n", h1 == h2)

	// 落盘看看分片目录长什么样：.archivault/objects/aa/bbcc...
	store, err := disk.NewAdapter(".archivault/objects")
	if err != nil {
		panic(err)
	}
	if err := store.Put(context.Background(), snap); err != nil {
		panic(err)
	}
	fmt.Println("Check the .archivault directory, the snapshot file is sitting there.")
}
