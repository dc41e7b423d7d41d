package rdf

import "strings"

// TermKind 标记 Term 的变体：URI 引用或字面量。
// 属性值只允许这两种，避免开放类型带来的解析歧义。
type TermKind string

const (
	KindURI     TermKind = "uri"
	KindLiteral TermKind = "literal"
)

// Term 是三元组的宾语（或主语/谓语的 URI 形式）。
// 值对象，可直接作为 JSON 持久化。
type Term struct {
	Kind  TermKind `json:"kind"`
	Value string   `json:"value"`
}

func URI(v string) Term     { return Term{Kind: KindURI, Value: v} }
func Literal(v string) Term { return Term{Kind: KindLiteral, Value: v} }

func (t Term) IsURI() bool     { return t.Kind == KindURI }
func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }

// String 以 N-Triples 语法渲染该 Term。
func (t Term) String() string {
	if t.IsURI() {
		return "<" + t.Value + ">"
	}
	return `"` + escapeLiteral(t.Value) + `"`
}

func escapeLiteral(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Triple 是一条 (subject, predicate, object) 属性记录。
// Subject 和 Predicate 一定是 URI；空 Subject 表示“当前资源”，
// 序列化到线上之前必须先解析成完整 URI。
type Triple struct {
	Subject   string
	Predicate string
	Object    Term
}

// String 渲染成一行 N-Triples（不含换行）。
func (t Triple) String() string {
	return "<" + t.Subject + "> <" + t.Predicate + "> " + t.Object.String() + " ."
}
