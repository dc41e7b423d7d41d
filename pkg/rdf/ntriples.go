package rdf

import (
	"iter"
	"strings"
)

// MediaTypeNTriples 是资源描述在线上的媒体类型。
const MediaTypeNTriples = "application/n-triples"

// RenderNTriples 把三元组序列渲染为 N-Triples 文本，一行一条。
func RenderNTriples(triples iter.Seq[Triple]) string {
	var b strings.Builder
	for t := range triples {
		b.WriteString(t.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// ParseNTriples 解析服务端返回的资源描述。与 patch 不同，
// 线上表示里的主语必须是完整 URI。
func ParseNTriples(input string) ([]Triple, error) {
	lx := newLexer(input)
	var triples []Triple
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokEOF {
			return triples, nil
		}
		if tok.kind != tokURI || tok.text == "" {
			return nil, lx.errorf("expected subject URI, got %q", tok.text)
		}
		subject := tok.text

		pred, err := lx.next()
		if err != nil {
			return nil, err
		}
		if pred.kind != tokURI || pred.text == "" {
			return nil, lx.errorf("expected predicate URI, got %q", pred.text)
		}

		obj, err := lx.next()
		if err != nil {
			return nil, err
		}
		var object Term
		switch obj.kind {
		case tokURI:
			object = URI(obj.text)
		case tokString:
			object = Literal(obj.text)
		default:
			return nil, lx.errorf("expected object URI or literal, got %q", obj.text)
		}

		dot, err := lx.next()
		if err != nil {
			return nil, err
		}
		if dot.kind != tokDot {
			return nil, lx.errorf("expected '.' after triple, got %q", dot.text)
		}

		triples = append(triples, Triple{Subject: subject, Predicate: pred.text, Object: object})
	}
}
