package rdf

import (
	"fmt"
	"strings"
)

// ParseError 表示 patch 或 N-Triples 文本语法非法。
// 调用方通过 errors.As 识别，不要做错误文本匹配。
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Msg)
}

// Patch 是一次声明式属性更新：先删后增，整体原子。
type Patch struct {
	Inserts []Triple
	Deletes []Triple
}

// IsEmpty 报告 patch 是否不包含任何变更。
func (p *Patch) IsEmpty() bool {
	return len(p.Inserts) == 0 && len(p.Deletes) == 0
}

// ParsePatch 解析 SPARQL Update 的 DATA 子集：
//
//	INSERT DATA { <> <pred> 'value' . }
//	DELETE DATA { <> <pred> <uri> . } ;
//	INSERT DATA { ... }
//
// 主语只允许 <>（指代被更新的资源本身）。任何语法问题返回
// *ParseError 且不产出部分结果。
func ParsePatch(input string) (*Patch, error) {
	lx := newLexer(input)
	patch := &Patch{}
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokEOF {
			return patch, nil
		}
		if tok.kind == tokSemi {
			continue // 语句分隔符
		}
		if tok.kind != tokIdent {
			return nil, lx.errorf("expected INSERT or DELETE, got %q", tok.text)
		}
		verb := strings.ToUpper(tok.text)
		if verb != "INSERT" && verb != "DELETE" {
			return nil, lx.errorf("unsupported update verb %q", tok.text)
		}
		if err := lx.expectIdent("DATA"); err != nil {
			return nil, err
		}
		triples, err := parseTripleBlock(lx)
		if err != nil {
			return nil, err
		}
		if verb == "INSERT" {
			patch.Inserts = append(patch.Inserts, triples...)
		} else {
			patch.Deletes = append(patch.Deletes, triples...)
		}
	}
}

func parseTripleBlock(lx *lexer) ([]Triple, error) {
	tok, err := lx.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokLBrace {
		return nil, lx.errorf("expected '{', got %q", tok.text)
	}

	var triples []Triple
	for {
		tok, err = lx.next()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokRBrace {
			return triples, nil
		}
		if tok.kind != tokURI {
			return nil, lx.errorf("expected subject URI, got %q", tok.text)
		}
		if tok.text != "" {
			return nil, lx.errorf("only <> is supported as patch subject, got <%s>", tok.text)
		}

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
			if obj.text == "" {
				return nil, lx.errorf("object must not be <>")
			}
			object = URI(obj.text)
		case tokString:
			object = Literal(obj.text)
		default:
			return nil, lx.errorf("expected object URI or literal, got %q", obj.text)
		}

		triples = append(triples, Triple{Predicate: pred.text, Object: object})

		// 三元组以 '.' 结束；块结束前的最后一个 '.' 可省略。
		tok, err = lx.next()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokRBrace {
			return triples, nil
		}
		if tok.kind != tokDot {
			return nil, lx.errorf("expected '.' after triple, got %q", tok.text)
		}
	}
}
