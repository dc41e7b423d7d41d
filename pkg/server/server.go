package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"archivault/pkg/core"
	"archivault/pkg/rdf"
	"archivault/pkg/service"
	"archivault/pkg/types"
)

// Prefix 是所有资源 URL 的公共前缀。
const Prefix = "/rest"

// LDP 类型 URI，用在 Link header 上区分对象和数据流。
const (
	ldpRDFSource    = "http://www.w3.org/ns/ldp#RDFSource"
	ldpNonRDFSource = "http://www.w3.org/ns/ldp#NonRDFSource"
	ldpContains     = "http://www.w3.org/ns/ldp#contains"
)

// Handler 把 HTTP 报文翻译成 service 调用。
// 它不做任何业务裁决：状态机、版本不变量都在 service 层。
type Handler struct {
	svc *service.Service
}

// New 组装带日志和 panic 恢复的完整 handler 链。
func New(svc *service.Service) http.Handler {
	return WithRecovery(WithLogging(&Handler{svc: svc}))
}

// route 是一次请求解析出的寻址结果。
// sub 为空时直接寻址资源本身，否则是 fcr:content / fcr:versions /
// fcr:tombstone 之一；version 只在 sub 为 fcr:versions 时有值。
type route struct {
	path           types.Path
	sub            string
	version        string
	versionContent bool
}

func parseRoute(rawPath string) (*route, error) {
	rest, ok := strings.CutPrefix(rawPath, Prefix)
	if !ok {
		return nil, fmt.Errorf("path %q is outside %s", rawPath, Prefix)
	}
	rest = strings.Trim(rest, "/")

	var rt route
	var resourceSegs []string
	segs := []string{}
	if rest != "" {
		segs = strings.Split(rest, "/")
	}
	for i, seg := range segs {
		if !strings.HasPrefix(seg, "fcr:") {
			resourceSegs = append(resourceSegs, seg)
			continue
		}
		// 保留段之后的剩余部分按子资源解析
		tail := segs[i+1:]
		switch seg {
		case "fcr:content", "fcr:tombstone":
			if len(tail) != 0 {
				return nil, fmt.Errorf("unexpected segments after %s", seg)
			}
			rt.sub = seg
		case "fcr:versions":
			rt.sub = seg
			switch len(tail) {
			case 0:
			case 1:
				rt.version = tail[0]
			case 2:
				if tail[1] != "fcr:content" {
					return nil, fmt.Errorf("unexpected segment %q under fcr:versions", tail[1])
				}
				rt.version = tail[0]
				rt.versionContent = true
			default:
				return nil, fmt.Errorf("unexpected segments after fcr:versions")
			}
		default:
			return nil, fmt.Errorf("unknown reserved segment %q", seg)
		}
		break
	}

	p, err := types.ParsePath(strings.Join(resourceSegs, "/"))
	if err != nil {
		return nil, err
	}
	rt.path = p
	if rt.version != "" {
		if err := types.ValidateSegment(rt.version); err != nil {
			return nil, fmt.Errorf("invalid version name: %w", err)
		}
	}
	return &rt, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt, err := parseRoute(r.URL.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch rt.sub {
	case "":
		h.serveResource(w, r, rt.path)
	case "fcr:content":
		h.serveContent(w, r, rt.path)
	case "fcr:tombstone":
		h.serveTombstone(w, r, rt.path)
	case "fcr:versions":
		h.serveVersions(w, r, rt)
	}
}

// -----------------------------------------------------------------------------
// 编码辅助
// -----------------------------------------------------------------------------

// baseURL 从请求还原出资源 URL 前缀，渲染 N-Triples 主语时要用。
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + Prefix
}

func resourceURI(base string, path types.Path) string {
	if path.IsRoot() {
		return base
	}
	return base + "/" + path.String()
}

func writeTyping(w http.ResponseWriter, kind types.ResourceKind) {
	t := ldpRDFSource
	if kind == types.KindDatastream {
		t = ldpNonRDFSource
	}
	w.Header().Add("Link", fmt.Sprintf("<%s>;rel=%q", t, "type"))
}

// writeDescription 把资源视图渲染成 N-Triples 响应体。
func writeDescription(w http.ResponseWriter, r *http.Request, res *service.Resource) {
	base := baseURL(r)
	subject := resourceURI(base, res.Path)

	body := rdf.RenderNTriples(func(yield func(rdf.Triple) bool) {
		for t := range res.Properties.All(subject) {
			if !yield(t) {
				return
			}
		}
		for _, child := range res.Children {
			t := rdf.Triple{
				Subject:   subject,
				Predicate: ldpContains,
				Object:    rdf.URI(resourceURI(base, child)),
			}
			if !yield(t) {
				return
			}
		}
	})

	writeTyping(w, res.Kind)
	w.Header().Set("Content-Type", rdf.MediaTypeNTriples)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// destination 解析 MOVE/COPY 的 Destination header 为仓库路径。
func destination(r *http.Request) (types.Path, error) {
	raw := r.Header.Get("Destination")
	if raw == "" {
		return "", fmt.Errorf("Destination header required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid Destination %q: %w", raw, err)
	}
	rest, ok := strings.CutPrefix(u.Path, Prefix)
	if !ok {
		return "", fmt.Errorf("Destination %q is outside %s", raw, Prefix)
	}
	return types.ParsePath(rest)
}

// writeError 把领域错误翻译成状态码，响应体是纯文本诊断信息。
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var parseErr *rdf.ParseError
	switch {
	case core.IsNotFound(err):
		status = http.StatusNotFound
	case core.IsGone(err):
		status = http.StatusGone
	case core.IsConflict(err):
		status = http.StatusConflict
	case errors.As(err, &parseErr):
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	http.Error(w, fmt.Sprintf("method %s not allowed", r.Method), http.StatusMethodNotAllowed)
}
