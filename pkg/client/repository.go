// Package client 是仓库的 Go 客户端库，走 HTTP 协议。
// 所有远端失败都映射成 pkg/core 的类型化错误，调用方用
// errors.As / core.IsNotFound 这类谓词判别，不做字符串匹配。
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"archivault/pkg/core"
	"archivault/pkg/rdf"
	"archivault/pkg/types"

	"github.com/hashicorp/go-retryablehttp"
)

// Repository 封装了与仓库服务端的连接。
type Repository struct {
	base *url.URL
	http *retryablehttp.Client
}

type Option func(*Repository)

// WithTimeout 覆盖单次请求的超时时间。
func WithTimeout(d time.Duration) Option {
	return func(r *Repository) { r.http.HTTPClient.Timeout = d }
}

// WithRetryMax 覆盖瞬态失败的重试次数。
func WithRetryMax(n int) Option {
	return func(r *Repository) { r.http.RetryMax = n }
}

// New 创建客户端。baseURL 指向服务端的 /rest 前缀所在的根，
// 例如 "http://localhost:8474"。
func New(baseURL string, opts ...Option) (*Repository, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q in base URL %q", u.Scheme, baseURL)
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.Logger = nil // 静默重试日志，错误统一走返回值
	rc.HTTPClient.Timeout = 30 * time.Second

	repo := &Repository{base: u, http: rc}
	for _, opt := range opts {
		opt(repo)
	}
	return repo, nil
}

// BaseURL 返回仓库资源 URL 的公共前缀（含 /rest）。
func (r *Repository) BaseURL() string {
	return r.base.String() + "/rest"
}

func (r *Repository) uri(path types.Path, sub ...string) string {
	u := r.BaseURL()
	if !path.IsRoot() {
		u += "/" + path.String()
	}
	for _, s := range sub {
		u += "/" + s
	}
	return u
}

// -----------------------------------------------------------------------------
// 底层请求
// -----------------------------------------------------------------------------

// request 发送一个请求；header 成对给出。非 2xx 响应翻译成类型化错误。
func (r *Repository) request(ctx context.Context, method, rawURL string, body io.Reader, headers ...string) (*http.Response, error) {
	var payload any
	if body != nil {
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, &core.TransportError{Op: method, Err: err}
		}
		payload = data
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, rawURL, payload)
	if err != nil {
		return nil, &core.TransportError{Op: method, Err: err}
	}
	for i := 0; i < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, &core.TransportError{Op: fmt.Sprintf("%s %s", method, rawURL), Err: err}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	diag, _ := io.ReadAll(resp.Body)
	return nil, statusError(resp.StatusCode, strings.TrimSpace(string(diag)), rawURL)
}

// discard 丢弃响应体并关闭，用于只关心状态码的调用。
func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// statusError 把状态码映射成领域错误，响应体作为诊断信息。
func statusError(status int, diag, rawURL string) error {
	path := pathFromURL(rawURL)
	switch status {
	case http.StatusNotFound:
		return &core.NotFoundError{Path: path}
	case http.StatusGone:
		return &core.GoneError{Path: path}
	case http.StatusConflict:
		return &core.ConflictError{Msg: diag}
	case http.StatusBadRequest:
		return &rdf.ParseError{Msg: diag}
	default:
		return &core.Error{Op: rawURL, Msg: fmt.Sprintf("unexpected status %d: %s", status, diag)}
	}
}

func pathFromURL(rawURL string) types.Path {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	_, after, _ := strings.Cut(u.Path, "/rest")
	return types.Path(strings.Trim(after, "/"))
}

// -----------------------------------------------------------------------------
// 资源操作
// -----------------------------------------------------------------------------

// CreateObject 在给定路径创建一个空对象。
func (r *Repository) CreateObject(ctx context.Context, path types.Path) (*Object, error) {
	resp, err := r.request(ctx, http.MethodPut, r.uri(path), nil)
	if err != nil {
		return nil, err
	}
	discard(resp)
	return r.GetObject(ctx, path)
}

// CreateResource 创建对象；路径为空时由服务端铸造标识符。
func (r *Repository) CreateResource(ctx context.Context, path types.Path) (*Object, error) {
	if !path.IsRoot() {
		return r.CreateObject(ctx, path)
	}
	return r.mint(ctx, "")
}

func (r *Repository) mint(ctx context.Context, parent types.Path) (*Object, error) {
	resp, err := r.request(ctx, http.MethodPost, r.uri(parent), nil)
	if err != nil {
		return nil, err
	}
	loc := resp.Header.Get("Location")
	discard(resp)
	minted := pathFromURL(loc)
	if minted.IsRoot() {
		return nil, &core.Error{Op: "mint", Msg: fmt.Sprintf("server returned unusable Location %q", loc)}
	}
	return r.GetObject(ctx, minted)
}

// GetObject 拉取对象的当前状态。
func (r *Repository) GetObject(ctx context.Context, path types.Path) (*Object, error) {
	res, err := r.fetch(ctx, r.uri(path), path)
	if err != nil {
		return nil, err
	}
	if res.kind != types.KindObject {
		return nil, &core.ConflictError{Msg: fmt.Sprintf("resource %q is a datastream, not an object", path)}
	}
	return &Object{Resource: *res}, nil
}

// GetDatastream 拉取数据流的当前状态（不含内容字节）。
func (r *Repository) GetDatastream(ctx context.Context, path types.Path) (*Datastream, error) {
	res, err := r.fetch(ctx, r.uri(path), path)
	if err != nil {
		return nil, err
	}
	if res.kind != types.KindDatastream {
		return nil, &core.ConflictError{Msg: fmt.Sprintf("resource %q is an object, not a datastream", path)}
	}
	return &Datastream{Resource: *res}, nil
}

// CreateDatastream 创建数据流并写入内容。
func (r *Repository) CreateDatastream(ctx context.Context, path types.Path, contentType string, content io.Reader) (*Datastream, error) {
	resp, err := r.request(ctx, http.MethodPut, r.uri(path, "fcr:content"), content,
		"Content-Type", contentType)
	if err != nil {
		return nil, err
	}
	discard(resp)
	return r.GetDatastream(ctx, path)
}

// CreateOrUpdateRedirectDatastream 创建或更新指向外部 URL 的 redirect
// 数据流；读内容时服务端实时解引用目标。
func (r *Repository) CreateOrUpdateRedirectDatastream(ctx context.Context, path types.Path, target string) (*Datastream, error) {
	resp, err := r.request(ctx, http.MethodPut, r.uri(path, "fcr:content"), nil,
		"Content-Location", target)
	if err != nil {
		return nil, err
	}
	discard(resp)
	return r.GetDatastream(ctx, path)
}

// Exists 报告路径上是否有 live 资源。墓碑算不存在。
func (r *Repository) Exists(ctx context.Context, path types.Path) (bool, error) {
	resp, err := r.request(ctx, http.MethodHead, r.uri(path), nil)
	if err != nil {
		if core.IsNotFound(err) || core.IsGone(err) {
			return false, nil
		}
		return false, err
	}
	discard(resp)
	return true, nil
}

// GetObjectVersion 拉取对象在某个命名快照时的冻结视图。
func (r *Repository) GetObjectVersion(ctx context.Context, path types.Path, name string) (*Object, error) {
	res, err := r.fetchVersion(ctx, path, name)
	if err != nil {
		return nil, err
	}
	if res.kind != types.KindObject {
		return nil, &core.ConflictError{Msg: fmt.Sprintf("version %q of %q is not an object", name, path)}
	}
	return &Object{Resource: *res}, nil
}

// GetDatastreamVersion 拉取数据流在某个命名快照时的冻结视图。
func (r *Repository) GetDatastreamVersion(ctx context.Context, path types.Path, name string) (*Datastream, error) {
	res, err := r.fetchVersion(ctx, path, name)
	if err != nil {
		return nil, err
	}
	if res.kind != types.KindDatastream {
		return nil, &core.ConflictError{Msg: fmt.Sprintf("version %q of %q is not a datastream", name, path)}
	}
	return &Datastream{Resource: *res}, nil
}

// fetch 执行 GET 并把 N-Triples 描述解析成本地视图。
func (r *Repository) fetch(ctx context.Context, rawURL string, path types.Path) (*Resource, error) {
	resp, err := r.request(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &core.TransportError{Op: "GET " + rawURL, Err: err}
	}
	triples, err := rdf.ParseNTriples(string(body))
	if err != nil {
		return nil, err
	}

	res := &Resource{
		repo: r,
		path: path,
		kind: kindFromLink(resp.Header.Values("Link")),
	}
	self := r.uri(path)
	for _, t := range triples {
		if t.Subject != self {
			continue
		}
		if t.Predicate == ldpContains && t.Object.IsURI() {
			res.children = append(res.children, pathFromURL(t.Object.Value))
			continue
		}
		t.Subject = "" // 本地视图里主语统一为 "this resource"
		res.triples = append(res.triples, t)
	}
	return res, nil
}

func (r *Repository) fetchVersion(ctx context.Context, path types.Path, name string) (*Resource, error) {
	res, err := r.fetch(ctx, r.uri(path, "fcr:versions", name), path)
	if err != nil {
		return nil, err
	}
	res.version = name
	return res, nil
}

const (
	ldpContains     = "http://www.w3.org/ns/ldp#contains"
	ldpNonRDFSource = "http://www.w3.org/ns/ldp#NonRDFSource"
)

// kindFromLink 按 Link: <...>;rel="type" 判别资源种类。
// 没有 Link 时默认按对象处理。
func kindFromLink(links []string) types.ResourceKind {
	for _, l := range links {
		if strings.Contains(l, ldpNonRDFSource) {
			return types.KindDatastream
		}
	}
	return types.KindObject
}
