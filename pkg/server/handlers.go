package server

import (
	"encoding/json"
	"io"
	"net/http"

	"archivault/pkg/types"
)

// MethodMove 和 MethodCopy 是 WebDAV 动词，net/http 没有预定义常量。
const (
	MethodMove = "MOVE"
	MethodCopy = "COPY"
)

// -----------------------------------------------------------------------------
// /rest/{path} 资源本体
// -----------------------------------------------------------------------------

func (h *Handler) serveResource(w http.ResponseWriter, r *http.Request, path types.Path) {
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		res, err := h.svc.GetResource(ctx, path)
		if err != nil {
			writeError(w, err)
			return
		}
		writeDescription(w, r, res)

	case http.MethodPut:
		res, err := h.svc.CreateObject(ctx, path)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Location", resourceURI(baseURL(r), res.Path))
		w.WriteHeader(http.StatusCreated)

	case http.MethodPost:
		res, err := h.svc.MintObject(ctx, path)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Location", resourceURI(baseURL(r), res.Path))
		w.WriteHeader(http.StatusCreated)

	case http.MethodPatch:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.svc.UpdateProperties(ctx, path, string(body)); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		if err := h.svc.Delete(ctx, path); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case MethodMove, MethodCopy:
		dst, err := destination(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		op := h.svc.Move
		if r.Method == MethodCopy {
			op = h.svc.Copy
		}
		if err := op(ctx, path, dst); err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Location", resourceURI(baseURL(r), dst))
		w.WriteHeader(http.StatusCreated)

	default:
		methodNotAllowed(w, r)
	}
}

// -----------------------------------------------------------------------------
// /rest/{path}/fcr:content 数据流内容
// -----------------------------------------------------------------------------

func (h *Handler) serveContent(w http.ResponseWriter, r *http.Request, path types.Path) {
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		rc, contentType, err := h.svc.GetContent(ctx, path)
		if err != nil {
			writeError(w, err)
			return
		}
		defer rc.Close()
		// redirect 数据流额外暴露目标地址
		if res, err := h.svc.GetResource(ctx, path); err == nil && res.RedirectURL != "" {
			w.Header().Set("Content-Location", res.RedirectURL)
		}
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = io.Copy(w, rc)
		}

	case http.MethodPut:
		var created bool
		var err error
		if target := r.Header.Get("Content-Location"); target != "" {
			created, err = h.svc.PutRedirect(ctx, path, target)
		} else {
			var body []byte
			body, err = io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			created, err = h.svc.PutContent(ctx, path, r.Header.Get("Content-Type"), body)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		if created {
			w.Header().Set("Location", resourceURI(baseURL(r), path))
			w.WriteHeader(http.StatusCreated)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, r)
	}
}

// -----------------------------------------------------------------------------
// /rest/{path}/fcr:tombstone
// -----------------------------------------------------------------------------

func (h *Handler) serveTombstone(w http.ResponseWriter, r *http.Request, path types.Path) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r)
		return
	}
	if err := h.svc.RemoveTombstone(r.Context(), path); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -----------------------------------------------------------------------------
// /rest/{path}/fcr:versions[/{name}[/fcr:content]]
// -----------------------------------------------------------------------------

func (h *Handler) serveVersions(w http.ResponseWriter, r *http.Request, rt *route) {
	ctx := r.Context()

	// 版本集合本身：创建快照 / 列出版本
	if rt.version == "" {
		switch r.Method {
		case http.MethodPost:
			name := r.Header.Get("Slug")
			if name == "" {
				http.Error(w, "Slug header required", http.StatusBadRequest)
				return
			}
			if err := h.svc.CreateVersion(ctx, rt.path, name); err != nil {
				writeError(w, err)
				return
			}
			loc := resourceURI(baseURL(r), rt.path) + "/fcr:versions/" + name
			w.Header().Set("Location", loc)
			w.WriteHeader(http.StatusCreated)

		case http.MethodGet:
			versions, err := h.svc.VersionNames(ctx, rt.path)
			if err != nil {
				writeError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(versions)

		default:
			methodNotAllowed(w, r)
		}
		return
	}

	// 单个版本：冻结视图 / 冻结内容 / 回滚 / 删除
	if rt.versionContent {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			methodNotAllowed(w, r)
			return
		}
		rc, contentType, err := h.svc.GetVersionContent(ctx, rt.path, rt.version)
		if err != nil {
			writeError(w, err)
			return
		}
		defer rc.Close()
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = io.Copy(w, rc)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		res, err := h.svc.GetVersion(ctx, rt.path, rt.version)
		if err != nil {
			writeError(w, err)
			return
		}
		writeDescription(w, r, res)

	case http.MethodPatch:
		if err := h.svc.RevertToVersion(ctx, rt.path, rt.version); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		if err := h.svc.DeleteVersion(ctx, rt.path, rt.version); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, r)
	}
}
