// Package staticfile implements a minimal doc-root file handler: GET/HEAD
// only, path-traversal rejection, a directory listing when the request
// names a directory, and index.html as the default document. It exists so
// cmd/http_server has something to dispatch to — request-handler internals
// are explicitly out of this module's core scope.
package staticfile

import (
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wireproto/httpwire/pkg/httpwire/proto"
)

// Handler serves files rooted at DocRoot.
type Handler struct {
	DocRoot string
}

// New returns a Handler rooted at docRoot.
func New(docRoot string) *Handler {
	return &Handler{DocRoot: docRoot}
}

// Serve implements server.Handler.
func (h *Handler) Serve(req *proto.Request) *proto.Response {
	if req.Method != proto.MethodGet && req.Method != proto.MethodHead {
		return stock(proto.StatusBadRequest, req.Version)
	}

	decoded, err := decodeURI(req.URI)
	if err != nil {
		return stock(proto.StatusBadRequest, req.Version)
	}

	root, err := filepath.Abs(h.DocRoot)
	if err != nil {
		return stock(proto.StatusInternalServerError, req.Version)
	}
	requested := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(decoded, "/")))

	rel, err := filepath.Rel(root, requested)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return stock(proto.StatusNotFound, req.Version)
	}

	info, err := os.Stat(requested)
	if err != nil {
		return stock(proto.StatusNotFound, req.Version)
	}

	var body []byte
	var ext string
	if info.IsDir() {
		if indexPath := filepath.Join(requested, "index.html"); fileExists(indexPath) {
			requested = indexPath
			ext = ".html"
		} else {
			body, err = renderDirectoryListing(requested, decoded)
			if err != nil {
				return stock(proto.StatusInternalServerError, req.Version)
			}
			ext = ".html"
		}
	}

	if body == nil {
		f, err := os.Open(requested)
		if err != nil {
			return stock(proto.StatusNotFound, req.Version)
		}
		defer f.Close()
		body, err = io.ReadAll(f)
		if err != nil {
			return stock(proto.StatusInternalServerError, req.Version)
		}
		if ext == "" {
			ext = filepath.Ext(requested)
		}
	}

	resp := proto.NewResponse(proto.StatusOK, req.Version, proto.NewHeader(), body)
	resp.Header.Set("Content-Type", contentType(ext))
	if req.KeepAlive() {
		resp.Header.Set("Connection", "keep-alive")
	}
	if req.Method == proto.MethodHead {
		resp.SetBody(nil)
		resp.Header.Set("Content-Length", fmt.Sprintf("%d", len(body)))
	}
	return resp
}

// stock builds the canonical error response for status but, unlike
// proto.StockResponse, leaves the connection open — a bad request to this
// handler doesn't need to end the keep-alive session the caller negotiated.
func stock(status proto.StatusCode, version proto.Version) *proto.Response {
	r := proto.StockResponse(status, version)
	r.Header.Del("Connection")
	return r
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// decodeURI percent-decodes a request path, also accepting '+' as a literal
// space the way form-encoded query strings do.
func decodeURI(uri string) (string, error) {
	uri = strings.ReplaceAll(uri, "+", " ")
	decoded, err := url.PathUnescape(uri)
	if err != nil {
		return "", err
	}
	return decoded, nil
}

func renderDirectoryListing(dir, requestPath string) ([]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var b strings.Builder
	b.WriteString("<html><head><title>Index of ")
	b.WriteString(requestPath)
	b.WriteString("</title></head>\n<body>\n<h1>Index of ")
	b.WriteString(requestPath)
	b.WriteString("</h1><hr><pre>\n")
	if requestPath != "/" {
		b.WriteString("<a href=\"../\">../</a>\n")
	}
	for _, e := range entries {
		name := e.Name()
		b.WriteString("<a href=\"")
		b.WriteString(name)
		b.WriteString("\">")
		b.WriteString(name)
		b.WriteString("</a>\n")
	}
	b.WriteString("</pre><hr></body>\n</html>")
	return []byte(b.String()), nil
}

func contentType(ext string) string {
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "text/plain"
}
