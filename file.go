package mvc

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru"
)

type StaticResourceHandlerOption func(*StaticResourceHandler)

// StaticResourceHandler 静态资源处理，配合 /resources/{file} 这样的路由使用
// 两个层面上
// 1. 大文件不缓存
// 2. 控制住了缓存的文件的数量
// 所以，最多消耗多少内存？ size(cache) * maxSize
type StaticResourceHandler struct {
	fsys                    fs.FS
	extensionContentTypeMap map[string]string

	// 缓存静态资源的限制
	cache       *lru.Cache
	maxFileSize int
}

// fileCacheItem cache 缓存用的结构体信息
type fileCacheItem struct {
	fileName    string
	fileSize    int
	contentType string
	data        []byte
}

// NewStaticResourceHandler 从 dir 目录读取静态资源
func NewStaticResourceHandler(dir string, options ...StaticResourceHandlerOption) *StaticResourceHandler {
	res := &StaticResourceHandler{
		fsys: os.DirFS(dir),
		extensionContentTypeMap: map[string]string{
			// 这里根据自己的需要不断添加
			"jpeg": "image/jpeg",
			"jpe":  "image/jpeg",
			"jpg":  "image/jpeg",
			"png":  "image/png",
			"gif":  "image/gif",
			"svg":  "image/svg+xml",
			"ico":  "image/x-icon",
			"pdf":  "application/pdf",
			"css":  "text/css; charset=utf-8",
			"js":   "text/javascript; charset=utf-8",
			"txt":  "text/plain; charset=utf-8",
		},
	}

	for _, opt := range options {
		opt(res)
	}
	return res
}

// StaticWithFS 使用 fsys 代替目录，例如 embed.FS
func StaticWithFS(fsys fs.FS) StaticResourceHandlerOption {
	return func(h *StaticResourceHandler) {
		h.fsys = fsys
	}
}

// WithFileCache 静态文件将会被缓存
// maxFileSizeThreshold 超过这个大小的文件，就被认为是大文件，我们将不会缓存
// maxCacheFileCnt 最多缓存多少个文件
// 所以我们最多缓存 maxFileSizeThreshold * maxCacheFileCnt
func WithFileCache(maxFileSizeThreshold int, maxCacheFileCnt int) StaticResourceHandlerOption {
	return func(h *StaticResourceHandler) {
		c, err := lru.New(maxCacheFileCnt)
		if err != nil {
			slog.Warn("mvc: 创建缓存失败，将不会缓存静态资源", slog.Any("err", err))
			return
		}
		h.maxFileSize = maxFileSizeThreshold
		h.cache = c
	}
}

func WithMoreExtension(extMap map[string]string) StaticResourceHandlerOption {
	return func(h *StaticResourceHandler) {
		for ext, contentType := range extMap {
			h.extensionContentTypeMap[ext] = contentType
		}
	}
}

// Handle 静态资源的处理逻辑，文件名来自路径参数 file
func (h *StaticResourceHandler) Handle(ctx *Context) {
	req, err := ctx.PathValue("file").String()
	// 防止通过 ../../ 这种路径 获取到你的 系统文件
	if err != nil || !fs.ValidPath(req) {
		ctx.RespStatusCode = http.StatusBadRequest
		return
	}
	if item, ok := h.readFileFromData(req); ok {
		h.writeItemAsResponse(item, ctx)
		return
	}

	t, ok := h.extensionContentTypeMap[getFileExt(req)]
	if !ok {
		ctx.RespStatusCode = http.StatusBadRequest
		return
	}

	data, err := fs.ReadFile(h.fsys, req)
	if errors.Is(err, fs.ErrNotExist) {
		ctx.RespStatusCode = http.StatusNotFound
		return
	}
	if err != nil {
		ctx.RespStatusCode = http.StatusInternalServerError
		return
	}
	item := &fileCacheItem{
		fileSize:    len(data),
		data:        data,
		contentType: t,
		fileName:    req,
	}

	h.cacheFile(item)
	h.writeItemAsResponse(item, ctx)
}

func (h *StaticResourceHandler) cacheFile(item *fileCacheItem) {
	if h.cache != nil && item.fileSize < h.maxFileSize {
		h.cache.Add(item.fileName, item)
	}
}

func (h *StaticResourceHandler) writeItemAsResponse(item *fileCacheItem, ctx *Context) {
	header := ctx.Resp.Header()
	header.Set("Content-Type", item.contentType)
	header.Set("Content-Length", strconv.Itoa(item.fileSize))
	ctx.RespStatusCode = http.StatusOK
	ctx.RespData = item.data
}

func (h *StaticResourceHandler) readFileFromData(fileName string) (*fileCacheItem, bool) {
	if h.cache != nil {
		if item, ok := h.cache.Get(fileName); ok {
			return item.(*fileCacheItem), true
		}
	}
	return nil, false
}

func getFileExt(name string) string {
	index := strings.LastIndex(name, ".")
	if index < 0 || index == len(name)-1 {
		return ""
	}
	return name[index+1:]
}
