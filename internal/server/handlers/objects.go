package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/3leaps/bucketagent/internal/observability"
	"github.com/3leaps/bucketagent/internal/server/middleware"
	"github.com/3leaps/bucketagent/pkg/output"
	"github.com/3leaps/bucketagent/pkg/provider"
)

// Storage outcomes recorded in metrics.
const (
	outcomeOK     = "ok"
	outcomeAbsent = "absent"
)

// ObjectHandler exposes the storage agent over HTTP.
type ObjectHandler struct {
	store   provider.Provider
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewObjectHandler creates handlers backed by store. metrics and logger
// may be nil.
func NewObjectHandler(store provider.Provider, metrics *observability.Metrics, logger *zap.Logger) *ObjectHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ObjectHandler{store: store, metrics: metrics, logger: logger}
}

// ListingResponse is the JSON body of a bucket listing.
type ListingResponse struct {
	Bucket      string                `json:"bucket"`
	Entries     []output.ObjectRecord `json:"entries"`
	IsTruncated bool                  `json:"is_truncated"`
	NextMarker  string                `json:"next_marker,omitempty"`

	// CommonPrefixes are the keys rolled up by the delimiter parameter.
	CommonPrefixes []string `json:"common_prefixes,omitempty"`
}

// Routes mounts the object routes on r.
func (h *ObjectHandler) Routes(r chi.Router) {
	r.Get("/buckets/{bucket}", h.List)
	r.Get("/buckets/{bucket}/objects/*", h.Get)
	r.Head("/buckets/{bucket}/objects/*", h.Head)
	r.Put("/buckets/{bucket}/objects/*", h.Put)
	r.Delete("/buckets/{bucket}/objects/*", h.Delete)
}

// Get streams the object content.
func (h *ObjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	bucket, key, ok := objectParams(w, r)
	if !ok {
		return
	}

	obj, err := h.store.Get(r.Context(), bucket, key)
	if err != nil {
		h.fail(w, r, "Get", err)
		return
	}
	if obj == nil {
		h.absent(w, r, "Get", bucket, key)
		return
	}
	defer func() { _ = obj.Close() }()
	h.metrics.ObserveStorage("Get", outcomeOK)

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Content); err != nil {
		h.logger.Warn("Failed to stream object", zap.String("bucket", bucket), zap.String("key", key), zap.Error(err))
	}
}

// Head writes object metadata as headers.
func (h *ObjectHandler) Head(w http.ResponseWriter, r *http.Request) {
	bucket, key, ok := objectParams(w, r)
	if !ok {
		return
	}

	meta, err := h.store.Head(r.Context(), bucket, key)
	if err != nil {
		code, status := classify(err)
		h.metrics.ObserveStorage("Head", code)
		w.WriteHeader(status)
		return
	}
	if meta == nil {
		h.metrics.ObserveStorage("Head", outcomeAbsent)
		w.WriteHeader(http.StatusNotFound)
		return
	}
	h.metrics.ObserveStorage("Head", outcomeOK)

	w.Header().Set("Content-Length", strconv.FormatInt(meta.ContentLength, 10))
	if meta.ContentType != "" {
		w.Header().Set("Content-Type", meta.ContentType)
	}
	w.Header().Set("Last-Modified", meta.LastModified().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
}

// Put stores the request body. The request must carry Content-Length.
func (h *ObjectHandler) Put(w http.ResponseWriter, r *http.Request) {
	bucket, key, ok := objectParams(w, r)
	if !ok {
		return
	}
	if r.ContentLength < 0 {
		middleware.WriteError(w, r, http.StatusLengthRequired, middleware.CodeInvalidArgument, "Content-Length is required")
		return
	}

	opts := provider.PutOptions{
		ContentType:  r.Header.Get("Content-Type"),
		CacheControl: r.Header.Get("Cache-Control"),
		ContentMD5:   r.Header.Get("Content-MD5"),
	}
	if err := h.store.Put(r.Context(), bucket, key, r.Body, r.ContentLength, opts); err != nil {
		h.fail(w, r, "Put", err)
		return
	}
	h.metrics.ObserveStorage("Put", outcomeOK)

	writeJSON(w, http.StatusOK, output.ResultRecord{
		Op:      "put",
		Bucket:  bucket,
		Key:     key,
		Success: true,
		Bytes:   r.ContentLength,
	})
}

// Delete removes the object. A rejected delete is reported as 404.
func (h *ObjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	bucket, key, ok := objectParams(w, r)
	if !ok {
		return
	}

	deleted, err := h.store.Delete(r.Context(), bucket, key)
	if err != nil {
		h.fail(w, r, "Delete", err)
		return
	}
	if !deleted {
		h.absent(w, r, "Delete", bucket, key)
		return
	}
	h.metrics.ObserveStorage("Delete", outcomeOK)
	w.WriteHeader(http.StatusNoContent)
}

// List returns one listing page. Query parameters: prefix, marker,
// delimiter, max-keys.
func (h *ObjectHandler) List(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	q := r.URL.Query()

	opts := provider.ListOptions{
		Prefix:    q.Get("prefix"),
		Marker:    q.Get("marker"),
		Delimiter: q.Get("delimiter"),
	}
	// Listing parameters are sent unencoded.
	for _, v := range []string{opts.Prefix, opts.Marker, opts.Delimiter} {
		if strings.ContainsAny(v, "&=#") {
			middleware.WriteError(w, r, http.StatusBadRequest, middleware.CodeInvalidArgument, "prefix, marker and delimiter must not contain '&', '=' or '#'")
			return
		}
	}
	if raw := q.Get("max-keys"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			middleware.WriteError(w, r, http.StatusBadRequest, middleware.CodeInvalidArgument, "max-keys must be a non-negative integer")
			return
		}
		opts.MaxKeys = n
	}

	start := time.Now()
	listing, err := h.store.List(r.Context(), bucket, opts)
	if err != nil {
		h.fail(w, r, "List", err)
		return
	}
	h.metrics.ObserveStorage("List", outcomeOK)

	resp := ListingResponse{
		Bucket:      listing.BucketName,
		Entries:     make([]output.ObjectRecord, 0, len(listing.Entries)),
		IsTruncated: listing.IsTruncated,
		NextMarker:  listing.NextMarker,

		CommonPrefixes: listing.CommonPrefixes,
	}
	for _, e := range listing.Entries {
		resp.Entries = append(resp.Entries, output.ObjectRecord{Bucket: e.Bucket, Key: e.Key, Size: e.SizeBytes})
	}

	h.logger.Debug("Listing served",
		zap.String("bucket", bucket),
		zap.Int("entries", len(resp.Entries)),
		zap.Duration("duration", time.Since(start)))
	writeJSON(w, http.StatusOK, resp)
}

func (h *ObjectHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.metrics.ObserveStorage(op, output.ErrorCode(err))
	h.logger.Debug("Storage operation failed", zap.String("op", op), zap.Error(err))
	respondWithError(w, r, err)
}

func (h *ObjectHandler) absent(w http.ResponseWriter, r *http.Request, op, bucket, key string) {
	h.metrics.ObserveStorage(op, outcomeAbsent)
	middleware.WriteError(w, r, http.StatusNotFound, middleware.CodeNotFound, "object not found: "+bucket+"/"+key)
}

func objectParams(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	bucket := chi.URLParam(r, "bucket")
	key := chi.URLParam(r, "*")
	if key == "" {
		middleware.WriteError(w, r, http.StatusBadRequest, middleware.CodeInvalidArgument, "object key is required")
		return "", "", false
	}
	return bucket, key, true
}
