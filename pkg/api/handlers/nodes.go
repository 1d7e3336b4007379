package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/marmos91/servr/internal/bytesize"
	"github.com/marmos91/servr/pkg/api/problem"
	"github.com/marmos91/servr/pkg/metadata"
	"github.com/marmos91/servr/pkg/storage"
)

// multipartMemory is the part of a multipart form kept in memory. Larger
// files are spooled to temporary files by net/http.
const multipartMemory = 8 * bytesize.MiB

// multipartOverhead allows for the form boundaries and the parent_id field on
// top of the file itself.
const multipartOverhead = 1 * bytesize.MiB

// StorageService is the part of storage.Service the node endpoints use.
type StorageService interface {
	ProvisionContainer(ctx context.Context, ownerID uuid.UUID) (string, error)
	Upload(ctx context.Context, req storage.UploadRequest) (*metadata.Node, error)
	CreateFolder(ctx context.Context, ownerID uuid.UUID, name string, parentID *uuid.UUID) (*metadata.Node, error)
	Delete(ctx context.Context, ownerID, nodeID uuid.UUID) (*metadata.Node, error)
	Rename(ctx context.Context, ownerID, nodeID uuid.UUID, newName string) error
	List(ctx context.Context, ownerID uuid.UUID) ([]*metadata.Node, error)
	Quota(ctx context.Context, ownerID uuid.UUID) (*storage.QuotaReport, error)
}

// NodeHandler handles the file tree endpoints.
type NodeHandler struct {
	storage       StorageService
	maxUploadSize int64
}

// NewNodeHandler creates a NodeHandler accepting uploads of at most
// maxUploadSize bytes.
func NewNodeHandler(storage StorageService, maxUploadSize bytesize.ByteSize) *NodeHandler {
	return &NodeHandler{storage: storage, maxUploadSize: maxUploadSize.Int64()}
}

// CreateFolderRequest is the request body for POST /api/v1/folders.
type CreateFolderRequest struct {
	Name     string `json:"name" validate:"required"`
	ParentID string `json:"parent_id,omitempty" validate:"omitempty,uuid"`
}

// RenameRequest is the request body for PATCH /api/v1/nodes/{id}.
type RenameRequest struct {
	Name string `json:"name" validate:"required"`
}

// ContainerResponse is returned by POST /api/v1/container.
type ContainerResponse struct {
	Container string `json:"container"`
}

// ListResponse is returned by GET /api/v1/nodes.
type ListResponse struct {
	Nodes []*metadata.Node `json:"nodes"`
}

// ProvisionContainer handles POST /api/v1/container.
func (h *NodeHandler) ProvisionContainer(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	container, err := h.storage.ProvisionContainer(r.Context(), owner)
	if err != nil {
		problem.Error(w, r, err)
		return
	}
	WriteJSONCreated(w, ContainerResponse{Container: container})
}

// List handles GET /api/v1/nodes.
func (h *NodeHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	nodes, err := h.storage.List(r.Context(), owner)
	if err != nil {
		problem.Error(w, r, err)
		return
	}
	WriteJSONOK(w, ListResponse{Nodes: nodes})
}

// CreateFolder handles POST /api/v1/folders.
func (h *NodeHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req CreateFolderRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	parentID, err := parseOptionalID(req.ParentID)
	if err != nil {
		problem.BadRequest(w, "parent_id must be a UUID")
		return
	}

	folder, err := h.storage.CreateFolder(r.Context(), owner, req.Name, parentID)
	if err != nil {
		problem.Error(w, r, err)
		return
	}
	WriteJSONCreated(w, folder)
}

// Upload handles POST /api/v1/files, a multipart form with a "file" part and
// an optional "parent_id" field.
func (h *NodeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartOverhead.Int64())
	if err := r.ParseMultipartForm(multipartMemory.Int64()); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.tooLarge(w)
			return
		}
		problem.BadRequest(w, "Invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		problem.BadRequest(w, "Missing file part")
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > h.maxUploadSize {
		h.tooLarge(w)
		return
	}

	parentID, err := parseOptionalID(r.FormValue("parent_id"))
	if err != nil {
		problem.BadRequest(w, "parent_id must be a UUID")
		return
	}

	node, err := h.storage.Upload(r.Context(), storage.UploadRequest{
		OwnerID:     owner,
		ParentID:    parentID,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		problem.Error(w, r, err)
		return
	}
	WriteJSONCreated(w, node)
}

// Rename handles PATCH /api/v1/nodes/{id}.
func (h *NodeHandler) Rename(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	id, ok := nodeID(w, r)
	if !ok {
		return
	}

	var req RenameRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := h.storage.Rename(r.Context(), owner, id, req.Name); err != nil {
		problem.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/v1/nodes/{id}.
func (h *NodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	id, ok := nodeID(w, r)
	if !ok {
		return
	}

	deleted, err := h.storage.Delete(r.Context(), owner, id)
	if err != nil {
		problem.Error(w, r, err)
		return
	}
	WriteJSONOK(w, deleted)
}

// Quota handles GET /api/v1/quota.
func (h *NodeHandler) Quota(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	report, err := h.storage.Quota(r.Context(), owner)
	if err != nil {
		problem.Error(w, r, err)
		return
	}
	WriteJSONOK(w, report)
}

func (h *NodeHandler) tooLarge(w http.ResponseWriter) {
	problem.TooLarge(w, "file exceeds the maximum upload size of "+bytesize.ByteSize(h.maxUploadSize).String())
}

func nodeID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		problem.BadRequest(w, "node id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
