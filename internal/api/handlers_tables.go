// handlers_tables.go - Table file upload and management handlers
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/zigzag-timetable/backend/internal/models"
	"github.com/zigzag-timetable/backend/internal/storage"
)

const recentTablesLimit = 50

// TableHandlerImpl implements the TableHandler interface
type TableHandlerImpl struct {
	store storage.Store
}

// NewTableHandler creates a new table handler instance
func NewTableHandler(store storage.Store) TableHandler {
	return &TableHandlerImpl{store: store}
}

// HandleUploadTable accepts a table file as multipart/form-data
func (h *TableHandlerImpl) HandleUploadTable(c echo.Context) error {
	kind := models.TableKind(strings.ToLower(c.FormValue("kind")))
	if !kind.Valid() {
		return NewValidationError("kind")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	info, err := h.store.Save(file.Filename, kind, src)
	if err != nil {
		return NewBadRequestError("failed to save file", err)
	}

	logger.Infof("stored %s table %q (%d bytes)", kind, info.Name, info.Size)
	return c.JSON(http.StatusCreated, info)
}

// HandlePasteTable stores table text pasted from a spreadsheet or clipboard
func (h *TableHandlerImpl) HandlePasteTable(c echo.Context) error {
	var req pasteTableRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	if err := req.validate(); err != nil {
		return err
	}

	info, err := h.store.SaveBytes(req.Name, req.Kind, []byte(req.Content))
	if err != nil {
		return NewBadRequestError("failed to save table", err)
	}

	return c.JSON(http.StatusCreated, info)
}

// HandleGetRecentTables returns recently stored tables, optionally of one kind
func (h *TableHandlerImpl) HandleGetRecentTables(c echo.Context) error {
	files, err := h.store.List(0)
	if err != nil {
		return NewInternalError("failed to list files", err)
	}

	kind := models.TableKind(strings.ToLower(c.QueryParam("kind")))
	if kind != "" && !kind.Valid() {
		return NewValidationError("kind")
	}

	out := make([]*models.FileInfo, 0, len(files))
	for _, f := range files {
		if kind == "" || f.Kind == kind {
			out = append(out, f)
		}
		if len(out) == recentTablesLimit {
			break
		}
	}

	return c.JSON(http.StatusOK, out)
}

// HandleGetTable returns metadata for a specific table
func (h *TableHandlerImpl) HandleGetTable(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	info, err := h.store.Get(id)
	if err != nil {
		return storeError(err, id)
	}

	return c.JSON(http.StatusOK, info)
}

// HandleDeleteTable deletes a stored table
func (h *TableHandlerImpl) HandleDeleteTable(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	if err := h.store.Delete(id); err != nil {
		return storeError(err, id)
	}

	return c.NoContent(http.StatusNoContent)
}

// HandleRenameTable updates the display name of a table
func (h *TableHandlerImpl) HandleRenameTable(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	var req renameTableRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	if strings.TrimSpace(req.Name) == "" {
		return NewValidationError("name")
	}

	info, err := h.store.Rename(id, req.Name)
	if err != nil {
		return storeError(err, id)
	}

	return c.JSON(http.StatusOK, info)
}

// storeError maps storage failures onto API errors.
func storeError(err error, id string) *APIError {
	if errors.Is(err, storage.ErrNotFound) {
		return NewNotFoundError("table", id)
	}
	return NewInternalError("storage failure", err)
}

// Request/Response types

type pasteTableRequest struct {
	Name    string           `json:"name"`
	Kind    models.TableKind `json:"kind"`
	Content string           `json:"content"`
}

func (r *pasteTableRequest) validate() error {
	r.Kind = models.TableKind(strings.ToLower(string(r.Kind)))
	if !r.Kind.Valid() {
		return NewValidationError("kind")
	}
	if strings.TrimSpace(r.Content) == "" {
		return NewValidationError("content")
	}
	if r.Name == "" {
		r.Name = fmt.Sprintf("pasted-%s", r.Kind)
	}
	return nil
}

type renameTableRequest struct {
	Name string `json:"name"`
}
