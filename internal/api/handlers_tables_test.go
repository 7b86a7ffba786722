// handlers_tables_test.go - Tests for table file handlers
package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/zigzag-timetable/backend/internal/models"
	"github.com/zigzag-timetable/backend/internal/testutil"
)

func multipartTable(t *testing.T, kind, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if kind != "" {
		if err := w.WriteField("kind", kind); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte(content))
	}
	w.Close()
	return &body, w.FormDataContentType()
}

func TestTableHandler_HandleUploadTable(t *testing.T) {
	tests := []struct {
		name       string
		kind       string
		filename   string
		wantStatus int
		errCode    string
	}{
		{name: "valid trips upload", kind: "trips", filename: "trips.csv", wantStatus: http.StatusCreated},
		{name: "kind is case-insensitive", kind: "Stations", filename: "stations.csv", wantStatus: http.StatusCreated},
		{name: "missing kind", kind: "", filename: "trips.csv", wantStatus: http.StatusBadRequest, errCode: "VALIDATION_ERROR"},
		{name: "unknown kind", kind: "routes", filename: "trips.csv", wantStatus: http.StatusBadRequest, errCode: "VALIDATION_ERROR"},
		{name: "missing file", kind: "trips", filename: "", wantStatus: http.StatusBadRequest, errCode: "BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewMockStorage()
			handler := NewTableHandler(store)

			e := echo.New()
			body, contentType := multipartTable(t, tt.kind, tt.filename, "from,to,depart,arrive\n")
			req := httptest.NewRequest(http.MethodPost, "/api/tables/upload", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := handler.HandleUploadTable(c)

			if tt.errCode != "" {
				apiErr, ok := err.(*APIError)
				if !ok {
					t.Fatalf("expected APIError, got %T (%v)", err, err)
				}
				if apiErr.Status != tt.wantStatus {
					t.Errorf("expected status %d, got %d", tt.wantStatus, apiErr.Status)
				}
				if apiErr.Code != tt.errCode {
					t.Errorf("expected error code %s, got %s", tt.errCode, apiErr.Code)
				}
				if store.GetFileCount() != 0 {
					t.Error("expected nothing stored on error")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			var info models.FileInfo
			if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if info.Name != tt.filename {
				t.Errorf("expected name %s, got %s", tt.filename, info.Name)
			}
			if string(info.Kind) != strings.ToLower(tt.kind) {
				t.Errorf("expected kind %s, got %s", strings.ToLower(tt.kind), info.Kind)
			}
		})
	}
}

func TestTableHandler_HandlePasteTable(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantName string
		errCode  string
	}{
		{name: "named paste", body: `{"name":"clip","kind":"trips","content":"from\tto\n"}`, wantName: "clip"},
		{name: "default name", body: `{"kind":"stations","content":"name,y\n"}`, wantName: "pasted-stations"},
		{name: "blank content", body: `{"kind":"trips","content":"   "}`, errCode: "VALIDATION_ERROR"},
		{name: "bad kind", body: `{"kind":"x","content":"a"}`, errCode: "VALIDATION_ERROR"},
		{name: "bad json", body: `{`, errCode: "BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewMockStorage()
			handler := NewTableHandler(store)

			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/tables/paste", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			err := handler.HandlePasteTable(e.NewContext(req, rec))

			if tt.errCode != "" {
				apiErr, ok := err.(*APIError)
				if !ok || apiErr.Code != tt.errCode {
					t.Fatalf("expected %s, got %v", tt.errCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var info models.FileInfo
			json.Unmarshal(rec.Body.Bytes(), &info)
			if info.Name != tt.wantName {
				t.Errorf("expected name %s, got %s", tt.wantName, info.Name)
			}
		})
	}
}

func TestTableHandler_HandleGetRecentTables(t *testing.T) {
	store := testutil.NewMockStorage()
	store.AddFile("s1", "stations.csv", models.TableKindStations, []byte("x"))
	store.AddFile("t1", "trips.csv", models.TableKindTrips, []byte("x"))
	store.AddFile("t2", "more.csv", models.TableKindTrips, []byte("x"))
	handler := NewTableHandler(store)

	tests := []struct {
		query     string
		wantCount int
		wantErr   bool
	}{
		{"", 3, false},
		{"?kind=trips", 2, false},
		{"?kind=stations", 1, false},
		{"?kind=bogus", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/tables/recent"+tt.query, nil)
			rec := httptest.NewRecorder()

			err := handler.HandleGetRecentTables(e.NewContext(req, rec))
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var files []models.FileInfo
			json.Unmarshal(rec.Body.Bytes(), &files)
			if len(files) != tt.wantCount {
				t.Errorf("expected %d files, got %d", tt.wantCount, len(files))
			}
		})
	}
}

func TestTableHandler_GetRenameDelete(t *testing.T) {
	store := testutil.NewMockStorage()
	store.AddFile("t1", "trips.csv", models.TableKindTrips, []byte("x"))
	handler := NewTableHandler(store)
	e := echo.New()

	call := func(method, id, body string, fn func(echo.Context) error) (*httptest.ResponseRecorder, error) {
		req := httptest.NewRequest(method, "/api/tables/"+id, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(id)
		return rec, fn(c)
	}

	if _, err := call(http.MethodGet, "t1", "", handler.HandleGetTable); err != nil {
		t.Fatalf("get failed: %v", err)
	}

	rec, err := call(http.MethodPut, "t1", `{"name":"weekday.csv"}`, handler.HandleRenameTable)
	if err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "weekday.csv") {
		t.Errorf("expected renamed file in response, got %s", rec.Body.String())
	}

	if _, err := call(http.MethodPut, "t1", `{"name":" "}`, handler.HandleRenameTable); err == nil {
		t.Error("expected validation error for blank name")
	}

	rec, err = call(http.MethodDelete, "t1", "", handler.HandleDeleteTable)
	if err != nil || rec.Code != http.StatusNoContent {
		t.Fatalf("delete failed: %v (status %d)", err, rec.Code)
	}

	_, err = call(http.MethodGet, "t1", "", handler.HandleGetTable)
	apiErr, ok := err.(*APIError)
	if !ok || apiErr.Status != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %v", err)
	}
}
