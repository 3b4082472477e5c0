package handler_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/smartmenu/api/internal/handler"
)

func setupUploadRouter(dir string) *chi.Mux {
	h := handler.NewUploadHandler(dir)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUpload_Valid(t *testing.T) {
	dir := t.TempDir()
	router := setupUploadRouter(dir)

	body, contentType := multipartBody(t, "file", "pho.jpg", []byte("fake image bytes"))
	req := httptest.NewRequest("POST", "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	url, _ := resp["url"].(string)
	if !strings.HasPrefix(url, "/uploads/") || !strings.HasSuffix(url, ".jpg") {
		t.Fatalf("url: got %q", url)
	}

	// File must exist on disk with the uploaded content.
	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/uploads/")))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "fake image bytes" {
		t.Errorf("stored content: got %q", data)
	}
}

func TestUpload_UnsupportedType(t *testing.T) {
	router := setupUploadRouter(t.TempDir())

	body, contentType := multipartBody(t, "file", "script.sh", []byte("#!/bin/sh"))
	req := httptest.NewRequest("POST", "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestUpload_MissingFile(t *testing.T) {
	router := setupUploadRouter(t.TempDir())

	body, contentType := multipartBody(t, "other", "pho.jpg", []byte("x"))
	req := httptest.NewRequest("POST", "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
