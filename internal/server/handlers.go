package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/franckalain/wastedetect/internal/apperr"
	"github.com/franckalain/wastedetect/internal/database"
	"github.com/franckalain/wastedetect/internal/metrics"
	"github.com/franckalain/wastedetect/internal/ml"
	"github.com/franckalain/wastedetect/internal/models"
)

const livenessMessage = "Waste detection API is running"

// ErrStoreNotInitialized is returned by persistence endpoints when no
// document store could be set up at startup.
var ErrStoreNotInitialized = apperr.Errorf(apperr.ConfigurationMissing,
	"Firebase not initialized. Check the service account credentials.")

// uploadFields are the form fields /upload requires besides the file
var uploadFields = []string{"waste_type", "quantity", "location", "date"}

const (
	defaultRecordLimit = 20
	maxRecordLimit     = 100
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, &models.StatusResponse{Status: livenessMessage})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	result, err := s.detect(ctx, r)
	metrics.ObserveRequest("detect", err)
	if err != nil {
		log.Errorf("detect failed: %v", err)
		s.writeDetectError(w, err)
		return
	}

	log.Debugf("Detected %q x%d", result.WasteType, result.Quantity)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) detect(ctx context.Context, r *http.Request) (*models.ClassificationResult, error) {
	if err := s.parseForm(r); err != nil {
		return nil, err
	}
	defer r.MultipartForm.RemoveAll()

	fh, err := formFile(r)
	if err != nil {
		return nil, err
	}

	image, err := readFile(fh)
	if err != nil {
		return nil, err
	}

	return s.model.Classify(ctx, image, fh.Header.Get("Content-Type"))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	id, err := s.upload(ctx, r)
	metrics.ObserveRequest("upload", err)
	if err != nil {
		log.Errorf("upload failed: %v", err)
		s.writeStatusError(w, err)
		return
	}

	log.Infof("Stored waste record %s", id)
	writeJSON(w, http.StatusOK, &models.StatusResponse{
		Status:  "success",
		Message: "Waste record uploaded successfully",
		ID:      id,
	})
}

func (s *Server) upload(ctx context.Context, r *http.Request) (string, error) {
	if err := s.parseForm(r); err != nil {
		return "", err
	}
	defer r.MultipartForm.RemoveAll()

	// every required part is checked before the file or the store is touched
	var missing []string
	for _, field := range uploadFields {
		if strings.TrimSpace(formValue(r, field)) == "" {
			missing = append(missing, field)
		}
	}
	fh, fileErr := formFile(r)
	if fileErr != nil {
		missing = append(missing, "file")
	}
	if len(missing) > 0 {
		return "", apperr.Errorf(apperr.InvalidRequest, "missing required fields: %s", strings.Join(missing, ", "))
	}

	if s.store == nil {
		return "", ErrStoreNotInitialized
	}

	image, err := readFile(fh)
	if err != nil {
		return "", err
	}

	rec := &models.WasteRecord{
		WasteType: formValue(r, "waste_type"),
		Quantity:  formValue(r, "quantity"),
		Location:  formValue(r, "location"),
		Date:      formValue(r, "date"),
		ImageData: database.EncodeDataURI(ml.PickMIME(fh.Header.Get("Content-Type"), image), image),
	}
	return s.store.AddWasteRecord(ctx, rec)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	recs, err := s.records(r)
	metrics.ObserveRequest("records", err)
	if err != nil {
		log.Errorf("records failed: %v", err)
		s.writeStatusError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &models.StatusResponse{
		Status:  "success",
		Records: recs,
	})
}

func (s *Server) records(r *http.Request) ([]*models.WasteRecord, error) {
	q := r.URL.Query()

	limit := defaultRecordLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, apperr.Errorf(apperr.InvalidRequest, "invalid limit %q", v)
		}
		limit = min(n, maxRecordLimit)
	}

	includeImages := false
	if v := q.Get("include_images"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, apperr.Errorf(apperr.InvalidRequest, "invalid include_images %q", v)
		}
		includeImages = b
	}

	if s.store == nil {
		return nil, ErrStoreNotInitialized
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	recs, err := s.store.GetRecentWasteRecords(ctx, limit)
	if err != nil {
		return nil, err
	}
	if !includeImages {
		for _, rec := range recs {
			rec.ImageData = ""
		}
	}
	return recs, nil
}

func (s *Server) parseForm(r *http.Request) error {
	if err := r.ParseMultipartForm(s.opts.MaxMemory); err != nil {
		return apperr.New(apperr.InvalidRequest, fmt.Errorf("invalid multipart form: %w", err))
	}
	return nil
}

func formValue(r *http.Request, key string) string {
	if vs := r.MultipartForm.Value[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func formFile(r *http.Request) (*multipart.FileHeader, error) {
	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		return nil, apperr.New(apperr.InvalidRequest, errors.New("missing required file"))
	}
	return files[0], nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("error reading upload: %w", err)
	}
	return data, nil
}
