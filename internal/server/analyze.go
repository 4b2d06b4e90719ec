package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Sravyatammana-ab/kyc-analyzer/constants"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/common"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/extract"
)

const uploadField = "file"

// handleAnalyze accepts a multipart upload in the "file" field. The filename
// is validated from the part header before any content is read.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := common.LoggerFromContext(ctx, s.logger)
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	mr, err := r.MultipartReader()
	if err != nil {
		logger.Warn("http.analyze.bad_form", "error", err)
		writeDetail(w, http.StatusBadRequest, "Expected a multipart/form-data body with a 'file' field")
		return
	}
	part, err := nextFilePart(mr)
	if err != nil {
		logger.Warn("http.analyze.no_file", "error", err)
		writeDetail(w, http.StatusBadRequest, "file is required")
		return
	}
	defer func() { _ = part.Close() }()

	filename := part.FileName()
	if err := validateUpload(filename); err != nil {
		logger.Warn("http.analyze.rejected", "filename", filename, "error", err)
		writeDetail(w, common.HTTPStatus(err), common.PublicMessage(err))
		return
	}

	path, size, cleanup, err := spillUpload(part, constants.ExtOf(filename))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warn("http.analyze.too_large", "filename", filename, "limit", tooLarge.Limit)
			writeDetail(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File exceeds the %d MB upload limit", s.cfg.MaxUploadBytes>>20))
			return
		}
		logger.Error("http.analyze.spill_failed", "filename", filename, "error", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to read upload")
		return
	}
	defer cleanup()

	logger.Info("http.analyze.start",
		"filename", filename,
		"content_type", part.Header.Get("Content-Type"),
		"bytes", size,
	)

	res, err := s.proc.Process(ctx, extract.Document{
		Name:     filename,
		MIMEHint: part.Header.Get("Content-Type"),
		Path:     path,
	})
	if err != nil {
		status := common.HTTPStatus(err)
		detail := common.PublicMessage(err)
		if status == http.StatusInternalServerError {
			logger.Error("http.analyze.failed", "filename", filename, "error", err)
			detail = "Internal server error"
		}
		writeDetail(w, status, detail)
		return
	}
	s.metrics.ObserveDocument(res.DocumentType)

	logger.Info("http.analyze.done",
		"filename", filename,
		"document_type", res.DocumentType,
		"analysis_error", res.Analysis.Error != "",
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	writeJSON(w, http.StatusOK, res)
}

// nextFilePart advances to the upload field, skipping any other form values.
func nextFilePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		p, err := mr.NextPart()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("no %q field in form", uploadField)
			}
			return nil, err
		}
		if p.FormName() == uploadField {
			return p, nil
		}
		_ = p.Close()
	}
}

func validateUpload(filename string) error {
	return common.NewValidator().
		Field(uploadField, filename,
			common.Required,
			common.MaxLength(255),
			common.OneOf(constants.IsAllowedExt, constants.ExtOf, unsupportedTypeMessage),
		).
		Err()
}

func unsupportedTypeMessage(ext string) string {
	if ext != "" {
		ext = "." + ext
	}
	return fmt.Sprintf("Unsupported file type: %s. Allowed types: %s", ext, strings.Join(constants.AllowedExtList(), ", "))
}

// spillUpload copies the part to a temp file. cleanup removes it.
func spillUpload(src io.Reader, ext string) (path string, size int64, cleanup func(), err error) {
	f, err := os.CreateTemp("", "kyc-upload-*."+ext)
	if err != nil {
		return "", 0, nil, err
	}
	cleanup = func() { _ = os.Remove(f.Name()) }

	size, err = io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		cleanup()
		return "", 0, nil, err
	}
	return f.Name(), size, cleanup, nil
}
