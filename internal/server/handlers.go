package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/reasm-dev/reasm/internal/analysis"
	"github.com/reasm-dev/reasm/internal/pipeline"
)

const (
	formFile = "file"
	formJD   = "jd"

	multipartMemory = 8 << 20
)

type analyzeRequest struct {
	Document       []byte `form:"file" validate:"required,min=1"`
	JobDescription string `form:"jd" validate:"required"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("form")
	})
	return v
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	requestID := RequestIDFrom(r.Context())
	log := s.logger.With(zap.String("request_id", requestID))

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: errorDetail{
				Kind:    "too_large",
				Message: "upload exceeds the size limit",
			}})
			return
		}
		s.writeError(w, log, &analysis.EmptyInputError{Field: "request", Message: "expected a multipart form with a resume file and a jd field"})
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	req := analyzeRequest{JobDescription: strings.TrimSpace(r.FormValue(formJD))}
	file, _, err := r.FormFile(formFile)
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		s.writeError(w, log, &analysis.EmptyInputError{Field: "resume", Message: "could not read the uploaded file"})
		return
	default:
		data, readErr := io.ReadAll(file)
		_ = file.Close()
		if readErr != nil {
			s.writeError(w, log, &analysis.EmptyInputError{Field: "resume", Message: "could not read the uploaded file"})
			return
		}
		req.Document = data
	}

	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, log, validationError(err))
		return
	}

	report, err := s.analyzer.Run(r.Context(), pipeline.Input{
		RequestID:      requestID,
		Document:       req.Document,
		JobDescription: req.JobDescription,
	})
	if err != nil {
		s.writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]string{"status": "ok"}
	for k, v := range s.cfg.Info {
		if k != "status" {
			body[k] = v
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	status := HTTPStatus(err)
	kind := analysis.KindOf(err)

	if status >= http.StatusInternalServerError {
		log.Error("analysis failed", zap.Int("status", status), zap.String("kind", kind.String()), zap.Error(err))
	} else {
		log.Info("analysis rejected", zap.Int("status", status), zap.String("kind", kind.String()), zap.Error(err))
	}

	if after := RetryAfter(err); after != "" {
		w.Header().Set("Retry-After", after)
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Kind: kind.String(), Message: PublicMessage(err)}})
}

// validationError turns the first failed field into an EmptyInputError.
func validationError(err error) error {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return &analysis.EmptyInputError{Field: "request", Message: err.Error()}
	}

	switch fields[0].Field() {
	case formFile:
		return &analysis.EmptyInputError{Field: "resume", Message: "upload a resume document in the \"file\" field"}
	case formJD:
		return &analysis.EmptyInputError{Field: "job_description", Message: "provide the job description in the \"jd\" field"}
	default:
		return &analysis.EmptyInputError{Field: fields[0].Field(), Message: fields[0].Tag()}
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
