package api

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dharsanguruparan/Previo/internal/apperr"
	"github.com/dharsanguruparan/Previo/internal/imageupload"
	"github.com/dharsanguruparan/Previo/internal/model"
)

const (
	multipartMemory = 8 << 20
	multipartSlack  = 1 << 20
)

// readFile reads the "file" part of a multipart request into memory. At
// most limit+1 bytes are kept so the size check still reports oversized files.
func readFile(w http.ResponseWriter, r *http.Request, limit int64) (imageupload.File, url.Values, error) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*limit+multipartSlack)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return imageupload.File{}, nil, apperr.Upload(imageupload.MsgTooLarge, err)
		}
		return imageupload.File{}, nil, apperr.Validation("Se esperaba un formulario multipart")
	}
	defer r.MultipartForm.RemoveAll()

	part, hdr, err := r.FormFile("file")
	if err != nil {
		return imageupload.File{}, nil, apperr.Validation("No se proporcionó ningún archivo")
	}
	defer part.Close()
	data, err := io.ReadAll(io.LimitReader(part, limit+1))
	if err != nil {
		return imageupload.File{}, nil, apperr.Upload("No se pudo leer el archivo", err)
	}
	if len(data) == 0 {
		return imageupload.File{}, nil, apperr.Validation("El archivo está vacío")
	}
	ct := hdr.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	return imageupload.File{Name: hdr.Filename, ContentType: ct, Data: data}, r.MultipartForm.Value, nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func (s *Server) handleImageUpload(w http.ResponseWriter, r *http.Request) {
	file, form, err := readFile(w, r, s.images.Policy().MaxBytes)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	img, err := s.images.Upload(r.Context(), imageupload.Request{
		OperationType: model.OperationType(form.Get("operation_type")),
		OperationID:   form.Get("operation_id"),
		ProductID:     optional(form.Get("product_id")),
		Description:   optional(form.Get("description")),
		File:          file,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, img)
}

func (s *Server) handleImageList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("operation_id") == "" {
		s.respondError(w, r, apperr.Validation("operation_id es requerido"))
		return
	}
	op := model.OperationType(q.Get("operation_type"))
	if q.Get("source") == "storage" {
		if !op.Valid() {
			s.respondError(w, r, apperr.Validation("operation_type no válido"))
			return
		}
		keys, err := s.images.ListObjects(r.Context(), op, q.Get("operation_id"), optional(q.Get("product_id")))
		if err != nil {
			s.respondError(w, r, apperr.Upload("No se pudo listar el almacenamiento", err))
			return
		}
		if keys == nil {
			keys = []string{}
		}
		respondJSON(w, http.StatusOK, map[string]any{"keys": keys})
		return
	}
	images, err := s.images.List(r.Context(), op, q.Get("operation_id"), optional(q.Get("product_id")))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if images == nil {
		images = []model.OperationImage{}
	}
	respondJSON(w, http.StatusOK, images)
}

func (s *Server) handleImageDelete(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		s.respondError(w, r, apperr.Validation("url es requerido"))
		return
	}
	if err := s.images.Delete(r.Context(), target); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
