package api

import (
	"net/http"

	"github.com/dharsanguruparan/Previo/internal/imageupload"
	"github.com/dharsanguruparan/Previo/internal/previo"
)

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var in previo.StartInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	sess, notice, err := s.svc.Start(r.Context(), uid, in)
	switch {
	case err != nil:
		s.respondError(w, r, err)
	case notice != nil:
		respondNotice(w, notice, nil)
	default:
		respondJSON(w, http.StatusCreated, sess)
	}
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.Session(r.Context(), r.PathValue("id"))
	s.respondStep(w, r, sess, nil, err)
}

func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Abandon(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePackaging(w http.ResponseWriter, r *http.Request) {
	var in previo.PackagingInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	sess, notice, err := s.svc.SubmitPackaging(r.Context(), r.PathValue("id"), in)
	s.respondStep(w, r, sess, notice, err)
}

func (s *Server) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.AddProduct(r.Context(), r.PathValue("id"))
	s.respondStep(w, r, sess, nil, err)
}

func (s *Server) handleRemoveProduct(w http.ResponseWriter, r *http.Request) {
	index, err := pathInt(r, "index")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	sess, notice, err := s.svc.RemoveProduct(r.Context(), r.PathValue("id"), index)
	s.respondStep(w, r, sess, notice, err)
}

type fieldUpdate struct {
	Field string `json:"field" validate:"required"`
	Value any    `json:"value"`
}

func (s *Server) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	var in fieldUpdate
	if err := s.decodeValid(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	sess, err := s.svc.UpdateProductField(r.Context(), r.PathValue("id"), in.Field, in.Value)
	s.respondStep(w, r, sess, nil, err)
}

type indexUpdate struct {
	Index *int `json:"index" validate:"required"`
}

func (s *Server) handleSetIndex(w http.ResponseWriter, r *http.Request) {
	var in indexUpdate
	if err := s.decodeValid(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	sess, err := s.svc.SetCurrentProductIndex(r.Context(), r.PathValue("id"), *in.Index)
	s.respondStep(w, r, sess, nil, err)
}

func (s *Server) handleValidateProducts(w http.ResponseWriter, r *http.Request) {
	sess, notice, err := s.svc.ValidateProducts(r.Context(), r.PathValue("id"))
	s.respondStep(w, r, sess, notice, err)
}

func (s *Server) handleAttachPhoto(w http.ResponseWriter, r *http.Request) {
	slot, err := previo.ParseSlot(r.PathValue("slot"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	file, _, err := readFile(w, r, s.images.Policy().MaxBytes)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	sess, img, err := s.svc.AttachPhoto(r.Context(), r.PathValue("id"), slot, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	body := map[string]any{"session": sess, "image": img}
	if r.URL.Query().Get("preview") == "true" {
		body["preview"] = imageupload.Preview(file)
	}
	respondJSON(w, http.StatusCreated, body)
}

func (s *Server) handleSaveForLater(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.SaveForLater(r.Context(), r.PathValue("id"))
	s.respondStep(w, r, sess, nil, err)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.ResumeSaved(r.Context(), r.PathValue("id"))
	s.respondStep(w, r, sess, nil, err)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	out, sess, notice, err := s.svc.Complete(r.Context(), r.PathValue("id"))
	switch {
	case err != nil:
		s.respondError(w, r, err)
	case notice != nil:
		respondNotice(w, notice, sess)
	default:
		respondJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleSessionReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.svc.SessionReport(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondPDF(w, rep.Filename, rep.Data, false)
}

func (s *Server) handleSessionPreview(w http.ResponseWriter, r *http.Request) {
	uri, err := s.svc.SessionPreview(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"data_url": uri})
}
