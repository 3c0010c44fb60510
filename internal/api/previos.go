package api

import (
	"net/http"
	"strconv"

	"github.com/dharsanguruparan/Previo/internal/model"
	"github.com/dharsanguruparan/Previo/internal/previo"
	"github.com/dharsanguruparan/Previo/internal/repository"
)

func (s *Server) handleListPrevios(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	list, err := s.svc.List(r.Context(), uid, previo.ListInput{Status: q.Get("status"), Search: q.Get("q"), Limit: limit})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if list == nil {
		list = []repository.PrevioSummary{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handlePrevioDetails(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Details(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleProductDetails(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.ProductDetails(r.Context(), r.PathValue("id"), r.PathValue("productID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if d.Images == nil {
		d.Images = []model.OperationImage{}
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handlePrevioReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.svc.PrevioReport(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondPDF(w, rep.Filename, rep.Data, false)
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	link, err := s.svc.Share(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, link)
}

func (s *Server) handleSharedReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.svc.SharedReport(r.Context(), r.URL.Query())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondPDF(w, rep.Filename, rep.Data, true)
}

func (s *Server) handleReportStatus(w http.ResponseWriter, r *http.Request) {
	rep, err := s.svc.Report(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rep)
}
