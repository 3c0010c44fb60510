package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/dharsanguruparan/Previo/internal/apperr"
	"github.com/dharsanguruparan/Previo/internal/session"
	"github.com/dharsanguruparan/Previo/internal/wizard"
)

const maxJSONBody = 1 << 20

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type noticeBody struct {
	*wizard.Notice
	ActiveIndex *int `json:"active_index,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.WithError(err).Warn("encode response")
	}
}

// respondError converts any failure into {"code","message"}. Internal
// causes are logged, never sent.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.As(err)
	status := e.Status()
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).Error("request failed")
	}
	respondJSON(w, status, errorBody{Code: string(e.Kind), Message: e.Message})
}

// respondNotice writes a 422 carrying the notice and, for session steps,
// the active product index.
func respondNotice(w http.ResponseWriter, n *wizard.Notice, sess *session.Session) {
	body := noticeBody{Notice: n}
	if sess != nil {
		idx := sess.ActiveIndex
		body.ActiveIndex = &idx
	}
	respondJSON(w, http.StatusUnprocessableEntity, body)
}

// respondStep writes the session, or the notice when the step was refused.
func (s *Server) respondStep(w http.ResponseWriter, r *http.Request, sess *session.Session, n *wizard.Notice, err error) {
	switch {
	case err != nil:
		s.respondError(w, r, err)
	case n != nil:
		respondNotice(w, n, sess)
	default:
		respondJSON(w, http.StatusOK, sess)
	}
}

func respondPDF(w http.ResponseWriter, filename string, data []byte, inline bool) {
	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("El cuerpo de la solicitud está vacío")
		}
		return apperr.Validation("JSON inválido: " + err.Error())
	}
	return nil
}

// decodeValid decodes dst and checks its validate tags.
func (s *Server) decodeValid(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := decodeJSON(w, r, dst); err != nil {
		return err
	}
	if err := wizard.Validator().Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperr.Validation(fmt.Sprintf("%s es requerido", verrs[0].Field()))
		}
		return apperr.Validation(err.Error())
	}
	return nil
}

func pathInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		return 0, apperr.Validation(fmt.Sprintf("%s debe ser un número entero", name))
	}
	return v, nil
}

// userID reads the caller identity set by the upstream auth proxy.
func userID(r *http.Request) (string, error) {
	id := r.Header.Get("X-User-ID")
	if id == "" {
		return "", apperr.Unauthorized("Usuario no autenticado")
	}
	return id, nil
}
