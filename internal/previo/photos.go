package previo

import (
	"context"
	"errors"
	"fmt"

	"github.com/dharsanguruparan/Previo/internal/apperr"
	"github.com/dharsanguruparan/Previo/internal/imageupload"
	"github.com/dharsanguruparan/Previo/internal/model"
	"github.com/dharsanguruparan/Previo/internal/session"
	"github.com/dharsanguruparan/Previo/internal/wizard"
)

// Slot names the form field a photo is attached to.
type Slot string

const (
	SlotGoodCondition   Slot = "packaging"
	SlotSeals           Slot = "seals"
	SlotCertifiedPallet Slot = "pallet"
	SlotProduct         Slot = "product"
	SlotLabel           Slot = "label"
	SlotSerial          Slot = "serial"
)

// ParseSlot validates a slot name from the URL.
func ParseSlot(s string) (Slot, error) {
	switch Slot(s) {
	case SlotGoodCondition, SlotSeals, SlotCertifiedPallet, SlotProduct, SlotLabel, SlotSerial:
		return Slot(s), nil
	}
	return "", apperr.Validation(fmt.Sprintf("ranura de foto desconocida: %s", s))
}

func (sl Slot) packaging() bool {
	return sl == SlotGoodCondition || sl == SlotSeals || sl == SlotCertifiedPallet
}

func (sl Slot) productField() string {
	switch sl {
	case SlotLabel:
		return wizard.FieldLabelPhoto
	case SlotSerial:
		return wizard.FieldSerialPhoto
	default:
		return wizard.FieldProductPhoto
	}
}

func (sl Slot) gate(c *model.PackagingCondition) *model.Gate[model.PhotoRef] {
	switch sl {
	case SlotSeals:
		return &c.HasSeals
	case SlotCertifiedPallet:
		return &c.CertifiedPallet
	default:
		return &c.GoodCondition
	}
}

// current is the URL the slot holds now, or "".
func (sl Slot) current(sess *session.Session, w *wizard.Wizard) string {
	if sl.packaging() {
		return string(sl.gate(&sess.Header.Packaging).Value())
	}
	p := w.Current()
	switch sl {
	case SlotLabel:
		return string(p.Label.Value())
	case SlotSerial:
		return string(p.Serial.Value().Photo)
	default:
		return string(p.ProductPhoto)
	}
}

// bind writes url into the slot, or clears it when url is empty.
func (sl Slot) bind(sess *session.Session, w *wizard.Wizard, url string) error {
	if sl.packaging() {
		g := sl.gate(&sess.Header.Packaging)
		if url == "" {
			g.Clear()
		} else {
			g.Set(model.PhotoRef(url))
		}
		return nil
	}
	if err := w.UpdateProductField(sl.productField(), url); err != nil {
		return err
	}
	sess.Apply(w)
	return nil
}

// AttachPhoto uploads file and binds its public URL to slot. Packaging
// slots belong to the previo, product slots to the active product.
// Files refused before storage leave the session untouched; a failed upload
// or metadata write leaves the slot empty. A replaced photo is deleted.
func (s *Service) AttachPhoto(ctx context.Context, id string, slot Slot, file imageupload.File) (*session.Session, *model.OperationImage, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	previoID := sess.Header.PrevioID()
	if previoID == "" {
		return nil, nil, apperr.Validation("El previo aún no ha sido creado")
	}
	w := sess.Wizard(wizard.WithIDGenerator(s.newID))

	req := imageupload.Request{OperationType: model.OperationEmbalaje, OperationID: previoID, File: file}
	if !slot.packaging() {
		if sess.Step != session.StepProducts {
			return nil, nil, apperr.Validation("Complete primero la información de embalaje")
		}
		productID := w.Current().ID
		req.OperationType = model.OperationPrevio
		req.ProductID = &productID
	}
	desc := string(slot)
	req.Description = &desc
	previous := slot.current(sess, w)
	log := s.sessionLog(sess).WithField("slot", slot)

	img, upErr := s.photos.Upload(ctx, req)
	if errors.Is(upErr, imageupload.ErrRejected) || apperr.IsKind(upErr, apperr.KindValidation) {
		return sess, nil, upErr
	}
	url := ""
	if upErr == nil {
		url = img.URL
	}
	if err := slot.bind(sess, w, url); err != nil {
		return nil, nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, nil, err
	}
	if upErr != nil {
		log.WithError(upErr).Warn("photo upload failed, slot cleared")
		return sess, nil, upErr
	}
	if previous != "" && previous != url {
		if err := s.photos.Delete(ctx, previous); err != nil {
			log.WithError(err).WithField("url", previous).Warn("replaced photo not deleted")
		}
	}
	return sess, img, nil
}
