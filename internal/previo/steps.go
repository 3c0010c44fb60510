package previo

import (
	"context"
	"strings"

	"github.com/dharsanguruparan/Previo/internal/apperr"
	"github.com/dharsanguruparan/Previo/internal/model"
	"github.com/dharsanguruparan/Previo/internal/session"
	"github.com/dharsanguruparan/Previo/internal/wizard"
)

// StartInput is the header form.
type StartInput struct {
	Client         string `json:"client"`
	Date           string `json:"date"`
	Entry          string `json:"entry"`
	Supplier       string `json:"supplier"`
	PurchaseOrder  string `json:"purchase_order"`
	TrackingNumber string `json:"tracking_number"`
	Reviewer       string `json:"reviewer"`
}

func (in StartInput) header(today model.Date) (model.ShipmentHeader, error) {
	date, err := model.ParseDate(in.Date)
	if err != nil {
		return model.ShipmentHeader{}, apperr.Validation("La fecha debe tener el formato AAAA-MM-DD")
	}
	if date.IsZero() {
		date = today
	}
	return model.ShipmentHeader{
		Client:         strings.TrimSpace(in.Client),
		Date:           date,
		Entry:          strings.TrimSpace(in.Entry),
		Supplier:       strings.TrimSpace(in.Supplier),
		PurchaseOrder:  strings.TrimSpace(in.PurchaseOrder),
		TrackingNumber: strings.TrimSpace(in.TrackingNumber),
		Reviewer:       strings.TrimSpace(in.Reviewer),
		Status:         model.StatusInProgress,
	}, nil
}

// Start validates the header, creates the previo row for the user's
// organization and opens a session on the packaging step.
func (s *Service) Start(ctx context.Context, userID string, in StartInput) (*session.Session, *wizard.Notice, error) {
	h, err := in.header(model.Today(s.now()))
	if err != nil {
		return nil, nil, err
	}
	if n := wizard.ValidateHeader(h); n != nil {
		s.metrics.RecordNotice("header")
		return nil, n, nil
	}
	orgID, err := s.orgs.OrganizationForUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.previos.Create(ctx, &h, orgID, userID); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("create previo failed")
		return nil, nil, err
	}

	sess := &session.Session{ID: s.newID(), UserID: userID, Step: session.StepPackaging, Header: h}
	sess.Apply(wizard.New(wizard.WithIDGenerator(s.newID)))
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, nil, apperr.Internal("No se pudo abrir la sesión", err)
	}
	s.sessionLog(sess).Info("previo started")
	return sess, nil, nil
}

// PackagingInput is the packaging form. Photos are attached to their slots
// beforehand; the booleans only toggle the gates.
type PackagingInput struct {
	Packages         int     `json:"packages"`
	PackageType      string  `json:"package_type"`
	PackageTypeOther string  `json:"package_type_other"`
	Carrier          string  `json:"carrier"`
	TotalWeight      float64 `json:"total_weight"`
	Location         string  `json:"location"`
	GoodCondition    bool    `json:"good_condition"`
	HasSeals         bool    `json:"has_seals"`
	CertifiedPallet  bool    `json:"certified_pallet"`
}

func (in PackagingInput) packaging(current model.PackagingCondition) model.Packaging {
	cond := current
	cond.GoodCondition.Enabled = in.GoodCondition
	cond.HasSeals.Enabled = in.HasSeals
	cond.CertifiedPallet.Enabled = in.CertifiedPallet
	return model.Packaging{
		Packages:    in.Packages,
		PackageType: model.ResolveChoice(strings.TrimSpace(in.PackageType), strings.TrimSpace(in.PackageTypeOther), model.DefaultOtherPackageType),
		Carrier:     strings.TrimSpace(in.Carrier),
		TotalWeight: in.TotalWeight,
		Location:    strings.TrimSpace(in.Location),
		Condition:   cond,
	}
}

// SubmitPackaging validates the packaging step, merges it into the header,
// updates the previo row and moves the session to the products step.
func (s *Service) SubmitPackaging(ctx context.Context, id string, in PackagingInput) (*session.Session, *wizard.Notice, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	p := in.packaging(sess.Header.Packaging)
	if n := wizard.ValidatePackaging(p); n != nil {
		s.metrics.RecordNotice("packaging")
		return sess, n, nil
	}
	h := sess.Header
	h.Merge(p)
	if err := s.previos.UpdatePackaging(ctx, h); err != nil {
		s.sessionLog(sess).WithError(err).Error("update packaging failed")
		return nil, nil, err
	}
	sess.Header = h
	sess.Step = session.StepProducts
	if err := s.save(ctx, sess); err != nil {
		return nil, nil, err
	}
	s.sessionLog(sess).Info("packaging saved")
	return sess, nil, nil
}

// Abandon drops the session. The previo row stays in progress.
func (s *Service) Abandon(ctx context.Context, id string) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		return apperr.Internal("No se pudo cerrar la sesión", err)
	}
	return nil
}
