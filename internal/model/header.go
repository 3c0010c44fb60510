// Package model holds the records that travel through the wizard, the
// persistence layer and the report generator.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle of a previo row.
type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// DateLayout is the calendar date format used on the wire and in the report.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time of day.
type Date struct {
	time.Time
}

// Today returns the calendar date of now.
func Today(now time.Time) Date {
	y, m, d := now.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD. The empty string yields the zero date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// PackagingCondition records the physical state of the shipment's packaging.
// Each condition, when true, needs one photo.
type PackagingCondition struct {
	GoodCondition   Gate[PhotoRef] `json:"good_condition"`
	HasSeals        Gate[PhotoRef] `json:"has_seals"`
	CertifiedPallet Gate[PhotoRef] `json:"certified_pallet"`
}

// ShipmentHeader is the shipment-level data collected by the header and
// packaging steps.
type ShipmentHeader struct {
	ID             *string            `json:"id,omitempty"`
	Client         string             `json:"client" validate:"required"`
	Date           Date               `json:"date"`
	Entry          string             `json:"entry" validate:"required"`
	Supplier       string             `json:"supplier" validate:"required"`
	PurchaseOrder  string             `json:"purchase_order"`
	TrackingNumber string             `json:"tracking_number"`
	Packages       int                `json:"packages"`
	PackageType    string             `json:"package_type"`
	Carrier        string             `json:"carrier"`
	TotalWeight    float64            `json:"total_weight"`
	Location       string             `json:"location"`
	Reviewer       string             `json:"reviewer,omitempty"`
	Status         Status             `json:"status"`
	Packaging      PackagingCondition `json:"packaging"`
}

// Submittable reports whether the required identity fields are filled.
func (h ShipmentHeader) Submittable() bool {
	return strings.TrimSpace(h.Client) != "" &&
		strings.TrimSpace(h.Entry) != "" &&
		strings.TrimSpace(h.Supplier) != ""
}

// PrevioID returns the persisted ID or "".
func (h ShipmentHeader) PrevioID() string {
	if h.ID == nil {
		return ""
	}
	return *h.ID
}

// Packaging is the packaging step input merged into the header on success.
type Packaging struct {
	Packages    int                `json:"packages"`
	PackageType string             `json:"package_type"`
	Carrier     string             `json:"carrier"`
	TotalWeight float64            `json:"total_weight"`
	Location    string             `json:"location"`
	Condition   PackagingCondition `json:"condition"`
}

// Merge copies the packaging fields into h.
func (h *ShipmentHeader) Merge(p Packaging) {
	h.Packages = p.Packages
	h.PackageType = p.PackageType
	h.Carrier = p.Carrier
	h.TotalWeight = p.TotalWeight
	h.Location = p.Location
	h.Packaging = p.Condition
}
