package model

import "time"

// OperationType is the wizard operation a photo belongs to.
type OperationType string

const (
	OperationPrevio     OperationType = "previo"
	OperationEmbalaje   OperationType = "embalaje"
	OperationInspeccion OperationType = "inspeccion"
	OperationDespacho   OperationType = "despacho"
)

// OperationTypes lists the accepted operation types.
var OperationTypes = []OperationType{OperationPrevio, OperationEmbalaje, OperationInspeccion, OperationDespacho}

// Valid reports whether t is one of OperationTypes.
func (t OperationType) Valid() bool {
	for _, known := range OperationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// OperationImage is a row in operation_images.
type OperationImage struct {
	ID            string        `json:"id"`
	URL           string        `json:"url"`
	OperationType OperationType `json:"operation_type"`
	OperationID   string        `json:"operation_id"`
	ProductID     *string       `json:"product_id,omitempty"`
	Description   *string       `json:"description,omitempty"`
	FilePath      string        `json:"file_path"`
	CreatedAt     time.Time     `json:"created_at"`
}
