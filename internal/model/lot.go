package model

import (
	"fmt"
	"strings"
	"time"
)

// LotStore identifies which of the two physical lot stores a lot lives in.
type LotStore int

const (
	StoreGRN   LotStore = iota // lots created by goods receipt
	StoreStock                 // generic stock lots, including slitting output
)

func (s LotStore) String() string {
	switch s {
	case StoreGRN:
		return "grn"
	case StoreStock:
		return "stock"
	default:
		return fmt.Sprintf("LotStore(%d)", int(s))
	}
}

// ParseLotStore converts a store name to a LotStore.
func ParseLotStore(s string) (LotStore, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "grn":
		return StoreGRN, nil
	case "stock":
		return StoreStock, nil
	default:
		return StoreGRN, fmt.Errorf("unknown lot store %q", s)
	}
}

func (s LotStore) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *LotStore) UnmarshalText(b []byte) error {
	v, err := ParseLotStore(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// LotStatus tracks how much of a lot has been issued.
type LotStatus string

const (
	LotAvailable       LotStatus = "Available"
	LotPartiallyIssued LotStatus = "Partially Issued"
	LotConsumed        LotStatus = "Consumed"
)

// Lot is an inventory record with stock on hand. RemainingQty is the
// authoritative mass in kg; LengthM and AreaM2 describe the same material.
type Lot struct {
	ID              string    `json:"id"`
	Store           LotStore  `json:"store"`
	ItemName        string    `json:"item_name"`
	RollMasterID    string    `json:"roll_master_id,omitempty"`
	BatchNo         string    `json:"batch_no"`
	Spec            RollSpec  `json:"spec"`
	ReceivedQty     float64   `json:"received_qty"` // kg at receipt; restore caps here
	RemainingQty    float64   `json:"remaining_qty"`
	ReceivedLengthM float64   `json:"received_length_m"`
	LengthM         float64   `json:"length_m"`
	AreaM2          float64   `json:"area_m2"`
	Status          LotStatus `json:"status"`
	Source          string    `json:"source,omitempty"`     // "grn", "slitting", "adjustment"
	SourceRef       string    `json:"source_ref,omitempty"` // provenance, e.g. the slitting job id
	CreatedAt       time.Time `json:"created_at"`
}

// StatusFor returns the status a lot should carry for its remaining quantity.
func StatusFor(remaining, received float64) LotStatus {
	switch {
	case remaining <= 0:
		return LotConsumed
	case remaining < received:
		return LotPartiallyIssued
	default:
		return LotAvailable
	}
}

// IsSlittingOutput reports whether the lot was created by the given job.
func (l Lot) IsSlittingOutput(jobID string) bool {
	return l.Source == SourceSlitting && l.SourceRef == jobID
}

// Lot provenance values.
const (
	SourceGRN        = "grn"
	SourceSlitting   = "slitting"
	SourceAdjustment = "adjustment"
)
