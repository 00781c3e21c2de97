package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type PartyInfo struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address,omitempty"`
	TIN     string `json:"tin,omitempty"`
	BRN     string `json:"brn,omitempty"`
}

type FreightMode string

const (
	FreightSea FreightMode = "sea"
	FreightAir FreightMode = "air"
)

// Freight is the mode-specific part of a shipment. Implementations are
// SeaFreight and AirFreight only.
type Freight interface {
	Mode() FreightMode
	validate() error
}

type SeaFreight struct {
	BLNumber    string `json:"bl_number"`
	VesselName  string `json:"vessel_name"`
	VoyageNo    string `json:"voyage_no"`
	RegistryNo  string `json:"registry_no"`
	ContainerNo string `json:"container_no,omitempty"`
}

func (SeaFreight) Mode() FreightMode { return FreightSea }

func (s SeaFreight) validate() error {
	if s.BLNumber == "" {
		return fmt.Errorf("%w: sea freight requires bl_number", ErrValidation)
	}
	return nil
}

type AirFreight struct {
	AWBNumber    string `json:"awb_number"`
	AircraftName string `json:"aircraft_name"`
	FlightNo     string `json:"flight_no"`
}

func (AirFreight) Mode() FreightMode { return FreightAir }

func (a AirFreight) validate() error {
	if a.AWBNumber == "" {
		return fmt.Errorf("%w: air freight requires awb_number", ErrValidation)
	}
	return nil
}

type ShipmentDetails struct {
	Freight            Freight
	PortOfOrigin       string
	PortOfDischarge    string
	ETA                string
	ATA                string
	DescriptionOfGoods string
	Volume             string
	TermsOfDelivery    string
}

type shipmentDetailsJSON struct {
	Mode               FreightMode     `json:"mode"`
	Freight            json.RawMessage `json:"freight"`
	PortOfOrigin       string          `json:"port_of_origin,omitempty"`
	PortOfDischarge    string          `json:"port_of_discharge,omitempty"`
	ETA                string          `json:"eta,omitempty"`
	ATA                string          `json:"ata,omitempty"`
	DescriptionOfGoods string          `json:"description_of_goods,omitempty"`
	Volume             string          `json:"volume,omitempty"`
	TermsOfDelivery    string          `json:"terms_of_delivery,omitempty"`
}

func (d ShipmentDetails) MarshalJSON() ([]byte, error) {
	out := shipmentDetailsJSON{
		PortOfOrigin:       d.PortOfOrigin,
		PortOfDischarge:    d.PortOfDischarge,
		ETA:                d.ETA,
		ATA:                d.ATA,
		DescriptionOfGoods: d.DescriptionOfGoods,
		Volume:             d.Volume,
		TermsOfDelivery:    d.TermsOfDelivery,
	}
	if d.Freight != nil {
		raw, err := json.Marshal(d.Freight)
		if err != nil {
			return nil, err
		}
		out.Mode = d.Freight.Mode()
		out.Freight = raw
	}
	return json.Marshal(out)
}

func (d *ShipmentDetails) UnmarshalJSON(data []byte) error {
	var in shipmentDetailsJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*d = ShipmentDetails{
		PortOfOrigin:       in.PortOfOrigin,
		PortOfDischarge:    in.PortOfDischarge,
		ETA:                in.ETA,
		ATA:                in.ATA,
		DescriptionOfGoods: in.DescriptionOfGoods,
		Volume:             in.Volume,
		TermsOfDelivery:    in.TermsOfDelivery,
	}
	switch in.Mode {
	case FreightSea:
		var sea SeaFreight
		if err := json.Unmarshal(in.Freight, &sea); err != nil {
			return fmt.Errorf("decode sea freight: %w", err)
		}
		d.Freight = sea
	case FreightAir:
		var air AirFreight
		if err := json.Unmarshal(in.Freight, &air); err != nil {
			return fmt.Errorf("decode air freight: %w", err)
		}
		d.Freight = air
	case "":
	default:
		return fmt.Errorf("unknown freight mode %q", in.Mode)
	}
	return nil
}

// ValidateFor checks that the freight variant matches the transaction type:
// sea imports carry sea freight, air imports carry air freight.
func (d ShipmentDetails) ValidateFor(t TransactionType) error {
	if d.Freight == nil {
		return fmt.Errorf("%w: shipment details require freight", ErrValidation)
	}
	if err := d.Freight.validate(); err != nil {
		return err
	}
	switch {
	case t == TransactionImportSea && d.Freight.Mode() != FreightSea:
		return fmt.Errorf("%w: %s requires sea freight", ErrValidation, t)
	case t == TransactionImportAir && d.Freight.Mode() != FreightAir:
		return fmt.Errorf("%w: %s requires air freight", ErrValidation, t)
	}
	return nil
}

type Computations struct {
	DutiableValue float64 `json:"dutiable_value"`
	CustomsDuty   float64 `json:"customs_duty"`
	VAT           float64 `json:"vat"`
	OtherCharges  float64 `json:"other_charges"`
	TotalPayable  float64 `json:"total_payable"`
}

// WithTotal recomputes TotalPayable from its components.
func (c Computations) WithTotal() Computations {
	c.TotalPayable = c.CustomsDuty + c.VAT + c.OtherCharges
	return c
}

type ShipmentRecord struct {
	ID              string          `json:"id"`
	ReferenceNumber string          `json:"reference_number"`
	TransactionType TransactionType `json:"transaction_type"`
	CurrentStage    StageKey        `json:"current_stage"`
	Consignee       PartyInfo       `json:"consignee"`
	Exporter        PartyInfo       `json:"exporter"`
	ShipmentDetails ShipmentDetails `json:"shipment_details"`
	Documents       []DocumentSlot  `json:"documents"`
	Computations    Computations    `json:"computations"`
	Timeline        []TimelineEntry `json:"timeline"`
	Notes           []string        `json:"notes"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Clone returns a deep copy so callers can mutate without touching stored state.
func (r ShipmentRecord) Clone() ShipmentRecord {
	r.Documents = append([]DocumentSlot(nil), r.Documents...)
	r.Timeline = append([]TimelineEntry(nil), r.Timeline...)
	r.Notes = append([]string{}, r.Notes...)
	return r
}

func (r ShipmentRecord) IsTerminal() bool {
	return r.CurrentStage == LastStage()
}

// ShipmentForm is the client-supplied part of a new shipment.
type ShipmentForm struct {
	Consignee       PartyInfo        `json:"consignee" validate:"required"`
	Exporter        PartyInfo        `json:"exporter" validate:"required"`
	ShipmentDetails *ShipmentDetails `json:"shipment_details" validate:"required"`
	Computations    *Computations    `json:"computations,omitempty"`
	Notes           []string         `json:"notes,omitempty"`
}

type StageUpdate struct {
	Stage  StageKey    `json:"stage" validate:"required"`
	Status StageStatus `json:"status"`
}

// ShipmentPatch holds the fields of an update; nil fields are left as stored.
type ShipmentPatch struct {
	Consignee       *PartyInfo       `json:"consignee,omitempty"`
	Exporter        *PartyInfo       `json:"exporter,omitempty"`
	ShipmentDetails *ShipmentDetails `json:"shipment_details,omitempty"`
	Computations    *Computations    `json:"computations,omitempty"`
	Notes           []string         `json:"notes,omitempty"`
	StageUpdate     *StageUpdate     `json:"stage_update,omitempty"`
}
