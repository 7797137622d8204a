package registry

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
)

type snapshot struct {
	Data struct {
		Products []product `json:"Products"`
	} `json:"data"`
}

// product mirrors one marketplace record. Every attribute is a FieldValue
// because the feed is inconsistent about list and scalar shapes.
type product struct {
	ID                   domain.FieldValue `json:"id"`
	Offering             domain.FieldValue `json:"cso"`
	Provider             domain.FieldValue `json:"csp"`
	Description          domain.FieldValue `json:"service_desc"`
	SubServices          domain.FieldValue `json:"all_others"`
	Status               domain.FieldValue `json:"status"`
	ImpactLevel          domain.FieldValue `json:"impact_level"`
	AgencyAuthorizations domain.FieldValue `json:"agency_authorizations"`
	AuthDate             domain.FieldValue `json:"auth_date"`
}

// Decoder reads the marketplace JSON snapshot.
type Decoder struct{}

func NewDecoder() Decoder {
	return Decoder{}
}

func (Decoder) Decode(r io.Reader) ([]domain.CatalogEntry, error) {
	var snap snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "decode registry snapshot", err)
	}

	entries := make([]domain.CatalogEntry, 0, len(snap.Data.Products))
	for _, p := range snap.Data.Products {
		entries = append(entries, p.toEntry())
	}
	return entries, nil
}

func (p product) toEntry() domain.CatalogEntry {
	services := p.SubServices.Strings()
	for i := range services {
		services[i] = strings.TrimSpace(services[i])
	}
	return domain.CatalogEntry{
		ExternalID:  strings.TrimSpace(p.ID.Display()),
		Provider:    p.Provider.Display(),
		Offering:    p.Offering.Display(),
		Description: p.Description.Display(),
		SubServices: services,
		Status:      p.Status.Display(),
		ImpactLevel: p.ImpactLevel.Display(),
		Agencies:    p.AgencyAuthorizations.Display(),
		AuthDate:    p.AuthDate.Display(),
	}
}
