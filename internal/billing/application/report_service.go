package application

import (
	"context"
	"errors"

	billing "smartpark-iot/internal/billing/domain"
)

// Report is a filtered reservation list with its summary.
type Report struct {
	Items   []billing.Reservation `json:"items"`
	Summary billing.Summary       `json:"summary"`
}

// ReportService serves the reservation report.
type ReportService struct {
	repo billing.Repository
}

// NewReportService constructs a service.
func NewReportService(repo billing.Repository) (*ReportService, error) {
	if repo == nil {
		return nil, errors.New("report service: nil repo")
	}
	return &ReportService{repo: repo}, nil
}

// List returns reservations matching filter, newest first.
func (s *ReportService) List(ctx context.Context, filter billing.Filter) (Report, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return Report{}, err
	}
	if items == nil {
		items = []billing.Reservation{}
	}
	return Report{Items: items, Summary: billing.Summarize(items)}, nil
}
