package order

import (
	"context"
	"time"

	"github.com/antonminaichev/warehouse-orders/internal/storage"
	"github.com/antonminaichev/warehouse-orders/internal/types/order"
)

// ExportRow is one spreadsheet line. Field order is column order.
type ExportRow struct {
	SONumber         string  `json:"SO Number"`
	Status           string  `json:"Status"`
	Size             string  `json:"Order Size"`
	DeliveryType     string  `json:"Delivery Type"`
	Department       string  `json:"Department"`
	PickerName       *string `json:"Picker Name"`
	PickStart        *string `json:"Pick Start"`
	PickEnd          *string `json:"Pick End"`
	PickingDuration  *string `json:"Picking Duration"`
	IdleStart        *string `json:"Idle Start"`
	IdleEnd          *string `json:"Idle End"`
	IdleTime         *string `json:"Idle Time"`
	CheckerName      *string `json:"Checker Name"`
	Checker2Name     *string `json:"Checker 2 Name"`
	CheckStart       *string `json:"Check Start"`
	CheckEnd         *string `json:"Check End"`
	CheckingDuration *string `json:"Checking Duration"`
	TotalDuration    *string `json:"Total Duration"`
	ApprovedAt       *string `json:"Approved At,omitempty"`
	Date             string  `json:"Date"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *Service) exportRow(r order.Row, approved bool) ExportRow {
	at := func(t *time.Time) *string { return nullable(order.TimeOfDay(t, s.loc)) }
	clock := func(d *time.Duration) *string { return nullable(order.Clock(d)) }

	row := ExportRow{
		SONumber:         r.SONumber,
		Status:           string(r.Status),
		Size:             string(r.Size),
		DeliveryType:     string(r.DeliveryType),
		Department:       string(r.Department),
		PickerName:       r.PickerName,
		PickStart:        at(r.PickerStart),
		PickEnd:          at(r.PickerEnd),
		PickingDuration:  clock(r.PickingDuration()),
		IdleStart:        at(r.IdleStart),
		IdleEnd:          at(r.IdleEnd),
		IdleTime:         clock(r.IdleDuration()),
		CheckerName:      r.CheckerName,
		Checker2Name:     r.Checker2Name,
		CheckStart:       at(r.CheckerStart),
		CheckEnd:         at(r.CheckEnd()),
		CheckingDuration: clock(r.CheckingDuration()),
		TotalDuration:    clock(r.TotalDuration()),
		Date:             r.CreatedAt.In(s.loc).Format(time.DateOnly),
	}
	if approved {
		row.ApprovedAt = at(r.ApprovedAt)
	}
	return row
}

func (s *Service) parseDay(day string) (string, error) {
	if day == "" {
		return s.today(), nil
	}
	if _, err := time.ParseInLocation(time.DateOnly, day, s.loc); err != nil {
		return "", order.Invalid("date", "must be YYYY-MM-DD")
	}
	return day, nil
}

// Export returns the display rows for orders created on day (default today).
func (s *Service) Export(ctx context.Context, day string, dept order.Department) ([]ExportRow, error) {
	return s.export(ctx, day, dept, false)
}

// ApprovedExport is Export restricted to approved orders, ordered by approval time.
func (s *Service) ApprovedExport(ctx context.Context, day string, dept order.Department) ([]ExportRow, error) {
	return s.export(ctx, day, dept, true)
}

func (s *Service) export(ctx context.Context, day string, dept order.Department, approved bool) ([]ExportRow, error) {
	d, err := s.parseDay(day)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListForExport(ctx, storage.ExportQuery{Day: d, Department: dept, ApprovedOnly: approved})
	if err != nil {
		return nil, err
	}
	out := make([]ExportRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, s.exportRow(r, approved))
	}
	return out, nil
}
