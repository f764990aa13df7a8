package order

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	StatusUnassigned OrderStatus = "UNASSIGNED"
	StatusAssigned   OrderStatus = "ASSIGNED"
	StatusPicking    OrderStatus = "PICKING"
	StatusPicked     OrderStatus = "PICKED"
	StatusChecking   OrderStatus = "CHECKING"
	StatusDone       OrderStatus = "DONE"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusUnassigned, StatusAssigned, StatusPicking, StatusPicked, StatusChecking, StatusDone:
		return true
	}
	return false
}

type Size string

const (
	SizeS Size = "S"
	SizeM Size = "M"
	SizeL Size = "L"
)

func (s Size) Valid() bool {
	return s == SizeS || s == SizeM || s == SizeL
}

type DeliveryType string

const (
	DeliveryGiving    DeliveryType = "Giving"
	DeliveryTransport DeliveryType = "Transport"
	DeliveryPronto    DeliveryType = "Pronto"
)

func (d DeliveryType) Valid() bool {
	return d == DeliveryGiving || d == DeliveryTransport || d == DeliveryPronto
}

type Department string

const (
	DepartmentMachinery Department = "machinery"
	DepartmentAssembly  Department = "assembly"
)

func (d Department) Valid() bool {
	return d == DepartmentMachinery || d == DepartmentAssembly
}

type Order struct {
	ID                 int64        `db:"id" json:"id"`
	SONumber           string       `db:"so_number" json:"so_number"`
	Size               Size         `db:"size" json:"size"`
	DeliveryType       DeliveryType `db:"delivery_type" json:"delivery_type"`
	Department         Department   `db:"department" json:"department"`
	Status             OrderStatus  `db:"status" json:"status"`
	PickerID           *int64       `db:"picker_id" json:"picker_id"`
	CheckerID          *int64       `db:"checker_id" json:"checker_id"`
	Checker2ID         *int64       `db:"checker2_id" json:"checker2_id"`
	NeedsSecondChecker bool         `db:"needs_second_checker" json:"needs_second_checker"`
	PickerStart        *time.Time   `db:"picker_start" json:"picker_start"`
	PickerEnd          *time.Time   `db:"picker_end" json:"picker_end"`
	IdleStart          *time.Time   `db:"idle_start" json:"idle_start"`
	IdleEnd            *time.Time   `db:"idle_end" json:"idle_end"`
	CheckerStart       *time.Time   `db:"checker_start" json:"checker_start"`
	CheckerEnd         *time.Time   `db:"checker_end" json:"checker_end"`
	Checker2Start      *time.Time   `db:"checker2_start" json:"checker2_start"`
	Checker2End        *time.Time   `db:"checker2_end" json:"checker2_end"`
	Approved           bool         `db:"approved" json:"approved"`
	ApprovedAt         *time.Time   `db:"approved_at" json:"approved_at"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at" json:"updated_at"`
}

// CheckEnd is the moment checking finished: the later of the two checker end
// stamps that is set. An order closed by the second checker only has checker2_end.
func (o *Order) CheckEnd() *time.Time {
	switch {
	case o.CheckerEnd == nil:
		return o.Checker2End
	case o.Checker2End == nil:
		return o.CheckerEnd
	case o.Checker2End.After(*o.CheckerEnd):
		return o.Checker2End
	default:
		return o.CheckerEnd
	}
}

func (o *Order) PickingDuration() *time.Duration  { return span(o.PickerStart, o.PickerEnd) }
func (o *Order) IdleDuration() *time.Duration     { return span(o.IdleStart, o.IdleEnd) }
func (o *Order) CheckingDuration() *time.Duration { return span(o.CheckerStart, o.CheckEnd()) }
func (o *Order) TotalDuration() *time.Duration    { return span(o.PickerStart, o.CheckEnd()) }

func span(from, to *time.Time) *time.Duration {
	if from == nil || to == nil {
		return nil
	}
	d := to.Sub(*from)
	return &d
}

// Clock renders a duration as HH:MM:SS. Hours are not wrapped at 24.
func Clock(d *time.Duration) string {
	if d == nil {
		return ""
	}
	secs := int64(d.Round(time.Second) / time.Second)
	sign := ""
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, secs/3600, (secs/60)%60, secs%60)
}

// TimeOfDay renders a timestamp as HH:MM:SS in loc.
func TimeOfDay(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format("15:04:05")
}

// Row is an order joined with the names of the workers it references.
type Row struct {
	Order
	PickerName   *string `json:"picker_name"`
	CheckerName  *string `json:"checker_name"`
	Checker2Name *string `json:"checker2_name"`
}
