// Package lifecycle holds the order state graph. Each Transition is a guard
// plus a fixed list of column effects; stores apply it as a single
// compare-and-swap on the order row, so the first writer wins.
package lifecycle

import (
	"slices"
	"time"

	"github.com/antonminaichev/warehouse-orders/internal/types/order"
)

type Action string

const (
	ActionAssign                  Action = "assign"
	ActionStartPicking            Action = "start_picking"
	ActionEndPicking              Action = "end_picking"
	ActionStartChecking           Action = "start_checking"
	ActionStartCheckingWithSecond Action = "start_checking_with_second"
	ActionJoinAsSecond            Action = "join_as_second"
	ActionEndChecking             Action = "end_checking"
	ActionEndCheckingAsSecond     Action = "end_checking_as_second"
	ActionApprove                 Action = "approve"
	ActionDelete                  Action = "delete"
)

// Binding relates the acting worker id to a column of the row.
type Binding int

const (
	BindNone          Binding = iota
	BindPicker                // picker_id = actor
	BindChecker               // checker_id = actor
	BindSecondChecker         // checker2_id = actor
	BindNotChecker            // checker_id <> actor
)

// Guard is the WHERE clause of a transition. All set conditions must hold.
type Guard struct {
	From        []order.OrderStatus
	Actor       Binding
	NeedsSecond bool // needs_second_checker = true
	SecondFree  bool // checker2_id IS NULL
	Unapproved  bool // approved = false
}

func (g Guard) Allows(o *order.Order, actor int64) bool {
	if !slices.Contains(g.From, o.Status) {
		return false
	}
	switch g.Actor {
	case BindPicker:
		if !matches(o.PickerID, actor) {
			return false
		}
	case BindChecker:
		if !matches(o.CheckerID, actor) {
			return false
		}
	case BindSecondChecker:
		if !matches(o.Checker2ID, actor) {
			return false
		}
	case BindNotChecker:
		if o.CheckerID == nil || *o.CheckerID == actor {
			return false
		}
	}
	if g.NeedsSecond && !o.NeedsSecondChecker {
		return false
	}
	if g.SecondFree && o.Checker2ID != nil {
		return false
	}
	if g.Unapproved && o.Approved {
		return false
	}
	return true
}

func matches(id *int64, actor int64) bool {
	return id != nil && *id == actor
}

type Column string

const (
	ColPickerID           Column = "picker_id"
	ColCheckerID          Column = "checker_id"
	ColChecker2ID         Column = "checker2_id"
	ColPickerStart        Column = "picker_start"
	ColPickerEnd          Column = "picker_end"
	ColIdleStart          Column = "idle_start"
	ColIdleEnd            Column = "idle_end"
	ColCheckerStart       Column = "checker_start"
	ColCheckerEnd         Column = "checker_end"
	ColChecker2Start      Column = "checker2_start"
	ColChecker2End        Column = "checker2_end"
	ColNeedsSecondChecker Column = "needs_second_checker"
	ColApproved           Column = "approved"
	ColApprovedAt         Column = "approved_at"
)

type EffectKind int

const (
	SetActor EffectKind = iota
	SetNow
	SetTrue
	SetFalse
)

type Effect struct {
	Column Column
	Kind   EffectKind
}

type Transition struct {
	Action  Action
	Guard   Guard
	To      order.OrderStatus // empty keeps the current status
	Effects []Effect
	Deletes bool
	Reason  string
}

// Apply is the pure transition function. It mutates o only when the guard holds.
func (t Transition) Apply(o *order.Order, actor int64, now time.Time) error {
	if !t.Guard.Allows(o, actor) {
		return t.Failed()
	}
	for _, e := range t.Effects {
		apply(o, e, actor, now)
	}
	if t.To != "" {
		o.Status = t.To
	}
	o.UpdatedAt = now
	return nil
}

func (t Transition) Failed() error {
	return Precondition(t.Action, t.Reason)
}

func apply(o *order.Order, e Effect, actor int64, now time.Time) {
	switch e.Kind {
	case SetActor:
		id := actor
		switch e.Column {
		case ColPickerID:
			o.PickerID = &id
		case ColCheckerID:
			o.CheckerID = &id
		case ColChecker2ID:
			o.Checker2ID = &id
		}
	case SetNow:
		ts := now
		switch e.Column {
		case ColPickerStart:
			o.PickerStart = &ts
		case ColPickerEnd:
			o.PickerEnd = &ts
		case ColIdleStart:
			o.IdleStart = &ts
		case ColIdleEnd:
			o.IdleEnd = &ts
		case ColCheckerStart:
			o.CheckerStart = &ts
		case ColCheckerEnd:
			o.CheckerEnd = &ts
		case ColChecker2Start:
			o.Checker2Start = &ts
		case ColChecker2End:
			o.Checker2End = &ts
		case ColApprovedAt:
			o.ApprovedAt = &ts
		}
	case SetTrue, SetFalse:
		v := e.Kind == SetTrue
		switch e.Column {
		case ColNeedsSecondChecker:
			o.NeedsSecondChecker = v
		case ColApproved:
			o.Approved = v
		}
	}
}

var startChecking = []Effect{
	{ColCheckerID, SetActor},
	{ColCheckerStart, SetNow},
	{ColIdleEnd, SetNow},
}

var machine = map[Action]Transition{
	ActionAssign: {
		Guard:   Guard{From: []order.OrderStatus{order.StatusUnassigned, order.StatusAssigned}},
		To:      order.StatusAssigned,
		Effects: []Effect{{ColPickerID, SetActor}},
		Reason:  "cannot reassign after picking started",
	},
	ActionStartPicking: {
		Guard:   Guard{From: []order.OrderStatus{order.StatusAssigned}, Actor: BindPicker},
		To:      order.StatusPicking,
		Effects: []Effect{{ColPickerStart, SetNow}},
		Reason:  "cannot start picking",
	},
	ActionEndPicking: {
		Guard:   Guard{From: []order.OrderStatus{order.StatusPicking}, Actor: BindPicker},
		To:      order.StatusPicked,
		Effects: []Effect{{ColPickerEnd, SetNow}, {ColIdleStart, SetNow}},
		Reason:  "cannot end picking",
	},
	ActionStartChecking: {
		Guard:   Guard{From: []order.OrderStatus{order.StatusPicked}},
		To:      order.StatusChecking,
		Effects: append(slices.Clone(startChecking), Effect{ColNeedsSecondChecker, SetFalse}),
		Reason:  "order not ready for checking",
	},
	ActionStartCheckingWithSecond: {
		Guard:   Guard{From: []order.OrderStatus{order.StatusPicked}},
		To:      order.StatusChecking,
		Effects: append(slices.Clone(startChecking), Effect{ColNeedsSecondChecker, SetTrue}),
		Reason:  "order not ready for checking",
	},
	ActionJoinAsSecond: {
		Guard: Guard{
			From:        []order.OrderStatus{order.StatusChecking},
			Actor:       BindNotChecker,
			NeedsSecond: true,
			SecondFree:  true,
		},
		Effects: []Effect{{ColChecker2ID, SetActor}, {ColChecker2Start, SetNow}},
		Reason:  "failed to join, another checker may have already joined",
	},
	ActionEndChecking: {
		Guard:   Guard{From: []order.OrderStatus{order.StatusChecking}, Actor: BindChecker},
		To:      order.StatusDone,
		Effects: []Effect{{ColCheckerEnd, SetNow}},
		Reason:  "cannot end checking",
	},
	ActionEndCheckingAsSecond: {
		Guard:   Guard{From: []order.OrderStatus{order.StatusChecking}, Actor: BindSecondChecker},
		To:      order.StatusDone,
		Effects: []Effect{{ColChecker2End, SetNow}},
		Reason:  "cannot end checking as second checker",
	},
	ActionApprove: {
		Guard:   Guard{From: []order.OrderStatus{order.StatusPicked, order.StatusDone}, Unapproved: true},
		Effects: []Effect{{ColApproved, SetTrue}, {ColApprovedAt, SetNow}},
		Reason:  "order must be PICKED or DONE and not yet approved",
	},
	ActionDelete: {
		Guard:   Guard{From: []order.OrderStatus{order.StatusUnassigned, order.StatusAssigned}},
		Deletes: true,
		Reason:  "cannot delete order that has started",
	},
}

func init() {
	for a, t := range machine {
		t.Action = a
		machine[a] = t
	}
}

func Lookup(a Action) (Transition, error) {
	t, ok := machine[a]
	if !ok {
		return Transition{}, ErrUnknownAction
	}
	return t, nil
}

// Actions lists every action in a stable order.
func Actions() []Action {
	out := make([]Action, 0, len(machine))
	for a := range machine {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}
