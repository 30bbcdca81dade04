package picklists

import (
	"time"

	"github.com/angelmondragon/stn-picking/pkg/db/models"
	"github.com/angelmondragon/stn-picking/pkg/enums"
)

// ItemStatusFor derives an item status from its quantities.
func ItemStatusFor(picked, required int) enums.ItemStatus {
	switch {
	case picked <= 0:
		return enums.ItemStatusPending
	case picked < required:
		return enums.ItemStatusPartial
	case picked == required:
		return enums.ItemStatusPicked
	default:
		return enums.ItemStatusExcess
	}
}

// Transition records a pick-list status change produced by Project.
type Transition struct {
	From enums.PickListStatus
	To   enums.PickListStatus
}

// Changed reports whether the status moved.
func (t Transition) Changed() bool {
	return t.From != t.To
}

// Project recomputes every derived field of list from its items: item
// statuses, quantity totals, and the status with its timestamps. It does no
// I/O; now stamps started_at and completed_at when they are set.
func Project(list *models.PickList, now time.Time) Transition {
	from := list.Status
	total, picked := 0, 0
	allSatisfied := len(list.Items) > 0
	for i := range list.Items {
		item := &list.Items[i]
		item.ItemStatus = ItemStatusFor(item.PickedQty, item.RequiredQty)
		total += item.RequiredQty
		picked += item.PickedQty
		if item.PickedQty < item.RequiredQty {
			allSatisfied = false
		}
	}
	list.TotalItems = total
	list.PickedItems = picked

	if list.Status == enums.PickListStatusCancelled {
		return Transition{From: from, To: from}
	}

	if list.Status == enums.PickListStatusPending && picked > 0 {
		list.Status = enums.PickListStatusInProgress
		if list.StartedAt == nil {
			started := now
			list.StartedAt = &started
		}
	}

	switch {
	case allSatisfied && list.Status != enums.PickListStatusCompleted:
		list.Status = enums.PickListStatusCompleted
		completed := now
		list.CompletedAt = &completed
	case !allSatisfied && list.Status == enums.PickListStatusCompleted:
		list.Status = enums.PickListStatusInProgress
		list.CompletedAt = nil
	}

	return Transition{From: from, To: list.Status}
}
