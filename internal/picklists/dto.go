package picklists

import (
	"math"
	"time"

	"github.com/angelmondragon/stn-picking/pkg/db/models"
	"github.com/angelmondragon/stn-picking/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ScanInput is one inbound scan.
type ScanInput struct {
	ScannedCode string
	PickListID  string
	Operator    string
	Branch      string
	DeviceType  enums.DeviceType
}

// ProductSummary is the product block echoed back to the scanner.
type ProductSummary struct {
	ProductCode string           `json:"productCode"`
	ProductName string           `json:"productName"`
	Variant     *string          `json:"variant,omitempty"`
	RackID      *string          `json:"rackId,omitempty"`
	MRP         *decimal.Decimal `json:"mrp,omitempty"`
}

// ScanOutcome is the result of a scan. Domain misses are outcomes, not errors.
type ScanOutcome struct {
	Success          bool             `json:"success"`
	ScanResult       enums.ScanResult `json:"scanResult"`
	Message          string           `json:"message"`
	Warning          bool             `json:"warning,omitempty"`
	ScannedCode      string           `json:"scannedCode,omitempty"`
	Product          *ProductSummary  `json:"product,omitempty"`
	PickedQty        *int             `json:"pickedQty,omitempty"`
	RequiredQty      *int             `json:"requiredQty,omitempty"`
	IsComplete       *bool            `json:"isComplete,omitempty"`
	PickListComplete *bool            `json:"pickListComplete,omitempty"`
	ResponseTimeMS   int              `json:"responseTimeMs"`

	// Strategy names the resolver step that matched; not serialized.
	Strategy string `json:"-"`
}

// UndoOutcome is the result of removing one scan.
type UndoOutcome struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	PickedQty int    `json:"pickedQty"`
}

// CreateItemInput is one requested line.
type CreateItemInput struct {
	ProductCode  string
	RequiredQty  int
	RackID       *string
	RackSequence *int
}

// CreateInput creates a pick list.
type CreateInput struct {
	Branch   string
	Operator string
	Items    []CreateItemInput
}

// ListInput filters the pick-list listing.
type ListInput struct {
	Branch string
	Status string
	Date   string
	Cursor string
	Limit  int
}

// ItemView is a pick-list line.
type ItemView struct {
	ID           uuid.UUID        `json:"id"`
	Position     int              `json:"position"`
	ProductCode  string           `json:"productCode"`
	ProductID    *uuid.UUID       `json:"productId,omitempty"`
	ProductName  *string          `json:"productName,omitempty"`
	Barcode      *string          `json:"barcode,omitempty"`
	RackID       *string          `json:"rackId,omitempty"`
	RackSequence int              `json:"rackSequence"`
	RequiredQty  int              `json:"requiredQty"`
	PickedQty    int              `json:"pickedQty"`
	ItemStatus   enums.ItemStatus `json:"itemStatus"`
}

// PickListView is the full pick-list payload.
type PickListView struct {
	ID          uuid.UUID            `json:"id"`
	PickListID  string               `json:"pickListId"`
	Branch      string               `json:"branch"`
	Operator    *string              `json:"operator,omitempty"`
	Status      enums.PickListStatus `json:"status"`
	TotalItems  int                  `json:"totalItems"`
	PickedItems int                  `json:"pickedItems"`
	ErrorCount  int                  `json:"errorCount"`
	StartedAt   *time.Time           `json:"startedAt,omitempty"`
	CompletedAt *time.Time           `json:"completedAt,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
	Items       []ItemView           `json:"items,omitempty"`
}

// ListResult is one page of pick lists.
type ListResult struct {
	PickLists  []PickListView `json:"pickLists"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

// StatusSummary reports progress for one pick list.
type StatusSummary struct {
	PickListID        string               `json:"pickListId"`
	Status            enums.PickListStatus `json:"status"`
	TotalItems        int                  `json:"totalItems"`
	PickedItems       int                  `json:"pickedItems"`
	PendingItems      int                  `json:"pendingItems"`
	CompletedProducts int                  `json:"completedProducts"`
	ExcessProducts    int                  `json:"excessProducts"`
	TotalProducts     int                  `json:"totalProducts"`
	ErrorCount        int                  `json:"errorCount"`
	Progress          int                  `json:"progress"`
}

func newProductSummary(p *models.Product) *ProductSummary {
	if p == nil {
		return nil
	}
	return &ProductSummary{
		ProductCode: p.ProductCode,
		ProductName: p.ProductName,
		Variant:     p.Variant,
		RackID:      p.RackID,
		MRP:         p.MRP,
	}
}

func newPickListView(list *models.PickList, withItems bool) PickListView {
	view := PickListView{
		ID:          list.ID,
		PickListID:  list.PickListCode,
		Branch:      list.Branch,
		Operator:    list.Operator,
		Status:      list.Status,
		TotalItems:  list.TotalItems,
		PickedItems: list.PickedItems,
		ErrorCount:  list.ErrorCount,
		StartedAt:   list.StartedAt,
		CompletedAt: list.CompletedAt,
		CreatedAt:   list.CreatedAt,
		UpdatedAt:   list.UpdatedAt,
	}
	if withItems {
		view.Items = make([]ItemView, 0, len(list.Items))
		for _, item := range list.Items {
			view.Items = append(view.Items, ItemView{
				ID:           item.ID,
				Position:     item.Position,
				ProductCode:  item.ProductCode,
				ProductID:    item.ProductID,
				ProductName:  item.ProductName,
				Barcode:      item.Barcode,
				RackID:       item.RackID,
				RackSequence: item.RackSequence,
				RequiredQty:  item.RequiredQty,
				PickedQty:    item.PickedQty,
				ItemStatus:   item.ItemStatus,
			})
		}
	}
	return view
}

// summarize computes the status summary from the list items.
func summarize(list *models.PickList) StatusSummary {
	s := StatusSummary{
		PickListID:    list.PickListCode,
		Status:        list.Status,
		TotalProducts: len(list.Items),
		ErrorCount:    list.ErrorCount,
	}
	for _, item := range list.Items {
		s.TotalItems += item.RequiredQty
		s.PickedItems += item.PickedQty
		switch ItemStatusFor(item.PickedQty, item.RequiredQty) {
		case enums.ItemStatusPicked:
			s.CompletedProducts++
		case enums.ItemStatusExcess:
			s.ExcessProducts++
		}
	}
	s.PendingItems = max(s.TotalItems-s.PickedItems, 0)
	if s.TotalItems > 0 {
		s.Progress = int(math.Round(float64(s.PickedItems) / float64(s.TotalItems) * 100))
	}
	return s
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
