package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/stn-picking/api/middleware"
	"github.com/angelmondragon/stn-picking/api/responses"
	"github.com/angelmondragon/stn-picking/api/validators"
	"github.com/angelmondragon/stn-picking/internal/picklists"
	"github.com/angelmondragon/stn-picking/pkg/enums"
	pkgerrors "github.com/angelmondragon/stn-picking/pkg/errors"
	"github.com/angelmondragon/stn-picking/pkg/logger"
)

const (
	maxCodeLen   = 128
	maxActorLen  = 100
	maxReasonLen = 255
)

type scanRequest struct {
	ScannedCode string  `json:"scannedCode" validate:"required,scancode,max=128"`
	PickListID  *string `json:"pickListId,omitempty" validate:"omitempty,max=64"`
	Operator    *string `json:"operator,omitempty"`
	Branch      *string `json:"branch,omitempty"`
	DeviceType  *string `json:"deviceType,omitempty"`
}

// ValidateScan resolves a scanned code and applies it to the target pick list.
// Domain misses come back as 200 with the scan outcome.
func ValidateScan(svc picklists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload scanRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		device, err := enums.ParseDeviceType(deref(payload.DeviceType))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid deviceType"))
			return
		}

		outcome, err := svc.ApplyScan(ctx, picklists.ScanInput{
			ScannedCode: validators.SanitizeString(payload.ScannedCode, maxCodeLen),
			PickListID:  validators.SanitizeString(deref(payload.PickListID), maxCodeLen),
			Operator:    actor(deref(payload.Operator), middleware.OperatorFromContext(ctx)),
			Branch:      actor(deref(payload.Branch), middleware.BranchFromContext(ctx)),
			DeviceType:  device,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, outcome)
	}
}

// UndoScan removes one scan of a product from a pick list.
func UndoScan(svc picklists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ref := strings.TrimSpace(chi.URLParam(r, "id"))
		productCode := strings.TrimSpace(chi.URLParam(r, "productCode"))
		if ref == "" || productCode == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "pick list id and product code are required"))
			return
		}

		outcome, err := svc.RemoveScan(ctx, ref, productCode)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, outcome)
	}
}

type createPickListItem struct {
	ProductCode  string  `json:"productCode" validate:"required,scancode,max=128"`
	RequiredQty  int     `json:"requiredQty" validate:"min=1"`
	RackID       *string `json:"rackId,omitempty" validate:"omitempty,max=64"`
	RackSequence *int    `json:"rackSequence,omitempty"`
}

type createPickListRequest struct {
	Branch   string               `json:"branch" validate:"required,max=100"`
	Operator *string              `json:"operator,omitempty"`
	Items    []createPickListItem `json:"items" validate:"required,min=1,dive"`
}

func CreatePickList(svc picklists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload createPickListRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := picklists.CreateInput{
			Branch:   validators.SanitizeString(payload.Branch, maxActorLen),
			Operator: actor(deref(payload.Operator), middleware.OperatorFromContext(ctx)),
			Items:    make([]picklists.CreateItemInput, 0, len(payload.Items)),
		}
		for _, item := range payload.Items {
			input.Items = append(input.Items, picklists.CreateItemInput{
				ProductCode:  item.ProductCode,
				RequiredQty:  item.RequiredQty,
				RackID:       item.RackID,
				RackSequence: item.RackSequence,
			})
		}

		view, err := svc.Create(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteCreated(w, view)
	}
}

func ListPickLists(svc picklists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 100)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.List(ctx, picklists.ListInput{
			Branch: validators.ParseQueryString(r, "branch", maxActorLen),
			Status: validators.ParseQueryString(r, "status", 32),
			Date:   validators.ParseQueryString(r, "date", 10),
			Cursor: validators.ParseQueryString(r, "cursor", 256),
			Limit:  limit,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetPickList(svc picklists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		view, err := svc.Get(ctx, chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func PickListStatus(svc picklists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		summary, err := svc.Status(ctx, chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

type cancelPickListRequest struct {
	Reason string `json:"reason" validate:"max=255"`
}

// CancelPickList accepts an optional {"reason": "..."} body.
func CancelPickList(svc picklists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload cancelPickListRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}

		view, err := svc.Cancel(ctx, chi.URLParam(r, "id"), validators.SanitizeString(payload.Reason, maxReasonLen))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// actor prefers the body value and falls back to the request header value.
func actor(body, header string) string {
	if v := validators.SanitizeString(body, maxActorLen); v != "" {
		return v
	}
	return header
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
