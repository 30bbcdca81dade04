package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stn-picking/api/responses"
	"github.com/angelmondragon/stn-picking/api/validators"
	"github.com/angelmondragon/stn-picking/internal/catalog"
	pkgerrors "github.com/angelmondragon/stn-picking/pkg/errors"
	"github.com/angelmondragon/stn-picking/pkg/logger"
	"github.com/angelmondragon/stn-picking/pkg/pagination"
)

func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 100000)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxPageLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := catalog.ListProductsInput{
			Category: validators.ParseQueryString(r, "category", 100),
			RackID:   validators.ParseQueryString(r, "rackId", 64),
			Search:   validators.ParseQueryString(r, "search", 100),
			Page:     pagination.Page{Page: page, Limit: limit},
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("hasBarcode")); raw != "" {
			hasBarcode, err := validators.ParseQueryBool(r, "hasBarcode", false)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.HasBarcode = &hasBarcode
		}

		result, err := svc.ListProducts(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ListCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		categories, err := svc.ListCategories(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

// LookupBarcode finds an active product by physical barcode, generated code or UPC.
func LookupBarcode(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		product, err := svc.LookupBarcode(ctx, validators.SanitizeString(chi.URLParam(r, "barcode"), maxCodeLen))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func GetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := productID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		product, err := svc.GetProduct(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type createProductRequest struct {
	ProductCode        string           `json:"productCode" validate:"required,scancode,max=128"`
	ProductName        string           `json:"productName" validate:"required,max=255"`
	Variant            *string          `json:"variant,omitempty"`
	Barcode            *string          `json:"barcode,omitempty" validate:"omitempty,max=128"`
	OriginalBarcode    *string          `json:"originalBarcode,omitempty" validate:"omitempty,max=128"`
	HasPhysicalBarcode bool             `json:"hasPhysicalBarcode"`
	RackID             *string          `json:"rackId,omitempty" validate:"omitempty,max=64"`
	RackSequence       *int             `json:"rackSequence,omitempty"`
	Category           *string          `json:"category,omitempty"`
	Brand              *string          `json:"brand,omitempty"`
	BrandForm          *string          `json:"brandForm,omitempty"`
	MRP                *decimal.Decimal `json:"mrp,omitempty"`
	SLP                *decimal.Decimal `json:"slp,omitempty"`
	RLP                *decimal.Decimal `json:"rlp,omitempty"`
	UPC                *string          `json:"upc,omitempty" validate:"omitempty,max=64"`
	Units              *int             `json:"units,omitempty"`
}

func CreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := svc.CreateProduct(ctx, catalog.ProductInput{
			ProductCode:        payload.ProductCode,
			ProductName:        payload.ProductName,
			Variant:            payload.Variant,
			Barcode:            payload.Barcode,
			OriginalBarcode:    payload.OriginalBarcode,
			HasPhysicalBarcode: payload.HasPhysicalBarcode,
			RackID:             payload.RackID,
			RackSequence:       payload.RackSequence,
			Category:           payload.Category,
			Brand:              payload.Brand,
			BrandForm:          payload.BrandForm,
			MRP:                payload.MRP,
			SLP:                payload.SLP,
			RLP:                payload.RLP,
			UPC:                payload.UPC,
			Units:              payload.Units,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteCreated(w, product)
	}
}

type updateProductRequest struct {
	ProductName        *string          `json:"productName,omitempty" validate:"omitempty,max=255"`
	Variant            *string          `json:"variant,omitempty"`
	Barcode            *string          `json:"barcode,omitempty" validate:"omitempty,max=128"`
	OriginalBarcode    *string          `json:"originalBarcode,omitempty"`
	HasPhysicalBarcode *bool            `json:"hasPhysicalBarcode,omitempty"`
	RackID             *string          `json:"rackId,omitempty"`
	RackSequence       *int             `json:"rackSequence,omitempty"`
	Category           *string          `json:"category,omitempty"`
	Brand              *string          `json:"brand,omitempty"`
	BrandForm          *string          `json:"brandForm,omitempty"`
	MRP                *decimal.Decimal `json:"mrp,omitempty"`
	SLP                *decimal.Decimal `json:"slp,omitempty"`
	RLP                *decimal.Decimal `json:"rlp,omitempty"`
	UPC                *string          `json:"upc,omitempty"`
	Units              *int             `json:"units,omitempty"`
	IsActive           *bool            `json:"isActive,omitempty"`
}

func UpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := productID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(ctx, id, catalog.UpdateProductInput{
			ProductName:        payload.ProductName,
			Variant:            payload.Variant,
			Barcode:            payload.Barcode,
			OriginalBarcode:    payload.OriginalBarcode,
			HasPhysicalBarcode: payload.HasPhysicalBarcode,
			RackID:             payload.RackID,
			RackSequence:       payload.RackSequence,
			Category:           payload.Category,
			Brand:              payload.Brand,
			BrandForm:          payload.BrandForm,
			MRP:                payload.MRP,
			SLP:                payload.SLP,
			RLP:                payload.RLP,
			UPC:                payload.UPC,
			Units:              payload.Units,
			IsActive:           payload.IsActive,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func productID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
	}
	return id, nil
}
