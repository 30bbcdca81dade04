package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/stn-picking/api/responses"
	"github.com/angelmondragon/stn-picking/api/validators"
	"github.com/angelmondragon/stn-picking/internal/catalog"
	"github.com/angelmondragon/stn-picking/pkg/enums"
	pkgerrors "github.com/angelmondragon/stn-picking/pkg/errors"
	"github.com/angelmondragon/stn-picking/pkg/logger"
)

type generateBarcodeRequest struct {
	ProductCode string  `json:"productCode" validate:"required,scancode,max=128"`
	BarcodeType *string `json:"barcodeType,omitempty"`
}

// GenerateBarcode mints a printable code for a product.
func GenerateBarcode(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload generateBarcodeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		barcodeType := enums.BarcodeTypeQR
		if raw := deref(payload.BarcodeType); raw != "" {
			parsed, err := enums.ParseBarcodeType(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid barcodeType"))
				return
			}
			barcodeType = parsed
		}

		result, err := svc.GenerateBarcode(ctx, validators.SanitizeString(payload.ProductCode, maxCodeLen), barcodeType)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteCreated(w, result)
	}
}

func ListUnassignedBarcodes(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		products, err := svc.ListUnassigned(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func ListProductBarcodes(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		codes, err := svc.ListProductBarcodes(ctx, validators.SanitizeString(chi.URLParam(r, "productCode"), maxCodeLen))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, codes)
	}
}

func MarkBarcodePrinted(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		code, err := svc.MarkPrinted(ctx, validators.SanitizeString(chi.URLParam(r, "code"), maxCodeLen))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, code)
	}
}
