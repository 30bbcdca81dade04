package controllers

import (
	"net/http"

	"github.com/angelmondragon/stn-picking/api/responses"
	"github.com/angelmondragon/stn-picking/api/validators"
	"github.com/angelmondragon/stn-picking/internal/catalog"
	"github.com/angelmondragon/stn-picking/pkg/logger"
)

type createBranchRequest struct {
	BranchID   string  `json:"branchId" validate:"required,max=50"`
	BranchName string  `json:"branchName" validate:"required,max=255"`
	Address    *string `json:"address,omitempty"`
	City       *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State      *string `json:"state,omitempty" validate:"omitempty,max=100"`
}

type createRackRequest struct {
	RackID   string  `json:"rackId" validate:"required,max=50"`
	Zone     *string `json:"zone,omitempty" validate:"omitempty,max=50"`
	Aisle    *string `json:"aisle,omitempty" validate:"omitempty,max=50"`
	Level    *int    `json:"level,omitempty"`
	Sequence int     `json:"sequence" validate:"min=0"`
	BranchID *string `json:"branchId,omitempty" validate:"omitempty,max=50"`
	Capacity *int    `json:"capacity,omitempty" validate:"omitempty,min=0"`
}

func ListBranches(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		branches, err := svc.ListBranches(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, branches)
	}
}

func CreateBranch(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload createBranchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		branch, err := svc.CreateBranch(ctx, catalog.BranchInput{
			BranchID:   payload.BranchID,
			BranchName: payload.BranchName,
			Address:    payload.Address,
			City:       payload.City,
			State:      payload.State,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteCreated(w, branch)
	}
}

// ListRacks accepts an optional branchId filter.
func ListRacks(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		racks, err := svc.ListRacks(ctx, validators.ParseQueryString(r, "branchId", 50))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, racks)
	}
}

func CreateRack(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload createRackRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		rack, err := svc.CreateRack(ctx, catalog.RackInput{
			RackID:   payload.RackID,
			Zone:     payload.Zone,
			Aisle:    payload.Aisle,
			Level:    payload.Level,
			Sequence: payload.Sequence,
			BranchID: payload.BranchID,
			Capacity: payload.Capacity,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteCreated(w, rack)
	}
}
