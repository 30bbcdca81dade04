package controllers

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stn-picking/internal/catalog"
	"github.com/angelmondragon/stn-picking/internal/picklists"
	"github.com/angelmondragon/stn-picking/pkg/enums"
)

type stubPickLists struct {
	applyFn  func(ctx context.Context, input picklists.ScanInput) (*picklists.ScanOutcome, error)
	removeFn func(ctx context.Context, ref, productCode string) (*picklists.UndoOutcome, error)
	createFn func(ctx context.Context, input picklists.CreateInput) (*picklists.PickListView, error)
	listFn   func(ctx context.Context, input picklists.ListInput) (*picklists.ListResult, error)
	statusFn func(ctx context.Context, ref string) (*picklists.StatusSummary, error)
	cancelFn func(ctx context.Context, ref, reason string) (*picklists.PickListView, error)
}

func (s *stubPickLists) ApplyScan(ctx context.Context, input picklists.ScanInput) (*picklists.ScanOutcome, error) {
	return s.applyFn(ctx, input)
}

func (s *stubPickLists) RemoveScan(ctx context.Context, ref, productCode string) (*picklists.UndoOutcome, error) {
	return s.removeFn(ctx, ref, productCode)
}

func (s *stubPickLists) Create(ctx context.Context, input picklists.CreateInput) (*picklists.PickListView, error) {
	return s.createFn(ctx, input)
}

func (s *stubPickLists) Get(ctx context.Context, ref string) (*picklists.PickListView, error) {
	return &picklists.PickListView{PickListID: ref}, nil
}

func (s *stubPickLists) List(ctx context.Context, input picklists.ListInput) (*picklists.ListResult, error) {
	return s.listFn(ctx, input)
}

func (s *stubPickLists) Status(ctx context.Context, ref string) (*picklists.StatusSummary, error) {
	return s.statusFn(ctx, ref)
}

func (s *stubPickLists) Cancel(ctx context.Context, ref, reason string) (*picklists.PickListView, error) {
	return s.cancelFn(ctx, ref, reason)
}

func (s *stubPickLists) CancelStale(ctx context.Context, cutoff time.Time, reason string) (int, error) {
	return 0, nil
}

type stubCatalog struct {
	catalog.Service

	lastList    catalog.ListProductsInput
	lastBarcode enums.BarcodeType
	lastImport  string
	lastClear   bool
	getFn       func(ctx context.Context, id uuid.UUID) (*catalog.ProductDTO, error)
	createFn    func(ctx context.Context, input catalog.ProductInput) (*catalog.ProductDTO, error)
	importErr   error
}

func (s *stubCatalog) ListProducts(ctx context.Context, input catalog.ListProductsInput) (*catalog.ProductList, error) {
	s.lastList = input
	return &catalog.ProductList{Products: []catalog.ProductDTO{}}, nil
}

func (s *stubCatalog) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.ProductDTO, error) {
	return s.getFn(ctx, id)
}

func (s *stubCatalog) CreateProduct(ctx context.Context, input catalog.ProductInput) (*catalog.ProductDTO, error) {
	return s.createFn(ctx, input)
}

func (s *stubCatalog) GenerateBarcode(ctx context.Context, productCode string, barcodeType enums.BarcodeType) (*catalog.GenerateResult, error) {
	s.lastBarcode = barcodeType
	return &catalog.GenerateResult{ProductCode: productCode, BarcodeType: string(barcodeType), GeneratedCode: "GEN-" + productCode}, nil
}

func (s *stubCatalog) ImportProducts(ctx context.Context, r io.Reader, opts catalog.ImportOptions) (*catalog.ImportStats, error) {
	if s.importErr != nil {
		return nil, s.importErr
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s.lastImport = string(body)
	s.lastClear = opts.Clear
	return &catalog.ImportStats{}, nil
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}
