package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/stn-picking/internal/catalog"
	"github.com/angelmondragon/stn-picking/pkg/config"
	"github.com/angelmondragon/stn-picking/pkg/enums"
	pkgerrors "github.com/angelmondragon/stn-picking/pkg/errors"
	"github.com/angelmondragon/stn-picking/pkg/types"
)

const sampleCSV = "CombiBarCode+MRP,SBF,MRP\n8901_120,Soap,120\n"

func catalogRouter(svc catalog.Service) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/products", ListProducts(svc, testLogger()))
	r.Get("/api/products/{id}", GetProduct(svc, testLogger()))
	r.Post("/api/products", CreateProduct(svc, testLogger()))
	r.Post("/api/barcodes/generate", GenerateBarcode(svc, testLogger()))
	r.Post("/api/import/products", ImportProducts(svc, 1, testLogger()))
	return r
}

func TestListProductsParsesFilters(t *testing.T) {
	svc := &stubCatalog{}
	resp := httptest.NewRecorder()
	catalogRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/products?category=Soap&hasBarcode=false&page=2&limit=25", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if svc.lastList.Category != "Soap" || svc.lastList.Page.Page != 2 || svc.lastList.Page.Limit != 25 {
		t.Fatalf("unexpected input %+v", svc.lastList)
	}
	if svc.lastList.HasBarcode == nil || *svc.lastList.HasBarcode {
		t.Fatalf("expected hasBarcode=false")
	}
}

func TestListProductsLeavesHasBarcodeUnset(t *testing.T) {
	svc := &stubCatalog{}
	catalogRouter(svc).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/products", nil))
	if svc.lastList.HasBarcode != nil {
		t.Fatalf("expected nil hasBarcode filter")
	}
}

func TestGetProductRejectsBadID(t *testing.T) {
	svc := &stubCatalog{}
	resp := httptest.NewRecorder()
	catalogRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/products/not-a-uuid", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestGetProductNotFound(t *testing.T) {
	svc := &stubCatalog{
		getFn: func(ctx context.Context, id uuid.UUID) (*catalog.ProductDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		},
	}
	resp := httptest.NewRecorder()
	catalogRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/products/"+uuid.NewString(), nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestCreateProductDuplicateIsConflict(t *testing.T) {
	var got catalog.ProductInput
	svc := &stubCatalog{
		createFn: func(ctx context.Context, input catalog.ProductInput) (*catalog.ProductDTO, error) {
			got = input
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "Product code already exists")
		},
	}
	resp := httptest.NewRecorder()
	body := `{"productCode":"8901_120","productName":"Soap","mrp":"120.50"}`
	catalogRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body)))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
	if got.MRP == nil || got.MRP.String() != "120.5" {
		t.Fatalf("expected decimal MRP, got %v", got.MRP)
	}
}

func TestGenerateBarcodeDefaultsToQR(t *testing.T) {
	svc := &stubCatalog{}
	resp := httptest.NewRecorder()
	catalogRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/barcodes/generate", strings.NewReader(`{"productCode":"SKU-1"}`)))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	if svc.lastBarcode != enums.BarcodeTypeQR {
		t.Fatalf("expected QR, got %q", svc.lastBarcode)
	}
}

func TestGenerateBarcodeRejectsUnknownType(t *testing.T) {
	svc := &stubCatalog{}
	resp := httptest.NewRecorder()
	catalogRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/barcodes/generate", strings.NewReader(`{"productCode":"SKU-1","barcodeType":"PDF417"}`)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestImportProductsRawBody(t *testing.T) {
	svc := &stubCatalog{}
	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/import/products?clear=true", strings.NewReader(sampleCSV))
	req.Header.Set("Content-Type", "text/csv")
	catalogRouter(svc).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastImport != sampleCSV || !svc.lastClear {
		t.Fatalf("unexpected import %q clear=%v", svc.lastImport, svc.lastClear)
	}
}

func TestImportProductsMultipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "catalog.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte(sampleCSV))
	mw.Close()

	svc := &stubCatalog{}
	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/import/products", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	catalogRouter(svc).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastImport != sampleCSV || svc.lastClear {
		t.Fatalf("unexpected import %q clear=%v", svc.lastImport, svc.lastClear)
	}
}

func TestImportProductsMultipartWithoutFile(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("note", "no file here")
	mw.Close()

	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/import/products", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	catalogRouter(&stubCatalog{}).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestImportProductsTooLarge(t *testing.T) {
	svc := &stubCatalog{}
	resp := httptest.NewRecorder()
	big := strings.Repeat("x", 2<<20)
	catalogRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/import/products", strings.NewReader(big)))
	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.Code)
	}
	var env types.ErrorEnvelope
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if env.Error.Code != string(pkgerrors.CodeTooLarge) {
		t.Fatalf("expected %s, got %q", pkgerrors.CodeTooLarge, env.Error.Code)
	}
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	resp := httptest.NewRecorder()
	HealthReady(cfg, testLogger(), map[string]Pinger{"db": stubPinger{}, "redis": stubPinger{}}).
		ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	HealthReady(cfg, testLogger(), map[string]Pinger{"redis": stubPinger{err: context.DeadlineExceeded}}).
		ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	resp := httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK || resp.Header().Get("X-STN-Env") != "test" {
		t.Fatalf("unexpected live response %d", resp.Code)
	}
}
