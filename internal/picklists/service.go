package picklists

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/stn-picking/internal/catalog"
	"github.com/angelmondragon/stn-picking/internal/scanlogs"
	"github.com/angelmondragon/stn-picking/pkg/config"
	"github.com/angelmondragon/stn-picking/pkg/db"
	"github.com/angelmondragon/stn-picking/pkg/db/models"
	"github.com/angelmondragon/stn-picking/pkg/enums"
	pkgerrors "github.com/angelmondragon/stn-picking/pkg/errors"
	"github.com/angelmondragon/stn-picking/pkg/logger"
	"github.com/angelmondragon/stn-picking/pkg/metrics"
	"github.com/angelmondragon/stn-picking/pkg/outbox"
	"github.com/angelmondragon/stn-picking/pkg/outbox/payloads"
	"github.com/angelmondragon/stn-picking/pkg/pagination"
	"gorm.io/gorm"
)

const (
	msgPickListNotFound = "Pick list not found"
	msgItemNotInList    = "Item not in pick list"
	msgPickListInactive = "Pick list is cancelled"
	msgProductFound     = "Product found"
	msgNotInList        = "Product not in this pick list"
	msgExcess           = "Extra scan! Item already fully picked"
	msgScanRecorded     = "Scan recorded successfully"
	msgScanRemoved      = "Scan removed"

	codeConstraint    = "ux_pick_lists_code"
	codeConstraintAlt = "pick_lists.pick_list_code"
	listDateLayout    = "2006-01-02"
	staleBatchSize    = 100
)

// errConcurrentModification signals a lost conditional update; the unit of work is retried.
var errConcurrentModification = errors.New("pick list modified concurrently")

// Service exposes pick-list creation, scanning and reads.
type Service interface {
	ApplyScan(ctx context.Context, input ScanInput) (*ScanOutcome, error)
	RemoveScan(ctx context.Context, ref, productCode string) (*UndoOutcome, error)
	Create(ctx context.Context, input CreateInput) (*PickListView, error)
	Get(ctx context.Context, ref string) (*PickListView, error)
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Status(ctx context.Context, ref string) (*StatusSummary, error)
	Cancel(ctx context.Context, ref, reason string) (*PickListView, error)
	CancelStale(ctx context.Context, cutoff time.Time, reason string) (int, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type productResolver interface {
	Resolve(ctx context.Context, scannedCode string) (*catalog.Resolution, error)
}

type productCatalog interface {
	FindProductsByCodes(ctx context.Context, codes []string) (map[string]models.Product, error)
}

type codeSequence interface {
	Next(ctx context.Context) (string, error)
}

// ServiceParams groups the pick-list service dependencies.
type ServiceParams struct {
	Repo     *Repository
	ScanLogs *scanlogs.Repository
	Tx       txRunner
	Resolver productResolver
	Products productCatalog
	Sequence codeSequence
	Outbox   outboxPublisher
	Metrics  *metrics.ScanMetrics
	Logger   *logger.Logger
	Config   config.PickingConfig
}

type service struct {
	repo     *Repository
	scanLogs *scanlogs.Repository
	tx       txRunner
	resolver productResolver
	products productCatalog
	sequence codeSequence
	outbox   outboxPublisher
	metrics  *metrics.ScanMetrics
	logg     *logger.Logger
	cfg      config.PickingConfig
	loc      *time.Location
	now      func() time.Time

	// afterLoad runs right after the locked read; tests use it to race the row.
	afterLoad func(tx *gorm.DB, list *models.PickList)
}

// NewService validates dependencies and builds the pick-list service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("pick list repository required")
	}
	if params.ScanLogs == nil {
		return nil, fmt.Errorf("scan log repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("product resolver required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if params.Sequence == nil {
		return nil, fmt.Errorf("sequence generator required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	loc, err := params.Config.Location()
	if err != nil {
		return nil, err
	}
	cfg := params.Config
	if cfg.ScanRetries <= 0 {
		cfg.ScanRetries = 3
	}
	if cfg.CreateRetries <= 0 {
		cfg.CreateRetries = 3
	}
	if cfg.DefaultListLimit <= 0 {
		cfg.DefaultListLimit = pagination.DefaultLimit
	}
	return &service{
		repo:     params.Repo,
		scanLogs: params.ScanLogs,
		tx:       params.Tx,
		resolver: params.Resolver,
		products: params.Products,
		sequence: params.Sequence,
		outbox:   params.Outbox,
		metrics:  params.Metrics,
		logg:     params.Logger,
		cfg:      cfg,
		loc:      loc,
		now:      time.Now,
	}, nil
}

func (s *service) ApplyScan(ctx context.Context, input ScanInput) (*ScanOutcome, error) {
	start := s.now()
	code := strings.TrimSpace(input.ScannedCode)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Scanned code is required")
	}
	if input.DeviceType == "" {
		input.DeviceType = enums.DeviceTypeManual
	}
	if !input.DeviceType.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid device type %q", input.DeviceType)
	}
	input.ScannedCode = code
	ctx = s.logg.WithOperator(ctx, input.Operator)
	ctx = s.logg.WithBranch(ctx, input.Branch)

	resolution, err := s.resolver.Resolve(ctx, code)
	if err != nil {
		if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, err
		}
		outcome := &ScanOutcome{
			Success:     false,
			ScanResult:  enums.ScanResultNotFound,
			Message:     catalog.MsgProductNotFound,
			ScannedCode: code,
		}
		s.recordUnlisted(ctx, input, nil, outcome, "", start)
		return s.finish(ctx, outcome, "", start), nil
	}

	if strings.TrimSpace(input.PickListID) == "" {
		outcome := &ScanOutcome{
			Success:     true,
			ScanResult:  enums.ScanResultProductFound,
			Message:     msgProductFound,
			ScannedCode: code,
			Product:     newProductSummary(resolution.Product),
		}
		s.recordUnlisted(ctx, input, resolution.Product, outcome, resolution.Strategy, start)
		return s.finish(ctx, outcome, resolution.Strategy, start), nil
	}

	ctx = s.logg.WithPickList(ctx, strings.ToUpper(strings.TrimSpace(input.PickListID)))
	var outcome *ScanOutcome
	err = s.withRetry(ctx, func() error {
		var err error
		outcome, err = s.applyOnce(ctx, input, resolution, start)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, outcome, resolution.Strategy, start), nil
}

func (s *service) applyOnce(ctx context.Context, input ScanInput, resolution *catalog.Resolution, start time.Time) (*ScanOutcome, error) {
	product := resolution.Product
	var outcome *ScanOutcome
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		list, err := s.loadForUpdate(ctx, tx, repo, input.PickListID)
		if err != nil {
			return err
		}

		entry := &models.ScanLog{
			PickListID:   &list.ID,
			PickListCode: &list.PickListCode,
			ScannedCode:  input.ScannedCode,
			ProductCode:  &product.ProductCode,
			Operator:     optional(input.Operator),
			Branch:       optional(firstNonEmpty(input.Branch, list.Branch)),
			DeviceType:   input.DeviceType,
		}

		idx := findItem(list.Items, product.ProductCode)
		if idx < 0 {
			count, err := repo.IncrementErrorCount(ctx, list.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "increment error count")
			}
			list.ErrorCount = count
			outcome = &ScanOutcome{
				Success:     false,
				ScanResult:  enums.ScanResultNotInList,
				Message:     msgNotInList,
				ScannedCode: input.ScannedCode,
				Product:     newProductSummary(product),
			}
			entry.ScanResult = enums.ScanResultNotInList
			return s.recordScan(ctx, tx, list, entry, nil, resolution.Strategy, start)
		}

		item := &list.Items[idx]
		loadedPicked, loadedVersion := item.PickedQty, list.Version
		alreadySatisfied := loadedPicked >= item.RequiredQty

		item.PickedQty++
		transition := Project(list, s.now().UTC())
		if err := s.persist(ctx, repo, list, item, loadedPicked, loadedVersion); err != nil {
			return err
		}

		result, message := enums.ScanResultSuccess, msgScanRecorded
		if alreadySatisfied {
			result, message = enums.ScanResultExcess, msgExcess
		}
		outcome = &ScanOutcome{
			Success:          true,
			ScanResult:       result,
			Message:          message,
			Warning:          alreadySatisfied,
			ScannedCode:      input.ScannedCode,
			Product:          newProductSummary(product),
			PickedQty:        intPtr(item.PickedQty),
			RequiredQty:      intPtr(item.RequiredQty),
			IsComplete:       boolPtr(item.PickedQty >= item.RequiredQty),
			PickListComplete: boolPtr(list.Status == enums.PickListStatusCompleted),
		}
		entry.ScanResult = result
		entry.IsMatch = result.IsMatch()
		entry.ExpectedCode = item.Barcode
		if err := s.recordScan(ctx, tx, list, entry, item, resolution.Strategy, start); err != nil {
			return err
		}
		if transition.Changed() && transition.To == enums.PickListStatusCompleted {
			return s.emitStatus(ctx, tx, list, transition, enums.EventPickListCompleted, "", input.Operator)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func (s *service) RemoveScan(ctx context.Context, ref, productCode string) (*UndoOutcome, error) {
	code := strings.ToUpper(strings.TrimSpace(productCode))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "productCode is required")
	}
	ctx = s.logg.WithPickList(ctx, strings.ToUpper(strings.TrimSpace(ref)))

	var outcome *UndoOutcome
	err := s.withRetry(ctx, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			list, err := s.loadForUpdate(ctx, tx, repo, ref)
			if err != nil {
				return err
			}
			idx := findItem(list.Items, code)
			if idx < 0 {
				return pkgerrors.New(pkgerrors.CodeNotFound, msgItemNotInList)
			}
			item := &list.Items[idx]
			if item.PickedQty == 0 {
				outcome = &UndoOutcome{Success: true, Message: msgScanRemoved, PickedQty: 0}
				return nil
			}

			loadedPicked, loadedVersion := item.PickedQty, list.Version
			item.PickedQty--
			transition := Project(list, s.now().UTC())
			if err := s.persist(ctx, repo, list, item, loadedPicked, loadedVersion); err != nil {
				return err
			}
			if transition.Changed() && transition.From == enums.PickListStatusCompleted {
				if err := s.emitStatus(ctx, tx, list, transition, enums.EventPickListReopened, "scan removed", ""); err != nil {
					return err
				}
			}
			outcome = &UndoOutcome{Success: true, Message: msgScanRemoved, PickedQty: item.PickedQty}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*PickListView, error) {
	branch := strings.TrimSpace(input.Branch)
	if branch == "" || len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Branch and items are required")
	}
	requested, err := mergeItems(input.Items)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(requested))
	for _, item := range requested {
		codes = append(codes, item.ProductCode)
	}
	products, err := s.products.FindProductsByCodes(ctx, codes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}
	items := buildItems(requested, products)

	ctx = s.logg.WithBranch(ctx, branch)
	ctx = s.logg.WithOperator(ctx, input.Operator)

	var created *models.PickList
	for attempt := 1; attempt <= s.cfg.CreateRetries; attempt++ {
		code, err := s.sequence.Next(ctx)
		if err != nil {
			return nil, err
		}
		now := s.now().UTC()
		list := &models.PickList{
			PickListCode: code,
			Branch:       branch,
			Operator:     optional(input.Operator),
			Status:       enums.PickListStatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
			Items:        cloneItems(items),
		}
		Project(list, now)

		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.repo.WithTx(tx).Create(ctx, list); err != nil {
				return err
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPickListCreated,
				AggregateType: enums.AggregatePickList,
				AggregateID:   list.ID,
				Actor:         outbox.NewActor(input.Operator, branch),
				Data: payloads.PickListCreatedEvent{
					PickListID:   list.ID,
					PickListCode: list.PickListCode,
					Branch:       list.Branch,
					ItemCount:    len(list.Items),
					TotalItems:   list.TotalItems,
					CreatedAt:    list.CreatedAt,
				},
				OccurredAt: now,
			})
		})
		if err == nil {
			created = list
			break
		}
		if !isCodeCollision(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create pick list")
		}
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"pick_list_code": code, "attempt": attempt}), "pick list code collision")
	}
	if created == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique pick list id")
	}

	logCtx := s.logg.WithFields(s.logg.WithPickList(ctx, created.PickListCode), map[string]any{
		"item_count":  len(created.Items),
		"total_items": created.TotalItems,
	})
	s.logg.Info(logCtx, "pick list created")

	view := newPickListView(created, true)
	return &view, nil
}

func (s *service) Get(ctx context.Context, ref string) (*PickListView, error) {
	list, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	view := newPickListView(list, true)
	return &view, nil
}

func (s *service) Status(ctx context.Context, ref string) (*StatusSummary, error) {
	list, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	summary := summarize(list)
	return &summary, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	filter := ListFilter{Branch: strings.TrimSpace(input.Branch)}
	if strings.TrimSpace(input.Status) != "" {
		status, err := enums.ParsePickListStatus(input.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		filter.Status = status
	}
	if date := strings.TrimSpace(input.Date); date != "" {
		day, err := time.ParseInLocation(listDateLayout, date, s.loc)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "date must be YYYY-MM-DD")
		}
		from := day.UTC()
		to := day.AddDate(0, 0, 1).UTC()
		filter.From, filter.To = &from, &to
	}
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	filter.Cursor = cursor

	limit := input.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultListLimit
	}
	limit = pagination.NormalizeLimit(limit)
	filter.Limit = pagination.LimitWithBuffer(limit)

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pick lists")
	}

	rows, next := pagination.Trim(rows, limit, func(pl models.PickList) pagination.Cursor {
		return pagination.Cursor{CreatedAt: pl.CreatedAt, ID: pl.ID}
	})
	result := &ListResult{PickLists: make([]PickListView, 0, len(rows)), NextCursor: next}
	for i := range rows {
		result.PickLists = append(result.PickLists, newPickListView(&rows[i], false))
	}
	return result, nil
}

func (s *service) Cancel(ctx context.Context, ref, reason string) (*PickListView, error) {
	ctx = s.logg.WithPickList(ctx, strings.ToUpper(strings.TrimSpace(ref)))
	var cancelled *models.PickList
	err := s.withRetry(ctx, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			list, err := s.loadForUpdate(ctx, tx, repo, ref)
			if err != nil {
				return err
			}
			if list.Status == enums.PickListStatusCompleted {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "Completed pick list cannot be cancelled")
			}

			loadedVersion := list.Version
			transition := Transition{From: list.Status, To: enums.PickListStatusCancelled}
			list.Status = enums.PickListStatusCancelled
			ok, err := repo.UpdateListState(ctx, list, loadedVersion)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel pick list")
			}
			if !ok {
				return errConcurrentModification
			}
			if err := s.emitStatus(ctx, tx, list, transition, enums.EventPickListCancelled, reason, ""); err != nil {
				return err
			}
			cancelled = list
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "reason", reason), "pick list cancelled")
	view := newPickListView(cancelled, true)
	return &view, nil
}

// CancelStale cancels PENDING lists created before cutoff. Lists that moved on
// in the meantime are skipped.
func (s *service) CancelStale(ctx context.Context, cutoff time.Time, reason string) (int, error) {
	stale, err := s.repo.ListStalePending(ctx, cutoff.UTC(), staleBatchSize)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list stale pick lists")
	}
	cancelled := 0
	for _, list := range stale {
		if _, err := s.Cancel(ctx, list.ID.String(), reason); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) || pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				continue
			}
			return cancelled, err
		}
		cancelled++
	}
	return cancelled, nil
}

func (s *service) load(ctx context.Context, ref string) (*models.PickList, error) {
	list, err := s.repo.FindByReference(ctx, ref, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pick list")
	}
	if list == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgPickListNotFound)
	}
	items, err := s.repo.LoadItems(ctx, list.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pick list items")
	}
	list.Items = items
	return list, nil
}

// loadForUpdate reads the list under a row lock with its items. Cancelled
// lists are rejected.
func (s *service) loadForUpdate(ctx context.Context, tx *gorm.DB, repo *Repository, ref string) (*models.PickList, error) {
	list, err := repo.FindByReference(ctx, ref, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pick list")
	}
	if list == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgPickListNotFound)
	}
	if s.afterLoad != nil {
		s.afterLoad(tx, list)
	}
	if list.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, msgPickListInactive)
	}
	items, err := repo.LoadItems(ctx, list.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pick list items")
	}
	list.Items = items
	return list, nil
}

func (s *service) persist(ctx context.Context, repo *Repository, list *models.PickList, item *models.PickListItem, loadedPicked, loadedVersion int) error {
	ok, err := repo.UpdateItemQty(ctx, item, loadedPicked)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update pick list item")
	}
	if !ok {
		return errConcurrentModification
	}
	ok, err = repo.UpdateListState(ctx, list, loadedVersion)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update pick list")
	}
	if !ok {
		return errConcurrentModification
	}
	return nil
}

// withRetry reruns fn while it loses a conditional update, up to the configured attempts.
func (s *service) withRetry(ctx context.Context, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if !errors.Is(err, errConcurrentModification) {
			return err
		}
		s.metrics.IncConflictRetry()
		if attempt >= s.cfg.ScanRetries {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "pick list was modified concurrently, please retry")
		}
		s.logg.Warn(s.logg.WithField(ctx, "attempt", attempt), "pick list write conflict, retrying")
	}
}

// recordScan appends the scan log inside a savepoint. A failed write is
// reported and dropped; the surrounding mutation still commits.
func (s *service) recordScan(ctx context.Context, tx *gorm.DB, list *models.PickList, entry *models.ScanLog, item *models.PickListItem, strategy string, start time.Time) error {
	elapsed := int(s.now().Sub(start).Milliseconds())
	entry.ResponseTimeMS = &elapsed
	entry.CreatedAt = s.now().UTC()

	err := tx.Transaction(func(sp *gorm.DB) error {
		return s.scanLogs.WithTx(sp).Insert(ctx, entry)
	})
	if err != nil {
		s.metrics.IncLogFailure()
		s.logg.Error(ctx, "scan log write failed", err)
		return nil
	}

	data := scanRecorded(entry, strategy, item)
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventScanRecorded,
		AggregateType: enums.AggregatePickList,
		AggregateID:   list.ID,
		Actor:         outbox.NewActor(data.Operator, data.Branch),
		Data:          data,
		OccurredAt:    entry.CreatedAt,
	})
}

// recordUnlisted logs a scan that did not touch a pick list in its own
// transaction. Failures never change the outcome.
func (s *service) recordUnlisted(ctx context.Context, input ScanInput, product *models.Product, outcome *ScanOutcome, strategy string, start time.Time) {
	entry := &models.ScanLog{
		ScannedCode: input.ScannedCode,
		ScanResult:  outcome.ScanResult,
		IsMatch:     outcome.ScanResult.IsMatch(),
		Operator:    optional(input.Operator),
		Branch:      optional(input.Branch),
		DeviceType:  input.DeviceType,
	}
	if product != nil {
		entry.ProductCode = &product.ProductCode
	}
	elapsed := int(s.now().Sub(start).Milliseconds())
	entry.ResponseTimeMS = &elapsed
	entry.CreatedAt = s.now().UTC()

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.scanLogs.WithTx(tx).Insert(ctx, entry); err != nil {
			return err
		}
		data := scanRecorded(entry, strategy, nil)
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventScanRecorded,
			AggregateType: enums.AggregateScanLog,
			AggregateID:   entry.ID,
			Actor:         outbox.NewActor(input.Operator, input.Branch),
			Data:          data,
			OccurredAt:    entry.CreatedAt,
		})
	})
	if err != nil {
		s.metrics.IncLogFailure()
		s.logg.Error(ctx, "scan log write failed", err)
	}
}

func (s *service) emitStatus(ctx context.Context, tx *gorm.DB, list *models.PickList, transition Transition, eventType enums.OutboxEventType, reason, operator string) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregatePickList,
		AggregateID:   list.ID,
		Actor:         outbox.NewActor(operator, list.Branch),
		Data: payloads.PickListStatusEvent{
			PickListID:   list.ID,
			PickListCode: list.PickListCode,
			Branch:       list.Branch,
			From:         transition.From,
			To:           transition.To,
			TotalItems:   list.TotalItems,
			PickedItems:  list.PickedItems,
			ErrorCount:   list.ErrorCount,
			Reason:       reason,
			ChangedAt:    s.now().UTC(),
		},
	})
}

func (s *service) finish(ctx context.Context, outcome *ScanOutcome, strategy string, start time.Time) *ScanOutcome {
	elapsed := s.now().Sub(start)
	outcome.ResponseTimeMS = int(elapsed.Milliseconds())
	outcome.Strategy = strategy
	s.metrics.ObserveScan(string(outcome.ScanResult), strategy, elapsed)

	fields := map[string]any{
		"scanned_code":     outcome.ScannedCode,
		"scan_result":      outcome.ScanResult,
		"response_time_ms": outcome.ResponseTimeMS,
	}
	if strategy != "" {
		fields["strategy"] = strategy
	}
	if outcome.Product != nil {
		fields["product_code"] = outcome.Product.ProductCode
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), "scan applied")
	return outcome
}

func scanRecorded(entry *models.ScanLog, strategy string, item *models.PickListItem) payloads.ScanRecordedEvent {
	data := payloads.ScanRecordedEvent{
		ScanLogID:   entry.ID,
		PickListID:  entry.PickListID,
		ScannedCode: entry.ScannedCode,
		Strategy:    strategy,
		ScanResult:  entry.ScanResult,
		IsMatch:     entry.IsMatch,
		DeviceType:  entry.DeviceType,
		ScannedAt:   entry.CreatedAt,
	}
	if entry.PickListCode != nil {
		data.PickListCode = *entry.PickListCode
	}
	if entry.ProductCode != nil {
		data.ProductCode = *entry.ProductCode
	}
	if entry.Operator != nil {
		data.Operator = *entry.Operator
	}
	if entry.Branch != nil {
		data.Branch = *entry.Branch
	}
	if entry.ResponseTimeMS != nil {
		data.ResponseTimeMS = *entry.ResponseTimeMS
	}
	if item != nil {
		data.PickedQty = item.PickedQty
		data.RequiredQty = item.RequiredQty
	}
	return data
}

// mergeItems validates the requested lines, upper-cases codes and sums
// duplicates in first-seen order.
func mergeItems(input []CreateItemInput) ([]CreateItemInput, error) {
	merged := make([]CreateItemInput, 0, len(input))
	index := make(map[string]int, len(input))
	for i, item := range input {
		code := strings.ToUpper(strings.TrimSpace(item.ProductCode))
		if code == "" {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "items[%d].productCode is required", i)
		}
		if item.RequiredQty < 1 {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "items[%d].requiredQty must be at least 1", i)
		}
		if pos, ok := index[code]; ok {
			merged[pos].RequiredQty += item.RequiredQty
			continue
		}
		item.ProductCode = code
		index[code] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

// buildItems snapshots product details onto each line and orders the lines
// by rack then rack sequence. Lines without a rack sort first.
func buildItems(requested []CreateItemInput, products map[string]models.Product) []models.PickListItem {
	items := make([]models.PickListItem, 0, len(requested))
	for _, req := range requested {
		item := models.PickListItem{
			ProductCode: req.ProductCode,
			RequiredQty: req.RequiredQty,
			RackID:      req.RackID,
			ItemStatus:  enums.ItemStatusPending,
		}
		if req.RackSequence != nil {
			item.RackSequence = *req.RackSequence
		}
		if product, ok := products[req.ProductCode]; ok {
			id := product.ID
			name := product.ProductName
			item.ProductID = &id
			item.ProductName = &name
			item.Barcode = product.Barcode
			if product.RackID != nil && *product.RackID != "" {
				item.RackID = product.RackID
			}
			if product.RackSequence != nil && *product.RackSequence != 0 {
				item.RackSequence = *product.RackSequence
			}
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := deref(items[i].RackID), deref(items[j].RackID)
		if ri != rj {
			return ri < rj
		}
		return items[i].RackSequence < items[j].RackSequence
	})
	for i := range items {
		items[i].Position = i + 1
	}
	return items
}

func cloneItems(items []models.PickListItem) []models.PickListItem {
	out := make([]models.PickListItem, len(items))
	copy(out, items)
	return out
}

func findItem(items []models.PickListItem, productCode string) int {
	for i := range items {
		if items[i].ProductCode == productCode {
			return i
		}
	}
	return -1
}

func isCodeCollision(err error) bool {
	return db.IsUniqueViolation(err, codeConstraint) || db.IsUniqueViolation(err, codeConstraintAlt)
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
