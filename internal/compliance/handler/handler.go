package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"iter"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"complytrack/internal/compliance/aggregate"
	"complytrack/internal/compliance/audit"
	"complytrack/internal/compliance/gaps"
	"complytrack/internal/compliance/models"
	"complytrack/internal/compliance/sweep"
	id "complytrack/pkg/domain"
	"complytrack/pkg/platform/httputil"
	"complytrack/pkg/requestcontext"
)

// DefaultDeadlineWindowDays is used when a report request gives no within_days.
const DefaultDeadlineWindowDays = 30

// Service defines the compliance operations exposed over HTTP.
type Service interface {
	CreateItem(ctx context.Context, req models.CreateItemRequest) (*models.Item, error)
	GetItem(ctx context.Context, itemID id.ItemID) (*models.Item, error)
	ListItems(ctx context.Context, filter models.ItemFilter) iter.Seq2[*models.Item, error]
	UpdateScore(ctx context.Context, itemID id.ItemID, score int) (*models.Item, error)
	SetManualStatus(ctx context.Context, itemID id.ItemID, target models.Status) (*models.Item, error)
	AttachEvidence(ctx context.Context, itemID id.ItemID, refs []string) (*models.Item, error)
	RecordReview(ctx context.Context, itemID id.ItemID, reviewedAt *time.Time) (*models.Item, error)
	Renew(ctx context.Context, itemID id.ItemID, req models.RenewRequest) (*models.Item, error)
	RefreshItem(ctx context.Context, itemID id.ItemID) (*models.Item, bool, error)
	OpenGap(ctx context.Context, itemID id.ItemID, req models.OpenGapRequest) (*models.Gap, *models.Item, error)
	GetGap(ctx context.Context, gapID id.GapID) (*models.Gap, *models.Item, error)
	StartGap(ctx context.Context, gapID id.GapID) (*models.Gap, *models.Item, error)
	ResolveGap(ctx context.Context, gapID id.GapID, notes string) (*models.Gap, *models.Item, error)
	ListGaps(ctx context.Context, itemID id.ItemID, filter gaps.Filter) iter.Seq2[models.Gap, error]
	Aggregate(ctx context.Context, filter models.ItemFilter, withinDays int) (*aggregate.Report, error)
	UpcomingDeadlines(ctx context.Context, withinDays int) ([]aggregate.Deadline, error)
	AuditTrail(ctx context.Context, filter audit.Filter) iter.Seq2[audit.Entry, error]
}

// Sweeper runs an on-demand re-derivation sweep.
type Sweeper interface {
	SweepOnce(ctx context.Context) (sweep.Result, error)
}

// Handler wires compliance endpoints to the compliance service.
type Handler struct {
	service Service
	sweeper Sweeper
	logger  *slog.Logger
}

// New constructs a compliance handler. sweeper may be nil, which leaves the
// admin sweep endpoint unregistered.
func New(service Service, sweeper Sweeper, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		sweeper: sweeper,
		logger:  logger,
	}
}

// Register mounts the actor-authenticated endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/items", func(r chi.Router) {
		r.Post("/", h.HandleCreateItem)
		r.Get("/", h.HandleListItems)
		r.Route("/{itemID}", func(r chi.Router) {
			r.Get("/", h.HandleGetItem)
			r.Put("/score", h.HandleUpdateScore)
			r.Put("/status", h.HandleSetStatus)
			r.Post("/evidence", h.HandleAttachEvidence)
			r.Post("/review", h.HandleRecordReview)
			r.Post("/renew", h.HandleRenew)
			r.Post("/refresh", h.HandleRefresh)
			r.Post("/gaps", h.HandleOpenGap)
			r.Get("/gaps", h.HandleListGaps)
		})
	})
	r.Get("/gaps/{gapID}", h.HandleGetGap)
	r.Post("/gaps/{gapID}/start", h.HandleStartGap)
	r.Post("/gaps/{gapID}/resolve", h.HandleResolveGap)
	r.Get("/aggregate", h.HandleAggregate)
	r.Get("/deadlines", h.HandleDeadlines)
	r.Get("/audit", h.HandleAuditTrail)
}

// RegisterAdmin mounts operator endpoints. The caller guards the router.
func (h *Handler) RegisterAdmin(r chi.Router) {
	if h.sweeper != nil {
		r.Post("/admin/sweep", h.HandleSweep)
	}
}

// HandleCreateItem handles POST /items.
func (h *Handler) HandleCreateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.CreateItemRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	item, err := h.service.CreateItem(ctx, *req)
	if err != nil {
		h.fail(ctx, w, "create item failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, item)
}

// HandleListItems handles GET /items.
func (h *Handler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseItemFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	items := []*models.Item{}
	for item, err := range h.service.ListItems(ctx, filter) {
		if err != nil {
			h.fail(ctx, w, "list items failed", err)
			return
		}
		items = append(items, item)
	}
	httputil.WriteJSON(w, http.StatusOK, ItemListResponse{Items: items, Count: len(items)})
}

// HandleGetItem handles GET /items/{itemID}.
func (h *Handler) HandleGetItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}

	item, err := h.service.GetItem(ctx, itemID)
	if err != nil {
		h.fail(ctx, w, "get item failed", err, "item_id", itemID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, item)
}

// HandleUpdateScore handles PUT /items/{itemID}/score.
func (h *Handler) HandleUpdateScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateScoreRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	item, err := h.service.UpdateScore(ctx, itemID, *req.Score)
	if err != nil {
		h.fail(ctx, w, "update score failed", err, "item_id", itemID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, item)
}

// HandleSetStatus handles PUT /items/{itemID}/status.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetStatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	item, err := h.service.SetManualStatus(ctx, itemID, req.parsed)
	if err != nil {
		h.fail(ctx, w, "set status failed", err, "item_id", itemID, "target", req.parsed)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, item)
}

// HandleAttachEvidence handles POST /items/{itemID}/evidence.
func (h *Handler) HandleAttachEvidence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AttachEvidenceRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	item, err := h.service.AttachEvidence(ctx, itemID, req.EvidenceRefs)
	if err != nil {
		h.fail(ctx, w, "attach evidence failed", err, "item_id", itemID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, item)
}

// HandleRecordReview handles POST /items/{itemID}/review. The body is optional.
func (h *Handler) HandleRecordReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	req := &RecordReviewRequest{}
	if r.ContentLength != 0 {
		if req, ok = httputil.DecodeAndPrepare[RecordReviewRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx)); !ok {
			return
		}
	}

	item, err := h.service.RecordReview(ctx, itemID, req.ReviewedAt)
	if err != nil {
		h.fail(ctx, w, "record review failed", err, "item_id", itemID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, item)
}

// HandleRenew handles POST /items/{itemID}/renew.
func (h *Handler) HandleRenew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.RenewRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	item, err := h.service.Renew(ctx, itemID, *req)
	if err != nil {
		h.fail(ctx, w, "renew failed", err, "item_id", itemID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, item)
}

// HandleRefresh handles POST /items/{itemID}/refresh.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}

	item, changed, err := h.service.RefreshItem(ctx, itemID)
	if err != nil {
		h.fail(ctx, w, "refresh failed", err, "item_id", itemID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RefreshResponse{Item: item, Changed: changed})
}

// HandleOpenGap handles POST /items/{itemID}/gaps.
func (h *Handler) HandleOpenGap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.OpenGapRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	gap, item, err := h.service.OpenGap(ctx, itemID, *req)
	if err != nil {
		h.fail(ctx, w, "open gap failed", err, "item_id", itemID)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, GapResponse{Gap: gap, Item: item})
}

// HandleListGaps handles GET /items/{itemID}/gaps.
func (h *Handler) HandleListGaps(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	filter, err := parseGapFilter(r.URL.Query(), requestcontext.Now(ctx).UTC())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := []models.Gap{}
	for g, err := range h.service.ListGaps(ctx, itemID, filter) {
		if err != nil {
			h.fail(ctx, w, "list gaps failed", err, "item_id", itemID)
			return
		}
		out = append(out, g)
	}
	httputil.WriteJSON(w, http.StatusOK, GapListResponse{Gaps: out, Count: len(out)})
}

// HandleGetGap handles GET /gaps/{gapID}.
func (h *Handler) HandleGetGap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gapID, ok := h.gapID(w, r)
	if !ok {
		return
	}

	gap, item, err := h.service.GetGap(ctx, gapID)
	if err != nil {
		h.fail(ctx, w, "get gap failed", err, "gap_id", gapID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, GapResponse{Gap: gap, Item: item})
}

// HandleStartGap handles POST /gaps/{gapID}/start.
func (h *Handler) HandleStartGap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gapID, ok := h.gapID(w, r)
	if !ok {
		return
	}

	gap, item, err := h.service.StartGap(ctx, gapID)
	if err != nil {
		h.fail(ctx, w, "start gap failed", err, "gap_id", gapID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, GapResponse{Gap: gap, Item: item})
}

// HandleResolveGap handles POST /gaps/{gapID}/resolve.
func (h *Handler) HandleResolveGap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gapID, ok := h.gapID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ResolveGapRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	gap, item, err := h.service.ResolveGap(ctx, gapID, req.ResolutionNotes)
	if err != nil {
		h.fail(ctx, w, "resolve gap failed", err, "gap_id", gapID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, GapResponse{Gap: gap, Item: item})
}

// HandleAggregate handles GET /aggregate.
func (h *Handler) HandleAggregate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	filter, err := parseItemFilter(q)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	within, err := parseWithinDays(q, DefaultDeadlineWindowDays)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.service.Aggregate(ctx, filter, within)
	if err != nil {
		h.fail(ctx, w, "aggregate failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleDeadlines handles GET /deadlines.
func (h *Handler) HandleDeadlines(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	within, err := parseWithinDays(r.URL.Query(), DefaultDeadlineWindowDays)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	deadlines, err := h.service.UpcomingDeadlines(ctx, within)
	if err != nil {
		h.fail(ctx, w, "upcoming deadlines failed", err)
		return
	}
	if deadlines == nil {
		deadlines = []aggregate.Deadline{}
	}
	httputil.WriteJSON(w, http.StatusOK, DeadlinesResponse{WithinDays: within, Deadlines: deadlines})
}

// HandleAuditTrail handles GET /audit.
func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseAuditFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries := []audit.Entry{}
	for e, err := range h.service.AuditTrail(ctx, filter) {
		if err != nil {
			h.fail(ctx, w, "audit trail failed", err)
			return
		}
		entries = append(entries, e)
	}
	httputil.WriteJSON(w, http.StatusOK, AuditTrailResponse{Entries: entries, Count: len(entries)})
}

// HandleSweep handles POST /admin/sweep.
func (h *Handler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	res, err := h.sweeper.SweepOnce(ctx)
	if err != nil {
		h.fail(ctx, w, "manual sweep failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SweepResponse{
		Checked:    res.Checked,
		Changed:    res.Changed,
		Failed:     res.Failed,
		DurationMS: time.Since(start).Milliseconds(),
	})
}

func (h *Handler) itemID(w http.ResponseWriter, r *http.Request) (id.ItemID, bool) {
	itemID, err := id.ParseItemID(chi.URLParam(r, "itemID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ItemID{}, false
	}
	return itemID, true
}

func (h *Handler) gapID(w http.ResponseWriter, r *http.Request) (id.GapID, bool) {
	gapID, err := id.ParseGapID(chi.URLParam(r, "gapID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.GapID{}, false
	}
	return gapID, true
}

// fail logs a service error with request context and writes the response.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error, attrs ...any) {
	attrs = append(attrs,
		"request_id", requestcontext.RequestID(ctx),
		"actor_id", requestcontext.Actor(ctx).ID,
		"error", err,
	)
	h.logger.WarnContext(ctx, msg, attrs...)
	httputil.WriteError(w, err)
}
