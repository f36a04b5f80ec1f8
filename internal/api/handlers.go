package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"

	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/engine"
	"github.com/Veraticus/sheetsync/internal/metrics"
	"github.com/Veraticus/sheetsync/internal/model"
	"github.com/Veraticus/sheetsync/internal/parser"
	"github.com/Veraticus/sheetsync/internal/service"
	"github.com/Veraticus/sheetsync/internal/sheets"
	"github.com/Veraticus/sheetsync/internal/storage"
)

const (
	maxBodyBytes      = 10 << 20
	defaultPeriodDays = 30
	maxPeriodDays     = 366
	defaultAlertLimit = 20
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	store  service.Storage
	engine *engine.Engine
	reader service.SheetReader
	logger *slog.Logger
	now    func() time.Time
}

// NewHandler creates a handler. reader may be nil, in which case the
// connect and pull endpoints report that sheets are not configured.
func NewHandler(store service.Storage, eng *engine.Engine, reader service.SheetReader, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:  store,
		engine: eng,
		reader: reader,
		logger: logger,
		now:    time.Now,
	}
}

// Health reports that the server is up.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// PushSync ingests rows pushed by a sheet script.
// POST /api/sheets/sync
func (h *Handler) PushSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := strings.TrimSpace(r.Header.Get(HeaderSyncToken))
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Missing "+HeaderSyncToken+" header", nil)
		return
	}
	syncToken, err := h.store.ValidateSyncToken(ctx, token)
	if err != nil {
		h.writeErr(w, r, "Invalid or inactive sync token", err)
		return
	}

	var req PushRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.SheetType == "" || len(req.Rows) == 0 {
		writeError(w, http.StatusBadRequest, "Missing sheetType or rows array", nil)
		return
	}

	recordType, err := model.ParseRecordType(req.SheetType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown sheetType", err)
		return
	}
	batch, err := parser.FromPayload(recordType, req.Rows)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rows", err)
		return
	}

	report, err := h.engine.SyncBatch(ctx, syncToken.UserID, batch)
	if report == nil {
		h.writeErr(w, r, "Sync failed", err)
		return
	}

	if touchErr := h.store.TouchSyncToken(ctx, token); touchErr != nil {
		h.logger.Warn("failed to stamp sync token", "token_id", syncToken.ID, "error", touchErr)
	}

	resp := newSyncResponse(report, err)
	resp.SheetType = recordType
	writeJSON(w, syncStatus(err), resp)
}

// PullSync reads the caller's connected spreadsheet and syncs it.
// POST /api/sheets/pull
func (h *Handler) PullSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFrom(ctx)

	if _, err := h.store.GetOrCreateUser(ctx, userID, "", ""); err != nil {
		h.writeErr(w, r, "Failed to load user", err)
		return
	}

	report, err := h.engine.PullSheet(ctx, userID)
	if report == nil {
		h.writeErr(w, r, "Sync failed", err)
		return
	}
	writeJSON(w, syncStatus(err), newSyncResponse(report, err))
}

// CronSync pulls every connected spreadsheet.
// GET /api/cron/sync
func (h *Handler) CronSync(w http.ResponseWriter, r *http.Request) {
	summary, err := h.engine.SyncAllSheets(r.Context(), nil)
	if err != nil {
		h.writeErr(w, r, "Scheduled sync failed", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetConnection returns the caller's connected spreadsheet, if any.
// GET /api/sheets/connect
func (h *Handler) GetConnection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFrom(ctx)

	if _, err := h.store.GetOrCreateUser(ctx, userID, "", ""); err != nil {
		h.writeErr(w, r, "Failed to load user", err)
		return
	}

	resp := ConnectionResponse{ServiceAccountEmail: h.serviceAccountEmail()}
	sheet, err := h.store.GetUserSheet(ctx, userID)
	switch {
	case err == nil:
		resp.Sheet = sheet
	case !errors.Is(err, common.ErrNoSheet):
		h.writeErr(w, r, "Failed to load connected sheet", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Connect validates access to a spreadsheet URL and connects it.
// POST /api/sheets/connect
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFrom(ctx)

	var req ConnectRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.SheetURL) == "" {
		writeError(w, http.StatusBadRequest, "Missing sheetUrl", nil)
		return
	}
	sheetID, ok := sheets.ExtractSheetID(req.SheetURL)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid Google Sheets URL", nil)
		return
	}
	if h.reader == nil {
		h.writeErr(w, r, "Google Sheets is not configured", common.ErrMissingConfig)
		return
	}

	info, err := h.reader.ValidateAccess(ctx, sheetID)
	if err != nil {
		if errors.Is(err, sheets.ErrNoAccess) {
			writeJSON(w, http.StatusForbidden, struct {
				ErrorResponse
				ServiceAccountEmail string `json:"serviceAccountEmail,omitempty"`
			}{
				ErrorResponse:       ErrorResponse{Error: common.UserMessage(err)},
				ServiceAccountEmail: h.serviceAccountEmail(),
			})
			return
		}
		h.writeErr(w, r, "Failed to open spreadsheet", err)
		return
	}

	if _, err := h.store.GetOrCreateUser(ctx, userID, req.Email, req.Name); err != nil {
		h.writeErr(w, r, "Failed to load user", err)
		return
	}

	sheet := &model.UserSheet{
		UserID:   userID,
		SheetID:  sheetID,
		SheetURL: req.SheetURL,
		Title:    info.Title,
	}
	if err := h.store.SaveUserSheet(ctx, sheet); err != nil {
		h.writeErr(w, r, "Failed to connect sheet", err)
		return
	}

	writeJSON(w, http.StatusOK, ConnectionResponse{
		Sheet:    sheet,
		Metadata: &SheetMetadata{Title: info.Title, Tabs: info.Tabs},
	})
}

// Disconnect deactivates the caller's connected spreadsheet.
// DELETE /api/sheets/connect
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteUserSheet(r.Context(), userIDFrom(r.Context())); err != nil {
		h.writeErr(w, r, "Failed to disconnect sheet", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// ListSyncTokens returns the caller's sync tokens.
// GET /api/sync-tokens
func (h *Handler) ListSyncTokens(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFrom(ctx)

	if _, err := h.store.GetOrCreateUser(ctx, userID, "", ""); err != nil {
		h.writeErr(w, r, "Failed to load user", err)
		return
	}
	tokens, err := h.store.GetSyncTokens(ctx, userID)
	if err != nil {
		h.writeErr(w, r, "Failed to list sync tokens", err)
		return
	}
	if tokens == nil {
		tokens = []model.SyncToken{}
	}
	writeJSON(w, http.StatusOK, tokens)
}

// CreateSyncToken issues a new sync token.
// POST /api/sync-tokens
func (h *Handler) CreateSyncToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFrom(ctx)

	var req CreateTokenRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Label) == "" {
		req.Label = "Google Sheets"
	}

	if _, err := h.store.GetOrCreateUser(ctx, userID, req.Email, req.Name); err != nil {
		h.writeErr(w, r, "Failed to load user", err)
		return
	}
	token, err := h.store.CreateSyncToken(ctx, userID, req.Label)
	if err != nil {
		h.writeErr(w, r, "Failed to create sync token", err)
		return
	}
	writeJSON(w, http.StatusCreated, token)
}

// RevokeSyncToken deletes one of the caller's sync tokens.
// DELETE /api/sync-tokens/{id}
func (h *Handler) RevokeSyncToken(w http.ResponseWriter, r *http.Request) {
	id, err := cast.ToInt64E(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid token id", err)
		return
	}
	if err := h.store.DeleteSyncToken(r.Context(), userIDFrom(r.Context()), id); err != nil {
		h.writeErr(w, r, "Failed to revoke sync token", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// Summary returns the latest day's metrics and their change against the
// day before it.
// GET /api/dashboard/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.GetRecentDailyMetrics(r.Context(), userIDFrom(r.Context()), 2)
	if err != nil {
		h.writeErr(w, r, "Failed to load metrics", err)
		return
	}
	writeJSON(w, http.StatusOK, metrics.BuildSummary(rows))
}

// Trends returns daily metrics for the last ?days= days.
// GET /api/dashboard/trends
func (h *Handler) Trends(w http.ResponseWriter, r *http.Request) {
	days, ok := periodParam(w, r, "days")
	if !ok {
		return
	}
	rows, err := h.store.GetDailyMetricsRange(r.Context(), userIDFrom(r.Context()), h.since(days))
	if err != nil {
		h.writeErr(w, r, "Failed to load metrics", err)
		return
	}
	if rows == nil {
		rows = []model.DailyMetrics{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// Alerts returns the caller's newest alerts.
// GET /api/dashboard/alerts
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	limit := defaultAlertLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := cast.ToIntE(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	alerts, err := h.store.GetAlerts(r.Context(), userIDFrom(r.Context()), limit)
	if err != nil {
		h.writeErr(w, r, "Failed to load alerts", err)
		return
	}
	if alerts == nil {
		alerts = []model.Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

// MarkAlertRead marks one of the caller's alerts as read.
// POST /api/alerts/{id}/read
func (h *Handler) MarkAlertRead(w http.ResponseWriter, r *http.Request) {
	id, err := cast.ToInt64E(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid alert id", err)
		return
	}
	if err := h.store.MarkAlertRead(r.Context(), userIDFrom(r.Context()), id); err != nil {
		h.writeErr(w, r, "Failed to update alert", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// Export streams an xlsx report for the last ?period= days.
// GET /api/export
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFrom(ctx)

	period, ok := periodParam(w, r, "period")
	if !ok {
		return
	}
	from := h.since(period)

	data, err := sheets.LoadReport(ctx, h.store, userID, from)
	if err != nil {
		h.writeErr(w, r, "Failed to build report", err)
		return
	}

	var buf bytes.Buffer
	if err := sheets.WriteReport(&buf, *data); err != nil {
		h.writeErr(w, r, "Failed to build report", err)
		return
	}

	filename := sheets.ReportFilename(period, h.now())
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) since(days int) string {
	return h.now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
}

func (h *Handler) serviceAccountEmail() string {
	if r, ok := h.reader.(interface{ ServiceAccountEmail() string }); ok {
		return r.ServiceAccountEmail()
	}
	return ""
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return false
	}
	return true
}

// writeErr maps err to a status code and logs server-side failures.
func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(message,
			"path", r.URL.Path,
			"user_id", userIDFrom(r.Context()),
			"error", err)
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, sheets.ErrNoAccess):
		return http.StatusForbidden
	case errors.Is(err, common.ErrUnknownUser), errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrNoSheet),
		errors.Is(err, common.ErrUnknownTabType),
		errors.Is(err, storage.ErrInvalidRecord),
		errors.Is(err, storage.ErrInvalidDate),
		errors.Is(err, storage.ErrEmptyString):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrDuplicateEntry):
		return http.StatusConflict
	case errors.Is(err, common.ErrMissingConfig):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func syncStatus(err error) int {
	if err != nil {
		return http.StatusInternalServerError
	}
	return http.StatusOK
}

func periodParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultPeriodDays, true
	}
	n, err := cast.ToIntE(raw)
	if err != nil || n <= 0 || n > maxPeriodDays {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s: use 1-%d", name, maxPeriodDays), err)
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
