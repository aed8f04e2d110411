package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/zenit-qa/zenit/internal/api/middleware"
	"github.com/zenit-qa/zenit/internal/domain"
	"github.com/zenit-qa/zenit/internal/observability"
	"github.com/zenit-qa/zenit/pkg/httputil"
)

// DeviceHandler handles the Keepr device lab
type DeviceHandler struct {
	repo    domain.DeviceRepository
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(repo domain.DeviceRepository, metrics *observability.Metrics, logger *zap.Logger) *DeviceHandler {
	if metrics == nil {
		metrics = observability.NewMetrics("")
	}
	return &DeviceHandler{repo: repo, metrics: metrics, logger: logger}
}

// CreateDeviceRequest represents the request body for registering a device
type CreateDeviceRequest struct {
	Name        string             `json:"name"`
	Type        domain.DeviceType  `json:"type"`
	Location    string             `json:"location"`
	Accessories domain.Accessories `json:"accessories"`
}

// List handles GET /api/v1/keepr/devices
func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	status := domain.DeviceStatus(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		httputil.ErrorFromDomain(w, domain.ValidationError("status", "unknown status: "+string(status)))
		return
	}
	pending := r.URL.Query().Get("audit") == "pending"

	devices, err := h.repo.List(r.Context(), status, pending)
	if err != nil {
		h.logger.Error("Failed to list devices", zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}
	if devices == nil {
		devices = []*domain.Device{}
	}
	httputil.JSON(w, http.StatusOK, devices)
}

// Create handles POST /api/v1/keepr/devices
func (h *DeviceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDeviceRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	device, err := domain.NewDevice(req.Name, req.Type, req.Location, req.Accessories)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	if err := h.repo.Create(r.Context(), device); err != nil {
		h.logger.Error("Failed to create device", zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}

	h.metrics.RecordDeviceAction("create")
	h.logger.Info("Device registered",
		zap.String("device_id", device.ID.String()),
		zap.String("name", device.Name),
	)
	httputil.JSON(w, http.StatusCreated, device)
}

// CheckOut handles POST /api/v1/keepr/devices/{deviceID}/checkout
func (h *DeviceHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r.Context())
	h.change(w, r, "checkout", func(d *domain.Device) error {
		return d.CheckOut(domain.Holder{ID: actor.ID, Name: actor.Name})
	})
}

// CheckIn handles POST /api/v1/keepr/devices/{deviceID}/checkin
func (h *DeviceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, "checkin", func(d *domain.Device) error {
		return d.CheckIn()
	})
}

func (h *DeviceHandler) change(w http.ResponseWriter, r *http.Request, action string, apply func(*domain.Device) error) {
	id, ok := pathID(w, r, "deviceID", "device")
	if !ok {
		return
	}

	device, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	if err := apply(device); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	if err := h.repo.Update(r.Context(), device); err != nil {
		h.logger.Error("Failed to update device", zap.String("action", action), zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}

	h.metrics.RecordDeviceAction(action)
	h.logger.Info("Device "+action,
		zap.String("device_id", device.ID.String()),
		zap.String("status", string(device.Status)),
	)
	httputil.JSON(w, http.StatusOK, device)
}

// Audit handles POST /api/v1/keepr/devices/{deviceID}/audit
func (h *DeviceHandler) Audit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "deviceID", "device")
	if !ok {
		return
	}

	var req domain.AuditUpdate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	device, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	entry, err := device.Audit(req, middleware.GetActor(r.Context()).Name)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	if err := h.repo.UpdateWithAudit(r.Context(), device, entry); err != nil {
		h.logger.Error("Failed to save audit", zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}

	h.metrics.RecordDeviceAction("audit")
	httputil.JSON(w, http.StatusOK, map[string]any{"device": device, "log": entry})
}

// AuditLogs handles GET /api/v1/keepr/audit-logs
func (h *DeviceHandler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 500 {
		limit = l
	}

	logs, err := h.repo.ListAuditLogs(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list audit logs", zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}
	if logs == nil {
		logs = []*domain.AuditLog{}
	}
	httputil.JSON(w, http.StatusOK, logs)
}

// Stats handles GET /api/v1/keepr/stats
func (h *DeviceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	devices, err := h.repo.List(r.Context(), "", false)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, domain.CountDevices(devices))
}

// Report handles GET /api/v1/keepr/report, the plain text audit summary
func (h *DeviceHandler) Report(w http.ResponseWriter, r *http.Request) {
	devices, err := h.repo.List(r.Context(), "", false)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	report := domain.AuditReport(devices, middleware.GetActor(r.Context()).Name, time.Now())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(report))
}
