package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"geotrail/pkg/config"
	"geotrail/pkg/store"
)

// SettingsHandler reads and writes the runtime overrides.
type SettingsHandler struct {
	store   store.Store
	cfgProv config.Provider
	appCfg  *config.Config
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(st store.Store, cfg config.Provider) *SettingsHandler {
	return &SettingsHandler{
		store:   st,
		cfgProv: cfg,
		appCfg:  cfg.AppConfig(),
	}
}

// SettingsResponse holds the effective values and the raw overrides behind them.
type SettingsResponse struct {
	BackgroundPolicy string            `json:"background_policy"`
	PermissionPolicy string            `json:"permission_policy"`
	PowerSaveStatic  bool              `json:"power_save_static"`
	EdgeMargin       int               `json:"edge_margin"`
	Overrides        map[string]string `json:"overrides"`
}

// HandleSettings is a unified handler for all settings methods, facilitating CORS/OPTIONS.
func (h *SettingsHandler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		h.HandleGetSettings(w, r)
	case http.MethodPut:
		h.HandleSetSettings(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleGetSettings returns the effective settings.
func (h *SettingsHandler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	resp, err := h.getSettings(r.Context())
	if err != nil {
		slog.Error("Failed to list settings", "error", err)
		http.Error(w, "Failed to read settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SettingsHandler) getSettings(ctx context.Context) (SettingsResponse, error) {
	all, err := h.store.ListState(ctx)
	if err != nil {
		return SettingsResponse{}, err
	}
	overrides := make(map[string]string)
	for _, k := range config.RuntimeKeys {
		if v, ok := all[k]; ok {
			overrides[k] = v
		}
	}

	return SettingsResponse{
		BackgroundPolicy: h.cfgProv.BackgroundPolicy(ctx),
		PermissionPolicy: h.cfgProv.PermissionPolicy(ctx),
		PowerSaveStatic:  h.cfgProv.PowerSaveStatic(ctx),
		EdgeMargin:       h.cfgProv.EdgeMargin(ctx),
		Overrides:        overrides,
	}, nil
}

// HandleSetSettings applies a key/value map. An empty value removes the
// override. The whole request is validated before anything is written.
func (h *SettingsHandler) HandleSetSettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	defer func() { _ = r.Body.Close() }()

	var req map[string]string
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	for k, v := range req {
		if err := h.validate(k, v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	ctx := r.Context()
	for k, v := range req {
		if err := h.apply(ctx, k, v); err != nil {
			slog.Error("Failed to save setting", "key", k, "error", err)
			http.Error(w, "Failed to save settings", http.StatusInternalServerError)
			return
		}
		slog.Info("Setting updated", "key", k, "value", v)
	}

	h.HandleGetSettings(w, r)
}

func (h *SettingsHandler) apply(ctx context.Context, key, val string) error {
	if val == "" {
		return h.store.DeleteState(ctx, key)
	}
	return h.store.SetState(ctx, key, val)
}

func (h *SettingsHandler) validate(key, val string) error {
	if !slices.Contains(config.RuntimeKeys, key) {
		return fmt.Errorf("unknown setting %q", key)
	}
	if val == "" {
		return nil
	}

	switch key {
	case config.KeyBackgroundPolicy:
		if !config.IsValidBackgroundPolicy(val) {
			return fmt.Errorf("invalid %s %q: must be %q or %q", key, val, config.BackgroundContinue, config.BackgroundSuspend)
		}
	case config.KeyPermissionPolicy:
		if !config.IsValidPermissionPolicy(val) {
			return fmt.Errorf("invalid %s %q: must be %q or %q", key, val, config.PolicyGrant, config.PolicyDeny)
		}
	case config.KeyPowerSaveStatic:
		if val != "true" && val != "false" {
			return fmt.Errorf("invalid %s %q: must be true or false", key, val)
		}
	case config.KeyEdgeMargin:
		px, err := strconv.Atoi(val)
		if err != nil || px < 0 {
			return fmt.Errorf("invalid %s %q: must be a non-negative integer", key, val)
		}
		vp := h.appCfg.Viewport
		if 2*px >= vp.Width || 2*px >= vp.Height {
			return fmt.Errorf("%s %d leaves no room in a %dx%d viewport", key, px, vp.Width, vp.Height)
		}
	}
	return nil
}
