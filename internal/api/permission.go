package api

import (
	"context"
	"log/slog"
	"net/http"

	"geotrail/pkg/permission"
)

// PermissionHandler lets the operator revoke and re-grant location access.
type PermissionHandler struct {
	ctrl   Controller
	policy *permission.Policy
}

// NewPermissionHandler creates a new PermissionHandler. policy is nil when
// the gate is not policy driven; the controller is still revoked.
func NewPermissionHandler(ctrl Controller, policy *permission.Policy) *PermissionHandler {
	return &PermissionHandler{ctrl: ctrl, policy: policy}
}

// HandleRevoke withdraws the permission and stops sampling.
func (h *PermissionHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	if h.policy != nil {
		h.policy.Revoke()
	}
	h.ctrl.Revoke()
	slog.Info("Location permission revoked via API")

	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// HandleGrant lifts a revocation and asks the gate again. The request runs in
// the background because an interactive gate may wait for the user.
func (h *PermissionHandler) HandleGrant(w http.ResponseWriter, r *http.Request) {
	if h.policy != nil {
		h.policy.Restore()
	}
	ctx := context.WithoutCancel(r.Context())
	go h.ctrl.RequestAuthorization(ctx)
	slog.Info("Location permission requested via API")

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "requested"})
}
