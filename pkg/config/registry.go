package config

// Persistent state keys for runtime overrides.
const (
	KeyBackgroundPolicy = "background_policy"
	KeyPermissionPolicy = "permission_policy"
	KeyPowerSaveStatic  = "power_save_static"
	KeyEdgeMargin       = "edge_margin"
)

// RuntimeKeys lists the keys the settings API may read and write.
var RuntimeKeys = []string{
	KeyBackgroundPolicy,
	KeyPermissionPolicy,
	KeyPowerSaveStatic,
	KeyEdgeMargin,
}
