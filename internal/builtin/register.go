// Package builtin implements the handlers for the builtin, root and
// admin scopes: ping, help, service
// install/uninstall, blacklist management, whoami, and chat settings.
package builtin

import "github.com/pocketbrain/wacore/internal/schema"

// Register binds every builtin/root/admin handler into reg.
func Register(reg *schema.Registry) {
	reg.Register("builtin", "ping", pingHandler)
	reg.Register("builtin", "help", helpHandler)

	reg.Register("root", "install", installHandler)
	reg.Register("root", "uninstall", uninstallHandler)
	reg.Register("root", "blacklist", rootBlacklistHandler)
	reg.Register("root", "whoami", whoamiHandler)

	reg.Register("admin", "blacklist", adminBlacklistHandler)
	reg.Register("admin", "settings", settingsHandler)
}
