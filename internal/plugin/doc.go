// Package plugin loads and installs the application's plugins.
//
// A plugin is a module identifier plus an optional configuration map. All
// plugins are loaded at once; a module that can be installed is installed
// with its configuration as soon as its own load finishes, and the load as
// a whole completes only when every plugin is done.
//
// # Installable Modules
//
// Go modules are installable when they implement Installer:
//
//	type analytics struct{}
//
//	func (analytics) Install(ctx context.Context, cfg map[string]any) error {
//	    // ...
//	    return nil
//	}
//
// Lua modules are installable when the returned table has an install
// function. It receives the configuration table; returning nil plus a
// message, or false, fails the install:
//
//	local M = {}
//	function M.install(config)
//	  if not config.endpoint then
//	    return nil, "endpoint required"
//	  end
//	end
//	return M
//
// Any other module is load-only: loading it is all there is to do.
package plugin
