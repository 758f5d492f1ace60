// Package lua loads apphost modules written in Lua.
//
// A module is a Lua file whose chunk returns a table:
//
//	-- plugins/greeter.lua
//	local M = {}
//
//	function M.install(config)
//	    host.log.info("greeter installed for " .. (config.name or "nobody"))
//	end
//
//	return M
//
// The Loader maps an identifier such as "greeter" or "widgets/card" to
// <searchpath>/<id>.lua or <searchpath>/<id>/init.lua. Each module gets its
// own State: only the base, table, string and math libraries are opened,
// and dofile/loadfile/load/require are removed.
//
// # Host table
//
// Every state exposes a "host" global with a "log" table (debug, info,
// warn, error) backed by the loader's zap logger.
//
// # Bridge
//
// Bridge converts between Go values and Lua values. Tables with contiguous
// integer keys starting at 1 become []any; other tables become
// map[string]any.
package lua
