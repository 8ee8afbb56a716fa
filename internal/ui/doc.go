// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// Each entity type gets a [ListScreen] over its own listing controller. The routes are:
//   - /album, /singer, /song : paginated, sortable tables
//   - /{entity}/{id}/view : one entity's fields
//
// Entering a route is two-phase. The [Guard] checks the stored token's authorities first and an access denied
// screen replaces the list when it fails. Otherwise the controller is activated from a command while a spinner
// shows, and the table renders once the first page is in.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg
// union type. Controller snapshots flow in through their subscription channel, the same way task progress does,
// and controller notifications arrive through a [ToastQueue] and expire after a few seconds.
//
// Keys: ←/→ or h/l page, 1-5 sort by column, d delete (y/n to confirm), c first page, enter details, tab next
// entity, q quit. Contextual help is displayed via charmbracelet/bubbles/help.
package ui
