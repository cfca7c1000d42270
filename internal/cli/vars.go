package cli

import (
	"github.com/valter-silva-au/flywheel/internal/core"
	"github.com/valter-silva-au/flywheel/internal/observability"
	"github.com/valter-silva-au/flywheel/internal/storage"
)

// Service instances, set during app initialization in app.go.
var (
	Cfg         *core.Config
	Store       *storage.DocumentStore
	Manager     core.TodoManager
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
	AlertEngine observability.AlertEngine
	Notifier    observability.Notifier
)

// InitServices is installed by app.go and runs before any command that
// touches the store. It exists as a hook so command tests can substitute
// their own wiring.
var InitServices func(dbPath string) error
