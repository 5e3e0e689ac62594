package filters

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"musicstore/domain/core/entities"
	"musicstore/interfaces/http/mvc"
)

// Recorder persists one action log entry.
type Recorder interface {
	Record(ctx context.Context, controller, action, ip string) (*entities.ActionLog, error)
}

// LoggedHook is told about every entry a filter wrote.
type LoggedHook func(controller, filter string)

// ActionLogFilter writes an action log entry before every action it
// wraps. A failed write aborts the request.
type ActionLogFilter struct {
	name     string
	label    string
	recorder Recorder
	hook     LoggedHook
	logger   *zap.Logger
}

func newActionLogFilter(name, label string, recorder Recorder, hook LoggedHook, logger *zap.Logger) *ActionLogFilter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActionLogFilter{name: name, label: label, recorder: recorder, hook: hook, logger: logger}
}

// NewTraceActionFilter is the filter registered in the container for every
// action.
func NewTraceActionFilter(recorder Recorder, hook LoggedHook, logger *zap.Logger) *ActionLogFilter {
	return newActionLogFilter("TraceActionFilter", "Trace Action Filter", recorder, hook, logger)
}

func NewCustomActionFilter(recorder Recorder, hook LoggedHook, logger *zap.Logger) *ActionLogFilter {
	return newActionLogFilter("CustomActionFilter", "Custom Action Filter", recorder, hook, logger)
}

func NewMyNewCustomActionFilter(recorder Recorder, hook LoggedHook, logger *zap.Logger) *ActionLogFilter {
	return newActionLogFilter("MyNewCustomActionFilter", "MyNewCustomActionFilter", recorder, hook, logger)
}

// Name identifies the filter in logs and metrics.
func (f *ActionLogFilter) Name() string { return f.name }

// ActionText is the action column written for actionName.
func (f *ActionLogFilter) ActionText(actionName string) string {
	return fmt.Sprintf("%s (Logged By: %s)", actionName, f.label)
}

func (f *ActionLogFilter) OnActionExecuting(ctx *mvc.ActionExecutingContext) error {
	controller := ctx.Descriptor.ControllerName
	entry, err := f.recorder.Record(ctx.Context(), controller, f.ActionText(ctx.Descriptor.ActionName), ctx.ClientIP())
	if err != nil {
		f.logger.Error("action log write failed",
			zap.String("filter", f.name),
			zap.String("controller", controller),
			zap.Error(err))
		return err
	}
	f.logger.Debug("action logged",
		zap.String("filter", f.name),
		zap.String("action_log_id", entry.ActionLogID))
	if f.hook != nil {
		f.hook(controller, f.name)
	}
	return nil
}

func (f *ActionLogFilter) OnActionExecuted(*mvc.ActionExecutedContext) error {
	return nil
}
