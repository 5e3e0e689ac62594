package mvc

import (
	"io"
	"net/http"

	"musicstore/pkg/common"
)

// ActionResult writes the response for an action.
type ActionResult interface {
	ExecuteResult(cc *ControllerContext, w http.ResponseWriter) error
}

// ViewResult renders a view page. An empty ViewName means
// "<Controller>/<Action>".
type ViewResult struct {
	ViewName string
	Model    interface{}
	Status   int
}

func (r *ViewResult) ExecuteResult(cc *ControllerContext, w http.ResponseWriter) error {
	name := r.ViewName
	if name == "" {
		name = cc.ControllerName + "/" + cc.Route.Action
	}
	page, err := cc.views.FindView(cc, name)
	if err != nil {
		return err
	}
	doc, err := page.Render(cc, r.Model)
	if err != nil {
		return err
	}
	return common.WriteJSON(w, statusOr(r.Status, http.StatusOK), doc)
}

type JSONResult struct {
	Data   interface{}
	Status int
}

func (r *JSONResult) ExecuteResult(cc *ControllerContext, w http.ResponseWriter) error {
	return common.RespondJSON(w, cc.Request, statusOr(r.Status, http.StatusOK), r.Data)
}

type ContentResult struct {
	Content     string
	ContentType string
}

func (r *ContentResult) ExecuteResult(_ *ControllerContext, w http.ResponseWriter) error {
	ct := r.ContentType
	if ct == "" {
		ct = "text/plain; charset=utf-8"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	_, err := io.WriteString(w, r.Content)
	return err
}

type RedirectResult struct {
	URL       string
	Permanent bool
}

func (r *RedirectResult) ExecuteResult(cc *ControllerContext, w http.ResponseWriter) error {
	status := http.StatusFound
	if r.Permanent {
		status = http.StatusMovedPermanently
	}
	http.Redirect(w, cc.Request, r.URL, status)
	return nil
}

type HTTPStatusResult struct {
	Status      int
	Description string
}

func (r *HTTPStatusResult) ExecuteResult(_ *ControllerContext, w http.ResponseWriter) error {
	desc := r.Description
	if desc == "" {
		desc = http.StatusText(r.Status)
	}
	http.Error(w, desc, r.Status)
	return nil
}

func statusOr(status, fallback int) int {
	if status == 0 {
		return fallback
	}
	return status
}

func View(model interface{}) *ViewResult {
	return &ViewResult{Model: model}
}

func ViewNamed(name string, model interface{}) *ViewResult {
	return &ViewResult{ViewName: name, Model: model}
}

func JSON(data interface{}) *JSONResult {
	return &JSONResult{Data: data}
}

func Content(s string) *ContentResult {
	return &ContentResult{Content: s}
}

func Redirect(url string) *RedirectResult {
	return &RedirectResult{URL: url}
}

// RedirectToAction redirects to another action of the current controller.
func RedirectToAction(cc *ControllerContext, action string) *RedirectResult {
	return &RedirectResult{URL: "/" + cc.ControllerName + "/" + action}
}

func NotFound(description string) *HTTPStatusResult {
	return &HTTPStatusResult{Status: http.StatusNotFound, Description: description}
}
