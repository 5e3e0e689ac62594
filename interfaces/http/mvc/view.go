package mvc

import (
	"fmt"

	"go.uber.org/zap"

	"musicstore/pkg/container"
)

// PageDocument is the rendered form of a view.
type PageDocument struct {
	View     string      `json:"view"`
	Title    string      `json:"title,omitempty"`
	Message  string      `json:"message,omitempty"`
	ImageURL string      `json:"image_url,omitempty"`
	Model    interface{} `json:"model,omitempty"`
}

// ViewPage renders a model.
type ViewPage interface {
	Render(cc *ControllerContext, model interface{}) (*PageDocument, error)
}

// ViewPageActivator creates the page for a view name.
type ViewPageActivator interface {
	Create(cc *ControllerContext, viewName string) (ViewPage, error)
}

// BasicPage renders the model under the view name with nothing else.
type BasicPage struct {
	Name string
}

func (p *BasicPage) Render(_ *ControllerContext, model interface{}) (*PageDocument, error) {
	return &PageDocument{View: p.Name, Model: model}, nil
}

// DefaultViewPageActivator creates a BasicPage for any view.
type DefaultViewPageActivator struct{}

func (DefaultViewPageActivator) Create(_ *ControllerContext, viewName string) (ViewPage, error) {
	return &BasicPage{Name: viewName}, nil
}

// CustomViewPageActivator resolves pages from the registry by view name,
// so pages can take services through their constructors. Views without a
// registration get the default page.
type CustomViewPageActivator struct {
	registry *container.Registry
	fallback ViewPageActivator
}

func NewCustomViewPageActivator(registry *container.Registry) *CustomViewPageActivator {
	return &CustomViewPageActivator{registry: registry, fallback: DefaultViewPageActivator{}}
}

func (a *CustomViewPageActivator) Create(cc *ControllerContext, viewName string) (ViewPage, error) {
	page, err := container.Resolve[ViewPage](a.registry, viewName)
	if err == nil {
		return page, nil
	}
	if container.IsNotRegistered(err) {
		return a.fallback.Create(cc, viewName)
	}
	return nil, err
}

// ViewEngine finds pages through whichever ViewPageActivator the dependency
// resolver provides.
type ViewEngine struct {
	resolver DependencyResolver
	logger   *zap.Logger
}

func NewViewEngine(resolver DependencyResolver, logger *zap.Logger) *ViewEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewEngine{resolver: resolver, logger: logger}
}

func (e *ViewEngine) activator() (ViewPageActivator, error) {
	if e == nil || e.resolver == nil {
		return DefaultViewPageActivator{}, nil
	}
	inst, err := e.resolver.GetService(container.Of[ViewPageActivator]())
	if err != nil {
		if container.IsNotRegistered(err) {
			return DefaultViewPageActivator{}, nil
		}
		return nil, err
	}
	activator, ok := inst.(ViewPageActivator)
	if !ok {
		return nil, fmt.Errorf("view page activator has type %T", inst)
	}
	return activator, nil
}

// FindView creates the page for viewName.
func (e *ViewEngine) FindView(cc *ControllerContext, viewName string) (ViewPage, error) {
	activator, err := e.activator()
	if err != nil {
		return nil, err
	}
	page, err := activator.Create(cc, viewName)
	if err != nil {
		e.logger.Error("view activation failed", zap.String("view", viewName), zap.Error(err))
		return nil, err
	}
	return page, nil
}
