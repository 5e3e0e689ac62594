package controllers

import (
	"net/http"

	"go.uber.org/zap"

	"musicstore/application/services"
	"musicstore/interfaces/http/filters"
	"musicstore/interfaces/http/mvc"
)

// StoreController is the storefront. It is resolved from the registry with
// its StoreService injected.
type StoreController struct {
	mvc.ActionMap
	service services.StoreService
	filters []mvc.Filter
}

func NewStoreController(service services.StoreService, recorder filters.Recorder, hook filters.LoggedHook, logger *zap.Logger) *StoreController {
	c := &StoreController{
		ActionMap: mvc.ActionMap{},
		service:   service,
		filters: []mvc.Filter{
			{Instance: filters.NewMyNewCustomActionFilter(recorder, hook, logger), Order: 1},
			{Instance: filters.NewCustomActionFilter(recorder, hook, logger), Order: 2},
		},
	}
	c.Handle(http.MethodGet, "Index", c.index)
	c.Handle(http.MethodGet, "Browse", c.browse)
	c.Handle(http.MethodGet, "Details", c.details)
	c.Handle(http.MethodGet, "GenreMenu", c.genreMenu)
	return c
}

func (c *StoreController) DeclaredFilters() []mvc.Filter {
	return c.filters
}

// GET /Store
func (c *StoreController) index(cc *mvc.ControllerContext) (mvc.ActionResult, error) {
	genres, err := c.service.GetGenreNames(cc.Context())
	if err != nil {
		return nil, err
	}
	return mvc.View(&StoreIndexViewModel{Genres: genres, NumberOfGenres: len(genres)}), nil
}

// GET /Store/Browse?genre=Disco
func (c *StoreController) browse(cc *mvc.ControllerContext) (mvc.ActionResult, error) {
	genre, err := c.service.GetGenreByName(cc.Context(), cc.Param("genre"))
	if err != nil {
		return nil, err
	}
	return mvc.View(&StoreBrowseViewModel{Genre: genre, Albums: genre.Albums}), nil
}

// GET /Store/Details/5
func (c *StoreController) details(cc *mvc.ControllerContext) (mvc.ActionResult, error) {
	id, err := cc.IntParam("id")
	if err != nil {
		return nil, err
	}
	album, err := c.service.GetAlbum(cc.Context(), id)
	if err != nil {
		return nil, err
	}
	return mvc.View(album), nil
}

const genreMenuSize = 9

// GET /Store/GenreMenu
func (c *StoreController) genreMenu(cc *mvc.ControllerContext) (mvc.ActionResult, error) {
	genres, err := c.service.GetGenres(cc.Context(), genreMenuSize)
	if err != nil {
		return nil, err
	}
	return mvc.ViewNamed("Store/GenreMenu", genres), nil
}
