package controllers

import (
	"context"
	"net/http"

	"musicstore/application/services"
	"musicstore/domain/core/entities"
	"musicstore/interfaces/http/mvc"
	apperrors "musicstore/pkg/errors"
)

// StoreManagerController edits the catalog. Its routes sit behind the
// administrator guard.
type StoreManagerController struct {
	mvc.ActionMap
	catalog *services.CatalogManager
}

func NewStoreManagerController(catalog *services.CatalogManager) *StoreManagerController {
	c := &StoreManagerController{ActionMap: mvc.ActionMap{}, catalog: catalog}
	c.Handle(http.MethodGet, "Index", c.index)
	c.Handle(http.MethodGet, "Details", c.details)
	c.Handle(http.MethodGet, "Create", c.createForm)
	c.Handle(http.MethodPost, "Create", c.create)
	c.Handle(http.MethodGet, "Edit", c.editForm)
	c.Handle(http.MethodPost, "Edit", c.edit)
	c.Handle(http.MethodGet, "Delete", c.confirmDelete)
	c.Handle(http.MethodPost, "Delete", c.delete)
	return c
}

func (c *StoreManagerController) index(cc *mvc.ControllerContext) (mvc.ActionResult, error) {
	albums, err := c.catalog.Albums(cc.Context())
	if err != nil {
		return nil, err
	}
	return mvc.View(albumRows(albums)), nil
}

func (c *StoreManagerController) details(cc *mvc.ControllerContext) (mvc.ActionResult, error) {
	album, err := c.album(cc)
	if err != nil {
		return nil, err
	}
	return mvc.View(album), nil
}

func (c *StoreManagerController) createForm(cc *mvc.ControllerContext) (mvc.ActionResult, error) {
	return c.form(cc.Context(), "StoreManager/Create", &entities.Album{}, nil)
}

func (c *StoreManagerController) create(cc *mvc.ControllerContext) (mvc.ActionResult, error) {
	var album entities.Album
	if err := cc.BindJSON(&album); err != nil {
		return nil, err
	}
	if err := c.catalog.Create(cc.Context(), &album); err != nil {
		if apperrors.IsValidation(err) {
			return c.form(cc.Context(), "StoreManager/Create", &album, err)
		}
		return nil, err
	}
	return mvc.RedirectToAction(cc, "Index"), nil
}

func (c *StoreManagerController) editForm(cc *mvc.ControllerContext) (mvc.ActionResult, error) {
	album, err := c.album(cc)
	if err != nil {
		return nil, err
	}
	return c.form(cc.Context(), "StoreManager/Edit", album, nil)
}

func (c *StoreManagerController) edit(cc *mvc.ControllerContext) (mvc.ActionResult, error) {
	id, err := cc.IntParam("id")
	if err != nil {
		return nil, err
	}
	var album entities.Album
	if err := cc.BindJSON(&album); err != nil {
		return nil, err
	}
	album.AlbumID = id
	if err := c.catalog.Update(cc.Context(), &album); err != nil {
		if apperrors.IsValidation(err) {
			return c.form(cc.Context(), "StoreManager/Edit", &album, err)
		}
		return nil, err
	}
	return mvc.RedirectToAction(cc, "Index"), nil
}

func (c *StoreManagerController) confirmDelete(cc *mvc.ControllerContext) (mvc.ActionResult, error) {
	album, err := c.album(cc)
	if err != nil {
		return nil, err
	}
	return mvc.View(album), nil
}

func (c *StoreManagerController) delete(cc *mvc.ControllerContext) (mvc.ActionResult, error) {
	id, err := cc.IntParam("id")
	if err != nil {
		return nil, err
	}
	if _, err := c.catalog.Delete(cc.Context(), id); err != nil {
		return nil, err
	}
	return mvc.RedirectToAction(cc, "Index"), nil
}

func (c *StoreManagerController) album(cc *mvc.ControllerContext) (*entities.Album, error) {
	id, err := cc.IntParam("id")
	if err != nil {
		return nil, err
	}
	return c.catalog.Album(cc.Context(), id)
}

// form renders the create/edit form, with the validation failure when one
// is given.
func (c *StoreManagerController) form(ctx context.Context, view string, album *entities.Album, invalid error) (mvc.ActionResult, error) {
	genres, err := c.catalog.GenreOptions(ctx, album.GenreID)
	if err != nil {
		return nil, err
	}
	artists, err := c.catalog.ArtistOptions(ctx, album.ArtistID)
	if err != nil {
		return nil, err
	}
	vm := &StoreManagerViewModel{Album: album, Genres: genres, Artists: artists}
	result := mvc.ViewNamed(view, vm)
	if invalid != nil {
		if appErr := apperrors.GetAppError(invalid); appErr != nil {
			vm.Errors = appErr.Details
		}
		result.Status = http.StatusUnprocessableEntity
	}
	return result, nil
}
