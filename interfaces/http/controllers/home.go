package controllers

import (
	"html"
	"net/http"
	"strconv"

	"musicstore/domain/core/entities"
	"musicstore/interfaces/http/mvc"
)

// HomeController has no dependencies; it is activated by the default
// factory.
type HomeController struct {
	mvc.ActionMap
}

func NewHomeController(*mvc.RequestContext) (mvc.Controller, error) {
	c := &HomeController{ActionMap: mvc.ActionMap{}}
	c.Handle(http.MethodGet, "Index", c.index)
	c.Handle(http.MethodGet, "Browse", c.browse)
	c.Handle(http.MethodGet, "Details", c.details)
	return c, nil
}

func (c *HomeController) index(*mvc.ControllerContext) (mvc.ActionResult, error) {
	return mvc.View(nil), nil
}

func (c *HomeController) browse(cc *mvc.ControllerContext) (mvc.ActionResult, error) {
	return mvc.Content(html.EscapeString("Store.Browse, Genre = " + cc.Param("genre"))), nil
}

func (c *HomeController) details(cc *mvc.ControllerContext) (mvc.ActionResult, error) {
	id, err := cc.IntParam("id")
	if err != nil {
		return nil, err
	}
	return mvc.View(&entities.Album{Title: "Album " + strconv.Itoa(id)}), nil
}
