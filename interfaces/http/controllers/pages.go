package controllers

import (
	"musicstore/application/services"
	"musicstore/interfaces/http/mvc"
)

// PageTitles lists the views rendered through LayoutPage and their titles.
var PageTitles = map[string]string{
	"Home/Index":           "ASP.NET MVC Music Store",
	"Home/Details":         "Album",
	"Store/Index":          "Store",
	"Store/Browse":         "Browse Albums",
	"Store/Details":        "Album - Details",
	"Store/GenreMenu":      "",
	"StoreManager/Index":   "Store Manager",
	"StoreManager/Details": "Album - Details",
	"StoreManager/Create":  "Create Album",
	"StoreManager/Edit":    "Edit Album",
	"StoreManager/Delete":  "Delete Album",
	"ActionLog/Index":      "Action Log",
	"Shared/Error":         "Error",
}

// LayoutPage renders a view inside the site layout, whose banner comes from
// the MessageService.
type LayoutPage struct {
	name     string
	messages services.MessageService
}

func NewLayoutPage(name string, messages services.MessageService) *LayoutPage {
	return &LayoutPage{name: name, messages: messages}
}

func (p *LayoutPage) Render(_ *mvc.ControllerContext, model interface{}) (*mvc.PageDocument, error) {
	return &mvc.PageDocument{
		View:     p.name,
		Title:    PageTitles[p.name],
		Message:  p.messages.Message(),
		ImageURL: p.messages.ImageURL(),
		Model:    model,
	}, nil
}
