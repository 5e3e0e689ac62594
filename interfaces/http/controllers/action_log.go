package controllers

import (
	"net/http"

	"musicstore/application/ports"
	"musicstore/interfaces/http/mvc"
)

type ActionLogController struct {
	mvc.ActionMap
	logs ports.ActionLogRepository
}

func NewActionLogController(logs ports.ActionLogRepository) *ActionLogController {
	c := &ActionLogController{ActionMap: mvc.ActionMap{}, logs: logs}
	c.Handle(http.MethodGet, "Index", c.index)
	return c
}

// GET /ActionLog lists entries newest first.
func (c *ActionLogController) index(cc *mvc.ControllerContext) (mvc.ActionResult, error) {
	entries, err := c.logs.List(cc.Context())
	if err != nil {
		return nil, err
	}
	return mvc.View(entries), nil
}
