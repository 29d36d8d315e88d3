package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"memshaheb_backend/internal/api/dto"
	"memshaheb_backend/internal/service"
)

// MuseumController 虚拟美术馆
type MuseumController struct {
	museumSvc *service.MuseumService
	logger    *zap.Logger
}

func NewMuseumController(museumSvc *service.MuseumService, logger *zap.Logger) *MuseumController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MuseumController{museumSvc: museumSvc, logger: logger}
}

// ListRooms 展厅列表
// @Summary 展厅列表
// @Tags Museum (美术馆)
// @Produce json
// @Success 200 {array} model.MuseumRoom
// @Router /api/museum/rooms [get]
func (ctl *MuseumController) ListRooms(c *gin.Context) {
	rooms, err := ctl.museumSvc.ListRooms(c.Request.Context())
	if err != nil {
		ctl.writeError(c, err)
		return
	}
	success(c, http.StatusOK, rooms)
}

// CreateRoom 新建展厅
// @Summary 新建展厅
// @Tags Museum (美术馆)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateRoomReq true "展厅"
// @Success 201 {object} model.MuseumRoom
// @Router /api/museum/rooms [post]
func (ctl *MuseumController) CreateRoom(c *gin.Context) {
	var req dto.CreateRoomReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	room, err := ctl.museumSvc.CreateRoom(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		ctl.writeError(c, err)
		return
	}
	success(c, http.StatusCreated, room)
}

// UpdateRoom 修改展厅
// @Summary 修改展厅
// @Tags Museum (美术馆)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "展厅 ID"
// @Param request body dto.UpdateRoomReq true "需要修改的字段"
// @Success 200 {object} model.MuseumRoom
// @Failure 404 {object} map[string]interface{}
// @Router /api/museum/rooms/{id} [patch]
func (ctl *MuseumController) UpdateRoom(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		fail(c, http.StatusBadRequest, "invalid room id")
		return
	}
	var req dto.UpdateRoomReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	room, err := ctl.museumSvc.UpdateRoom(c.Request.Context(), actorFrom(c), id, &req)
	if err != nil {
		ctl.writeError(c, err)
		return
	}
	success(c, http.StatusOK, room)
}

// DeleteRoom 删除展厅
// @Summary 删除展厅
// @Description 展厅内的展品一并删除
// @Tags Museum (美术馆)
// @Security BearerAuth
// @Param id path int true "展厅 ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/museum/rooms/{id} [delete]
func (ctl *MuseumController) DeleteRoom(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		fail(c, http.StatusBadRequest, "invalid room id")
		return
	}
	if err := ctl.museumSvc.DeleteRoom(c.Request.Context(), id); err != nil {
		ctl.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListArtifacts 展品列表
// @Summary 展品列表
// @Description 未登录与 READER 只能看到已发布画作
// @Tags Museum (美术馆)
// @Produce json
// @Param room_id query int false "展厅 ID"
// @Param painting_id query int false "画作 ID"
// @Success 200 {array} model.MuseumArtifact
// @Router /api/museum/artifacts [get]
func (ctl *MuseumController) ListArtifacts(c *gin.Context) {
	var req dto.ArtifactListReq
	if err := c.ShouldBindQuery(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	artifacts, err := ctl.museumSvc.ListArtifacts(c.Request.Context(), &req, canSeeDraftPosts(c))
	if err != nil {
		ctl.writeError(c, err)
		return
	}
	success(c, http.StatusOK, artifacts)
}

// CreateArtifact 把画作放进展厅
// @Summary 新建展品
// @Tags Museum (美术馆)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateArtifactReq true "展品"
// @Success 201 {object} model.MuseumArtifact
// @Failure 400 {object} map[string]interface{} "展厅或画作无效，或画作已在该展厅"
// @Router /api/museum/artifacts [post]
func (ctl *MuseumController) CreateArtifact(c *gin.Context) {
	var req dto.CreateArtifactReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	artifact, err := ctl.museumSvc.CreateArtifact(c.Request.Context(), &req)
	if err != nil {
		ctl.writeError(c, err)
		return
	}
	success(c, http.StatusCreated, artifact)
}

// UpdateArtifact 修改展品
// @Summary 修改展品
// @Tags Museum (美术馆)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "展品 ID"
// @Param request body dto.UpdateArtifactReq true "需要修改的字段"
// @Success 200 {object} model.MuseumArtifact
// @Failure 404 {object} map[string]interface{}
// @Router /api/museum/artifacts/{id} [patch]
func (ctl *MuseumController) UpdateArtifact(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		fail(c, http.StatusBadRequest, "invalid artifact id")
		return
	}
	var req dto.UpdateArtifactReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	artifact, err := ctl.museumSvc.UpdateArtifact(c.Request.Context(), id, &req)
	if err != nil {
		ctl.writeError(c, err)
		return
	}
	success(c, http.StatusOK, artifact)
}

// DeleteArtifact 删除展品
// @Summary 删除展品
// @Tags Museum (美术馆)
// @Security BearerAuth
// @Param id path int true "展品 ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/museum/artifacts/{id} [delete]
func (ctl *MuseumController) DeleteArtifact(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		fail(c, http.StatusBadRequest, "invalid artifact id")
		return
	}
	if err := ctl.museumSvc.DeleteArtifact(c.Request.Context(), id); err != nil {
		ctl.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *MuseumController) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		fail(c, http.StatusNotFound, "Room not found")
	case errors.Is(err, service.ErrArtifactNotFound):
		fail(c, http.StatusNotFound, "Artifact not found")
	case errors.Is(err, service.ErrInvalidRoom),
		errors.Is(err, service.ErrInvalidPainting),
		errors.Is(err, service.ErrArtifactExists),
		errors.Is(err, service.ErrInvalidHotspot):
		fail(c, http.StatusBadRequest, err.Error())
	default:
		ctl.logger.Error("美术馆操作失败", zap.Error(err))
		fail(c, http.StatusInternalServerError, "internal error")
	}
}
