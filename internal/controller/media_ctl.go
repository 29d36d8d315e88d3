package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"memshaheb_backend/internal/middleware"
	"memshaheb_backend/internal/service"
)

// MediaController 媒体上传
type MediaController struct {
	mediaSvc *service.MediaService
	logger   *zap.Logger
}

func NewMediaController(mediaSvc *service.MediaService, logger *zap.Logger) *MediaController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaController{mediaSvc: mediaSvc, logger: logger}
}

// Upload 上传文件
// @Summary 上传媒体文件
// @Description multipart 字段 file；可选 alt 与 meta（JSON 对象）
// @Tags Media (媒体)
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "图片文件"
// @Param alt formData string false "替代文本"
// @Param meta formData string false "附加元数据 JSON"
// @Success 201 {object} dto.MediaUploadResp
// @Failure 400 {object} map[string]interface{} "文件类型或大小不合法"
// @Router /api/media [post]
func (ctl *MediaController) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "file is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, "could not read uploaded file")
		return
	}
	defer f.Close()

	in := service.UploadInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
		Meta:        c.PostForm("meta"),
		OwnerID:     middleware.GetUserID(c),
	}
	if alt, ok := c.GetPostForm("alt"); ok {
		in.Alt = &alt
	}

	resp, err := ctl.mediaSvc.Upload(c.Request.Context(), in)
	if err != nil {
		ctl.writeError(c, err)
		return
	}
	success(c, http.StatusCreated, resp)
}

// List 最近上传
// @Summary 媒体列表
// @Tags Media (媒体)
// @Produce json
// @Param limit query int false "数量" default(50)
// @Success 200 {array} model.MediaFile
// @Router /api/media [get]
func (ctl *MediaController) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	items, err := ctl.mediaSvc.List(c.Request.Context(), limit)
	if err != nil {
		ctl.writeError(c, err)
		return
	}
	success(c, http.StatusOK, items)
}

// Delete 删除
// @Summary 删除媒体文件
// @Tags Media (媒体)
// @Param id path int true "媒体 ID"
// @Success 204
// @Failure 404 {object} map[string]interface{} "不存在"
// @Router /api/media/{id} [delete]
func (ctl *MediaController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		fail(c, http.StatusBadRequest, "invalid media id")
		return
	}
	if err := ctl.mediaSvc.Delete(c.Request.Context(), id); err != nil {
		ctl.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *MediaController) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnsupportedMediaType),
		errors.Is(err, service.ErrMediaTooLarge),
		errors.Is(err, service.ErrInvalidMediaMeta):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrMediaNotFound):
		fail(c, http.StatusNotFound, "Media not found")
	default:
		ctl.logger.Error("媒体操作失败", zap.Error(err))
		fail(c, http.StatusInternalServerError, "internal error")
	}
}
