package dto

import "encoding/json"

// CreateRoomReq 新建展厅
type CreateRoomReq struct {
	Title string  `json:"title" binding:"required,min=1,max=255"`
	Slug  *string `json:"slug" binding:"omitempty,max=255"`
	Intro *string `json:"intro"`
	Sort  int     `json:"sort"`
}

// UpdateRoomReq 修改展厅
type UpdateRoomReq struct {
	Title *string `json:"title" binding:"omitempty,min=1,max=255"`
	Slug  *string `json:"slug" binding:"omitempty,max=255"`
	Intro *string `json:"intro"`
	Sort  *int    `json:"sort"`
}

// CreateArtifactReq 把画作放进展厅
type CreateArtifactReq struct {
	RoomID     int64           `json:"room_id" binding:"required,gt=0"`
	PaintingID int64           `json:"painting_id" binding:"required,gt=0"`
	Sort       int             `json:"sort"`
	Hotspot    json.RawMessage `json:"hotspot" swaggertype:"object"`
}

// UpdateArtifactReq 修改展品
type UpdateArtifactReq struct {
	RoomID     *int64          `json:"room_id" binding:"omitempty,gt=0"`
	PaintingID *int64          `json:"painting_id" binding:"omitempty,gt=0"`
	Sort       *int            `json:"sort"`
	Hotspot    json.RawMessage `json:"hotspot" swaggertype:"object"`
}

// ArtifactListReq 展品筛选
type ArtifactListReq struct {
	RoomID     *int64 `form:"room_id" binding:"omitempty,gt=0"`
	PaintingID *int64 `form:"painting_id" binding:"omitempty,gt=0"`
}
