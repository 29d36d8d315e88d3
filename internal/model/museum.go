package model

import "gorm.io/datatypes"

// MuseumRoom 虚拟美术馆的展厅
type MuseumRoom struct {
	BaseModel
	AuditMixin

	Title string  `gorm:"size:255;not null" json:"title"`
	Slug  string  `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Intro *string `gorm:"type:text" json:"intro"`
	Sort  int     `gorm:"not null" json:"sort"`
}

func (MuseumRoom) TableName() string {
	return "museum_rooms"
}

// MuseumArtifact 展厅中的一件画作，同一展厅内画作不重复
type MuseumArtifact struct {
	BaseModel
	RoomID     int64          `gorm:"not null;uniqueIndex:uq_artifact_room_painting" json:"room_id"`
	PaintingID int64          `gorm:"not null;uniqueIndex:uq_artifact_room_painting;index" json:"painting_id"`
	Sort       int            `gorm:"not null" json:"sort"`
	Hotspot    datatypes.JSON `json:"hotspot"`

	Room     *MuseumRoom `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"-"`
	Painting *Painting   `gorm:"foreignKey:PaintingID;constraint:OnDelete:CASCADE" json:"painting,omitempty"`
}

func (MuseumArtifact) TableName() string {
	return "museum_artifacts"
}
