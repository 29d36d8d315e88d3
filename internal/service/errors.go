package service

import "errors"

// ==================== 错误定义 ====================

var (
	ErrPaintingNotFound = errors.New("painting not found")
	ErrKindNotSupported = errors.New("sync not implemented for this product kind")
	ErrInvalidCursor    = errors.New("invalid cursor")

	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrUserDisabled       = errors.New("inactive user")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already in use")
	ErrIncorrectPassword  = errors.New("incorrect current password")
	ErrCannotDeleteSelf   = errors.New("cannot delete the current user")
	ErrInvalidRole        = errors.New("invalid role")
	ErrForbidden          = errors.New("forbidden")

	ErrBlogNotFound     = errors.New("blog post not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidCategory  = errors.New("invalid category")

	ErrRoomNotFound     = errors.New("room not found")
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrInvalidRoom      = errors.New("invalid room_id")
	ErrInvalidPainting  = errors.New("invalid painting_id")
	ErrArtifactExists   = errors.New("painting already assigned to this room")
	ErrInvalidHotspot   = errors.New("hotspot must be a JSON object")

	ErrSectionNotFound   = errors.New("section not found")
	ErrInvalidSection    = errors.New("invalid section kind")
	ErrInvalidTargetURL  = errors.New("target_url must be an http(s) URL")
	ErrNoSettingsUpdate  = errors.New("no updates provided")
	ErrInvalidSettingsJS = errors.New("invalid settings JSON")

	ErrMediaNotFound        = errors.New("media not found")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrMediaTooLarge        = errors.New("media file too large")
	ErrInvalidMediaMeta     = errors.New("invalid meta JSON")
)
