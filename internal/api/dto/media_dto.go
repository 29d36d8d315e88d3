package dto

import "memshaheb_backend/internal/model"

// MediaUploadResp 上传结果
type MediaUploadResp struct {
	model.MediaFile
	SignedURL string `json:"signed_url"`
}
