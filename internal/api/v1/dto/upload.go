package dto

import "time"

// InitUploadRequest is the body of POST /upload/init.
type InitUploadRequest struct {
	Filename string `json:"filename" binding:"required,min=1,max=255"`
}

// InitUploadResponse hands back the presigned target for a direct upload.
type InitUploadResponse struct {
	JobID     string    `json:"job_id"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ProcessUploadRequest is the body of POST /upload/:job_id/process.
type ProcessUploadRequest struct {
	SegmentDuration int    `json:"segment_duration" binding:"required,min=1,max=3600"`
	AspectRatio     string `json:"aspect_ratio" binding:"omitempty,oneof=16:9 4:3 1:1 9:16 21:9 custom"`
	Position        string `json:"position" binding:"omitempty,oneof=center top bottom left right"`
	CustomWidth     int    `json:"custom_width" binding:"omitempty,min=2"`
	CustomHeight    int    `json:"custom_height" binding:"omitempty,min=2"`
}
