package main

const (
	MsgInvalidImage    = "Invalid image"
	MsgMissingFile     = "Missing image file"
	MsgDetectionFailed = "Detection failed"
)
