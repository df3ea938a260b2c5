package service

import "errors"

// Error definitions for the service package.
var (
	ErrEmptyInput           = errors.New("input is empty")
	ErrToolNotRecognized    = errors.New("no tool recognized in the image")
	ErrProcessingTimeout    = errors.New("file processing timed out")
	ErrFileProcessingFailed = errors.New("file processing failed")
)
