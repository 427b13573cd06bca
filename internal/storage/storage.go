package storage

import "errors"

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)

var (
	ErrPackageNotFound = errors.New("package not found")
	ErrPackageExists   = errors.New("package name already used")
	ErrPostNotFound    = errors.New("post not found")
	ErrSlugTaken       = errors.New("slug already used")
	ErrMediaNotFound   = errors.New("media not found")
	ErrProductNotFound = errors.New("product not found")
)

var (
	ErrFileTooLarge    = errors.New("file size exceeds limit")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileNotFound    = errors.New("file not found")
	ErrEmptyFile       = errors.New("file is empty")
	ErrImageTooLarge   = errors.New("image dimensions exceed limit")
)
