package services

import "errors"

var (
	ErrDuplicateFolder    = errors.New("folder already exists")
	ErrFolderNotFound     = errors.New("folder not found")
	ErrSavedNotFound      = errors.New("saved article not found")
	ErrCorrectionNotFound = errors.New("correction request not found")
	ErrArticleNotFound    = errors.New("article not found in inbox")
	ErrInvalidStatus      = errors.New("invalid correction status")
	ErrEmptyName          = errors.New("name must not be empty")
	ErrDuplicateKeyword   = errors.New("keyword already watched")
)
