package vcs

import "errors"

var (
	ErrRepositoryNotFound = errors.New("repository not found")
	ErrBareRepository     = errors.New("cannot use bare repository")
	ErrRemoteNotFound     = errors.New("remote not found")
	ErrBackend            = errors.New("vcs backend error")
)
