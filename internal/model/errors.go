package model

import "errors"

var (
	// ErrUnsupportedImageType means the declared content type is not one of
	// the accepted image formats. Client fault.
	ErrUnsupportedImageType = errors.New("unsupported image type")

	// ErrCorruptImage means the payload could not be decoded as an image.
	// Client fault.
	ErrCorruptImage = errors.New("cannot decode image")

	// ErrModelNotConfigured means the artifact is absent locally and no
	// download source is configured.
	ErrModelNotConfigured = errors.New("model artifact missing and no download source configured")

	// ErrModelDownload means fetching the artifact from the configured
	// source failed.
	ErrModelDownload = errors.New("model artifact download failed")

	// ErrNotLoaded means a prediction was attempted but the one-time model
	// load has failed for this process. Not retried per request.
	ErrNotLoaded = errors.New("model not loaded")
)
