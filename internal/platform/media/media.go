// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package media moves user-supplied images from the local staging area to
object storage.

# Lifecycle

 1. The transport layer stages each multipart file on local disk ([Stage]).
 2. The session manager hands the staged [Asset] to an uploader.
 3. The uploader pushes it to storage and removes the staged copy, whether
    the upload succeeded or not.

Staged files that never reach an uploader are released with [Discard].
*/
package media

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/taibuivan/vidtube/pkg/uuid"
)

// ErrNoFile is returned when an upload is attempted without a staged file.
var ErrNoFile = errors.New("media: no staged file")

// Asset is a file staged on local disk awaiting upload.
type Asset struct {
	// LocalPath is where the staged bytes live.
	LocalPath string
	// Filename is the client-supplied name, used only for its extension.
	Filename    string
	ContentType string
	Size        int64
}

// Uploaded describes an asset stored remotely.
type Uploaded struct {
	URL string
	Key string
}

/*
Stage copies a multipart file into dir under a collision-free name.

Parameters:
  - dir: string (Staging directory, created when missing)
  - header: *multipart.FileHeader

Returns:
  - *Asset: The staged file
  - error: I/O failures
*/
func Stage(dir string, header *multipart.FileHeader) (*Asset, error) {
	if header == nil {
		return nil, ErrNoFile
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("media: create staging dir: %w", err)
	}

	source, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("media: open multipart file: %w", err)
	}
	defer source.Close()

	localPath := filepath.Join(dir, uuid.New()+Extension(header.Filename))
	destination, err := os.OpenFile(localPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("media: create staged file: %w", err)
	}

	written, copyErr := io.Copy(destination, source)
	closeErr := destination.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(localPath)
		return nil, fmt.Errorf("media: write staged file: %w", errors.Join(copyErr, closeErr))
	}

	return &Asset{
		LocalPath:   localPath,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        written,
	}, nil
}

// Discard removes a staged asset. Nil assets and missing files are ignored.
func Discard(asset *Asset) {
	if asset == nil || asset.LocalPath == "" {
		return
	}
	_ = os.Remove(asset.LocalPath)
}

// Extension returns the lower-cased extension of filename, including the dot.
func Extension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}
