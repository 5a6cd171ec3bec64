// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package requestutil provides utilities for extracting data from HTTP requests.

It keeps body decoding and identity lookups consistent across handlers.
*/
package requestutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/taibuivan/vidtube/internal/platform/apperr"
	"github.com/taibuivan/vidtube/internal/platform/ctxutil"
	"github.com/taibuivan/vidtube/internal/platform/validate"
	"github.com/taibuivan/vidtube/internal/users/account"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
DecodeOptionalJSON is DecodeJSON for endpoints where the body may be absent.
An empty body leaves target untouched.
*/
func DecodeOptionalJSON(request *http.Request, target interface{}) error {
	if request.Body == nil || request.Body == http.NoBody {
		return nil
	}
	err := json.NewDecoder(request.Body).Decode(target)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return validate.ErrInvalidJSON
}

/*
RequiredAccount ensures the request is authenticated and returns the account.

Returns:
  - *account.Profile: The authenticated account
  - error: apperr.Unauthorized if the request is not authenticated
*/
func RequiredAccount(request *http.Request) (*account.Profile, error) {
	profile := ctxutil.GetAccount(request.Context())
	if profile == nil {
		return nil, apperr.Unauthorized("Unauthorized request")
	}
	return profile, nil
}
