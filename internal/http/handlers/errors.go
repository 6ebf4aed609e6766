package handlers

import "errors"

var errUnauthorized = errors.New("Unauthorized")
