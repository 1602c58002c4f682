package models

import "errors"

var ErrMissingField = errors.New("required field is empty")
