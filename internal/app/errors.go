package service

import "errors"

// ErrNoRun is returned by queries issued before a successful Run.
var ErrNoRun = errors.New("no completed pipeline run")
