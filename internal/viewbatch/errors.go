package viewbatch

import "errors"

var (
	ErrEmptyDealID    = errors.New("deal id is empty")
	ErrBatcherClosed  = errors.New("view batcher is closed")
	ErrDispatchFailed = errors.New("view dispatch failed")
)
