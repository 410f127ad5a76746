// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates the request payload failed validation.
var ErrValidation = errors.New("validation failed")

// ErrQueueFull indicates the task queue cannot accept more work.
var ErrQueueFull = errors.New("task queue is full")
