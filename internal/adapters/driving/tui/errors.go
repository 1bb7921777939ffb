package tui

import "errors"

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("tui: chat service is required")

// ErrMissingKeyPointService is returned when the key point service is not provided.
var ErrMissingKeyPointService = errors.New("tui: key point service is required")

// ErrMissingProject is returned when no project is given.
var ErrMissingProject = errors.New("tui: project is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
