package search

import "errors"

// ErrNoSearchService is returned when the view was built without a search service.
var ErrNoSearchService = errors.New("search is not available for this project")
