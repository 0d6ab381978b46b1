package service

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/timmy/catknow/internal/domain"
)

const (
	DefaultPage  = 0
	DefaultLimit = 10
	MaxLimit     = 100
)

var imageIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ImageQuery is a validated image listing request.
type ImageQuery struct {
	Page        int
	Limit       int
	CategoryIDs []int
	// HasBreeds is nil when the caller did not filter on breeds.
	HasBreeds *bool
}

// ParseImageQuery validates listing parameters and applies defaults.
// Parameters:
//   - q: raw query values (page, limit, category_ids, has_breeds).
//
// Returns:
//   - ImageQuery: normalized query.
//   - error: *domain.APIError with INVALID_PARAMETER on bad input.
func ParseImageQuery(q url.Values) (ImageQuery, error) {
	query := ImageQuery{Page: DefaultPage, Limit: DefaultLimit}

	if raw := strings.TrimSpace(q.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 0 {
			return ImageQuery{}, domain.NewValidationError("Invalid page parameter: must be a non-negative integer")
		}
		query.Page = page
	}

	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return ImageQuery{}, domain.NewValidationError("Invalid limit parameter: must be an integer")
		}
		if limit > MaxLimit {
			return ImageQuery{}, domain.NewValidationError("Limit cannot exceed %d", MaxLimit)
		}
		if limit < 1 {
			return ImageQuery{}, domain.NewValidationError("Limit must be at least 1")
		}
		query.Limit = limit
	}

	if raw := strings.TrimSpace(q.Get("category_ids")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || id <= 0 {
				return ImageQuery{}, domain.NewValidationError("Invalid category_ids parameter: %q is not a positive integer", part)
			}
			query.CategoryIDs = append(query.CategoryIDs, id)
		}
	}

	if raw := strings.TrimSpace(q.Get("has_breeds")); raw != "" {
		var v bool
		switch strings.ToLower(raw) {
		case "1", "true":
			v = true
		case "0", "false":
			v = false
		default:
			return ImageQuery{}, domain.NewValidationError("Invalid has_breeds parameter: expected 0, 1, true or false")
		}
		query.HasBreeds = &v
	}

	return query, nil
}

// Values renders the query in upstream form.
func (q ImageQuery) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	if len(q.CategoryIDs) > 0 {
		ids := make([]string, len(q.CategoryIDs))
		for i, id := range q.CategoryIDs {
			ids[i] = strconv.Itoa(id)
		}
		v.Set("category_ids", strings.Join(ids, ","))
	}
	if q.HasBreeds != nil {
		if *q.HasBreeds {
			v.Set("has_breeds", "1")
		} else {
			v.Set("has_breeds", "0")
		}
	}
	return v
}

// ValidateImageID checks an image identifier before it is put in a URL path.
func ValidateImageID(id string) error {
	if id == "" || !imageIDPattern.MatchString(id) {
		return domain.NewValidationError("Invalid cat ID")
	}
	return nil
}
