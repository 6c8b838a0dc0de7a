package server

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/greenpack/pkg/db/pagination"
)

const dateOnlyLayout = "2006-01-02"

// pageQuery is embedded by list query structs bound with ShouldBindQuery.
type pageQuery struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

func (q pageQuery) pagination() pagination.Pagination {
	return pagination.Pagination{
		PageToken: strings.TrimSpace(q.PageToken),
		PageSize:  q.PageSize,
	}
}

// timeRange is an optional [From, To] window from two query parameters.
type timeRange struct {
	From *time.Time
	To   *time.Time
}

// parseTimeRange reads RFC3339 or YYYY-MM-DD bounds. A date-only upper bound
// covers the whole day. The error names the offending parameter.
func parseTimeRange(fromKey, fromValue, toKey, toValue string) (timeRange, error) {
	from, err := parseOptionalTime(fromValue, false)
	if err != nil {
		return timeRange{}, newValidationError(fromKey, "invalid_"+fromKey, "invalid "+fromKey)
	}
	to, err := parseOptionalTime(toValue, true)
	if err != nil {
		return timeRange{}, newValidationError(toKey, "invalid_"+toKey, "invalid "+toKey)
	}
	if from != nil && to != nil && to.Before(*from) {
		return timeRange{}, newValidationError(toKey, "invalid_"+toKey, toKey+" is before "+fromKey)
	}
	return timeRange{From: from, To: to}, nil
}

func (r timeRange) fromOrZero() time.Time {
	if r.From == nil {
		return time.Time{}
	}
	return *r.From
}

func (r timeRange) toOrZero() time.Time {
	if r.To == nil {
		return time.Time{}
	}
	return *r.To
}

func parseOptionalBool(value string) (*bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseOptionalSnowflakeID(value string) (*snowflake.ID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := snowflake.ParseString(trimmed)
	if err != nil || parsed == 0 {
		return nil, errors.New("invalid_snowflake_id")
	}
	return &parsed, nil
}

func parseOptionalTime(value string, endOfDay bool) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		parsed = parsed.UTC()
		return &parsed, nil
	}
	parsed, err := time.ParseInLocation(dateOnlyLayout, trimmed, time.UTC)
	if err != nil {
		return nil, errors.New("invalid_time")
	}
	if endOfDay {
		parsed = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return &parsed, nil
}
