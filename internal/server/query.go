package server

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/theirongolddev/afkmon/internal/apperr"
	"github.com/theirongolddev/afkmon/internal/ingest"
	"github.com/theirongolddev/afkmon/internal/pipeline"
	"github.com/theirongolddev/afkmon/internal/timewindow"
)

// parseInstant accepts anything ingest.ParseTimestamp does, plus bare dates.
func parseInstant(s string) (time.Time, error) {
	if t, err := ingest.ParseTimestamp(s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return t, err
	}
	if !ingest.Storable(t) {
		return time.Time{}, fmt.Errorf("date %q is out of range", s)
	}
	return t, nil
}

func optionalInstant(v url.Values, key string) (*time.Time, error) {
	raw := v.Get(key)
	if raw == "" {
		return nil, nil
	}
	t, err := parseInstant(raw)
	if err != nil {
		return nil, apperr.InvalidQuery(fmt.Sprintf("invalid %s %q", key, raw), err).WithDetail(key, raw)
	}
	return &t, nil
}

func optionalInt(v url.Values, key string, def int) (int, error) {
	raw := v.Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.InvalidQuery(fmt.Sprintf("%s must be an integer", key), err).WithDetail(key, raw)
	}
	return n, nil
}

// ParseStatsQuery reads time_filter, start_date, end_date, project_name and
// language. Bounds without a time_filter imply the custom filter.
func ParseStatsQuery(v url.Values, defaultFilter timewindow.Filter) (pipeline.Query, error) {
	var q pipeline.Query

	start, err := optionalInstant(v, "start_date")
	if err != nil {
		return q, err
	}
	end, err := optionalInstant(v, "end_date")
	if err != nil {
		return q, err
	}

	filter := defaultFilter
	if v.Has("time_filter") {
		if filter, err = timewindow.ParseFilter(v.Get("time_filter")); err != nil {
			return q, err
		}
	}

	q.TimeFilter = filter
	q.Start = start
	q.End = end
	q.Project = v.Get("project_name")
	q.Language = v.Get("language")
	return q, nil
}

// ParseListQuery reads limit, offset, projectName, language, from and to.
func ParseListQuery(v url.Values) (pipeline.ListQuery, error) {
	var q pipeline.ListQuery

	limit, err := optionalInt(v, "limit", pipeline.DefaultListLimit)
	if err != nil {
		return q, err
	}
	if limit < 1 || limit > pipeline.MaxListLimit {
		return q, apperr.InvalidQuery(
			fmt.Sprintf("limit must be between 1 and %d", pipeline.MaxListLimit), nil).WithDetail("limit", limit)
	}
	offset, err := optionalInt(v, "offset", 0)
	if err != nil {
		return q, err
	}
	if offset < 0 {
		return q, apperr.InvalidQuery("offset must be >= 0", nil).WithDetail("offset", offset)
	}

	from, err := optionalInstant(v, "from")
	if err != nil {
		return q, err
	}
	to, err := optionalInstant(v, "to")
	if err != nil {
		return q, err
	}

	return pipeline.ListQuery{
		Project:  v.Get("projectName"),
		Language: v.Get("language"),
		From:     from,
		To:       to,
		Offset:   offset,
		Limit:    limit,
	}, nil
}
