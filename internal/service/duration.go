package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDuration rejects explicit boost durations that are malformed or
// not strictly positive.
var ErrInvalidDuration = errors.New("boost duration must be a positive HH:MM:SS string or duration object")

type durationComponents struct {
	Days         int `json:"days"`
	Hours        int `json:"hours"`
	Minutes      int `json:"minutes"`
	Seconds      int `json:"seconds"`
	Milliseconds int `json:"milliseconds"`
}

// ParseBoostDuration parses an explicit boost duration, either "HH:MM:SS"
// (hours unbounded, minutes/seconds 00-59) or a component object
// {days,hours,minutes,seconds,milliseconds}. Zero and negative durations are
// rejected.
func ParseBoostDuration(raw json.RawMessage) (time.Duration, error) {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return parseClockDuration(asString)
	}

	var c durationComponents
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidDuration, raw)
	}

	d := time.Duration(c.Days)*24*time.Hour +
		time.Duration(c.Hours)*time.Hour +
		time.Duration(c.Minutes)*time.Minute +
		time.Duration(c.Seconds)*time.Second +
		time.Duration(c.Milliseconds)*time.Millisecond
	if d <= 0 {
		return 0, ErrInvalidDuration
	}
	return d, nil
}

func parseClockDuration(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		nums[i] = n
	}
	hours, minutes, seconds := nums[0], nums[1], nums[2]
	if hours < 0 || minutes < 0 || minutes > 59 || seconds < 0 || seconds > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}

	d := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second
	if d <= 0 {
		return 0, ErrInvalidDuration
	}
	return d, nil
}
