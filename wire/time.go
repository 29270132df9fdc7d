// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package wire

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// NullDate is the literal token meaning "no value" for a TIME attribute.
const NullDate = "nulldate"

var months = map[string]int{
	"Jan": 1, "Feb": 2, "Mar": 3, "Apr": 4, "May": 5, "Jun": 6,
	"Jul": 7, "Aug": 8, "Sep": 9, "Oct": 10, "Nov": 11, "Dec": 12,
}

// ParseTime parses a TIME value in any of the three wire forms: the
// "nulldate" sentinel (returns the zero Time and ok=false), ISO-8601
// (YYYY-MM-DDTHH:MM:SSZ), or the legacy "Mon DD HH:MM:SS YYYY" form where
// "Mon" is the three-letter MONTH abbreviation, not the weekday.
func ParseTime(value string) (t time.Time, ok bool, err error) {
	if value == "" || value == NullDate {
		return time.Time{}, false, nil
	}
	if strings.ContainsRune(value, 'T') && strings.HasSuffix(value, "Z") {
		t, err = parseISO8601(value)
		return t, err == nil, err
	}
	t, err = parseLegacyTime(value)
	return t, err == nil, err
}

func parseISO8601(value string) (time.Time, error) {
	fields := splitAny(value, "-:TZ")
	if len(fields) != 6 {
		return time.Time{}, errors.Errorf("wire: invalid ISO-8601 time %q", value)
	}
	nums, err := atoiAll(fields)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "wire: invalid ISO-8601 time %q", value)
	}
	return time.Date(nums[0], time.Month(nums[1]), nums[2], nums[3], nums[4], nums[5], 0, time.UTC), nil
}

// parseLegacyTime parses "Mon DD HH:MM:SS YYYY", e.g. "Jun 19 14:25:00 2024".
func parseLegacyTime(value string) (time.Time, error) {
	fields := splitAny(value, ": ")
	if len(fields) != 6 {
		return time.Time{}, errors.Errorf("wire: invalid legacy time %q", value)
	}
	month, ok := months[fields[0]]
	if !ok {
		return time.Time{}, errors.Errorf("wire: invalid month %q", fields[0])
	}
	nums, err := atoiAll(fields[1:])
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "wire: invalid legacy time %q", value)
	}
	day, hour, min, sec, year := nums[0], nums[1], nums[2], nums[3], nums[4]
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, time.Local), nil
}

// FormatISO8601 renders t the way ser-version-2 sessions with the ISO-8601
// time mode bit clear expect to receive TIME attribute values.
func FormatISO8601(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// FormatLegacy renders t in the legacy "Mon DD HH:MM:SS YYYY" form.
func FormatLegacy(t time.Time) string {
	return t.Format("Jan 2 15:04:05 2006")
}

func splitAny(s string, cutset string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(cutset, r)
	})
}

func atoiAll(fields []string) ([]int, error) {
	nums := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		nums[i] = n
	}
	return nums, nil
}
