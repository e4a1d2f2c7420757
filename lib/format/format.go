// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Package format renders platform values for people: prices in cents
// and timestamps in Unix milliseconds.
package format

import (
	"fmt"
	"strconv"
	"time"
)

// Layouts used by the CLI.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	TimeLayout     = "15:04:05"
)

// Price renders cents as yuan with two decimals: 7500 is "75.00元".
func Price(cents int) string {
	return PriceWith(cents, "元", 2)
}

// PriceWith renders cents with a unit and decimal count.
func PriceWith(cents int, unit string, decimals int) string {
	yuan := float64(cents) / 100
	return strconv.FormatFloat(yuan, 'f', decimals, 64) + unit
}

// FromMillis converts a Unix millisecond timestamp to local time.
func FromMillis(millis int64) time.Time {
	return time.UnixMilli(millis).Local()
}

// DateTime renders a millisecond timestamp as "2006-01-02 15:04:05".
// Zero renders as "".
func DateTime(millis int64) string {
	if millis == 0 {
		return ""
	}
	return FromMillis(millis).Format(DateTimeLayout)
}

// Date renders the date part of a millisecond timestamp.
func Date(millis int64) string {
	if millis == 0 {
		return ""
	}
	return FromMillis(millis).Format(DateLayout)
}

// Clock renders the time-of-day part of a millisecond timestamp.
func Clock(millis int64) string {
	if millis == 0 {
		return ""
	}
	return FromMillis(millis).Format(TimeLayout)
}

// Relative describes a millisecond timestamp relative to now: "刚刚",
// "5分钟前", "2小时前", "3天前", or the date once it is 30 days old.
// Future times are "未来时间".
func Relative(millis int64, now time.Time) string {
	if millis == 0 {
		return ""
	}
	diff := now.Sub(time.UnixMilli(millis))
	switch {
	case diff < 0:
		return "未来时间"
	case diff < time.Minute:
		return "刚刚"
	case diff < time.Hour:
		return fmt.Sprintf("%d分钟前", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d小时前", int(diff/time.Hour))
	case diff < 30*24*time.Hour:
		return fmt.Sprintf("%d天前", int(diff/(24*time.Hour)))
	default:
		return Date(millis)
	}
}

// Countdown renders a duration until a sale opens, to the second:
// "2h03m07s", "4m00s", "9s".
func Countdown(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	d = d.Round(time.Second)
	hours := int(d / time.Hour)
	minutes := int(d%time.Hour) / int(time.Minute)
	seconds := int(d%time.Minute) / int(time.Second)
	switch {
	case hours > 0:
		return fmt.Sprintf("%dh%02dm%02ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm%02ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
