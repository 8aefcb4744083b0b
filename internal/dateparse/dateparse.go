// Package dateparse validates the YYYY-MM-DD due dates Basecamp accepts.
package dateparse

import (
	"strconv"

	"github.com/basecamp/basecamp-cli/internal/output"
)

// ValidateDueDate checks a YYYY-MM-DD date against the real calendar,
// including leap years. It validates rather than parses: the API wants the
// string as-is, so there is nothing to convert.
func ValidateDueDate(value string) error {
	if len(value) != 10 || value[4] != '-' || value[7] != '-' {
		return output.ErrInvalidInput("Invalid due date. Use YYYY-MM-DD format.")
	}

	year, err := strconv.Atoi(value[0:4])
	if err != nil || year <= 0 {
		return output.ErrInvalidInput("Invalid year in due date.")
	}
	month, err := strconv.Atoi(value[5:7])
	if err != nil || month < 1 || month > 12 {
		return output.ErrInvalidInput("Invalid month in due date.")
	}
	day, err := strconv.Atoi(value[8:10])
	if err != nil || day < 1 || day > daysInMonth(year, month) {
		return output.ErrInvalidInput("Invalid day in due date.")
	}
	return nil
}

func daysInMonth(year, month int) int {
	switch month {
	case 4, 6, 9, 11:
		return 30
	case 2:
		if isLeapYear(year) {
			return 29
		}
		return 28
	default:
		return 31
	}
}

func isLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}
