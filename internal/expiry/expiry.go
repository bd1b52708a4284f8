package expiry

import (
	"fmt"
	"time"
)

// ValidateYYMM checks that s is four digits with a month in 01..12
func ValidateYYMM(s string) error {
	if len(s) != 4 {
		return fmt.Errorf("expiry must be YYMM (4 digits), got %d characters", len(s))
	}
	for i := 0; i < 4; i++ {
		if s[i] < '0' || s[i] > '9' {
			return fmt.Errorf("expiry must be digits: YYMM")
		}
	}
	mm := int(s[2]-'0')*10 + int(s[3]-'0')
	if mm < 1 || mm > 12 {
		return fmt.Errorf("expiry month must be 01..12, got %02d", mm)
	}
	return nil
}

// ParseYYMM splits a gateway expiry into a four digit year and a month.
// "2506" is June 2025.
func ParseYYMM(s string) (year int, month int, err error) {
	if err := ValidateYYMM(s); err != nil {
		return 0, 0, err
	}
	yy := int(s[0]-'0')*10 + int(s[1]-'0')
	mm := int(s[2]-'0')*10 + int(s[3]-'0')
	return 2000 + yy, mm, nil
}

// IsExpired reports whether at is after the last instant of the YYMM month in UTC
func IsExpired(yymm string, at time.Time) (bool, error) {
	year, month, err := ParseYYMM(yymm)
	if err != nil {
		return false, err
	}
	end := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0).Add(-time.Nanosecond)
	return at.UTC().After(end), nil
}
