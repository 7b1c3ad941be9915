package planning

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidPeriod = errors.New("invalid period")

type Period struct {
	Year  int
	Month int
}

func (p Period) Validate() error {
	if p.Year < 1 || p.Year > 9999 {
		return fmt.Errorf("%w: year %d out of range", ErrInvalidPeriod, p.Year)
	}
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: month %d out of range", ErrInvalidPeriod, p.Month)
	}
	return nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// ParsePeriod понимает "2025-03", "2025/3", "2025 3" и "03.2025".
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '/' || r == '.' || r == ' ' || r == '\t'
	})
	if len(fields) != 2 {
		return Period{}, fmt.Errorf("%w: %q, expected YYYY-MM", ErrInvalidPeriod, s)
	}
	a, err1 := strconv.Atoi(fields[0])
	b, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		return Period{}, fmt.Errorf("%w: %q, expected YYYY-MM", ErrInvalidPeriod, s)
	}

	p := Period{Year: a, Month: b}
	if len(fields[1]) == 4 && len(fields[0]) <= 2 {
		p = Period{Year: b, Month: a}
	}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}
