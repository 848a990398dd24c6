package finance

import "errors"

var ErrInvalidPeriod = errors.New("invalid period, use today, week or month")
