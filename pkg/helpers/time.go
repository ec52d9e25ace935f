package helpers

import "time"

// NowUTC is the service clock: UTC at the microsecond precision Postgres stores.
func NowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func NowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
