package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		panic(err)
	}
}

// force the timezone to IST because the portal reports dates in
// local campus time, which breaks comparisons when a server ends
// up in a different region
func Now() time.Time {
	return time.Now().In(Location)
}
