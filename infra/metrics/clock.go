package metrics

import "time"

// sessionNow stamps snapshots; tests replace it.
var sessionNow = time.Now
