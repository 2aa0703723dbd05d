// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package timeutil

import "time"

// TimeStamp defines a timestamp in seconds
type TimeStamp int64

// TimeStampNow returns now int64
func TimeStampNow() TimeStamp {
	return TimeStamp(time.Now().Unix())
}

// AsTime convert timestamp as time.Time in local locale
func (ts TimeStamp) AsTime() time.Time {
	return time.Unix(int64(ts), 0).Local()
}

// IsZero is zero time
func (ts TimeStamp) IsZero() bool {
	return int64(ts) == 0
}
