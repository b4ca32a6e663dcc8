package ledger

import "time"

func systemClockMillis() int64 {
	return time.Now().UnixMilli()
}
