package snowflake

import (
	"fmt"
	"strconv"
	"time"
)

// discord snowflake layout: 42 bits of milliseconds since the discord
// epoch, 10 bits of worker/process id, 12 bits of increment
const (
	timestampLength int64 = 42
	timestampPos          = 64 - timestampLength // 22
	workerLength    int64 = 10
	workerPos             = timestampPos - workerLength // 12
	incrementLength       = 64 - (timestampLength + workerLength)

	// 2015-01-01T00:00:00Z in unix milliseconds
	discordEpoch int64 = 1420070400000

	minLength = 17
	maxLength = 20
)

type Snowflake struct {
	Timestamp int64
	WorkerID  int64
	Increment int64
}

// IsValid reports whether s looks like a discord snowflake id:
// all digits, 17 to 20 characters.
func IsValid(s string) bool {
	if len(s) < minLength || len(s) > maxLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func Parse(s string) (int64, error) {
	if !IsValid(s) {
		return 0, fmt.Errorf("[%s] is not a valid snowflake id", s)
	}

	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return int64(id), nil
}

func Extract(snowflakeId int64) Snowflake {
	return Snowflake{
		Timestamp: (snowflakeId >> timestampPos) + discordEpoch,
		WorkerID:  (snowflakeId >> workerPos) & ((1 << workerLength) - 1),
		Increment: snowflakeId & ((1 << incrementLength) - 1),
	}
}

// Timestamp returns the creation time encoded in a snowflake id.
func Timestamp(snowflakeId int64) time.Time {
	return time.UnixMilli(Extract(snowflakeId).Timestamp)
}
