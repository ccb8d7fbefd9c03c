package util

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"sync/atomic"
	"time"
)

func NewID(prefix string) string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}

// StampID returns prefix-<unix millis>, the form used for whole-document ids
// ("ai-1718000000000", "demo-1718000000000").
func StampID(prefix string, now time.Time) string {
	return prefix + "-" + strconv.FormatInt(now.UnixMilli(), 10)
}

var tokenSeq atomic.Uint32

// Token returns a time-based element id. The sequence suffix keeps tokens
// minted within the same millisecond distinct.
func Token() string {
	seq := tokenSeq.Add(1)
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + strconv.FormatUint(uint64(seq), 10)
}
