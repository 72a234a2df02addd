package common

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"

	// DateLayout is the canonical textual form of product dates.
	DateLayout = "2006-01-02"
)

var snowflakeNode *snowflake.Node

func init() {
	mrand, _ := rand.Int(rand.Reader, big.NewInt(1023))
	snowflakeNode, _ = snowflake.NewNode(mrand.Int64())
}

// UUIDint64 returns a snowflake based int64 id
func UUIDint64() int64 {
	return snowflakeNode.Generate().Int64()
}

// FmtDate formats a time using the canonical date layout.
func FmtDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FmtDatetime formats a time as a full datetime string.
func FmtDatetime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
