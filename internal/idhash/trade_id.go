package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(round_id|agent_id|tick|seq|action)
// Returns hex-encoded hash (64 characters).
//
// seq is the within-agent trade sequence number, so the two legs of a
// same-tick reversal hash to distinct IDs.
func ComputeTradeID(
	roundID string,
	agentID string,
	tick int,
	seq int,
	action string,
) string {
	data := fmt.Sprintf("%s|%s|%d|%d|%s",
		roundID,
		agentID,
		tick,
		seq,
		action,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
