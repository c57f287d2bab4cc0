package core

import "encoding/json"

// Compatibility rule for SystemEvents:
//   - The major schema version must match exactly.
//   - New event kinds are additive within the same major version; consumers
//     ignore kinds they do not recognize.
//   - Existing kinds keep their field names and semantics; a breaking change
//     requires a new major version.

// Accept is the pure validation function of the schema contract. It rejects
// an event only on a major version mismatch; an unknown kind or unknown
// payload field is never a rejection reason.
func Accept(ev SystemEvent, consumerMajor int) error {
	if ev.SchemaVersion != consumerMajor {
		return ErrSchemaVersionMismatch
	}
	return nil
}

// AcceptRaw validates a wire-encoded event against the consumer's supported
// major version without requiring the consumer to understand the full
// payload. Only the schema_version field is inspected; everything else is
// opaque so consumers built before a kind was added still accept it.
func AcceptRaw(raw []byte, consumerMajor int) error {
	var probe struct {
		SchemaVersion int `json:"schema_version"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return err
	}
	if probe.SchemaVersion != consumerMajor {
		return ErrSchemaVersionMismatch
	}
	return nil
}
