// Package audit records task mutations as structured log entries.
package audit

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
)

// Actions recorded by the task service.
const (
	ActionCreate  = "task.create"
	ActionReplace = "task.replace"
	ActionDelete  = "task.delete"
)

// Recorder writes one audit entry per state-mutating action.
type Recorder struct {
	logger *log.Logger
}

// NewRecorder creates a recorder. A nil logger falls back to the standard one.
func NewRecorder(logger *log.Logger) *Recorder {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Recorder{logger: logger}
}

// Record logs action with a hash of its inputs so entries can be compared
// without storing task text.
func (r *Recorder) Record(action string, inputs any, outcome string, empID int) {
	if r == nil {
		return
	}
	r.logger.WithFields(log.Fields{
		"audit":       true,
		"action":      action,
		"empId":       empID,
		"outcome":     outcome,
		"inputs_hash": HashInputs(inputs),
	}).Info("audit")
}

// HashInputs returns the hex SHA-256 of the JSON encoding of inputs.
func HashInputs(inputs any) string {
	data, err := sonic.ConfigStd.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
