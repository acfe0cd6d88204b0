package manager

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchResult_AllSucceeded(t *testing.T) {
	var res BatchResult
	res.add("a", nil)
	res.add("b", nil)

	assert.True(t, res.OK())
	assert.False(t, res.Partial())
	assert.Equal(t, []string{"a", "b"}, res.Succeeded())
	assert.Equal(t, "2 item(s) processed", res.Summary())
}

func TestBatchResult_Partial(t *testing.T) {
	var res BatchResult
	res.add("a", nil)
	res.add("b", fmt.Errorf("boom"))

	assert.False(t, res.OK())
	assert.True(t, res.Partial())
	assert.Len(t, res.Failed(), 1)
	assert.Contains(t, res.Summary(), "1 item(s) processed, 1 failed")
	assert.Contains(t, res.Summary(), "b: boom")
}

func TestBatchResult_Empty(t *testing.T) {
	var res BatchResult
	assert.True(t, res.OK())
	assert.False(t, res.Partial())
	assert.Equal(t, "0 item(s) processed", res.Summary())
}

func TestRestoreError(t *testing.T) {
	err := &RestoreError{Reason: "original path gone"}
	assert.Equal(t, "restore failed: original path gone", err.Error())
}
