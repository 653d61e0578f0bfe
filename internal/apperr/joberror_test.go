package apperr

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"twinfm/internal/cancel"
)

func TestFromIOErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code JobErrorCode
		hint RetryHint
	}{
		{"permission", fs.ErrPermission, CodePermissionDenied, RetryElevated},
		{"exists", fs.ErrExist, CodeAlreadyExists, RetryNone},
		{"notfound", fs.ErrNotExist, CodeNotFound, RetryNone},
		{"invalid", fs.ErrInvalid, CodeInvalidInput, RetryNone},
		{"unsupported", syscall.ENOTSUP, CodeUnsupported, RetryNone},
		{"interrupted", syscall.EINTR, CodeInterrupted, RetryRetry},
		{"other", errors.New("boom"), CodeOther, RetryRetry},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			je := FromIOError(c.err)
			assert.Equal(t, c.code, je.Code)
			assert.Equal(t, c.hint, je.RetryHint)
		})
	}
}

func TestFromIOErrorCancelSentinelWinsOverWrapping(t *testing.T) {
	je := FromIOError(fmt.Errorf("copy a.txt: %w", cancel.Err))
	assert.Equal(t, CodeCanceled, je.Code)
	assert.True(t, je.IsCanceled())
	assert.Equal(t, RetryNone, je.RetryHint)
}

func TestFromMessageRecognizesSentinel(t *testing.T) {
	je := FromMessage(cancel.Sentinel)
	assert.True(t, je.IsCanceled())

	je2 := FromMessage("disk full")
	assert.Equal(t, CodeOther, je2.Code)
}

func TestIsCrossDevice(t *testing.T) {
	assert.True(t, IsCrossDevice(syscall.EXDEV))
	assert.False(t, IsCrossDevice(errors.New("nope")))
}

func TestDispatchError(t *testing.T) {
	je := Dispatch("queue closed")
	assert.Equal(t, CodeDispatch, je.Code)
	assert.Equal(t, RetryRetry, je.RetryHint)
}
