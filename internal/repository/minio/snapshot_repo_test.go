package minio

import (
	"errors"
	"testing"

	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "missing object", err: minio.ErrorResponse{Code: "NoSuchKey"}, want: e.ErrSnapshotNotFound},
		{name: "missing bucket", err: minio.ErrorResponse{Code: "NoSuchBucket"}, want: e.ErrNotFound},
		{name: "read-only credentials", err: minio.ErrorResponse{Code: "AccessDenied"}, want: e.ErrNotPersisted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classify(tt.err), tt.want)
		})
	}

	t.Run("other errors pass through", func(t *testing.T) {
		base := errors.New("connection reset")
		got := classify(base)
		assert.Equal(t, base, got)
		assert.False(t, errors.Is(got, e.ErrNotFound))
	})
}
