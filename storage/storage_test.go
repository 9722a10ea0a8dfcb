package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileObject(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{
			name:     "week request",
			filename: "week.json",
			data:     []byte(`{"meal_input": {"monday": {"wants_dinner": true}}}`),
		},
		{
			name:     "nested output path is created",
			filename: filepath.Join("out", "2026", "plan.json"),
			data:     []byte(`{"meal_output": {}, "shopping_list": {}}`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := NewFileObject(filepath.Join(tmpDir, tt.filename))
			ctx := context.Background()

			require.NoError(t, obj.Save(ctx, tt.data))

			loaded, err := obj.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.data, loaded)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := NewFileObject(filepath.Join(tmpDir, "nope.json")).Load(context.Background())
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
}

type fakeS3 struct {
	objects map[string][]byte
	putType string
	err     error
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)] = data
	f.putType = aws.ToString(params.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Object(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}}
	obj := NewS3Object(fake, "artifacts", "plans/week.json", "application/json")

	require.NoError(t, obj.Save(ctx, []byte(`{"ok":true}`)))
	assert.Equal(t, "application/json", fake.putType)

	data, err := obj.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))

	_, err = NewS3Object(fake, "artifacts", "missing.json", "").Load(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://artifacts/missing.json")

	fake.err = errors.New("access denied")
	err = obj.Save(ctx, []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestMemoryObject(t *testing.T) {
	ctx := context.Background()

	obj := NewMemoryObject([]byte("seed"))
	data, err := obj.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "seed", string(data))

	require.NoError(t, obj.Save(ctx, []byte("next")))
	assert.Equal(t, "next", string(obj.Bytes()))

	failing := NewMemoryObjectWithError()
	_, err = failing.Load(ctx)
	assert.Error(t, err)
	assert.Error(t, failing.Save(ctx, nil))
}
