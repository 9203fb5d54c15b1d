package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartrisk/heartrisk/internal/config"
)

type fakeObjects struct {
	objects map[string]string
	calls   []string
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	id := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.calls = append(f.calls, id)
	body, ok := f.objects[id]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestO3Client_GetObject(t *testing.T) {
	fake := &fakeObjects{objects: map[string]string{
		"models/columns.json": `{"data_columns":["age"]}`,
		"other/model.json":    `{}`,
	}}
	c := &O3Client{client: fake, bucket: "models"}

	got, err := c.GetObject(context.Background(), "", "columns.json")
	require.NoError(t, err)
	assert.Equal(t, `{"data_columns":["age"]}`, string(got))

	got, err = c.GetObject(context.Background(), "other", "model.json")
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(got))

	_, err = c.GetObject(context.Background(), "", "missing.json")
	assert.True(t, errors.Is(err, ErrObjectNotFound))

	assert.Equal(t, []string{"models/columns.json", "other/model.json", "models/missing.json"}, fake.calls)
}

func TestO3Client_NotConfigured(t *testing.T) {
	c, err := NewO3Client(nil)
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = NewO3Client(&config.O3Config{Bucket: "models"})
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = c.GetObject(context.Background(), "models", "x")
	assert.Error(t, err)
}

func TestNewO3Client(t *testing.T) {
	c, err := NewO3Client(&config.O3Config{Endpoint: "http://localhost:9000", Bucket: "models"})
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "models", c.bucket)
}

func TestParseObjectURI(t *testing.T) {
	bucket, key, err := ParseObjectURI("s3://models/heart/v2/model.json")
	require.NoError(t, err)
	assert.Equal(t, "models", bucket)
	assert.Equal(t, "heart/v2/model.json", key)

	bucket, key, err = ParseObjectURI("s3:///columns.json")
	require.NoError(t, err)
	assert.Equal(t, "", bucket)
	assert.Equal(t, "columns.json", key)

	for _, bad := range []string{"columns.json", "s3://models", "s3://models/"} {
		_, _, err := ParseObjectURI(bad)
		assert.Error(t, err, bad)
	}
	assert.True(t, IsObjectURI("s3://a/b"))
	assert.False(t, IsObjectURI("/srv/a/b"))
}
