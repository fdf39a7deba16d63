package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/bounce-back/internal/common"
	"github.com/Veraticus/bounce-back/internal/model"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(t *testing.T) {
	t.Helper()
	orig := DefaultRetry
	DefaultRetry = common.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}
	t.Cleanup(func() { DefaultRetry = orig })
}

type memorySink struct {
	bodies    map[string][]byte
	failN     int
	calls     int
	permanent bool
	mu        sync.Mutex
}

func (m *memorySink) Put(_ context.Context, name string, body []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls <= m.failN {
		if m.permanent {
			return "", errors.New("bucket policy forbids writes")
		}
		return "", &common.RetryableError{Err: errors.New("temporarily unavailable"), Retryable: true}
	}
	if m.bodies == nil {
		m.bodies = make(map[string][]byte)
	}
	m.bodies[name] = body
	return "mem://" + name, nil
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func batch(t *testing.T) *model.BatchResult {
	t.Helper()
	return &model.BatchResult{
		Source:      "march.csv",
		Predictions: decodeRecords(t, `[{"ID":1,"Label":"Gold"},{"ID":2,"Label":"Copper"}]`),
	}
}

func TestFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	location, err := FileSink{Dir: dir}.Put(context.Background(), "march.csv", []byte("a,b\n1,2"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, Filename), location)

	data, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2", string(data))
}

func TestS3SinkKey(t *testing.T) {
	tests := []struct {
		prefix string
		name   string
		want   string
	}{
		{prefix: "", name: "march.csv", want: "output/result/march.csv"},
		{prefix: "retention", name: "march.csv", want: "retention/output/result/march.csv"},
		{prefix: "/retention/", name: "march.csv", want: "retention/output/result/march.csv"},
		{prefix: "p", name: "dir/sub/march.csv", want: "p/output/result/march.csv"},
		{prefix: "p", name: `C:\uploads\march.csv`, want: "p/output/result/march.csv"},
		{prefix: "p", name: "", want: "p/output/result/Results.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix+"|"+tt.name, func(t *testing.T) {
			s := newS3Sink(&fakeS3{}, S3Config{Bucket: "b", Prefix: tt.prefix})
			assert.Equal(t, tt.want, s.Key(tt.name))
		})
	}
}

func TestS3SinkPut(t *testing.T) {
	client := &fakeS3{}
	s := newS3Sink(client, S3Config{Bucket: "scores", Prefix: "retention"})

	location, err := s.Put(context.Background(), "march.csv", []byte("a\n1"))
	require.NoError(t, err)
	assert.Equal(t, "s3://scores/retention/output/result/march.csv", location)

	require.NotNil(t, client.input)
	assert.Equal(t, "scores", aws.ToString(client.input.Bucket))
	assert.Equal(t, ContentType, aws.ToString(client.input.ContentType))
	assert.Equal(t, "a\n1", string(client.body))
}

func TestS3SinkPutError(t *testing.T) {
	s := newS3Sink(&fakeS3{err: errors.New("access denied")}, S3Config{Bucket: "scores"})

	_, err := s.Put(context.Background(), "march.csv", []byte("a\n1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output/result/march.csv")
	assert.Contains(t, err.Error(), "access denied")
}

func TestNewS3SinkRequiresBucket(t *testing.T) {
	_, err := NewS3Sink(context.Background(), S3Config{})
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestExport(t *testing.T) {
	fastRetry(t)
	dir := t.TempDir()
	mem := &memorySink{}

	locations, err := Export(context.Background(), batch(t), FileSink{Dir: dir}, mem)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, Filename), "mem://march.csv"}, locations)
	assert.Equal(t, "ID,Label\n1,Gold\n2,Copper", string(mem.bodies["march.csv"]))
}

func TestExportRetriesSink(t *testing.T) {
	fastRetry(t)
	mem := &memorySink{failN: 2}

	locations, err := Export(context.Background(), batch(t), mem)
	require.NoError(t, err)
	assert.Equal(t, []string{"mem://march.csv"}, locations)
	assert.Equal(t, 3, mem.calls)
}

func TestExportContinuesPastFailingSink(t *testing.T) {
	fastRetry(t)
	broken := &memorySink{failN: 10}
	mem := &memorySink{}

	locations, err := Export(context.Background(), batch(t), broken, mem)
	require.ErrorIs(t, err, common.ErrMaxRetries)
	assert.Equal(t, []string{"mem://march.csv"}, locations)
	assert.Equal(t, 3, broken.calls)
}

// slowRetry makes any retry visible: a second attempt would stall the test.
func slowRetry(t *testing.T) {
	t.Helper()
	orig := DefaultRetry
	DefaultRetry = common.RetryOptions{MaxAttempts: 3, InitialDelay: time.Minute, MaxDelay: time.Minute}
	t.Cleanup(func() { DefaultRetry = orig })
}

func TestExportDoesNotRetryFilesystemErrors(t *testing.T) {
	slowRetry(t)
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	start := time.Now()
	locations, err := Export(context.Background(), batch(t), FileSink{Dir: filepath.Join(blocker, "sub")})
	require.Error(t, err)
	assert.Empty(t, locations)
	assert.NotErrorIs(t, err, common.ErrMaxRetries)
	assert.False(t, common.IsRetryable(err))
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestExportDoesNotRetryUnclassifiedErrors(t *testing.T) {
	slowRetry(t)
	broken := &memorySink{failN: 10, permanent: true}

	_, err := Export(context.Background(), batch(t), broken)
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrMaxRetries)
	assert.Equal(t, 1, broken.calls)
}

type statusError struct {
	code int
}

func (e statusError) Error() string       { return fmt.Sprintf("status %d", e.code) }
func (e statusError) HTTPStatusCode() int { return e.code }

func TestS3SinkClassifiesErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{name: "access denied", err: statusError{code: 403}, retryable: false},
		{name: "missing bucket", err: statusError{code: 404}, retryable: false},
		{name: "throttled", err: statusError{code: 429}, retryable: true},
		{name: "server error", err: statusError{code: 503}, retryable: true},
		{name: "network", err: errors.New("connection reset"), retryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newS3Sink(&fakeS3{err: tt.err}, S3Config{Bucket: "scores"})
			_, err := s.Put(context.Background(), "march.csv", []byte("a\n1"))
			require.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.retryable, common.IsRetryable(err))
		})
	}
}

func TestExportWithoutResults(t *testing.T) {
	_, err := Export(context.Background(), nil, &memorySink{})
	assert.ErrorIs(t, err, common.ErrNoResults)

	_, err = Export(context.Background(), &model.BatchResult{}, &memorySink{})
	assert.ErrorIs(t, err, common.ErrNoResults)
}

func TestExportWithoutSinks(t *testing.T) {
	locations, err := Export(context.Background(), batch(t))
	require.NoError(t, err)
	assert.Empty(t, locations)
}
