package s3

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/phonodist/blobstore"
)

func TestStore_Open(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "phonodist")

	t.Run("NotFound", func(t *testing.T) {
		mockClient.On("HeadObject", mock.Anything, mock.MatchedBy(func(input *s3.HeadObjectInput) bool {
			return *input.Bucket == "test-bucket" && *input.Key == "phonodist/missing.tsv"
		})).Return(nil, &types.NotFound{}).Once()

		_, err := store.Open(context.Background(), "missing.tsv")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("Success", func(t *testing.T) {
		mockClient.On("HeadObject", mock.Anything, mock.MatchedBy(func(input *s3.HeadObjectInput) bool {
			return *input.Bucket == "test-bucket" && *input.Key == "phonodist/matrices/hamming.tsv"
		})).Return(&s3.HeadObjectOutput{
			ContentLength: aws.Int64(100),
		}, nil).Once()

		b, err := store.Open(context.Background(), "matrices/hamming.tsv")
		require.NoError(t, err)
		assert.Equal(t, int64(100), b.Size())
	})

	mockClient.AssertExpectations(t)
}

func TestStore_ReadAll(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "")
	data := "\tp\tb\np\t0\t0.25\nb\t0.25\t0\n"

	mockClient.On("HeadObject", mock.Anything, mock.Anything).Return(&s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(data))),
	}, nil).Once()
	mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
		return *input.Key == "hamming.tsv" && *input.Range == fmt.Sprintf("bytes=0-%d", len(data)-1)
	})).Return(&s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader(data)),
	}, nil).Once()

	got, err := blobstore.ReadAll(context.Background(), store, "hamming.tsv")
	require.NoError(t, err)
	assert.Equal(t, data, string(got))
	mockClient.AssertExpectations(t)
}

func TestStore_Put(t *testing.T) {
	data := []byte("phoneme\tname\talias\tvoice\np\tstop\tp\t-\n")

	tests := []struct {
		name     string
		checksum bool
	}{
		{"with checksum", true},
		{"without checksum", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := new(MockS3Client)
			store := NewStore(mockClient, "test-bucket", "phonodist/", func(o *Options) {
				o.Upload.EnableChecksum = tt.checksum
			})

			var body []byte
			mockClient.On("PutObject", mock.Anything, mock.MatchedBy(func(input *s3.PutObjectInput) bool {
				if *input.Bucket != "test-bucket" || *input.Key != "phonodist/tables/ipa.tsv" {
					return false
				}
				if tt.checksum {
					return aws.ToString(input.ChecksumCRC32C) == computeCRC32C(data)
				}
				return input.ChecksumCRC32C == nil
			})).Run(func(args mock.Arguments) {
				input := args.Get(1).(*s3.PutObjectInput)
				body, _ = io.ReadAll(input.Body)
			}).Return(&s3.PutObjectOutput{}, nil).Once()

			require.NoError(t, store.Put(context.Background(), "tables/ipa.tsv", data))
			assert.Equal(t, data, body)
			mockClient.AssertExpectations(t)
		})
	}
}

func TestStore_Delete(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "prefix")

	mockClient.On("DeleteObject", mock.Anything, mock.MatchedBy(func(input *s3.DeleteObjectInput) bool {
		return *input.Bucket == "test-bucket" && *input.Key == "prefix/matrices/old.bin"
	})).Return(&s3.DeleteObjectOutput{}, nil).Once()

	require.NoError(t, store.Delete(context.Background(), "matrices/old.bin"))
	mockClient.AssertExpectations(t)
}

func TestStore_List(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "root/")

	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
		return *input.Bucket == "test-bucket" && *input.Prefix == "root/"
	})).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: aws.String("root/tables/ipa.tsv")},
			{Key: aws.String("root/matrices/hamming.tsv")},
		},
	}, nil).Once()

	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"matrices/hamming.tsv", "tables/ipa.tsv"}, names)
	mockClient.AssertExpectations(t)
}

func TestStore_List_Pagination(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "root/")

	// first page
	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
		return input.ContinuationToken == nil && *input.Prefix == "root/matrices"
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("token"),
		Contents:              []types.Object{{Key: aws.String("root/matrices/b.tsv")}},
	}, nil).Once()

	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
		return input.ContinuationToken != nil && *input.ContinuationToken == "token"
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated: aws.Bool(false),
		Contents:    []types.Object{{Key: aws.String("root/matrices/a.tsv")}},
	}, nil).Once()

	names, err := store.List(context.Background(), "matrices")
	require.NoError(t, err)
	assert.Equal(t, []string{"matrices/a.tsv", "matrices/b.tsv"}, names)
	mockClient.AssertExpectations(t)
}

func TestBlob_ReadAt(t *testing.T) {
	ctx := context.Background()
	mockClient := new(MockS3Client)
	b := &blob{client: mockClient, bucket: "b", key: "k", size: 10}

	mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
		return *input.Bucket == "b" && *input.Key == "k" && *input.Range == "bytes=0-4"
	})).Return(&s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader("p\tb\tt")),
	}, nil).Once()

	buf := make([]byte, 5)
	n, err := b.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "p\tb\tt", string(buf))

	t.Run("short read at the end", func(t *testing.T) {
		mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
			return *input.Range == "bytes=8-9"
		})).Return(&s3.GetObjectOutput{
			Body: io.NopCloser(strings.NewReader("0\n")),
		}, nil).Once()

		buf := make([]byte, 5)
		n, err := b.ReadAt(ctx, buf, 8)
		assert.ErrorIs(t, err, io.EOF)
		assert.Equal(t, "0\n", string(buf[:n]))
	})

	t.Run("past the end", func(t *testing.T) {
		_, err := b.ReadAt(ctx, make([]byte, 1), 10)
		assert.ErrorIs(t, err, io.EOF)
	})

	mockClient.AssertExpectations(t)
}

func TestBlob_ReadRange(t *testing.T) {
	mockClient := new(MockS3Client)
	b := &blob{client: mockClient, bucket: "b", key: "k", size: 10}

	mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
		return *input.Bucket == "b" && *input.Key == "k" && *input.Range == "bytes=2-6"
	})).Return(&s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader("0.25\t")),
	}, nil).Once()

	r, err := b.ReadRange(context.Background(), 2, 5)
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "0.25\t", string(got))
	mockClient.AssertExpectations(t)
}

func TestStore_Create(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "prefix")

	var body []byte
	mockClient.On("PutObject", mock.Anything, mock.MatchedBy(func(input *s3.PutObjectInput) bool {
		return *input.Bucket == "test-bucket" && *input.Key == "prefix/report.json"
	})).Run(func(args mock.Arguments) {
		input := args.Get(1).(*s3.PutObjectInput)
		body, _ = io.ReadAll(input.Body)
	}).Return(&s3.PutObjectOutput{}, nil).Once()

	w, err := store.Create(context.Background(), "report.json")
	require.NoError(t, err)
	_, err = io.WriteString(w, `{"score":0.5}`)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Close(), io.ErrClosedPipe)

	assert.Equal(t, `{"score":0.5}`, string(body))
	mockClient.AssertExpectations(t)
}

func TestStore_WriteAbort(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "")

	boom := fmt.Errorf("boom")
	err := blobstore.Write(context.Background(), store, "partial.json", func(w io.Writer) error {
		_, _ = io.WriteString(w, "{")
		return boom
	})
	assert.ErrorIs(t, err, boom)
	mockClient.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
}

func TestComputeCRC32C(t *testing.T) {
	// CRC32C("123456789") = 0xE3069283
	assert.Equal(t, "4waSgw==", computeCRC32C([]byte("123456789")))
}
