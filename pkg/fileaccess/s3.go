package fileaccess

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
)

// S3Access implements FileAccess on AWS S3. The root passed to each call is the bucket.
type S3Access struct {
	s3Api s3iface.S3API
}

// MakeS3Access wraps an S3 client
func MakeS3Access(s3Api s3iface.S3API) S3Access {
	return S3Access{s3Api: s3Api}
}

// NewS3Client opens an S3 client for the region. An empty region falls back to
// AWS_DEFAULT_REGION through the SDK's shared configuration.
func NewS3Client(region string) (s3iface.S3API, error) {
	cfg := &aws.Config{}
	if region != "" {
		cfg.Region = aws.String(region)
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *cfg,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create AWS session")
	}
	return s3.New(sess), nil
}

// ListObjects pages through ListObjectsV2 until no continuation token is returned
func (a S3Access) ListObjects(bucket string, prefix string) ([]string, error) {
	result := []string{}

	params := s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}

	for {
		listing, err := a.s3Api.ListObjectsV2(&params)
		if err != nil {
			return []string{}, err
		}

		for _, item := range listing.Contents {
			// Console-created "directories" are empty keys ending in /
			if item.Key != nil && !strings.HasSuffix(*item.Key, "/") {
				result = append(result, *item.Key)
			}
		}

		if listing.IsTruncated == nil || !*listing.IsTruncated || listing.NextContinuationToken == nil {
			break
		}
		params.ContinuationToken = listing.NextContinuationToken
	}

	sort.Strings(result)
	return result, nil
}

func (a S3Access) ReadObject(bucket string, path string) ([]byte, error) {
	result, err := a.s3Api.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return nil, err
	}
	defer result.Body.Close()

	return io.ReadAll(result.Body)
}

func (a S3Access) WriteObject(bucket string, path string, data []byte) error {
	_, err := a.s3Api.PutObject(&s3.PutObjectInput{
		Body:   bytes.NewReader(data),
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	})
	return err
}

func (a S3Access) ReadJSON(bucket string, path string, itemsPtr interface{}, emptyIfNotFound bool) error {
	data, err := a.ReadObject(bucket, path)
	if err != nil {
		if emptyIfNotFound && a.IsNotFoundError(err) {
			return nil
		}
		return err
	}

	return json.Unmarshal(data, itemsPtr)
}

func (a S3Access) WriteJSON(bucket string, path string, itemsPtr interface{}) error {
	data, err := json.MarshalIndent(itemsPtr, "", jsonIndent)
	if err != nil {
		return errors.Wrap(err, "failed to marshal JSON")
	}

	return a.WriteObject(bucket, path, data)
}

// MakeDir is a no-op: keys are created with their objects
func (a S3Access) MakeDir(bucket string, path string) error {
	return nil
}

func (a S3Access) IsNotFoundError(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return aerr.Code() == s3.ErrCodeNoSuchKey
	}
	return false
}
