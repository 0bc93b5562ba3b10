package utils

import (
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Storage uploads to a bucket and serves either through CloudFront or
// the bucket's public endpoint.
type S3Storage struct {
	session       *session.Session
	bucket        string
	region        string
	cloudFrontURL string
}

// InitS3 opens an AWS session and selects S3 as the active backend.
func InitS3(bucket, region, cloudfrontURL string) error {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return err
	}

	activeStorage = &S3Storage{
		session:       sess,
		bucket:        bucket,
		region:        region,
		cloudFrontURL: strings.TrimSuffix(cloudfrontURL, "/"),
	}
	return nil
}

func (s *S3Storage) Put(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	key := objectKey(file)
	_, err = s3.New(s.session).PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        src,
		ContentType: aws.String(file.Header.Get("Content-Type")),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		return "", err
	}

	if s.cloudFrontURL != "" {
		return s.cloudFrontURL + "/" + key, nil
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

func (s *S3Storage) Remove(url string) error {
	key := s.keyFromURL(url)
	if key == "" {
		return fmt.Errorf("url does not belong to this bucket: %s", url)
	}

	_, err := s3.New(s.session).DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// keyFromURL strips the CloudFront or bucket endpoint prefix back off a
// stored URL, leaving the object key.
func (s *S3Storage) keyFromURL(url string) string {
	prefixes := []string{
		fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", s.bucket, s.region),
	}
	if s.cloudFrontURL != "" {
		prefixes = append(prefixes, s.cloudFrontURL+"/")
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(url, prefix) {
			return strings.TrimPrefix(url, prefix)
		}
	}
	return ""
}

func (s *S3Storage) Mode() string { return "s3" }
