package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"twinchat/twinchat/config"
	"twinchat/twinchat/utils/imageutils"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOClient keeps copies of agent profile photos in one bucket.
type MinIOClient struct {
	client   *minio.Client
	bucket   string
	endpoint string
	secure   bool
}

func NewMinIOClient(ctx context.Context, cfg config.Config) (*MinIOClient, error) {
	bucket := cfg.MinIOBucket
	client, err := minio.New(
		cfg.MinIOEndpoint,
		&minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
			Secure: cfg.MinIOUseSSL,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	// Create bucket if not exists
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}
	return &MinIOClient{client: client, bucket: bucket, endpoint: cfg.MinIOEndpoint, secure: cfg.MinIOUseSSL}, nil
}

// ProfilePhotoKey is where an agent's photo is stored in the bucket.
func ProfilePhotoKey(agentID string) string {
	return path.Join("agents", agentID, imageutils.ProfilePhotoName)
}

// UploadProfilePhoto stores photo under the agent's key and returns the object URL.
func (m *MinIOClient) UploadProfilePhoto(ctx context.Context, agentID string, photo []byte) (string, error) {
	if agentID == "" {
		return "", fmt.Errorf("upload profile photo: empty agent id")
	}
	key := ProfilePhotoKey(agentID)
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(photo), int64(len(photo)),
		minio.PutObjectOptions{ContentType: imageutils.ProfilePhotoContentType})
	if err != nil {
		return "", fmt.Errorf("upload profile photo %s: %w", key, err)
	}
	return ObjectURL(m.endpoint, m.secure, m.bucket, key), nil
}

// GetProfilePhoto reads back a stored photo.
func (m *MinIOClient) GetProfilePhoto(ctx context.Context, agentID string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, ProfilePhotoKey(agentID), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(obj); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ObjectURL is the path-style URL of an object.
func ObjectURL(endpoint string, secure bool, bucket, key string) string {
	scheme := "http"
	if secure {
		scheme = "https"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   strings.TrimSuffix(endpoint, "/"),
		Path:   "/" + path.Join(bucket, key),
	}
	return u.String()
}
