// "Тупой" клиент для выгрузки результатов поиска в S3-совместимое хранилище.

package s3storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ilkoid/paapi-search/pkg/config"
)

// maxSlugRunes — максимальная длина слага ключевого слова в имени объекта.
const maxSlugRunes = 40

// Uploader определяет интерфейс выгрузки.
// Используется для мокания в тестах и внедрения зависимостей.
type Uploader interface {
	UploadResults(ctx context.Context, key string, data []byte) (string, error)
}

type Client struct {
	api    *minio.Client
	bucket string
}

// Проверка что Client реализует Uploader
var _ Uploader = (*Client)(nil)

// New создает клиент, используя наш конфиг
func New(cfg config.S3Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("s3.endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3.bucket is required")
	}

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		api:    minioClient,
		bucket: cfg.Bucket,
	}, nil
}

// UploadResults кладёт JSON с результатами по ключу key и возвращает s3:// адрес объекта.
func (c *Client) UploadResults(ctx context.Context, key string, data []byte) (string, error) {
	info, err := c.api.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}

	return fmt.Sprintf("s3://%s/%s", c.bucket, info.Key), nil
}

// ResultKey строит ключ объекта: {prefix}/{YYYY/MM/DD}/{slug}-{requestID}.json
func ResultKey(prefix, keyword, requestID string, t time.Time) string {
	name := fmt.Sprintf("%s-%s.json", slug(keyword), requestID)
	return path.Join(strings.Trim(prefix, "/"), t.UTC().Format("2006/01/02"), name)
}

// slug оставляет буквы и цифры (любого алфавита), остальное схлопывает в "-".
func slug(s string) string {
	var b strings.Builder
	runes := 0
	dash := false
	for _, r := range strings.ToLower(s) {
		if runes >= maxSlugRunes {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			runes++
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteRune('-')
			runes++
			dash = true
		}
	}

	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "search"
	}
	return out
}
