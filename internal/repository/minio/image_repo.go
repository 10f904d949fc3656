package minio

import (
	"context"

	"github.com/DRSN-tech/category-tree/internal/cfg"
	"github.com/DRSN-tech/category-tree/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

const noSuchKey = "NoSuchKey"

// ImageRepo проверяет изображения категорий в MinIO. Загрузка выполняется другим сервисом.
type ImageRepo struct {
	mc  *minio.Client
	cfg *cfg.MinIOCfg
}

func NewImageRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *ImageRepo {
	return &ImageRepo{
		mc:  mc,
		cfg: cfg,
	}
}

// Exists сообщает, лежит ли объект key в бакете.
func (i *ImageRepo) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := i.mc.StatObject(ctx, i.cfg.BucketName, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == noSuchKey {
			return false, nil
		}
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return true, nil
}
