package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/DRSN-tech/category-tree/internal/cfg"
	"github.com/DRSN-tech/category-tree/internal/domain"
	"github.com/DRSN-tech/category-tree/internal/repository/redis/converter"
	"github.com/DRSN-tech/category-tree/pkg/clients"
	"github.com/DRSN-tech/category-tree/pkg/e"
	"github.com/DRSN-tech/category-tree/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// versionTTL должен быть больше любого запроса к базе между GetChildren и SetChildren.
// Истёкшая версия читается как 0 и не разрешает запись списка, прочитанного при другой версии.
const versionTTL = time.Hour

// setIfVersion пишет список, только если версия ключа равна прочитанной.
// KEYS[1] — список, KEYS[2] — версия. ARGV: версия, данные, TTL в миллисекундах (0 без срока).
var setIfVersion = r.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

// ChildrenRepo — общий для инстансов кэш списков детей.
// Записи живут ChildrenTTL: счётчики продуктов меняются без мутаций категорий.
type ChildrenRepo struct {
	client *clients.RedisClient
	conv   converter.CategoryConverter
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewChildrenRepo(client *clients.RedisClient, conv converter.CategoryConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *ChildrenRepo {
	return &ChildrenRepo{
		client: client,
		conv:   conv,
		cfg:    cfg,
		logger: logger,
	}
}

// GetChildren возвращает список детей, версию ключа и признак попадания. Пустой список тоже попадание.
// Повреждённая запись удаляется и считается промахом.
func (c *ChildrenRepo) GetChildren(ctx context.Context, key domain.ChildrenKey) ([]domain.Category, int64, bool, error) {
	redisKey, versionKey := c.childrenKey(key), c.versionKey(key)

	values, err := c.client.Client.MGet(ctx, redisKey, versionKey).Result()
	if err != nil {
		return nil, 0, false, e.Wrap(whereami.WhereAmI(), err)
	}

	version, err := parseVersion(values[1], versionKey)
	if err != nil {
		return nil, 0, false, e.Wrap(whereami.WhereAmI(), err)
	}

	data, err := redisValueToBytes(values[0], redisKey)
	if err != nil {
		c.logger.Warnf("%v", e.Wrap(whereami.WhereAmI(), err))
		c.drop(ctx, redisKey)
		return nil, version, false, nil
	}
	if data == nil {
		return nil, version, false, nil // cache miss
	}

	var model converter.ChildrenRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		c.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
		c.drop(ctx, redisKey)
		return nil, version, false, nil
	}

	if model.Key != key.String() {
		c.logger.Warnf("Cache key mismatch: key: %s, stored: %s", key, model.Key)
		c.drop(ctx, redisKey)
		return nil, version, false, nil
	}

	children, err := c.conv.ToArrEntity(model.Children)
	if err != nil {
		c.logger.Warnf("Cached children are invalid, key: %s: %v", key, e.Wrap(whereami.WhereAmI(), err))
		c.drop(ctx, redisKey)
		return nil, version, false, nil
	}

	return children, version, true, nil
}

// SetChildren пропускает запись, если после чтения version ключ был инвалидирован.
func (c *ChildrenRepo) SetChildren(ctx context.Context, key domain.ChildrenKey, version int64, children []domain.Category) error {
	data, err := json.Marshal(c.conv.ToChildrenModel(key, children))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	stored, err := setIfVersion.Run(ctx, c.client.Client,
		[]string{c.childrenKey(key), c.versionKey(key)},
		version, data, c.cfg.ChildrenTTL.Milliseconds(),
	).Int()
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if stored == 0 {
		c.logger.Debugf("Children of %s were invalidated during read, skip caching", key)
	}

	return nil
}

// DeleteChildren удаляет списки и увеличивает версии ключей в одной транзакции.
func (c *ChildrenRepo) DeleteChildren(ctx context.Context, keys ...domain.ChildrenKey) error {
	if len(keys) == 0 {
		return nil
	}

	_, err := c.client.Client.TxPipelined(ctx, func(pipe r.Pipeliner) error {
		for _, key := range keys {
			versionKey := c.versionKey(key)
			pipe.Incr(ctx, versionKey)
			pipe.Expire(ctx, versionKey, versionTTL)
			pipe.Del(ctx, c.childrenKey(key))
		}
		return nil
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// drop удаляет повреждённую запись, даже если запрос уже отменён.
func (c *ChildrenRepo) drop(ctx context.Context, redisKey string) {
	if err := c.client.Client.Del(context.WithoutCancel(ctx), redisKey).Err(); err != nil {
		c.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}
}

// childrenKey возвращает Redis-ключ списка детей
func (c *ChildrenRepo) childrenKey(key domain.ChildrenKey) string {
	return fmt.Sprintf("children:%s", key)
}

func (c *ChildrenRepo) versionKey(key domain.ChildrenKey) string {
	return fmt.Sprintf("children:ver:%s", key)
}

func parseVersion(val interface{}, key string) (int64, error) {
	data, err := redisValueToBytes(val, key)
	if err != nil || data == nil {
		return 0, err
	}

	version, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid version in key %s: %w", key, err)
	}

	return version, nil
}

// redisValueToBytes конвертирует значение из Redis в []byte.
func redisValueToBytes(val interface{}, key string) ([]byte, error) {
	switch v := val.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case nil:
		return nil, nil // cache miss
	default:
		return nil, fmt.Errorf("unexpected Redis value type for key %s: %T", key, val)
	}
}
