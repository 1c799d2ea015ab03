package api

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"showcase/internal/api/middleware"
	"showcase/internal/database"
)

type fakeStorage struct {
	mu       sync.Mutex
	objects  map[string][]byte
	deleted  []string
	prefixes []string
	params   map[string]map[string]string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		objects: map[string][]byte{},
		params:  map[string]map[string]string{},
	}
}

func (s *fakeStorage) UploadFile(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (*minio.UploadInfo, error) {
	b, _ := io.ReadAll(reader)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectName] = b
	return &minio.UploadInfo{Key: objectName}, nil
}

func (s *fakeStorage) ReadObject(_ context.Context, objectKey string, _ int64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[objectKey]
	if !ok {
		return nil, minio.ErrorResponse{Code: "NoSuchKey", Key: objectKey}
	}
	return b, nil
}

func (s *fakeStorage) GeneratePresignedURLWithParams(_ context.Context, objectKey string, _ time.Duration, params map[string]string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params[objectKey] = params
	return "https://example.invalid/" + objectKey, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, objectKey)
	delete(s.objects, objectKey)
	return nil
}

func (s *fakeStorage) DeletePrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefixes = append(s.prefixes, prefix)
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			delete(s.objects, key)
		}
	}
	return nil
}

func (s *fakeStorage) PruneExcept(context.Context, string, string) error { return nil }

type fakeQueue struct {
	tasks []*asynq.Task
	err   error
}

func (q *fakeQueue) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", len(q.tasks))}, nil
}

// fakeRedis 实现 SetNX 与 Incr/Expire 的内存版本。
type fakeRedis struct {
	mu      sync.Mutex
	keys    map[string]int64
	setNXFn func(key string) error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{keys: map[string]int64{}}
}

func (r *fakeRedis) SetNX(ctx context.Context, key string, _ interface{}, _ time.Duration) *redis.BoolCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setNXFn != nil {
		if err := r.setNXFn(key); err != nil {
			return redis.NewBoolResult(false, err)
		}
	}
	if _, ok := r.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	r.keys[key] = 1
	return redis.NewBoolResult(true, nil)
}

func (r *fakeRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[key]++
	return redis.NewIntResult(r.keys[key], nil)
}

func (r *fakeRedis) Expire(context.Context, string, time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(true, nil)
}

type fakeScanner struct {
	err     error
	scanned int
}

func (s *fakeScanner) Scan(r io.Reader) error {
	_, _ = io.Copy(io.Discard, r)
	s.scanned++
	return s.err
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, user database.User) database.User {
	t.Helper()
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedResume(t *testing.T, db *gorm.DB, row database.Resume) database.Resume {
	t.Helper()
	if row.Sections == nil {
		row.Sections = []byte("[]")
	}
	if row.ExportStatus == "" {
		row.ExportStatus = database.ExportStatusIdle
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed resume: %v", err)
	}
	return row
}

// withUser 模拟 AuthMiddleware 注入的用户。
func withUser(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != 0 {
			c.Set(middleware.UserIDKey, userID)
		}
		c.Next()
	}
}

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CorrelationIDMiddleware())
	return r
}
