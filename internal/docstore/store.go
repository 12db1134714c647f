package docstore

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// docRow 是 documents 表的一行，Seq 自增主键兼做同时刻插入的决胜序。
type docRow struct {
	Seq       uint   `gorm:"primaryKey;autoIncrement"`
	Path      string `gorm:"uniqueIndex:idx_doc_path_id,priority:1;size:191;not null"`
	DocID     string `gorm:"uniqueIndex:idx_doc_path_id,priority:2;size:64;not null"`
	Data      []byte `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (docRow) TableName() string { return "documents" }

// Store 基于一张 documents 表实现文档存储，并向订阅方推送快照。
type Store struct {
	db     *gorm.DB
	broker *broker
}

// Open 按 DSN 选择 Postgres 或 SQLite 后端建立连接，带简单重试等待容器就绪。
func Open(dsn string, backlog int) (*Store, error) {
	var gdb *gorm.DB
	var err error
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	for i := 0; i < 10; i++ {
		if isPostgresDSN(dsn) {
			gdb, err = gorm.Open(postgres.Open(dsn), cfg)
		} else {
			gdb, err = gorm.Open(sqlite.Open(dsn), cfg)
		}
		if err == nil {
			sqlDB, err2 := gdb.DB()
			if err2 == nil {
				sqlDB.SetMaxIdleConns(5)
				sqlDB.SetMaxOpenConns(20)
				sqlDB.SetConnMaxLifetime(time.Hour)
				return newStore(gdb, backlog)
			}
			err = err2
		}
		time.Sleep(time.Duration(500+i*200) * time.Millisecond)
	}
	return nil, err
}

// New 包装一个已建立的 gorm 连接，测试里配合 SQLite 内存库使用。
func New(gdb *gorm.DB, backlog int) (*Store, error) {
	return newStore(gdb, backlog)
}

func newStore(gdb *gorm.DB, backlog int) (*Store, error) {
	if err := gdb.AutoMigrate(&docRow{}); err != nil {
		return nil, err
	}
	if backlog <= 0 {
		backlog = 16
	}
	return &Store{db: gdb, broker: newBroker(backlog)}, nil
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.Contains(dsn, "host=")
}

// Create 在集合下新建文档，ID 由存储侧生成。
func (s *Store) Create(ctx context.Context, path string, data any) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", &StorageError{Op: "create", Path: path, Err: err}
	}
	id := uuid.NewString()
	row := docRow{Path: path, DocID: id, Data: raw}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", &StorageError{Op: "create", Path: path, Err: err}
	}
	s.notify(ctx, path)
	return id, nil
}

// Set 以显式 key 幂等写入：key 已存在时覆盖文档内容（last-writer-wins），
// 原 created_at 保留，子集合不受影响。
func (s *Store) Set(ctx context.Context, path, id string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return &StorageError{Op: "set", Path: path, Err: err}
	}
	row := docRow{Path: path, DocID: id, Data: raw}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}, {Name: "doc_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return &StorageError{Op: "set", Path: path, Err: err}
	}
	s.notify(ctx, path)
	return nil
}

// Update 将 partial 中的字段合并进既有文档，文档不存在时返回 ErrNotFound。
// 注意：先 Get 再 Update 的读改写序列不是原子的，并发自增会发生丢失更新。
func (s *Store) Update(ctx context.Context, path, id string, partial map[string]any) error {
	var row docRow
	err := s.db.WithContext(ctx).Where("path = ? AND doc_id = ?", path, id).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return &StorageError{Op: "update", Path: path, Err: err}
	}
	var merged map[string]any
	if err := json.Unmarshal(row.Data, &merged); err != nil {
		return &StorageError{Op: "update", Path: path, Err: err}
	}
	for k, v := range partial {
		merged[k] = v
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		return &StorageError{Op: "update", Path: path, Err: err}
	}
	err = s.db.WithContext(ctx).Model(&docRow{}).
		Where("path = ? AND doc_id = ?", path, id).
		Update("data", raw).Error
	if err != nil {
		return &StorageError{Op: "update", Path: path, Err: err}
	}
	s.notify(ctx, path)
	return nil
}

// Delete 删除单个文档，目标不存在时返回 ErrNotFound。
func (s *Store) Delete(ctx context.Context, path, id string) error {
	res := s.db.WithContext(ctx).Where("path = ? AND doc_id = ?", path, id).Delete(&docRow{})
	if res.Error != nil {
		return &StorageError{Op: "delete", Path: path, Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.notify(ctx, path)
	return nil
}

// Get 一次性读取文档原始 JSON，供读改写序列使用。
func (s *Store) Get(ctx context.Context, path, id string) ([]byte, error) {
	var row docRow
	err := s.db.WithContext(ctx).Where("path = ? AND doc_id = ?", path, id).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "get", Path: path, Err: err}
	}
	return row.Data, nil
}

// List 返回集合的全部文档，created_at 升序，同时刻按插入顺序。
func (s *Store) List(ctx context.Context, path string) ([]Document, error) {
	var rows []docRow
	err := s.db.WithContext(ctx).Where("path = ?", path).
		Order("created_at asc, seq asc").Find(&rows).Error
	if err != nil {
		return nil, &StorageError{Op: "list", Path: path, Err: err}
	}
	out := make([]Document, 0, len(rows))
	for _, r := range rows {
		out = append(out, Document{ID: r.DocID, Data: r.Data, CreatedAt: r.CreatedAt})
	}
	return out, nil
}

// Subscribe 注册对某集合的订阅：立即投递一份当前快照，之后每次该集合
// 发生变更都会投递替换快照。订阅方不再使用时必须调用 Cancel。
func (s *Store) Subscribe(path string) *Subscription {
	sub := s.broker.subscribe(path)
	if snap, err := s.snapshot(context.Background(), path); err == nil {
		sub.push(snap)
	} else {
		// 初始快照构建失败不能无声无息，订阅方至少能在日志里看到。
		s.broker.logSnapshotError(path, err)
	}
	return sub
}

func (s *Store) snapshot(ctx context.Context, path string) (Snapshot, error) {
	docs, err := s.List(ctx, path)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Path: path, Docs: docs}, nil
}

// notify 在写路径成功后重建并广播集合快照。快照构建失败只记录，
// 不影响已完成的写入。
func (s *Store) notify(ctx context.Context, path string) {
	if !s.broker.hasSubscribers(path) {
		return
	}
	snap, err := s.snapshot(ctx, path)
	if err != nil {
		s.broker.logSnapshotError(path, err)
		return
	}
	s.broker.publish(snap)
}
