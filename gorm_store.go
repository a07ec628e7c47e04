package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type userRow struct {
	ID       int64  `gorm:"primaryKey"`
	Username string `gorm:"not null;uniqueIndex"`
	Email    string `gorm:"not null;uniqueIndex"`
	Password string `gorm:"not null"`
}

func (userRow) TableName() string { return "users" }

// amount is kept as text so SQLite does not round it through REAL.
type transactionRow struct {
	ID          int64           `gorm:"primaryKey"`
	Type        string          `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:text;not null"`
	Description string          `gorm:"not null;default:''"`
	Date        time.Time       `gorm:"not null;index:idx_transactions_user_date,priority:2"`
	Category    string          `gorm:"not null;default:''"`
	UserID      int64           `gorm:"not null;index:idx_transactions_user_date,priority:1"`
}

func (transactionRow) TableName() string { return "transactions" }

func (r userRow) entity() User {
	return User{Id: r.ID, Username: r.Username, Email: r.Email, Password: r.Password}
}

func newUserRow(u User) userRow {
	return userRow{ID: u.Id, Username: u.Username, Email: u.Email, Password: u.Password}
}

func (r transactionRow) entity() Transaction {
	return Transaction{
		Id:          r.ID,
		Type:        r.Type,
		Amount:      r.Amount,
		Description: r.Description,
		Date:        r.Date.UTC(),
		Category:    r.Category,
		UserId:      r.UserID,
	}
}

func newTransactionRow(t Transaction) transactionRow {
	return transactionRow{
		ID:          t.Id,
		Type:        t.Type,
		Amount:      t.Amount,
		Description: t.Description,
		Date:        t.Date.UTC(),
		Category:    t.Category,
		UserID:      t.UserId,
	}
}

// GormStore keeps users and transactions in a SQLite file.
type GormStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (creating if needed) the SQLite database at path and migrates it.
func NewSQLiteStore(path string, logMode bool) (*GormStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	gormLogger := logger.Default
	if !logMode {
		gormLogger = gormLogger.LogMode(logger.Silent)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if _, err := sqlDB.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}

	if err := db.AutoMigrate(&userRow{}, &transactionRow{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) ListUsers(ctx context.Context) ([]User, error) {
	var rows []userRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users := make([]User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.entity())
	}
	return users, nil
}

func (s *GormStore) firstUser(ctx context.Context, query string, arg any) (User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where(query, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, fmt.Errorf("user %v: %w", arg, ErrNotFound)
		}
		return User{}, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return row.entity(), nil
}

func (s *GormStore) GetUser(ctx context.Context, id int64) (User, error) {
	return s.firstUser(ctx, "id = ?", id)
}

func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return s.firstUser(ctx, "username = ?", username)
}

func (s *GormStore) count(ctx context.Context, model any, query string, args ...any) (int64, error) {
	var n int64
	tx := s.db.WithContext(ctx).Model(model)
	if query != "" {
		tx = tx.Where(query, args...)
	}
	if err := tx.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}
	return n, nil
}

func (s *GormStore) UserExists(ctx context.Context, id int64) (bool, error) {
	n, err := s.count(ctx, &userRow{}, "id = ?", id)
	return n > 0, err
}

func (s *GormStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	n, err := s.count(ctx, &userRow{}, "username = ?", username)
	return n > 0, err
}

func (s *GormStore) EmailExists(ctx context.Context, email string) (bool, error) {
	n, err := s.count(ctx, &userRow{}, "email = ?", email)
	return n > 0, err
}

func (s *GormStore) CountUsers(ctx context.Context) (int64, error) {
	return s.count(ctx, &userRow{}, "")
}

func (s *GormStore) CreateUser(ctx context.Context, u User) (User, error) {
	row := newUserRow(u)
	row.ID = 0
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return User{}, fmt.Errorf("user %q: %w", u.Username, ErrConflict)
		}
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return row.entity(), nil
}

func (s *GormStore) UpdateUser(ctx context.Context, u User) (User, error) {
	res := s.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", u.Id).Updates(map[string]any{
		"username": u.Username,
		"email":    u.Email,
		"password": u.Password,
	})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return User{}, fmt.Errorf("user %q: %w", u.Username, ErrConflict)
		}
		return User{}, fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return User{}, fmt.Errorf("user %d: %w", u.Id, ErrNotFound)
	}
	return u, nil
}

func (s *GormStore) DeleteUser(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&userRow{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *GormStore) ListTransactions(ctx context.Context, f TransactionFilter) ([]Transaction, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", f.UserId)
	if f.Type != "" {
		// instr is case-sensitive, unlike LIKE in SQLite
		q = q.Where("instr(type, ?) > 0", f.Type)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Start != nil {
		q = q.Where("date >= ?", f.Start.UTC())
	}
	if f.End != nil {
		q = q.Where("date <= ?", f.End.UTC())
	}

	var rows []transactionRow
	if err := q.Order("date DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions for user %d: %w", f.UserId, err)
	}
	out := make([]Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.entity())
	}
	return out, nil
}

func (s *GormStore) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	var row transactionRow
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Transaction{}, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
		}
		return Transaction{}, fmt.Errorf("failed to retrieve transaction: %w", err)
	}
	return row.entity(), nil
}

func (s *GormStore) TransactionExists(ctx context.Context, id int64) (bool, error) {
	n, err := s.count(ctx, &transactionRow{}, "id = ?", id)
	return n > 0, err
}

func (s *GormStore) CreateTransaction(ctx context.Context, t Transaction) (Transaction, error) {
	row := newTransactionRow(t)
	row.ID = 0
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return Transaction{}, fmt.Errorf("failed to create transaction: %w", err)
	}
	return row.entity(), nil
}

func (s *GormStore) UpdateTransaction(ctx context.Context, t Transaction) (Transaction, error) {
	row := newTransactionRow(t)
	res := s.db.WithContext(ctx).Model(&transactionRow{}).Where("id = ?", t.Id).Updates(map[string]any{
		"type":        row.Type,
		"amount":      row.Amount,
		"description": row.Description,
		"date":        row.Date,
		"category":    row.Category,
		"user_id":     row.UserID,
	})
	if res.Error != nil {
		return Transaction{}, fmt.Errorf("failed to update transaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return Transaction{}, fmt.Errorf("transaction %d: %w", t.Id, ErrNotFound)
	}
	return row.entity(), nil
}

func (s *GormStore) DeleteTransaction(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&transactionRow{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete transaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	return nil
}
