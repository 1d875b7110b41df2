package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wadjakorntonsri/funnel-gateway/pkg/core/domain"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/ports"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// linkRecord is the gorm row model for the links table.
type linkRecord struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Slug      string `gorm:"size:32;not null;uniqueIndex"`
	Target    string `gorm:"type:text;not null"`
	Clicks    int64  `gorm:"not null;default:0"`
	Completed int64  `gorm:"not null;default:0"`
	CreatedAt int64  `gorm:"not null;autoCreateTime:milli"`
}

func (linkRecord) TableName() string { return "links" }

func (r *linkRecord) toDomain() *domain.Link {
	return &domain.Link{
		ID:        r.ID,
		Slug:      r.Slug,
		Target:    r.Target,
		Clicks:    r.Clicks,
		Completed: r.Completed,
		CreatedAt: time.UnixMilli(r.CreatedAt).UTC(),
	}
}

type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository opens the DSN, migrates the links table and tunes the pool.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := db.AutoMigrate(&linkRecord{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate links: %w", err)
	}
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Create(ctx context.Context, slug, target string) (*domain.Link, error) {
	rec := linkRecord{Slug: slug, Target: target}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrDuplicateSlug
		}
		return nil, fmt.Errorf("insert link: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *PostgresRepository) FindBySlug(ctx context.Context, slug string) (*domain.Link, error) {
	var rec linkRecord
	err := r.db.WithContext(ctx).Where("slug = ?", slug).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find link: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *PostgresRepository) IncrementClicks(ctx context.Context, slug string) (*domain.Link, error) {
	return r.increment(ctx, slug, "clicks")
}

func (r *PostgresRepository) IncrementCompleted(ctx context.Context, slug string) (*domain.Link, error) {
	return r.increment(ctx, slug, "completed")
}

// increment runs UPDATE ... SET col = col + 1 WHERE slug = ? RETURNING *.
func (r *PostgresRepository) increment(ctx context.Context, slug, column string) (*domain.Link, error) {
	var rows []linkRecord
	res := r.db.WithContext(ctx).
		Model(&rows).
		Clauses(clause.Returning{}).
		Where("slug = ?", slug).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	if res.Error != nil {
		return nil, fmt.Errorf("increment %s: %w", column, res.Error)
	}
	if res.RowsAffected == 0 || len(rows) == 0 {
		return nil, domain.ErrLinkNotFound
	}
	return rows[0].toDomain(), nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]domain.Link, error) {
	var recs []linkRecord
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	links := make([]domain.Link, 0, len(recs))
	for i := range recs {
		links = append(links, *recs[i].toDomain())
	}
	return links, nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *PostgresRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure interface compliance
var _ ports.LinkStore = (*PostgresRepository)(nil)
