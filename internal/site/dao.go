package site

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// SiteEntity es la fila de la tabla sites; su ID es el local site id.
type SiteEntity struct {
	ID       int   `gorm:"primaryKey;autoIncrement"`
	SiteID   int64 `gorm:"index"`
	URL      string
	Name     string
	Origin   string `gorm:"not null"`
	Username string
	Password string
	Token    string
}

func (SiteEntity) TableName() string { return "sites" }

func (e SiteEntity) toModel() Site {
	return Site{
		LocalID:  e.ID,
		SiteID:   e.SiteID,
		URL:      e.URL,
		Name:     e.Name,
		Origin:   Origin(e.Origin),
		Username: e.Username,
		Password: e.Password,
		Token:    e.Token,
	}
}

// DAO accede a la tabla sites
type DAO struct {
	db *gorm.DB
}

func NewDAO(db *gorm.DB) *DAO {
	return &DAO{db: db}
}

// Insert guarda el sitio y devuelve la copia con LocalID asignado.
func (d *DAO) Insert(ctx context.Context, s Site) (Site, error) {
	if err := s.Validate(); err != nil {
		return Site{}, err
	}
	entity := SiteEntity{
		SiteID:   s.SiteID,
		URL:      s.URL,
		Name:     s.Name,
		Origin:   string(s.Origin),
		Username: s.Username,
		Password: s.Password,
		Token:    s.Token,
	}
	if err := d.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return Site{}, fmt.Errorf("insert site: %w", err)
	}
	return entity.toModel(), nil
}

func (d *DAO) Get(ctx context.Context, localID int) (Site, error) {
	var entity SiteEntity
	err := d.db.WithContext(ctx).First(&entity, "id = ?", localID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Site{}, ErrNotFound
	}
	if err != nil {
		return Site{}, fmt.Errorf("get site %d: %w", localID, err)
	}
	return entity.toModel(), nil
}

func (d *DAO) List(ctx context.Context) ([]Site, error) {
	var entities []SiteEntity
	if err := d.db.WithContext(ctx).Order("id").Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	sites := make([]Site, 0, len(entities))
	for _, e := range entities {
		sites = append(sites, e.toModel())
	}
	return sites, nil
}

// Delete elimina el sitio. Las filas de dominio se limpian con los DeleteForSite de cada DAO.
func (d *DAO) Delete(ctx context.Context, localID int) error {
	res := d.db.WithContext(ctx).Delete(&SiteEntity{}, "id = ?", localID)
	if res.Error != nil {
		return fmt.Errorf("delete site %d: %w", localID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
