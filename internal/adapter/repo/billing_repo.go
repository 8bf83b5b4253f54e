package repo

import (
	"context"

	"billing/internal/domain"
	"billing/internal/infra"
	"billing/internal/sqlinline"
)

// BillingInfoRepositoryPG persists buyer data.
type BillingInfoRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewBillingInfoRepository(sql infra.SQLExecutor) *BillingInfoRepositoryPG {
	return &BillingInfoRepositoryPG{sql: sql}
}

func (r *BillingInfoRepositoryPG) Get(ctx context.Context, userID string) (*domain.BillingInfo, error) {
	var b domain.BillingInfo
	err := r.sql.QueryRow(ctx, sqlinline.QSelectBillingInfo, userID).Scan(
		&b.UserID, &b.TaxNumber, &b.Name, &b.Street, &b.Zipcode, &b.City, &b.Country,
		&b.ShippingName, &b.ShippingStreet, &b.ShippingZipcode, &b.ShippingCity, &b.ShippingCountry,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *BillingInfoRepositoryPG) Save(ctx context.Context, b *domain.BillingInfo) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpsertBillingInfo,
		b.UserID, b.TaxNumber, b.Name, b.Street, b.Zipcode, b.City, b.Country,
		b.ShippingName, b.ShippingStreet, b.ShippingZipcode, b.ShippingCity, b.ShippingCountry,
	)
	return err
}

var _ domain.BillingInfoRepository = (*BillingInfoRepositoryPG)(nil)
