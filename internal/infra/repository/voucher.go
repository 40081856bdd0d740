package repository

import (
	"context"
	"time"

	"guestgate/internal/domain/voucher"
	"guestgate/internal/infra"
	"guestgate/internal/infra/db"
	"guestgate/internal/usecase/readmodel"

	"github.com/jackc/pgx/v5/pgxpool"
)

type VoucherRepository struct {
	pool *pgxpool.Pool
}

func NewVoucherRepository(pool *pgxpool.Pool) *VoucherRepository {
	return &VoucherRepository{pool: pool}
}

func (r *VoucherRepository) Create(ctx context.Context, tx db.DBTX, v *voucher.Voucher) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO vouchers (code, created_utc, duration_minutes, up_kbps, down_kbps, status, booking_ref, redeemed_count, last_redeemed_utc)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		v.Code().String(), v.CreatedAt(), v.DurationMinutes(), v.UpKbps(), v.DownKbps(),
		string(v.Status()), v.BookingRef(), v.RedeemedCount(), v.LastRedeemedAt(),
	)
	if err != nil {
		if infra.IsUniqueViolation(err) {
			return infra.WrapRepoErr("voucher code already exists", err, infra.KindDuplicateKey)
		}
		return infra.WrapRepoErr("failed to insert voucher", err)
	}
	return nil
}

// FindByCodeCI looks a voucher up case-insensitively; stored codes are
// uppercase so the comparison folds the input.
func (r *VoucherRepository) FindByCodeCI(ctx context.Context, q db.DBTX, code string) (*voucher.Voucher, error) {
	row := q.QueryRow(ctx, `
		SELECT code, created_utc, duration_minutes, up_kbps, down_kbps, status, booking_ref, redeemed_count, last_redeemed_utc
		FROM vouchers
		WHERE code = UPPER(TRIM($1))`,
		code,
	)
	v, err := scanVoucher(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("voucher not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find voucher by code", err)
	}
	return v, nil
}

// Update persists redemption-side mutations: status, counters, timestamps.
func (r *VoucherRepository) Update(ctx context.Context, tx db.DBTX, v *voucher.Voucher) error {
	_, err := tx.Exec(ctx, `
		UPDATE vouchers
		SET status = $2, redeemed_count = $3, last_redeemed_utc = $4
		WHERE code = $1`,
		v.Code().String(), string(v.Status()), v.RedeemedCount(), v.LastRedeemedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update voucher", err)
	}
	return nil
}

func (r *VoucherRepository) List(ctx context.Context, q db.DBTX) ([]*readmodel.VoucherRM, error) {
	rows, err := q.Query(ctx, `
		SELECT code, created_utc, duration_minutes, up_kbps, down_kbps, status, booking_ref, redeemed_count, last_redeemed_utc
		FROM vouchers
		ORDER BY created_utc DESC`)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list vouchers", err)
	}
	defer rows.Close()

	var result []*readmodel.VoucherRM
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan voucher row", err)
		}
		result = append(result, toVoucherRM(v))
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("voucher row iteration failed", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVoucher(row rowScanner) (*voucher.Voucher, error) {
	var (
		code            string
		createdUTC      time.Time
		durationMinutes int
		upKbps          *int
		downKbps        *int
		status          string
		bookingRef      *string
		redeemedCount   int
		lastRedeemedUTC *time.Time
	)
	if err := row.Scan(&code, &createdUTC, &durationMinutes, &upKbps, &downKbps, &status, &bookingRef, &redeemedCount, &lastRedeemedUTC); err != nil {
		return nil, err
	}
	return voucher.Reconstruct(
		voucher.Code(code), createdUTC, durationMinutes, upKbps, downKbps,
		voucher.Status(status), bookingRef, redeemedCount, lastRedeemedUTC,
	), nil
}

func toVoucherRM(v *voucher.Voucher) *readmodel.VoucherRM {
	return &readmodel.VoucherRM{
		Code:            v.Code().String(),
		CreatedUTC:      v.CreatedAt(),
		DurationMinutes: v.DurationMinutes(),
		ExpiresUTC:      v.ExpiresAt(),
		UpKbps:          v.UpKbps(),
		DownKbps:        v.DownKbps(),
		Status:          string(v.Status()),
		BookingRef:      v.BookingRef(),
		RedeemedCount:   v.RedeemedCount(),
		LastRedeemedUTC: v.LastRedeemedAt(),
	}
}
