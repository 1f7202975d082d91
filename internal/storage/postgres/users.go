package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
)

const userColumns = `id, email, password_hash, business_name, business_address, support_email, logo_url,
	brand_color, payment_api_key, payment_secret_key, email_api_key, email_from_address,
	pixel_id, pixel_access_token, custom_domain, domain_verified, created_at`

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u                                                    domain.User
		businessName, businessAddress, supportEmail, logoURL sql.Null[string]
		paymentKey, paymentSecret, emailKey, emailFrom       sql.Null[string]
		pixelID, pixelToken, customDomain                    sql.Null[string]
		createdAt                                            time.Time
	)
	if err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &businessName, &businessAddress, &supportEmail, &logoURL,
		&u.BrandColor, &paymentKey, &paymentSecret, &emailKey, &emailFrom,
		&pixelID, &pixelToken, &customDomain, &u.DomainVerified, &createdAt,
	); err != nil {
		return domain.User{}, err
	}

	u.BusinessName = optional(businessName)
	u.BusinessAddress = optional(businessAddress)
	u.SupportEmail = optional(supportEmail)
	u.LogoURL = optional(logoURL)
	u.PaymentAPIKey = optional(paymentKey)
	u.PaymentSecretKey = optional(paymentSecret)
	u.EmailAPIKey = optional(emailKey)
	u.EmailFromAddress = optional(emailFrom)
	u.PixelID = optional(pixelID)
	u.PixelAccessToken = optional(pixelToken)
	u.CustomDomain = optional(customDomain)
	u.CreatedAt = createdAt.UTC()
	return u, nil
}

// GetUser возвращает продавца по ID.
func (s *Store) GetUser(ctx context.Context, id string) (_ *domain.User, err error) {
	defer s.track("get_user")(&err)
	return queryOne(ctx, s.db, scanUser, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetUserByEmail ищет продавца по email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (_ *domain.User, err error) {
	defer s.track("get_user_by_email")(&err)
	return queryOne(ctx, s.db, scanUser, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// CreateUser регистрирует продавца.
func (s *Store) CreateUser(ctx context.Context, in domain.NewUser) (_ *domain.User, err error) {
	defer s.track("create_user")(&err)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	brandColor := domain.DefaultBrandColor
	if in.BrandColor != nil {
		brandColor = *in.BrandColor
	}
	return writeOne(ctx, s.db, "user", scanUser, `
		INSERT INTO users (email, password_hash, business_name, brand_color)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		strings.TrimSpace(in.Email), in.PasswordHash, arg(in.BusinessName), brandColor,
	)
}

// UpdateUser частично обновляет профиль продавца.
func (s *Store) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (_ *domain.User, err error) {
	defer s.track("update_user")(&err)
	return writeOne(ctx, s.db, "user", scanUser, `
		UPDATE users SET
			email = COALESCE($2, email),
			password_hash = COALESCE($3, password_hash),
			business_name = COALESCE($4, business_name),
			business_address = COALESCE($5, business_address),
			support_email = COALESCE($6, support_email),
			logo_url = COALESCE($7, logo_url),
			brand_color = COALESCE($8, brand_color),
			payment_api_key = COALESCE($9, payment_api_key),
			payment_secret_key = COALESCE($10, payment_secret_key),
			email_api_key = COALESCE($11, email_api_key),
			email_from_address = COALESCE($12, email_from_address),
			pixel_id = COALESCE($13, pixel_id),
			pixel_access_token = COALESCE($14, pixel_access_token),
			custom_domain = COALESCE($15, custom_domain),
			domain_verified = COALESCE($16, domain_verified)
		WHERE id = $1
		RETURNING `+userColumns,
		id, arg(patch.Email), arg(patch.PasswordHash), arg(patch.BusinessName), arg(patch.BusinessAddress),
		arg(patch.SupportEmail), arg(patch.LogoURL), arg(patch.BrandColor), arg(patch.PaymentAPIKey),
		arg(patch.PaymentSecretKey), arg(patch.EmailAPIKey), arg(patch.EmailFromAddress), arg(patch.PixelID),
		arg(patch.PixelAccessToken), arg(patch.CustomDomain), arg(patch.DomainVerified),
	)
}
