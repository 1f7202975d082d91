package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultBrandColor — цвет темы checkout-страниц, если продавец его не задал.
const DefaultBrandColor = "#3B82F6"

// User — продавец (владелец магазина). Все остальные сущности принадлежат ему через UserID.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`

	BusinessName    *string `json:"businessName"`
	BusinessAddress *string `json:"businessAddress"`
	SupportEmail    *string `json:"supportEmail"`
	LogoURL         *string `json:"logoUrl"`
	BrandColor      string  `json:"brandColor"`

	// Ключи платёжного шлюза.
	PaymentAPIKey    *string `json:"-"`
	PaymentSecretKey *string `json:"-"`
	// Ключ и отправитель почтового провайдера.
	EmailAPIKey      *string `json:"-"`
	EmailFromAddress *string `json:"emailFromAddress"`
	// Pixel tracking (Conversions API).
	PixelID          *string `json:"pixelId"`
	PixelAccessToken *string `json:"-"`

	CustomDomain   *string `json:"customDomain"`
	DomainVerified bool    `json:"domainVerified"`

	CreatedAt time.Time `json:"createdAt"`
}

// NewUser — входные данные для регистрации продавца.
type NewUser struct {
	Email        string
	PasswordHash string
	BusinessName *string
	BrandColor   *string
}

// Validate проверяет обязательные поля.
func (u NewUser) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("%w: user email is required", ErrInvalidInput)
	}
	if u.PasswordHash == "" {
		return fmt.Errorf("%w: user credential is required", ErrInvalidInput)
	}
	return nil
}

// UserPatch — частичное обновление профиля; nil-поля не меняются.
type UserPatch struct {
	Email            *string
	PasswordHash     *string
	BusinessName     *string
	BusinessAddress  *string
	SupportEmail     *string
	LogoURL          *string
	BrandColor       *string
	PaymentAPIKey    *string
	PaymentSecretKey *string
	EmailAPIKey      *string
	EmailFromAddress *string
	PixelID          *string
	PixelAccessToken *string
	CustomDomain     *string
	DomainVerified   *bool
}

// Apply переносит заданные поля патча в u.
func (p UserPatch) Apply(u *User) {
	setValue(&u.Email, p.Email)
	setValue(&u.PasswordHash, p.PasswordHash)
	setOptional(&u.BusinessName, p.BusinessName)
	setOptional(&u.BusinessAddress, p.BusinessAddress)
	setOptional(&u.SupportEmail, p.SupportEmail)
	setOptional(&u.LogoURL, p.LogoURL)
	setValue(&u.BrandColor, p.BrandColor)
	setOptional(&u.PaymentAPIKey, p.PaymentAPIKey)
	setOptional(&u.PaymentSecretKey, p.PaymentSecretKey)
	setOptional(&u.EmailAPIKey, p.EmailAPIKey)
	setOptional(&u.EmailFromAddress, p.EmailFromAddress)
	setOptional(&u.PixelID, p.PixelID)
	setOptional(&u.PixelAccessToken, p.PixelAccessToken)
	setOptional(&u.CustomDomain, p.CustomDomain)
	setValue(&u.DomainVerified, p.DomainVerified)
}

// setValue присваивает значение обязательного поля, если оно передано.
func setValue[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// setOptional присваивает значение nullable-поля, если оно передано.
func setOptional[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}
