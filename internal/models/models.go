package models

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"example.com/subtracker/backend/internal/calendar"
)

type BillingCycle string

type SubStatus string

type UsageRecency string

type CancelMethod string

type RenewalDayRule string

type HouseholdRole string

type Theme string

const (
	CycleWeekly    BillingCycle = "weekly"
	CycleMonthly   BillingCycle = "monthly"
	CycleQuarterly BillingCycle = "quarterly"
	CycleBiannual  BillingCycle = "biannual"
	CycleAnnual    BillingCycle = "annual"
	CycleCustom    BillingCycle = "custom"

	StatusActive    SubStatus = "active"
	StatusTrial     SubStatus = "trial"
	StatusPaused    SubStatus = "paused"
	StatusOnHold    SubStatus = "on_hold"
	StatusCancelled SubStatus = "cancelled"

	UsageWithin7  UsageRecency = "within7"
	UsageWithin30 UsageRecency = "within30"
	UsageWithin90 UsageRecency = "within90"
	UsageOver90   UsageRecency = "over90"
	UsageNever    UsageRecency = "never"

	CancelWebsite CancelMethod = "website"
	CancelPhone   CancelMethod = "phone"
	CancelChat    CancelMethod = "chat"
	CancelEmail   CancelMethod = "email"

	RuleExact           RenewalDayRule = "exact"
	RuleLastDayOfMonth  RenewalDayRule = "lastDayOfMonth"
	RuleNextBusinessDay RenewalDayRule = "nextBusinessDay"

	RoleAdmin  HouseholdRole = "admin"
	RoleMember HouseholdRole = "member"

	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// AlertTimings are the lead times a subscription may be configured with.
var AlertTimings = []int{1, 3, 7, 14, 30}

// EscalationLeadDays is the lead time added for unusually costly subscriptions.
const EscalationLeadDays = 30

// SettingsID is the key of the single settings row.
const SettingsID = "app"

type AddOn struct {
	ID              uuid.UUID    `json:"id"`
	Name            string       `json:"name" validate:"required,max=200"`
	Amount          float64      `json:"amount" validate:"gte=0"`
	BillingCycle    BillingCycle `json:"billing_cycle" validate:"required,oneof=weekly monthly quarterly biannual annual custom"`
	CustomCycleDays int          `json:"custom_cycle_days,omitempty" validate:"gte=0"`
}

type PriceEntry struct {
	Date   calendar.Date `json:"date"`
	Amount float64       `json:"amount" validate:"gte=0"`
	Note   string        `json:"note,omitempty"`
}

type Subscription struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name" validate:"required,max=200"`
	LogoURL string    `json:"logo_url,omitempty"`

	CategoryID uuid.UUID `json:"category_id"`
	Tags       []string  `json:"tags"`

	BillingCycle    BillingCycle `json:"billing_cycle" validate:"required,oneof=weekly monthly quarterly biannual annual custom"`
	CustomCycleDays int          `json:"custom_cycle_days,omitempty" validate:"gte=0"`
	Amount          float64      `json:"amount" validate:"gte=0"`
	Currency        string       `json:"currency" validate:"required,len=3"`
	TaxAmount       float64      `json:"tax_amount,omitempty" validate:"gte=0"`

	HasIntroPricing   bool           `json:"has_intro_pricing"`
	IntroPrice        *float64       `json:"intro_price,omitempty" validate:"omitempty,gte=0"`
	IntroDurationDays int            `json:"intro_duration_days,omitempty" validate:"gte=0"`
	IntroEndDate      *calendar.Date `json:"intro_end_date,omitempty"`

	StartDate       calendar.Date  `json:"start_date"`
	NextRenewalDate calendar.Date  `json:"next_renewal_date"`
	RenewalDayRule  RenewalDayRule `json:"renewal_day_rule" validate:"required,oneof=exact lastDayOfMonth nextBusinessDay"`

	Status             SubStatus `json:"status" validate:"required,oneof=active trial paused on_hold cancelled"`
	AutoRenew          bool      `json:"auto_renew"`
	CancellationNeeded bool      `json:"cancellation_needed"`

	AlertDaysBefore   []int          `json:"alert_days_before" validate:"dive,oneof=1 3 7 14 30"`
	AlertSnoozedUntil *calendar.Date `json:"alert_snoozed_until,omitempty"`

	PayerID     uuid.UUID   `json:"payer_id"`
	OwnerID     uuid.UUID   `json:"owner_id"`
	ManagerID   *uuid.UUID  `json:"manager_id,omitempty"`
	UserIDs     []uuid.UUID `json:"user_ids"`
	IsShared    bool        `json:"is_shared"`
	SeatCount   *int        `json:"seat_count,omitempty" validate:"omitempty,gt=0"`
	CostPerSeat *float64    `json:"cost_per_seat,omitempty" validate:"omitempty,gte=0"`

	CancelURL             string       `json:"cancel_url,omitempty" validate:"omitempty,url"`
	CancelMethod          CancelMethod `json:"cancel_method,omitempty" validate:"omitempty,oneof=website phone chat email"`
	CancelDeadlineDays    int          `json:"cancel_deadline_days,omitempty" validate:"gte=0"`
	CancellationChecklist []string     `json:"cancellation_checklist,omitempty"`

	LastUsed   UsageRecency `json:"last_used,omitempty" validate:"omitempty,oneof=within7 within30 within90 over90 never"`
	ValueScore int          `json:"value_score,omitempty" validate:"omitempty,min=1,max=5"`
	WouldMiss  *bool        `json:"would_miss,omitempty"`

	AddOns       []AddOn      `json:"add_ons" validate:"dive"`
	PriceHistory []PriceEntry `json:"price_history" validate:"dive"`

	Notes          string `json:"notes,omitempty"`
	SensitiveNotes string `json:"sensitive_notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsBillable сообщает, учитывается ли подписка в расходах (active или trial).
func (s Subscription) IsBillable() bool {
	return s.Status == StatusActive || s.Status == StatusTrial
}

var (
	ErrMissingRenewalDate = errors.New("next_renewal_date is required")
	ErrPriceHistoryOrder  = errors.New("price_history must be in chronological order")
)

// CheckDates проверяет обязательную дату продления и порядок истории цен.
func (s Subscription) CheckDates() error {
	if s.NextRenewalDate.IsZero() {
		return ErrMissingRenewalDate
	}
	for i, entry := range s.PriceHistory {
		if entry.Date.IsZero() {
			return ErrPriceHistoryOrder
		}
		if i > 0 && entry.Date.Before(s.PriceHistory[i-1].Date) {
			return ErrPriceHistoryOrder
		}
	}
	return nil
}

// AppendPrice дописывает запись в конец истории; дата не может быть раньше последней записи.
func (s *Subscription) AppendPrice(entry PriceEntry) error {
	if n := len(s.PriceHistory); n > 0 && entry.Date.Before(s.PriceHistory[n-1].Date) {
		return ErrPriceHistoryOrder
	}
	s.PriceHistory = append(s.PriceHistory, entry)
	s.Amount = entry.Amount
	return nil
}

// CycleAmount возвращает сумму одного списания: цена плюс налог, без дополнений.
func (s Subscription) CycleAmount() float64 {
	return s.Amount + s.TaxAmount
}

type HouseholdMember struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name" validate:"required,max=100"`
	Role        HouseholdRole `json:"role" validate:"required,oneof=admin member"`
	AvatarColor string        `json:"avatar_color"`
	AvatarURL   string        `json:"avatar_url,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name" validate:"required,max=100"`
	Icon      string    `json:"icon"`
	Color     string    `json:"color"`
	IsDefault bool      `json:"is_default"`
	SortOrder int       `json:"sort_order"`
}

type AppSettings struct {
	ID                  string         `json:"id"`
	DefaultCurrency     string         `json:"default_currency" validate:"required,len=3"`
	DefaultAlertDays    []int          `json:"default_alert_days" validate:"dive,oneof=1 3 7 14 30"`
	EscalationThreshold float64        `json:"escalation_threshold" validate:"gte=0"`
	PinVerifyHash       string         `json:"pin_verify_hash,omitempty"`
	PinVerifySalt       string         `json:"pin_verify_salt,omitempty"`
	PinEncryptSalt      string         `json:"pin_encrypt_salt,omitempty"`
	Theme               Theme          `json:"theme" validate:"required,oneof=light dark system"`
	LastBackupDate      *calendar.Date `json:"last_backup_date,omitempty"`
}

// HasPin сообщает, настроен ли PIN для защищенных заметок.
func (s AppSettings) HasPin() bool {
	return s.PinVerifyHash != "" && s.PinVerifySalt != "" && s.PinEncryptSalt != ""
}

// DefaultSettings возвращает настройки приложения по умолчанию.
func DefaultSettings() AppSettings {
	return AppSettings{
		ID:                  SettingsID,
		DefaultCurrency:     "USD",
		DefaultAlertDays:    []int{7, 3, 1},
		EscalationThreshold: 50,
		Theme:               ThemeSystem,
	}
}

type Alert struct {
	ID               string        `json:"id"`
	SubscriptionID   uuid.UUID     `json:"subscription_id"`
	SubscriptionName string        `json:"subscription_name"`
	RenewalDate      calendar.Date `json:"renewal_date"`
	Amount           float64       `json:"amount"`
	EffectiveMonthly float64       `json:"effective_monthly"`
	DaysBefore       int           `json:"days_before"`
	DaysUntil        int           `json:"days_until"`
	AlertDate        calendar.Date `json:"alert_date"`
	Urgency          string        `json:"urgency"`
}

type CashflowEntry struct {
	Date             calendar.Date `json:"date"`
	SubscriptionID   uuid.UUID     `json:"subscription_id"`
	SubscriptionName string        `json:"subscription_name"`
	Amount           float64       `json:"amount"`
	CategoryID       uuid.UUID     `json:"category_id"`
}

type CategoryBreakdown struct {
	CategoryID   uuid.UUID `json:"category_id"`
	CategoryName string    `json:"category_name"`
	CategoryIcon string    `json:"category_icon"`
	TotalMonthly float64   `json:"total_monthly"`
	Count        int       `json:"count"`
	Percentage   float64   `json:"percentage"`
}
