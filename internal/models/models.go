package models

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// User roles. Admins additionally carry IsAdmin and bypass role checks.
const (
	RoleAdmin      = "admin"
	RoleStaff      = "staff"
	RoleFarmer     = "farmer"
	RoleFieldAgent = "field_agent"
)

// KYC statuses for farmers
const (
	KYCPending     = "pending"
	KYCApproved    = "approved"
	KYCRejected    = "rejected"
	KYCUnderReview = "under_review"
)

// Payment statuses
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentCancelled = "cancelled"
)

// Quality grades assigned to milk collections
const (
	GradeA = "A"
	GradeB = "B"
	GradeC = "C"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// User represents a staff/admin account that can sign in to the dashboard
type User struct {
	BaseModel
	Username     string    `json:"username" gorm:"not null;unique"`
	Email        string    `json:"email" gorm:"not null;unique"`
	PasswordHash string    `json:"-" gorm:"not null"`
	FullName     string    `json:"full_name" gorm:"not null"`
	Role         string    `json:"role" gorm:"not null;default:staff"`
	Phone        string    `json:"phone"`
	Portal       string    `json:"portal"`
	IsActive     bool      `json:"is_active" gorm:"not null;default:true"`
	IsAdmin      bool      `json:"is_admin" gorm:"not null;default:false"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// RefreshToken records an issued refresh token so logout can revoke it.
// The token itself is a JWT; only its jti and expiry are stored.
type RefreshToken struct {
	BaseModel
	JTI       string    `json:"jti" gorm:"not null;unique;type:varchar(26)"`
	UserID    string    `json:"user_id" gorm:"not null;index"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
}

// Farmer represents a registered milk supplier
type Farmer struct {
	BaseModel
	Name           string  `json:"name" gorm:"not null"`
	Phone          string  `json:"phone" gorm:"not null"`
	Email          string  `json:"email"`
	Location       string  `json:"location"`
	NationalID     string  `json:"national_id" gorm:"unique"`
	KYCStatus      string  `json:"kyc_status" gorm:"not null;default:pending"`
	RejectedReason string  `json:"rejected_reason,omitempty"`
	CardIssued     bool    `json:"card_issued" gorm:"not null;default:false"`
	TotalVolume    float64 `json:"total_volume" gorm:"not null;default:0"`
	TotalEarnings  float64 `json:"total_earnings" gorm:"not null;default:0"`

	// Relationships
	Collections []Collection `json:"collections,omitempty" gorm:"foreignKey:FarmerID"`
	Payments    []Payment    `json:"payments,omitempty" gorm:"foreignKey:FarmerID"`
}

// Collection represents a single milk pickup from a farmer
type Collection struct {
	BaseModel
	FarmerID       string   `json:"farmer_id" gorm:"not null;index"`
	StaffID        string   `json:"staff_id" gorm:"not null;index"`
	Date           string   `json:"date" gorm:"not null;index"` // YYYY-MM-DD
	Liters         float64  `json:"quantity_liters" gorm:"not null"`
	Temperature    float64  `json:"temperature" gorm:"not null"`
	FatContent     float64  `json:"fat_content" gorm:"not null"`
	ProteinContent float64  `json:"protein_content" gorm:"not null"`
	QualityGrade   string   `json:"quality_grade" gorm:"not null"`
	PricePerLiter  float64  `json:"price_per_liter" gorm:"not null"`
	TotalAmount    float64  `json:"total_amount" gorm:"not null"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
}

// Payment represents a monthly payout to a farmer
type Payment struct {
	BaseModel
	FarmerID      string     `json:"farmer_id" gorm:"not null;index"`
	PeriodMonth   string     `json:"period_month" gorm:"not null;index"` // YYYY-MM
	TotalLiters   float64    `json:"total_liters" gorm:"not null"`
	RatePerLiter  float64    `json:"rate_per_liter" gorm:"not null"`
	TotalAmount   float64    `json:"total_amount" gorm:"not null"`
	Status        string     `json:"status" gorm:"not null;default:pending;index"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	TxReference   string     `json:"tx_reference,omitempty"`
	PaymentMethod string     `json:"payment_method" gorm:"not null"`
	PhoneNumber   string     `json:"phone_number,omitempty"`
	AccountNumber string     `json:"account_number,omitempty"`
}

// Activity is an append-only feed entry shown on the dashboard
type Activity struct {
	BaseModel
	Kind    string `json:"kind" gorm:"not null"` // collection, payment, farmer, kyc
	Message string `json:"message" gorm:"not null"`
	ActorID string `json:"actor_id"`
}

// DeploymentConfig is the global configuration for the single-tenant deployment
// This is a singleton model (only one row should exist)
type DeploymentConfig struct {
	BaseModel
	// Authentication configuration
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // Auto-generated on first startup (64 hex chars)

	// Payment run configuration
	PaymentSchedule     string     `json:"payment_schedule"` // Cron expression, e.g. "0 6 1 * *" (1st of month, 6am), empty = no auto run
	DefaultRatePerLiter float64    `json:"default_rate_per_liter" gorm:"not null;default:0.45"`
	LastPaymentRunAt    *time.Time `json:"last_payment_run_at"`
	NextPaymentRunAt    *time.Time `json:"next_payment_run_at"`
}

// DashboardStats is the cached dashboard snapshot maintained by the
// analytics refresh worker. Singleton row, replaced on every refresh.
type DashboardStats struct {
	BaseModel
	TotalFarmers      int64     `json:"total_farmers" gorm:"not null;default:0"`
	ActiveFarmers     int64     `json:"active_farmers" gorm:"not null;default:0"`
	PendingKYC        int64     `json:"pending_kyc" gorm:"not null;default:0"`
	ActiveCollections int64     `json:"active_collections" gorm:"not null;default:0"`
	CollectionsToday  float64   `json:"collections_today" gorm:"not null;default:0"`
	CollectionsWeek   float64   `json:"collections_week" gorm:"not null;default:0"`
	CollectionsMonth  float64   `json:"collections_month" gorm:"not null;default:0"`
	AvgQuality        float64   `json:"avg_quality" gorm:"not null;default:0"`
	MonthlyRevenue    float64   `json:"monthly_revenue" gorm:"not null;default:0"`
	GradeA            int64     `json:"grade_a" gorm:"not null;default:0"`
	GradeB            int64     `json:"grade_b" gorm:"not null;default:0"`
	GradeC            int64     `json:"grade_c" gorm:"not null;default:0"`
	PendingPayments   int64     `json:"pending_payments" gorm:"not null;default:0"`
	CompletedPayments int64     `json:"completed_payments" gorm:"not null;default:0"`
	TotalPaymentsOut  float64   `json:"total_payments_out" gorm:"not null;default:0"`
	RefreshedAt       time.Time `json:"refreshed_at"`
}

// CurrentPeriodMonth returns the payment period for a point in time
// Format: YYYY-MM (e.g., 2026-08)
func CurrentPeriodMonth(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// GenerateTxReference generates a transaction reference for a completed payout
// Returns: DCP-YYYYMMDDHHmmss-<payment id suffix>
func GenerateTxReference(paymentID string, now time.Time) string {
	suffix := paymentID
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	return fmt.Sprintf("DCP-%s-%s", now.UTC().Format("20060102150405"), suffix)
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Farmer{},
		&Collection{},
		&Payment{},
		&Activity{},
		&DeploymentConfig{},
		&DashboardStats{},
	)
}
