package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dairychain-dev/dairychain/internal/models"
	"github.com/dairychain-dev/dairychain/internal/seed"
)

const apiBase = "/api/v1"

// LoginResponse is the server's reply to a successful login
type LoginResponse struct {
	Success      bool         `json:"success"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	User         *models.User `json:"user"`
	RedirectURL  string       `json:"redirect_url,omitempty"`
}

// RefreshResponse is the server's reply to a token refresh
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Pagination is the envelope metadata of list endpoints
type Pagination struct {
	Page    int   `json:"page"`
	Size    int   `json:"size"`
	Total   int64 `json:"total"`
	Pages   int64 `json:"pages"`
	HasNext bool  `json:"has_next"`
	HasPrev bool  `json:"has_prev"`
}

// FarmerList is a page of farmers
type FarmerList struct {
	Items []models.Farmer `json:"items"`
	Pagination
}

// CollectionList is a page of milk collections
type CollectionList struct {
	Items []models.Collection `json:"items"`
	Pagination
}

// PaymentList is a page of payments
type PaymentList struct {
	Items []models.Payment `json:"items"`
	Pagination
}

// StaffList is a page of staff accounts
type StaffList struct {
	Items []models.User `json:"items"`
	Pagination
}

// Dashboard is the staff dashboard snapshot
type Dashboard struct {
	TotalFarmers      int64            `json:"total_farmers"`
	ActiveCollections int64            `json:"active_collections"`
	MonthlyRevenue    float64          `json:"monthly_revenue"`
	QualityDist       map[string]int64 `json:"quality_distribution"`
}

// AdminDashboard is the admin dashboard snapshot
type AdminDashboard struct {
	FarmerStats struct {
		Total      int64 `json:"total"`
		Active     int64 `json:"active"`
		PendingKYC int64 `json:"pending_kyc"`
	} `json:"farmer_stats"`
	CollectionStats struct {
		Today      float64 `json:"today"`
		ThisWeek   float64 `json:"this_week"`
		ThisMonth  float64 `json:"this_month"`
		AvgQuality float64 `json:"avg_quality"`
	} `json:"collection_stats"`
	PaymentStats struct {
		Pending     int64   `json:"pending"`
		Completed   int64   `json:"completed"`
		TotalAmount float64 `json:"total_amount"`
	} `json:"payment_stats"`
	QualityMetrics struct {
		GradeA int64 `json:"grade_a"`
		GradeB int64 `json:"grade_b"`
		GradeC int64 `json:"grade_c"`
	} `json:"quality_metrics"`
	SystemHealth struct {
		Database string `json:"database"`
		Queue    string `json:"queue"`
		API      string `json:"api"`
	} `json:"system_health"`
	LastUpdated time.Time `json:"last_updated"`
}

// CreateFarmerRequest registers a new farmer
type CreateFarmerRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email,omitempty"`
	Location   string `json:"location,omitempty"`
	NationalID string `json:"national_id"`
}

// CreateCollectionRequest records a milk collection
type CreateCollectionRequest struct {
	FarmerID       string   `json:"farmer_id"`
	StaffID        string   `json:"staff_id,omitempty"`
	Date           string   `json:"date"`
	Liters         float64  `json:"liters"`
	Temperature    float64  `json:"temperature"`
	FatContent     float64  `json:"fat_content"`
	ProteinContent float64  `json:"protein_content"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
}

// CreatePaymentRequest queues a manual payout
type CreatePaymentRequest struct {
	FarmerID      string  `json:"farmer_id"`
	PeriodMonth   string  `json:"period_month"`
	TotalLiters   float64 `json:"total_liters"`
	RatePerLiter  float64 `json:"rate_per_liter"`
	TotalAmount   float64 `json:"total_amount"`
	PaymentMethod string  `json:"payment_method"`
	PhoneNumber   string  `json:"phone_number,omitempty"`
	AccountNumber string  `json:"account_number,omitempty"`
}

// CreateStaffRequest provisions a staff account
type CreateStaffRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Phone    string `json:"phone,omitempty"`
}

// ListOptions narrows paginated list endpoints
type ListOptions struct {
	Page     int
	Size     int
	Search   string
	Status   string
	FarmerID string
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Size > 0 {
		q.Set("size", strconv.Itoa(o.Size))
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	if o.FarmerID != "" {
		q.Set("farmer_id", o.FarmerID)
	}
	return q
}

// Login authenticates with a username and password. Goes through the public
// path: a 401 is a credential rejection and must not expire a stored session.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var resp LoginResponse
	if err := c.doPublic(ctx, http.MethodPost, apiBase+"/auth/login", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DevLogin authenticates against the development credentials endpoint
func (c *Client) DevLogin(ctx context.Context, username, password string) (*LoginResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var resp LoginResponse
	if err := c.doPublic(ctx, http.MethodPost, apiBase+"/auth/login/dummy", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DevCredentials lists the seeded development accounts, keyed by username
func (c *Client) DevCredentials(ctx context.Context) (map[string]seed.DevUser, error) {
	const key = "dev-credentials"
	var creds map[string]seed.DevUser
	if body, ok := c.cachedGet(key); ok {
		if err := decodeCached(body, &creds); err == nil {
			return creds, nil
		}
	}
	if err := c.doPublic(ctx, http.MethodGet, apiBase+"/auth/dummy-credentials", nil, nil, &creds); err != nil {
		return nil, err
	}
	c.cacheEncode(key, creds)
	return creds, nil
}

// Me returns the account behind the current session
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, apiBase+"/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout invalidates the session's refresh tokens on the server
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, apiBase+"/auth/logout", nil, nil, nil)
}

// Dashboard fetches the staff dashboard snapshot
func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	const key = "dashboard"
	var dash Dashboard
	if body, ok := c.cachedGet(key); ok {
		if err := decodeCached(body, &dash); err == nil {
			return &dash, nil
		}
	}
	if err := c.do(ctx, http.MethodGet, apiBase+"/analytics/dashboard", nil, nil, &dash); err != nil {
		return nil, err
	}
	c.cacheEncode(key, dash)
	return &dash, nil
}

// AdminDashboard fetches the admin dashboard snapshot
func (c *Client) AdminDashboard(ctx context.Context) (*AdminDashboard, error) {
	var dash AdminDashboard
	if err := c.do(ctx, http.MethodGet, apiBase+"/analytics/admin/dashboard", nil, nil, &dash); err != nil {
		return nil, err
	}
	return &dash, nil
}

// Activity fetches the most recent activity feed entries
func (c *Client) Activity(ctx context.Context, limit int) ([]models.Activity, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var feed []models.Activity
	if err := c.do(ctx, http.MethodGet, apiBase+"/analytics/activity", q, nil, &feed); err != nil {
		return nil, err
	}
	return feed, nil
}

// ListFarmers fetches a page of farmers
func (c *Client) ListFarmers(ctx context.Context, opts ListOptions) (*FarmerList, error) {
	var list FarmerList
	if err := c.do(ctx, http.MethodGet, apiBase+"/farmers", opts.query(), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetFarmer fetches a single farmer by ID
func (c *Client) GetFarmer(ctx context.Context, id string) (*models.Farmer, error) {
	var farmer models.Farmer
	if err := c.do(ctx, http.MethodGet, apiBase+"/farmers/"+id, nil, nil, &farmer); err != nil {
		return nil, err
	}
	return &farmer, nil
}

// CreateFarmer registers a new farmer
func (c *Client) CreateFarmer(ctx context.Context, req CreateFarmerRequest) (*models.Farmer, error) {
	var farmer models.Farmer
	if err := c.do(ctx, http.MethodPost, apiBase+"/farmers", nil, req, &farmer); err != nil {
		return nil, err
	}
	return &farmer, nil
}

// ListCollections fetches a page of milk collections
func (c *Client) ListCollections(ctx context.Context, opts ListOptions) (*CollectionList, error) {
	var list CollectionList
	if err := c.do(ctx, http.MethodGet, apiBase+"/collections", opts.query(), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreateCollection records a milk collection
func (c *Client) CreateCollection(ctx context.Context, req CreateCollectionRequest) (*models.Collection, error) {
	var collection models.Collection
	if err := c.do(ctx, http.MethodPost, apiBase+"/collections", nil, req, &collection); err != nil {
		return nil, err
	}
	return &collection, nil
}

// ListPayments fetches a page of payments
func (c *Client) ListPayments(ctx context.Context, opts ListOptions) (*PaymentList, error) {
	var list PaymentList
	if err := c.do(ctx, http.MethodGet, apiBase+"/payments", opts.query(), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreatePayment queues a manual payout
func (c *Client) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*models.Payment, error) {
	var payment models.Payment
	if err := c.do(ctx, http.MethodPost, apiBase+"/payments", nil, req, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListStaff fetches a page of staff accounts
func (c *Client) ListStaff(ctx context.Context, opts ListOptions) (*StaffList, error) {
	var list StaffList
	if err := c.do(ctx, http.MethodGet, apiBase+"/staff", opts.query(), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreateStaff provisions a staff account
func (c *Client) CreateStaff(ctx context.Context, req CreateStaffRequest) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPost, apiBase+"/staff", nil, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
