package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentMethod is how the dealer intends to pay for an order.
type PaymentMethod string

const (
	PaymentMethodCard  PaymentMethod = "card"
	PaymentMethodCheck PaymentMethod = "check"
	PaymentMethodACH   PaymentMethod = "ach"
)

// IsKnownPaymentMethod reports whether m is one of the three accepted methods.
func IsKnownPaymentMethod(m PaymentMethod) bool {
	return m == PaymentMethodCard || m == PaymentMethodCheck || m == PaymentMethodACH
}

// ShippingAddress is the delivery destination stored on an order.
type ShippingAddress struct {
	Name     string `json:"name"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
	Phone    string `json:"phone"`
}

// Complete reports whether all required shipping fields are present.
func (a *ShippingAddress) Complete() bool {
	return a.Name != "" && a.Address1 != "" && a.City != "" &&
		a.State != "" && a.Zip != "" && a.Phone != ""
}

// ContactInfo is who to reach about an order.
type ContactInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Order represents one custom stair-nosing fabrication request
type Order struct {
	ID          string      `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber string      `gorm:"uniqueIndex;not null" json:"order_number"`
	DealerID    string      `gorm:"type:uuid;not null;index" json:"dealer_id"`
	CreatedBy   string      `gorm:"type:uuid;not null" json:"created_by"` // profile that submitted the order
	Status      OrderStatus `gorm:"not null" json:"status"`

	// Basic information
	FirstName           string `gorm:"not null" json:"first_name"`
	LastName            string `gorm:"not null" json:"last_name"`
	Company             string `json:"company"`
	PurchaseOrderNumber string `gorm:"not null" json:"purchase_order_number"`
	Sidemark            string `gorm:"not null" json:"sidemark"`
	Phone               string `gorm:"not null" json:"phone"`
	Email               string `gorm:"not null" json:"email"`

	// Stair details
	StairType          string `json:"stair_type"`
	StepsNoOpenReturn  int    `gorm:"not null;default:0" json:"steps_no_open_return"`
	StepsOneOpenReturn int    `gorm:"not null;default:0" json:"steps_one_open_return"`
	StepsTwoOpenReturn int    `gorm:"not null;default:0" json:"steps_two_open_return"`
	LongestPlankSize   string `gorm:"not null" json:"longest_plank_size"`
	StepsDetails       string `gorm:"not null" json:"steps_details"`

	// Flooring match information
	Manufacturer          string `gorm:"not null" json:"manufacturer"`
	Style                 string `gorm:"not null" json:"style"`
	Color                 string `gorm:"not null" json:"color"`
	FloorMatchDescription string `json:"floor_match_description"`

	// Rail cap trim
	RailCapTrimNeeded  bool   `gorm:"not null;default:false" json:"rail_cap_trim_needed"`
	RailCapTrimDetails string `json:"rail_cap_trim_details"`

	// Payment and shipping
	PaymentMethod    PaymentMethod    `gorm:"not null" json:"payment_method"`
	TotalAmountCents int64            `gorm:"not null;default:0" json:"total_amount_cents"` // integer cents, never floating point
	ShippingAddress  *ShippingAddress `gorm:"serializer:json" json:"shipping_address,omitempty"`
	ContactInfo      *ContactInfo     `gorm:"serializer:json" json:"contact_info,omitempty"`

	// Notes is an append-only log of timestamped free-text entries
	Notes string `json:"notes"`

	Payment  *OrderPayment   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"payment,omitempty"`
	Images   []OrderImage    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
	AuditLog []OrderAuditLog `gorm:"foreignKey:OrderID" json:"audit_log,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// BeforeCreate assigns a UUID primary key when none is set
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// TotalSteps returns the step count summed across the three layout categories.
// An order must cover at least one step.
func (o *Order) TotalSteps() int {
	return o.StepsNoOpenReturn + o.StepsOneOpenReturn + o.StepsTwoOpenReturn
}

// OrderPayment tracks the single payment record attached to an order.
// PaymentReceived is monotonic: once set it is never cleared by any handler.
type OrderPayment struct {
	ID                   string        `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID              string        `gorm:"type:uuid;not null;uniqueIndex" json:"order_id"`
	PaymentMethod        PaymentMethod `gorm:"not null" json:"payment_method"`
	AmountCents          int64         `gorm:"not null;default:0" json:"amount_cents"`
	PaymentReceived      bool          `gorm:"not null;default:false" json:"payment_received"`
	ReceivedDate         *time.Time    `json:"received_date,omitempty"`
	ReceivedBy           *string       `gorm:"type:uuid" json:"received_by,omitempty"` // admin user who recorded it
	TransactionReference string        `json:"transaction_reference"`
	Notes                string        `json:"notes"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// TableName specifies the table name for the OrderPayment model
func (OrderPayment) TableName() string {
	return "order_payments"
}

// BeforeCreate assigns a UUID primary key when none is set
func (p *OrderPayment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Snapshot is a loose JSON object captured in audit-log entries.
type Snapshot map[string]interface{}

// OrderAuditLog is an append-only record of one state-changing action taken
// against an order. Rows are never updated, and OrderID deliberately carries
// no foreign-key constraint so the final order_deleted entry survives the
// order itself.
type OrderAuditLog struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID     string    `gorm:"type:uuid;not null;index" json:"order_id"`
	AdminUserID string    `gorm:"type:uuid;not null" json:"admin_user_id"`
	Action      string    `gorm:"not null" json:"action"` // status_change, payment_received, note_added, order_deleted
	OldValue    Snapshot  `gorm:"serializer:json" json:"old_value,omitempty"`
	NewValue    Snapshot  `gorm:"serializer:json" json:"new_value,omitempty"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for the OrderAuditLog model
func (OrderAuditLog) TableName() string {
	return "order_audit_log"
}

// BeforeCreate assigns a UUID primary key when none is set
func (l *OrderAuditLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// OrderImage is one uploaded project image reference attached to an order.
type OrderImage struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID     string    `gorm:"type:uuid;not null;index" json:"order_id"`
	S3Key       string    `gorm:"not null" json:"s3_key"`
	FileName    string    `json:"file_name"`
	FileSize    int64     `json:"file_size"`
	ContentType string    `json:"content_type"`
	UploadedBy  string    `gorm:"type:uuid;not null" json:"uploaded_by"`
	ImageURL    string    `gorm:"-" json:"image_url,omitempty"` // computed, presigned URL
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for the OrderImage model
func (OrderImage) TableName() string {
	return "order_images"
}

// BeforeCreate assigns a UUID primary key when none is set
func (i *OrderImage) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
