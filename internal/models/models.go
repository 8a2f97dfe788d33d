package models

import "time"

// Vehicle is a plate known to the facility. Created on first scan, never deleted.
type Vehicle struct {
	ID        int64     `db:"id" json:"id"`
	Plate     string    `db:"plate" json:"plate"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Session represents one physical stay. CheckoutTime and Fee stay nil while
// the vehicle is inside; a session is never deleted, only closed.
type Session struct {
	ID           int64      `db:"id" json:"id"`
	VehicleID    int64      `db:"vehicle_id" json:"vehicle_id"`
	Plate        string     `db:"plate" json:"plate"`
	CheckinTime  time.Time  `db:"checkin_time" json:"checkin_time"`
	CheckoutTime *time.Time `db:"checkout_time" json:"checkout_time,omitempty"`
	RFIDCode     *string    `db:"rfid_code" json:"rfid_code,omitempty"`
	ImageSrc     *string    `db:"image_src" json:"image_src,omitempty"`
	Fee          *float64   `db:"fee" json:"fee,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Open reports whether the session has no checkout recorded.
func (s *Session) Open() bool {
	return s.CheckoutTime == nil
}

// Transaction is the payment recorded for one closed session.
type Transaction struct {
	ID            int64     `db:"id" json:"id"`
	SessionID     int64     `db:"session_id" json:"session_id"`
	Amount        float64   `db:"amount" json:"amount"`
	PaymentMethod string    `db:"payment_method" json:"payment_method"`
	PaidAt        time.Time `db:"paid_at" json:"paid_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Price describes the hourly parking rate.
type Price struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	RatePerHour float64   `db:"rate_per_hour" json:"rate_per_hour"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
