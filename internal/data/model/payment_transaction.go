package model

import "time"

// PaymentTransaction 支付交易流水模型
type PaymentTransaction struct {
	ID            uint64     `gorm:"primaryKey;column:transaction_id"`
	OrderID       uint64     `gorm:"column:order_id;index"`
	TransactionNo string     `gorm:"column:transaction_no;uniqueIndex"`
	Method        string     `gorm:"column:method"`
	Amount        float64    `gorm:"column:amount"`
	Currency      string     `gorm:"column:currency"`
	Status        string     `gorm:"column:status;index"`
	BankCode      string     `gorm:"column:bank_code"`
	CardType      string     `gorm:"column:card_type"`
	GatewayTxnID  string     `gorm:"column:gateway_txn_id"`
	ResponseCode  string     `gorm:"column:response_code"`
	SecureHash    string     `gorm:"column:secure_hash"`
	RawRequest    string     `gorm:"column:raw_request;type:text"`
	RawResponse   string     `gorm:"column:raw_response;type:text"`
	RefundAmount  float64    `gorm:"column:refund_amount"`
	RefundReason  string     `gorm:"column:refund_reason"`
	RefundedAt    *time.Time `gorm:"column:refunded_at"`
	ErrorMessage  string     `gorm:"column:error_message"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (PaymentTransaction) TableName() string { return "payment_transaction" }
