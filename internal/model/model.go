// Package model содержит доменные сущности сервиса House In Meta.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxRate — фиксированная ставка налога для всех пакетов услуг.
var TaxRate = decimal.NewFromFloat(0.10)

// Package описывает тариф конвертации планировки в 3D.
type Package struct {
	ID          string
	Name        string
	Icon        string
	Description string
	Price       decimal.Decimal
	Period      string
	Features    []string
	Featured    bool
}

// PaymentMethod описывает способ оплаты заказа.
type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

// Customer содержит контактные данные покупателя.
type Customer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// FullName возвращает имя и фамилию покупателя одной строкой.
func (c Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Consent фиксирует согласия покупателя на момент оформления заказа.
type Consent struct {
	Terms          bool
	DataProcessing bool
	Marketing      bool
	Timestamp      time.Time
}

// UploadedFile — файл, принятый в корзину загрузок до отправки.
type UploadedFile struct {
	Name    string
	Size    int64
	Content []byte
}

// OrderFile — сведения о файле внутри оформленного заказа.
type OrderFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Order — оплаченный заказ на конвертацию с привязкой к покупателю.
// Запись неизменяема после отправки и не сохраняется этим сервисом.
type Order struct {
	OrderID       string
	Timestamp     time.Time
	Customer      Customer
	Consent       Consent
	PackageID     string
	PackageName   string
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	PaymentMethod PaymentMethod
	Files         []OrderFile
}

// SubmissionRequest — заявка на обработку планировки без оплаты.
type SubmissionRequest struct {
	ProjectName string
	PersonName  string
	Email       string
	Files       []UploadedFile
}
