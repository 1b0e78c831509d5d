package aeza

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// OS - образ операционной системы, доступный для установки.
type OS struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

// Recipe - программное обеспечение, устанавливаемое поверх ОС.
type Recipe struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	OSID int64  `json:"os"`
}

// Rate - множитель валюты. Все цены API рассчитаны в рублях и
// преобразуются в другую валюту по формуле из Convert.
type Rate struct {
	Multiplier decimal.Decimal `json:"multiplier"`
	Round      int32           `json:"round"`
}

// Rates - множители по коду валюты.
type Rates map[string]Rate

// Service - услуга (сервер) на стороне провайдера.
type Service struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	IP     string `json:"ip"`
	Status string `json:"status"`
	Link   string `json:"link"`
}

// ProductPrice - цена тарифа за период в базовой валюте.
type ProductPrice struct {
	Hour  decimal.Decimal `json:"hour"`
	Month decimal.Decimal `json:"month"`
}

// Product - тариф, доступный для заказа.
type Product struct {
	ID     int64        `json:"id"`
	Name   string       `json:"name"`
	Type   string       `json:"type"`
	Prices ProductPrice `json:"prices"`
}

// Order - заказ услуги.
type Order struct {
	ID        int64     `json:"id"`
	Status    string    `json:"status"`
	ProductID int64     `json:"productId"`
	Items     []Service `json:"items"`
}

// CreateServiceRequest - параметры заказа сервера.
type CreateServiceRequest struct {
	Count       int            `json:"count"`
	Term        string         `json:"term"`
	Name        string         `json:"name"`
	ProductID   int64          `json:"productId"`
	Parameters  map[string]any `json:"parameters"`
	AutoProlong bool           `json:"autoProlong"`
	Method      string         `json:"method"`
	Backups     bool           `json:"backups"`
}

// Периоды заказа
const (
	TermHour  = "hour"
	TermMonth = "month"
)

// Действия над сервером
const (
	ActionResume  = "resume"
	ActionSuspend = "suspend"
	ActionReboot  = "reboot"
)

// apiResponse - общий конверт ответа API.
type apiResponse struct {
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

type apiError struct {
	Slug    string `json:"slug"`
	Message string `json:"message"`
}

type itemsPayload[T any] struct {
	Items []T `json:"items"`
}

type currenciesPayload struct {
	Currencies Rates `json:"currencies"`
}
