// Package dispatch предоставляет клиент для отправки заказов и заявок
// на бекенд House In Meta.
package dispatch

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/houseinmeta/backend/internal/model"
	"github.com/houseinmeta/backend/internal/validation"
)

// ErrSinglePDFRequired возвращается, когда путь с base64 получает не ровно
// один PDF-файл.
var ErrSinglePDFRequired = errors.New("exactly one PDF file is required")

const (
	requestTimeout = 30 * time.Second
	maxAttempts    = 3
	retryDelay     = 1 * time.Second
)

// RequestError — отказ бекенда уровня валидации (4xx); повтор не выполняется.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("backend rejected request (%d): %s", e.StatusCode, e.Message)
}

// Client инкапсулирует HTTP-взаимодействие с бекендом House In Meta.
// Сетевые сбои и 5xx повторяются до трёх попыток с фиксированной паузой,
// ответы 4xx отдаются вызывающему сразу.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для бекенда по указанному базовому адресу.
func NewClient(baseURL string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = maxAttempts - 1
	rc.RetryWaitMin = retryDelay
	rc.RetryWaitMax = retryDelay
	rc.HTTPClient.Timeout = requestTimeout
	rc.Logger = nil
	rc.CheckRetry = checkRetry

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: rc.StandardClient(),
	}
}

func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return true, nil
	}
	return false, nil
}

type orderUserPayload struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type orderConsentPayload struct {
	TermsAgreed           bool   `json:"termsAgreed"`
	DataProcessingConsent bool   `json:"dataProcessingConsent"`
	MarketingConsent      bool   `json:"marketingConsent"`
	ConsentTimestamp      string `json:"consentTimestamp"`
}

type orderPayload struct {
	OrderID       string              `json:"orderId"`
	Timestamp     string              `json:"timestamp"`
	User          orderUserPayload    `json:"user"`
	GDPR          orderConsentPayload `json:"gdpr"`
	Package       string              `json:"package"`
	Price         float64             `json:"price"`
	Tax           float64             `json:"tax"`
	Total         float64             `json:"total"`
	FilesCount    int                 `json:"filesCount"`
	PaymentMethod string              `json:"paymentMethod"`
	Files         []model.OrderFile   `json:"files"`
}

func newOrderPayload(order model.Order) orderPayload {
	return orderPayload{
		OrderID:   order.OrderID,
		Timestamp: order.Timestamp.UTC().Format(time.RFC3339),
		User: orderUserPayload{
			FirstName: order.Customer.FirstName,
			LastName:  order.Customer.LastName,
			Email:     order.Customer.Email,
			Phone:     order.Customer.Phone,
		},
		GDPR: orderConsentPayload{
			TermsAgreed:           order.Consent.Terms,
			DataProcessingConsent: order.Consent.DataProcessing,
			MarketingConsent:      order.Consent.Marketing,
			ConsentTimestamp:      order.Consent.Timestamp.UTC().Format(time.RFC3339),
		},
		Package:       order.PackageName,
		Price:         order.Subtotal.InexactFloat64(),
		Tax:           order.Tax.InexactFloat64(),
		Total:         order.Total.InexactFloat64(),
		FilesCount:    len(order.Files),
		PaymentMethod: string(order.PaymentMethod),
		Files:         order.Files,
	}
}

// SaveOrder сохраняет заказ на бекенде после успешной оплаты. Заказ
// идемпотентен по orderId: повтор запроса не создаёт дубликата.
func (c *Client) SaveOrder(ctx context.Context, order model.Order) (*Result, error) {
	return c.postJSON(ctx, "/api/orders", newOrderPayload(order))
}

type emailPayload struct {
	To            string            `json:"to"`
	CustomerName  string            `json:"customerName"`
	OrderID       string            `json:"orderId"`
	PackageName   string            `json:"packageName"`
	Price         float64           `json:"price"`
	Tax           float64           `json:"tax"`
	Total         float64           `json:"total"`
	FilesCount    int               `json:"filesCount"`
	Files         []model.OrderFile `json:"files"`
	Timestamp     string            `json:"timestamp"`
	Phone         string            `json:"phone"`
	PaymentMethod string            `json:"paymentMethod"`
}

// SendOrderEmail запрашивает отправку письма-подтверждения заказа.
func (c *Client) SendOrderEmail(ctx context.Context, order model.Order) (*Result, error) {
	payload := emailPayload{
		To:            order.Customer.Email,
		CustomerName:  order.Customer.FullName(),
		OrderID:       order.OrderID,
		PackageName:   order.PackageName,
		Price:         order.Subtotal.InexactFloat64(),
		Tax:           order.Tax.InexactFloat64(),
		Total:         order.Total.InexactFloat64(),
		FilesCount:    len(order.Files),
		Files:         order.Files,
		Timestamp:     order.Timestamp.UTC().Format(time.RFC3339),
		Phone:         order.Customer.Phone,
		PaymentMethod: string(order.PaymentMethod),
	}
	return c.postJSON(ctx, "/api/send-email", payload)
}

// SubmitFloorPlan отправляет заявку с файлами планировки как multipart-форму.
func (c *Client) SubmitFloorPlan(ctx context.Context, req model.SubmissionRequest) (*Result, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"projectName":  req.ProjectName,
		"personName":   req.PersonName,
		"projectEmail": req.Email,
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("write field %s: %w", name, err)
		}
	}

	for _, f := range req.Files {
		part, err := w.CreateFormFile("files", f.Name)
		if err != nil {
			return nil, fmt.Errorf("create form file: %w", err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, fmt.Errorf("write form file: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	return c.post(ctx, "/api/submit-floor-plan", w.FormDataContentType(), buf.Bytes())
}

type pdfPayload struct {
	ProjectName string `json:"projectName"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PDFBase64   string `json:"pdfBase64"`
}

// SubmitPDF отправляет заявку с единственным PDF, закодированным в base64.
func (c *Client) SubmitPDF(ctx context.Context, req model.SubmissionRequest) (*Result, error) {
	if len(req.Files) != 1 {
		return nil, ErrSinglePDFRequired
	}
	f := req.Files[0]
	if !strings.EqualFold(filepath.Ext(f.Name), ".pdf") {
		return nil, ErrSinglePDFRequired
	}
	if f.Size > validation.MaxPDFSize {
		return nil, fmt.Errorf("PDF file is too large (max 50MB)")
	}

	payload := pdfPayload{
		ProjectName: req.ProjectName,
		Name:        req.PersonName,
		Email:       req.Email,
		PDFBase64:   base64.StdEncoding.EncodeToString(f.Content),
	}
	return c.postJSON(ctx, "/api/submit", payload)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (*Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return c.post(ctx, path, "application/json", body)
}

func (c *Client) post(ctx context.Context, path, contentType string, body []byte) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	result, err := NormalizeResponse(raw, resp.StatusCode)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError {
		msg := result.Err
		if msg == "" {
			msg = result.Message
		}
		return nil, &RequestError{StatusCode: resp.StatusCode, Message: msg}
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return result, nil
}
