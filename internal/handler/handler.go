// Package handler содержит HTTP-обработчики API сервиса House In Meta.
package handler

import (
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

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/houseinmeta/backend/internal/basket"
	"github.com/houseinmeta/backend/internal/mail"
	"github.com/houseinmeta/backend/internal/model"
	"github.com/houseinmeta/backend/internal/payment"
	"github.com/houseinmeta/backend/internal/validation"
)

const emailUnavailableMessage = "Email service unavailable - we'll send confirmation when service is available."

// Gateway определяет контракт платёжного провайдера для обработчиков.
type Gateway interface {
	CreateIntent(ctx context.Context, amount int64, currency, paymentMethodID string, meta payment.IntentMetadata) (*payment.Intent, error)
	Configured() bool
}

// Notifier определяет контракт почтовых уведомлений для обработчиков.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, to string, data mail.OrderEmailData) error
	SendFloorPlanAck(ctx context.Context, data mail.FloorPlanEmailData, attachments []mail.Attachment) error
	Configured() bool
}

// Handler реализует HTTP-обработчики API сервиса House In Meta.
type Handler struct {
	gateway  Gateway
	notifier Notifier
	logger   *zap.Logger
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(gateway Gateway, notifier Notifier, logger *zap.Logger) *Handler {
	return &Handler{
		gateway:  gateway,
		notifier: notifier,
		logger:   logger,
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]any{
		"success": false,
		"error":   message,
	})
}

// Health отвечает на проверку доступности сервиса.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"message": "Server is running",
	})
}

type intentRequest struct {
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	PaymentMethodID string `json:"paymentMethodId"`
	OrderMetadata   struct {
		OrderID       string `json:"orderId"`
		CustomerEmail string `json:"customerEmail"`
		PackageName   string `json:"packageName"`
	} `json:"orderMetadata"`
}

// CreatePaymentIntent создаёт платёжное намерение у провайдера.
func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req intentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Amount <= 0 || req.Currency == "" || req.PaymentMethodID == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	intent, err := h.gateway.CreateIntent(r.Context(), req.Amount, req.Currency, req.PaymentMethodID, payment.IntentMetadata{
		OrderID:       req.OrderMetadata.OrderID,
		CustomerEmail: req.OrderMetadata.CustomerEmail,
		PackageName:   req.OrderMetadata.PackageName,
	})
	if err != nil {
		var gwErr *payment.GatewayError
		if errors.As(err, &gwErr) {
			writeError(w, http.StatusBadRequest, gwErr.Message)
			return
		}
		if errors.Is(err, payment.ErrNotConfigured) {
			writeError(w, http.StatusInternalServerError, "Payment service is not configured")
			return
		}
		h.logger.Error("create payment intent error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Payment processing failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"clientSecret": intent.ClientSecret,
		"status":       intent.Status,
	})
}

type orderRequest struct {
	OrderID   string `json:"orderId"`
	Timestamp string `json:"timestamp"`
	User      struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
	} `json:"user"`
	Package       string            `json:"package"`
	Price         float64           `json:"price"`
	Tax           float64           `json:"tax"`
	Total         float64           `json:"total"`
	FilesCount    int               `json:"filesCount"`
	PaymentMethod string            `json:"paymentMethod"`
	Files         []model.OrderFile `json:"files"`
}

// SaveOrder принимает оплаченный заказ. Сервис не хранит заказы: запись
// логируется и подтверждается. Повтор с тем же orderId безопасен.
func (h *Handler) SaveOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.OrderID == "" || req.User.Email == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if !validation.IsValidEmail(req.User.Email) {
		writeError(w, http.StatusBadRequest, "Invalid email address")
		return
	}

	h.logger.Info("order received",
		zap.String("order_id", req.OrderID),
		zap.String("package", req.Package),
		zap.Float64("total", req.Total),
		zap.String("payment_method", req.PaymentMethod),
		zap.Int("files", req.FilesCount))

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"orderId": req.OrderID,
		"message": "Order saved successfully",
	})
}

// OrderStatus возвращает статус заказа по идентификатору.
func (h *Handler) OrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "Missing order ID")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"orderId": orderID,
		"status":  "processing",
		"message": "Order is being processed. You will receive updates via email.",
	})
}

type emailRequest struct {
	To           string            `json:"to"`
	Recipient    string            `json:"recipient"`
	CustomerName string            `json:"customerName"`
	OrderID      string            `json:"orderId"`
	PackageName  string            `json:"packageName"`
	Price        float64           `json:"price"`
	Tax          float64           `json:"tax"`
	Total        float64           `json:"total"`
	Files        []model.OrderFile `json:"files"`
	Timestamp    string            `json:"timestamp"`
}

func (r emailRequest) recipient() string {
	if r.To != "" {
		return r.To
	}
	return r.Recipient
}

// SendEmail отправляет покупателю письмо-подтверждение заказа. Сбой почты
// не считается сбоем запроса: ответ остаётся успешным с emailSent:false.
func (h *Handler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	to := req.recipient()
	if to == "" || req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if !validation.IsValidEmail(to) {
		writeError(w, http.StatusBadRequest, "Invalid email address")
		return
	}

	if !h.notifier.Configured() {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"emailSent": false,
			"message":   emailUnavailableMessage,
		})
		return
	}

	timestamp, err := time.Parse(time.RFC3339, req.Timestamp)
	if err != nil {
		timestamp = time.Now().UTC()
	}

	err = h.notifier.SendOrderConfirmation(r.Context(), to, mail.OrderEmailData{
		CustomerName: req.CustomerName,
		OrderID:      req.OrderID,
		PackageName:  req.PackageName,
		Subtotal:     decimal.NewFromFloat(req.Price),
		Tax:          decimal.NewFromFloat(req.Tax),
		Total:        decimal.NewFromFloat(req.Total),
		Files:        req.Files,
		Timestamp:    timestamp,
	})
	if err != nil {
		h.logger.Warn("order confirmation email failed",
			zap.String("order_id", req.OrderID), zap.Error(err))
		writeJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"emailSent":  false,
			"emailError": err.Error(),
			"message":    "Order processed, but confirmation email could not be sent",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"emailSent": true,
		"message":   "Email sent successfully",
	})
}

// SubmitFloorPlan принимает заявку с файлами планировки как multipart-форму.
func (h *Handler) SubmitFloorPlan(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	projectName := r.FormValue("projectName")
	personName := r.FormValue("personName")
	email := r.FormValue("projectEmail")

	if projectName == "" || personName == "" || email == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if !validation.IsValidEmail(email) {
		writeError(w, http.StatusBadRequest, "Invalid email address")
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "No files uploaded")
		return
	}
	if len(headers) > validation.MaxFiles {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Too many files (max %d)", validation.MaxFiles))
		return
	}

	files, err := readUploadedFiles(headers)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Корзина отклоняет группу целиком при первом невалидном файле.
	b := basket.New()
	if err := b.AddBatch(files); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	submittedAt := time.Now().UTC()
	h.logger.Info("floor plan submission received",
		zap.String("project", projectName),
		zap.String("email", email),
		zap.Int("files", len(files)))

	emailSent := h.sendFloorPlanAck(r.Context(), model.SubmissionRequest{
		ProjectName: projectName,
		PersonName:  personName,
		Email:       email,
		Files:       files,
	}, submittedAt)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "Floor plan submitted successfully",
		"projectName": projectName,
		"filesCount":  len(files),
		"timestamp":   submittedAt.Format(time.RFC3339),
		"emailSent":   emailSent,
	})
}

type pdfRequest struct {
	ProjectName string `json:"projectName"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PDFBase64   string `json:"pdfBase64"`
}

// SubmitPDF принимает заявку с единственным PDF, закодированным в base64.
func (h *Handler) SubmitPDF(w http.ResponseWriter, r *http.Request) {
	var req pdfRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.ProjectName == "" || req.Name == "" || req.Email == "" || req.PDFBase64 == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if !validation.IsValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "Invalid email address")
		return
	}

	content, err := base64.StdEncoding.DecodeString(req.PDFBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid PDF data")
		return
	}
	if int64(len(content)) > validation.MaxPDFSize {
		writeError(w, http.StatusBadRequest, "PDF file is too large (max 50MB)")
		return
	}

	submittedAt := time.Now().UTC()
	filename := fmt.Sprintf("floorplan-%s-%d.pdf",
		strings.ReplaceAll(req.ProjectName, " ", "_"), submittedAt.Unix())

	h.logger.Info("pdf submission received",
		zap.String("project", req.ProjectName),
		zap.String("email", req.Email),
		zap.Int("size", len(content)))

	h.sendFloorPlanAck(r.Context(), model.SubmissionRequest{
		ProjectName: req.ProjectName,
		PersonName:  req.Name,
		Email:       req.Email,
		Files:       []model.UploadedFile{{Name: filename, Size: int64(len(content)), Content: content}},
	}, submittedAt)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"projectName": req.ProjectName,
		"timestamp":   submittedAt.Format(time.RFC3339),
	})
}

// sendFloorPlanAck отправляет подтверждение заявки; без настроенной почты
// отправка пропускается, сбой доставки только логируется.
func (h *Handler) sendFloorPlanAck(ctx context.Context, req model.SubmissionRequest, submittedAt time.Time) bool {
	if !h.notifier.Configured() {
		return false
	}

	orderFiles := make([]model.OrderFile, 0, len(req.Files))
	attachments := make([]mail.Attachment, 0, len(req.Files))
	for _, f := range req.Files {
		orderFiles = append(orderFiles, model.OrderFile{Name: f.Name, Size: f.Size})
		attachments = append(attachments, mail.Attachment{
			Filename:    f.Name,
			Content:     f.Content,
			ContentType: contentTypeFor(f.Name),
		})
	}

	err := h.notifier.SendFloorPlanAck(ctx, mail.FloorPlanEmailData{
		ProjectName: req.ProjectName,
		PersonName:  req.PersonName,
		Email:       req.Email,
		Files:       orderFiles,
		SubmittedAt: submittedAt,
	}, attachments)
	if err != nil {
		h.logger.Warn("floor plan ack email failed",
			zap.String("project", req.ProjectName), zap.Error(err))
		return false
	}
	return true
}

func readUploadedFiles(headers []*multipart.FileHeader) ([]model.UploadedFile, error) {
	files := make([]model.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("cannot read uploaded file %s", fh.Filename)
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("cannot read uploaded file %s", fh.Filename)
		}
		files = append(files, model.UploadedFile{
			Name:    fh.Filename,
			Size:    fh.Size,
			Content: content,
		})
	}
	return files, nil
}

func contentTypeFor(name string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "pdf":
		return "application/pdf"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "zip":
		return "application/zip"
	case "dwg":
		return "image/vnd.dwg"
	}
	return "application/octet-stream"
}
